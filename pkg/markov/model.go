package markov

import (
	"io"
	"log/slog"
	"time"
)

// BigramExponent compresses the dynamic range of the bigram matrix so that rare
// and common transitions stay distinguishable on a heat-map.
const BigramExponent = 0.33

// Model is a trained trigram model. All fields are computed by Build and are
// read-only afterwards.
type Model struct {
	corpus   *Corpus
	alphabet *Alphabet
	counts   Tensor[int]
	bigram   Matrix[float64]
	trigram  Tensor[float64]
	logger   *slog.Logger
}

// buildOptions is used by Build to configure default options.
type buildOptions struct {
	workers  int
	progress ProgressFunc
	logger   *slog.Logger
}

// BuildOption configures model construction.
type BuildOption func(*buildOptions)

// WithWorkers sets how many goroutines the matrix reductions may use. A value
// of 0 or less uses runtime.NumCPU(). The resulting matrices are identical for
// any worker count.
func WithWorkers(n int) BuildOption {
	return func(o *buildOptions) { o.workers = n }
}

// WithBuildProgress registers a callback receiving the completion ratio of the
// corpus scan.
func WithBuildProgress(fn ProgressFunc) BuildOption {
	return func(o *buildOptions) { o.progress = fn }
}

// WithLogger sets the logger used by the model. By default, all logs are discarded.
func WithLogger(logger *slog.Logger) BuildOption {
	return func(o *buildOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Build discovers the alphabet, counts trigrams and derives both probability
// views of c.
func Build(c *Corpus, opts ...BuildOption) *Model {
	options := &buildOptions{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(options)
	}

	start := time.Now()
	alphabet := NewAlphabet(c)
	counts := CountTrigrams(c, alphabet, options.progress)
	r := NewReducer(alphabet.Size(), options.workers)

	m := &Model{
		corpus:   c,
		alphabet: alphabet,
		counts:   counts,
		bigram:   bigramMatrix(r, counts),
		trigram:  trigramMatrix(r, counts),
		logger:   options.logger,
	}

	m.logger.Debug("Model built",
		slog.Int("words", c.Len()),
		slog.Int("alphabet_size", alphabet.Size()),
		slog.Duration("elapsed", time.Since(start)),
	)
	return m
}

// bigramMatrix derives the smoothed pair-transition matrix:
// pow(count2D / rowSums(count2D), BigramExponent).
func bigramMatrix(r *Reducer, counts Tensor[int]) Matrix[float64] {
	count2D := r.SumAxis0(counts)
	norm := r.Transpose2(r.Tile2(r.Sum(r.Transpose2(count2D))))
	return r.Pow(r.Divide(count2D, norm), BigramExponent)
}

// trigramMatrix derives proba[i][j][k] = count[i][j][k] / Σk count[i][j][k],
// zero where the context (i, j) was never observed.
func trigramMatrix(r *Reducer, counts Tensor[int]) Tensor[float64] {
	sum := r.SumAxis2(counts)
	sumTiled := r.Transpose3(r.Tile3(r.Transpose2(sum)))
	return r.Divide3(counts, sumTiled)
}

// Corpus returns the corpus the model was built from.
func (m *Model) Corpus() *Corpus {
	return m.corpus
}

// Alphabet returns the model's alphabet. Its ordering matches the rows and
// columns of Bigram and the axes of Trigram.
func (m *Model) Alphabet() *Alphabet {
	return m.alphabet
}

// Counts returns the raw trigram count tensor.
func (m *Model) Counts() Tensor[int] {
	return m.counts
}

// Bigram returns the smoothed bigram matrix, intended for visualisation.
func (m *Model) Bigram() Matrix[float64] {
	return m.bigram
}

// Trigram returns the conditional trigram probability tensor used for sampling.
func (m *Model) Trigram() Tensor[float64] {
	return m.trigram
}
