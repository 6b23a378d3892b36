package markov

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"
	"unicode/utf8"
)

// KnownWordMarker is appended to generated words that already exist in the
// corpus when they are not excluded.
const KnownWordMarker = "*"

// Request holds the parameters of one generation call.
type Request struct {
	MinSize         int
	MaxSize         int
	NumWords        int
	ExcludeExisting bool
}

// Bucket is the set of accepted words of one length.
type Bucket map[string]struct{}

// Sorted returns the bucket's words in lexical order.
func (b Bucket) Sorted() []string {
	out := make([]string, 0, len(b))
	for w := range b {
		out = append(out, w)
	}
	sort.Strings(out)
	return out
}

// Buckets maps an absolute word length to the words generated for it.
type Buckets map[int]Bucket

// WordProgressFunc is notified with the bucket length and its new size every
// time a word is accepted.
type WordProgressFunc func(length, count int)

// generateOptions is used by Generate to configure default options.
type generateOptions struct {
	rng      RandomSource
	progress WordProgressFunc
}

// GenerateOption configures a Generate call.
type GenerateOption func(*generateOptions)

// WithRandom sets the random source for this call. Each call should own its
// source; sources are not safe for concurrent use.
func WithRandom(rng RandomSource) GenerateOption {
	return func(o *generateOptions) { o.rng = rng }
}

// WithSeed is shorthand for WithRandom(NewSeededSource(seed)).
func WithSeed(seed uint64) GenerateOption {
	return func(o *generateOptions) { o.rng = NewSeededSource(seed) }
}

// WithWordProgress registers a callback for accepted words.
func WithWordProgress(fn WordProgressFunc) GenerateOption {
	return func(o *generateOptions) { o.progress = fn }
}

// Validate checks req against an alphabet of alphabetSize indices (sentinel
// included).
func (req Request) Validate(alphabetSize int) error {
	if req.MinSize < 0 {
		return invalid("minSize", req.MinSize, "must be greater than or equal to zero")
	}
	if req.MaxSize < req.MinSize {
		return invalid("maxSize", req.MaxSize, "must be greater than or equal to minSize")
	}
	if req.MaxSize-req.MinSize == math.MaxInt {
		return invalid("maxSize", req.MaxSize, "length range is too wide")
	}
	if req.NumWords < 0 {
		return invalid("numWords", req.NumWords, "must be greater than or equal to zero")
	}
	if math.Pow(float64(req.NumWords), 1/float64(req.MinSize)) > float64(alphabetSize-1) {
		return invalid("numWords", req.NumWords, "must be less than or equal to numChars^minSize")
	}
	return nil
}

// Generate samples words from the trigram matrix until every length bucket in
// [MinSize, MaxSize] holds NumWords distinct words.
//
// The loop has no iteration cap: a model that cannot reach a quota keeps
// sampling until ctx is cancelled, in which case ctx.Err() is returned.
func (m *Model) Generate(ctx context.Context, req Request, opts ...GenerateOption) (Buckets, error) {
	if err := req.Validate(m.alphabet.Size()); err != nil {
		return nil, err
	}

	options := &generateOptions{}
	for _, opt := range opts {
		opt(options)
	}
	if options.rng == nil {
		options.rng = newDefaultSource()
	}

	// Buckets are allocated on their first accepted word.
	buckets := make(Buckets)
	if req.NumWords == 0 {
		return buckets, nil
	}

	start := time.Now()
	remaining := req.MaxSize - req.MinSize + 1

	var candidate strings.Builder
	var attempts int64
	for remaining > 0 {
		if attempts&0xff == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		attempts++

		candidate.Reset()
		length, ended := m.sample(&candidate, req.MaxSize, options.rng)
		if !ended || length < req.MinSize {
			continue
		}

		word := candidate.String()
		bucket := buckets[length]
		if len(bucket) == req.NumWords {
			continue
		}
		if m.corpus.Contains(word) {
			if req.ExcludeExisting {
				continue
			}
			word += KnownWordMarker
		}
		if _, ok := bucket[word]; ok {
			continue
		}

		if bucket == nil {
			bucket = make(Bucket, min(req.NumWords, 64))
			buckets[length] = bucket
		}
		bucket[word] = struct{}{}
		if len(bucket) == req.NumWords {
			remaining--
		}
		if options.progress != nil {
			options.progress(length, len(bucket))
		}
	}

	m.logger.DebugContext(ctx, "Generation completed",
		slog.Int("min_size", req.MinSize),
		slog.Int("max_size", req.MaxSize),
		slog.Int("words_per_size", req.NumWords),
		slog.Int64("attempts", attempts),
		slog.Duration("elapsed", time.Since(start)),
	)

	return buckets, nil
}

// sample draws one candidate into sb. It returns the candidate's length in
// characters and whether it ended on the sentinel; false means it was
// truncated at maxSize and must be discarded.
func (m *Model) sample(sb *strings.Builder, maxSize int, rng RandomSource) (int, bool) {
	prev2, prev1 := 0, 0
	length := 0
	for {
		next := WeightedChoice(m.trigram.Row(prev2, prev1), rng)
		if next == 0 {
			return length, true
		}
		if length >= maxSize {
			return length, false
		}
		sb.WriteRune(m.alphabet.runes[next])
		length++
		prev2, prev1 = prev1, next
	}
}

// Length returns the length of a generated word in characters, ignoring the
// known-word marker.
func Length(word string) int {
	return utf8.RuneCountInString(strings.TrimSuffix(word, KnownWordMarker))
}
