package main

import (
	"bytes"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/CTAG07/wordmachine/pkg/corpus"
	"github.com/CTAG07/wordmachine/pkg/heatmap"
	"github.com/CTAG07/wordmachine/pkg/markov"
	"github.com/dustin/go-humanize"
	"github.com/natefinch/atomic"
	"github.com/spf13/cobra"
)

type generateOptions struct {
	*globalOptions
	minSize         int
	maxSize         int
	wordsPerSize    int
	excludeExisting bool
	seed            uint64
	output          string
	skipDigits      bool
}

func newGenerateCmd(global *globalOptions) *cobra.Command {
	opts := &generateOptions{globalOptions: global}
	cmd := &cobra.Command{
		Use:   "generate SOURCE...",
		Short: "Write a heat-map and invented words for each word list",
		Long: "For every SOURCE (a word-list file, or a corpus name with --db) build the trigram\n" +
			"model and write <output>/<name>/matrix.svg and one words_<n>.txt per length.\n" +
			"Words that already exist in the source end with '*' unless --exclude-existing is set.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, source := range args {
				if err := opts.run(cmd, source); err != nil {
					return fmt.Errorf("%s: %w", source, err)
				}
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.IntVarP(&opts.minSize, "min-word-size", "m", 3, "minimum word length")
	flags.IntVarP(&opts.maxSize, "max-word-size", "M", 12, "maximum word length")
	flags.IntVarP(&opts.wordsPerSize, "words-per-size", "w", 100, "words to generate for each length")
	flags.BoolVarP(&opts.excludeExisting, "exclude-existing", "x", false, "drop generated words that exist in the source")
	flags.Uint64Var(&opts.seed, "seed", 0, "seed for reproducible output (random when unset)")
	flags.StringVarP(&opts.output, "output", "o", "output", "output directory")
	flags.BoolVar(&opts.skipDigits, "skip-digits", true, "leave digits out of the heat-map")
	return cmd
}

func (o *generateOptions) run(cmd *cobra.Command, source string) error {
	out := cmd.OutOrStdout()
	logger := o.logger(cmd)

	c, name, err := o.loadCorpus(cmd, source)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "Generating words for %s (%s words)\n", name, humanize.Comma(int64(c.Len())))

	req := markov.Request{
		MinSize:         o.minSize,
		MaxSize:         o.maxSize,
		NumWords:        o.wordsPerSize,
		ExcludeExisting: o.excludeExisting,
	}
	m := o.buildModel(cmd, name, c)
	if err = req.Validate(m.Alphabet().Size()); err != nil {
		return err
	}

	if err = corpus.ValidateName(name); err != nil {
		return err
	}
	dir := filepath.Join(o.output, name)
	if err = os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to clear output directory: %w", err)
	}
	if err = os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	var written uint64
	svg := heatmap.RenderString(m.Alphabet(), m.Bigram(), heatmap.Options{
		Title:      "twm " + Version,
		SkipDigits: o.skipDigits,
	})
	if err = atomic.WriteFile(filepath.Join(dir, "matrix.svg"), strings.NewReader(svg)); err != nil {
		return fmt.Errorf("failed to write matrix: %w", err)
	}
	written += uint64(len(svg))

	genOpts := []markov.GenerateOption{markov.WithWordProgress(bucketProgress(cmd, req))}
	if cmd.Flags().Changed("seed") {
		genOpts = append(genOpts, markov.WithSeed(o.seed))
	}
	buckets, err := m.Generate(cmd.Context(), req, genOpts...)
	_, _ = fmt.Fprintln(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	total := 0
	for length := req.MinSize; length <= req.MaxSize; length++ {
		var buf bytes.Buffer
		for _, w := range buckets[length].Sorted() {
			buf.WriteString(w)
			buf.WriteByte('\n')
		}
		total += len(buckets[length])
		written += uint64(buf.Len())
		path := filepath.Join(dir, fmt.Sprintf("words_%d.txt", length))
		if err = atomic.WriteFile(path, &buf); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
	}

	logger.Debug("Output written", "dir", dir, "bytes", written)
	_, _ = fmt.Fprintf(out, "Done: %s words, %s written to %s\n",
		humanize.Comma(int64(total)), humanize.Bytes(written), dir)
	return nil
}

// bucketProgress prints the size of every length bucket seen so far on one line.
func bucketProgress(cmd *cobra.Command, req markov.Request) markov.WordProgressFunc {
	errOut := cmd.ErrOrStderr()
	counts := make(map[int]int)
	width := len(fmt.Sprint(req.NumWords))
	return func(length, count int) {
		counts[length] = count
		parts := make([]string, 0, len(counts))
		for _, l := range slices.Sorted(maps.Keys(counts)) {
			parts = append(parts, fmt.Sprintf("%*d", width, counts[l]))
		}
		_, _ = fmt.Fprintf(errOut, "\r%s", strings.Join(parts, " / "))
	}
}
