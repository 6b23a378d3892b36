// Command twm generates invented words from word lists and scores words
// against them.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/CTAG07/wordmachine/pkg/corpus"
	"github.com/CTAG07/wordmachine/pkg/markov"
	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"
)

var Version = "dev"

// globalOptions are the flags shared by every subcommand.
type globalOptions struct {
	encoding string
	workers  int
	dbPath   string
	verbose  bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}
	root := &cobra.Command{
		Use:          "twm",
		Short:        "The Word Machine: invent words that look like a word list",
		Version:      Version,
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.encoding, "encoding", "e", "utf-8", "character encoding of word-list files")
	flags.IntVar(&opts.workers, "workers", 0, "goroutines used to build models (0 uses every CPU)")
	flags.StringVar(&opts.dbPath, "db", "", "read corpora by name from this SQLite database instead of files")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newGenerateCmd(opts),
		newScoreCmd(opts),
		newImportCmd(opts),
		newListCmd(opts),
		newExportCmd(opts),
	)
	return root
}

func (o *globalOptions) logger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelWarn
	if o.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

// openStore opens the corpus database named by --db.
func (o *globalOptions) openStore(cmd *cobra.Command) (*corpus.Store, func(), error) {
	if o.dbPath == "" {
		return nil, nil, fmt.Errorf("--db is required for this command")
	}
	db, err := sql.Open("sqlite", o.dbPath+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, nil, err
	}
	if err = corpus.SetupSchema(db); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	store, err := corpus.NewStore(db)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	store.SetLogger(o.logger(cmd))
	return store, func() {
		store.Close()
		_ = db.Close()
	}, nil
}

// loadCorpus resolves source either as a stored corpus name (with --db) or
// as a word-list file, and returns it with a short display name.
func (o *globalOptions) loadCorpus(cmd *cobra.Command, source string) (*markov.Corpus, string, error) {
	if o.dbPath != "" {
		store, closeStore, err := o.openStore(cmd)
		if err != nil {
			return nil, "", err
		}
		defer closeStore()
		c, _, err := store.Corpus(cmd.Context(), source)
		return c, source, err
	}

	c, err := corpus.Load(source, o.encoding)
	if err != nil {
		return nil, "", err
	}
	base := filepath.Base(source)
	return c, strings.TrimSuffix(base, filepath.Ext(base)), nil
}

// buildModel builds the model of c, reporting the corpus scan on stderr.
func (o *globalOptions) buildModel(cmd *cobra.Command, name string, c *markov.Corpus) *markov.Model {
	errOut := cmd.ErrOrStderr()
	last := -1
	m := markov.Build(c,
		markov.WithWorkers(o.workers),
		markov.WithLogger(o.logger(cmd)),
		markov.WithBuildProgress(func(ratio float64) {
			if pct := int(ratio * 100); pct != last {
				last = pct
				_, _ = fmt.Fprintf(errOut, "\r%s %3d%%", name, pct)
			}
		}),
	)
	_, _ = fmt.Fprintln(errOut)
	return m
}
