package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/CTAG07/wordmachine/pkg/corpus"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newImportCmd(global *globalOptions) *cobra.Command {
	var appendWords bool
	cmd := &cobra.Command{
		Use:   "import NAME FILE",
		Short: "Store a word-list file as a named corpus in --db",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeStore, err := global.openStore(cmd)
			if err != nil {
				return err
			}
			defer closeStore()

			words, err := corpus.ReadFile(args[1], global.encoding)
			if err != nil {
				return err
			}
			write := store.CreateCorpus
			if appendWords {
				write = store.AppendWords
			}
			info, err := write(cmd.Context(), args[0], words)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: %s words (revision %d)\n",
				info.Name, humanize.Comma(int64(info.WordCount)), info.Revision)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&appendWords, "append", "a", false, "add to the corpus instead of replacing it")
	return cmd
}

func newListCmd(global *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the corpora stored in --db",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, closeStore, err := global.openStore(cmd)
			if err != nil {
				return err
			}
			defer closeStore()

			infos, err := store.ListCorpora(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "NAME\tWORDS\tREVISION")
			for _, info := range infos {
				_, _ = fmt.Fprintf(tw, "%s\t%s\t%d\n", info.Name, humanize.Comma(int64(info.WordCount)), info.Revision)
			}
			return tw.Flush()
		},
	}
}

func newExportCmd(global *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "export NAME",
		Short: "Write a stored corpus as JSON to standard output",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeStore, err := global.openStore(cmd)
			if err != nil {
				return err
			}
			defer closeStore()
			return store.Export(cmd.Context(), args[0], cmd.OutOrStdout())
		},
	}
}
