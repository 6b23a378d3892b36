package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/CTAG07/wordmachine/pkg/markov"
	"github.com/spf13/cobra"
)

// sessionEnd ends an interactive scoring session.
const sessionEnd = ";"

type scoredCorpus struct {
	name  string
	model *markov.Model
}

func newScoreCmd(global *globalOptions) *cobra.Command {
	var sources []string
	cmd := &cobra.Command{
		Use:   "score -c SOURCE [-c SOURCE...] [WORD...]",
		Short: "Rate how much words look like each corpus",
		Long: "Score every WORD against each corpus as the geometric mean of its bigram\n" +
			"probabilities. Without WORD arguments words are read from standard input,\n" +
			"one per line, until a line holding only ';'.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(sources) == 0 {
				return fmt.Errorf("at least one --corpus is required")
			}
			corpora := make([]scoredCorpus, 0, len(sources))
			for _, source := range sources {
				c, name, err := global.loadCorpus(cmd, source)
				if err != nil {
					return fmt.Errorf("%s: %w", source, err)
				}
				corpora = append(corpora, scoredCorpus{name: name, model: global.buildModel(cmd, name, c)})
			}

			out := cmd.OutOrStdout()
			if len(args) > 0 {
				for _, w := range args {
					printScores(out, w, corpora)
				}
				return nil
			}
			return scoreSession(cmd.InOrStdin(), out, corpora)
		},
	}
	cmd.Flags().StringArrayVarP(&sources, "corpus", "c", nil, "word-list file or stored corpus name (repeatable)")
	return cmd
}

// scoreSession reads words from in until sessionEnd or EOF.
func scoreSession(in io.Reader, out io.Writer, corpora []scoredCorpus) error {
	scanner := bufio.NewScanner(in)
	for {
		_, _ = fmt.Fprintf(out, "Type %s to exit\n> ", sessionEnd)
		if !scanner.Scan() {
			_, _ = fmt.Fprintln(out)
			return scanner.Err()
		}
		word := strings.TrimSpace(scanner.Text())
		if word == sessionEnd {
			return nil
		}
		printScores(out, word, corpora)
	}
}

// printScores writes the score of word for every corpus and flags the best
// match when there is more than one corpus.
func printScores(out io.Writer, word string, corpora []scoredCorpus) {
	scores := make([]float64, len(corpora))
	best := 0.0
	for i, c := range corpora {
		scores[i] = c.model.Score(word)
		best = max(best, scores[i])
	}

	_, _ = fmt.Fprintf(out, "Score of %q:\n", word)
	for i, c := range corpora {
		marker := ""
		if len(corpora) > 1 && scores[i] == best {
			marker = " <-- most likely"
		}
		_, _ = fmt.Fprintf(out, " %s : %6.2f %%%s\n", c.name, scores[i]*100, marker)
	}
}
