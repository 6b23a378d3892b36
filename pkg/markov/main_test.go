package markov

import (
	"go/build"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"testing"
)

// buildTestModel builds a single-worker model over words.
func buildTestModel(t testing.TB, words ...string) *Model {
	t.Helper()
	return Build(NewCorpus(words), WithWorkers(1))
}

// sequenceSource replays fixed draws, then repeats the last one.
type sequenceSource struct {
	draws []float64
	pos   int
}

func (s *sequenceSource) Float64() float64 {
	v := s.draws[s.pos]
	if s.pos < len(s.draws)-1 {
		s.pos++
	}
	return v
}

var (
	benchmarkWords []string
	wordsOnce      sync.Once
)

// benchmarkCorpus collects identifiers from a few Go source files to get a
// realistic, moderately large word list.
func benchmarkCorpus() []string {
	wordsOnce.Do(func() {
		goRoot := build.Default.GOROOT
		filesToRead := []string{
			filepath.Join(goRoot, "src/net/http/server.go"),
			filepath.Join(goRoot, "src/go/parser/parser.go"),
			filepath.Join(goRoot, "src/encoding/json/encode.go"),
		}
		ident := regexp.MustCompile(`[A-Za-z]{3,}`)
		for _, file := range filesToRead {
			content, err := os.ReadFile(file)
			if err != nil {
				continue
			}
			benchmarkWords = append(benchmarkWords, ident.FindAllString(string(content), -1)...)
		}
		if len(benchmarkWords) == 0 {
			benchmarkWords = []string{"fallback", "corpus", "for", "benchmarking", "words", "machine"}
		}
	})
	return benchmarkWords
}
