package corpus

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/CTAG07/wordmachine/pkg/markov"
)

// SetupSchema initializes the corpus tables in the provided database. It is
// idempotent and safe to call on an already-initialized database.
func SetupSchema(db *sql.DB) error {
	const (
		schemaCorpora = `
CREATE TABLE IF NOT EXISTS corpora (
    corpus_id   INTEGER PRIMARY KEY,
    corpus_name TEXT NOT NULL UNIQUE,
    revision    INTEGER NOT NULL DEFAULT 1
);
`
		schemaWords = `
CREATE TABLE IF NOT EXISTS corpus_words (
    corpus_id INTEGER NOT NULL,
    word      TEXT NOT NULL,
    position  INTEGER NOT NULL,
    PRIMARY KEY (corpus_id, word)
);
`
	)

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	if _, err = tx.Exec(schemaCorpora); err != nil {
		return fmt.Errorf("could not create corpora schema: %w", err)
	}
	if _, err = tx.Exec(schemaWords); err != nil {
		return fmt.Errorf("could not create words schema: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}
	return nil
}

// Info describes a stored corpus. Revision changes every time the corpus'
// words change, so it can key caches of models built from it.
type Info struct {
	Id        int    `json:"id"`
	Name      string `json:"name"`
	WordCount int    `json:"word_count"`
	Revision  int    `json:"revision"`
}

// Exported is the JSON form of a corpus used by Export and Import.
type Exported struct {
	Name  string   `json:"name"`
	Words []string `json:"words"`
}

// Store keeps named corpora in SQLite. It holds prepared statements for the
// read paths; writes run in their own transactions.
type Store struct {
	db              *sql.DB
	stmtGetInfo     *sql.Stmt
	stmtListCorpora *sql.Stmt
	stmtGetWords    *sql.Stmt
	logger          *slog.Logger
}

// NewStore prepares the statements used by the store.
func NewStore(db *sql.DB) (*Store, error) {
	stmtGetInfo, err := db.Prepare(`
SELECT c.corpus_id, c.revision, (SELECT COUNT(*) FROM corpus_words w WHERE w.corpus_id = c.corpus_id)
FROM corpora c WHERE c.corpus_name = ?;`)
	if err != nil {
		return nil, err
	}

	stmtListCorpora, err := db.Prepare(`
SELECT c.corpus_id, c.corpus_name, c.revision, (SELECT COUNT(*) FROM corpus_words w WHERE w.corpus_id = c.corpus_id)
FROM corpora c ORDER BY c.corpus_name;`)
	if err != nil {
		return nil, err
	}

	stmtGetWords, err := db.Prepare(`SELECT word FROM corpus_words WHERE corpus_id = ? ORDER BY position;`)
	if err != nil {
		return nil, err
	}

	return &Store{
		db:              db,
		stmtGetInfo:     stmtGetInfo,
		stmtListCorpora: stmtListCorpora,
		stmtGetWords:    stmtGetWords,
		logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, nil
}

// Close releases the prepared statements.
func (s *Store) Close() {
	_ = s.stmtGetInfo.Close()
	_ = s.stmtListCorpora.Close()
	_ = s.stmtGetWords.Close()
}

// SetLogger sets the logger for the Store. By default, all logs are discarded.
func (s *Store) SetLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// GetInfo returns the metadata of the named corpus, or ErrNotFound.
func (s *Store) GetInfo(ctx context.Context, name string) (Info, error) {
	info := Info{Name: name}
	err := s.stmtGetInfo.QueryRowContext(ctx, name).Scan(&info.Id, &info.Revision, &info.WordCount)
	if errors.Is(err, sql.ErrNoRows) {
		return Info{}, fmt.Errorf("%w: corpus %q", ErrNotFound, name)
	}
	if err != nil {
		return Info{}, err
	}
	return info, nil
}

// ListCorpora returns every stored corpus ordered by name.
func (s *Store) ListCorpora(ctx context.Context) ([]Info, error) {
	rows, err := s.stmtListCorpora.QueryContext(ctx)
	if err != nil {
		return nil, err
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	infos := make([]Info, 0)
	for rows.Next() {
		var info Info
		if err = rows.Scan(&info.Id, &info.Name, &info.Revision, &info.WordCount); err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return infos, nil
}

// GetWords returns the words of the named corpus in insertion order.
func (s *Store) GetWords(ctx context.Context, name string) ([]string, error) {
	info, err := s.GetInfo(ctx, name)
	if err != nil {
		return nil, err
	}

	rows, err := s.stmtGetWords.QueryContext(ctx, info.Id)
	if err != nil {
		return nil, err
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	words := make([]string, 0, info.WordCount)
	for rows.Next() {
		var w string
		if err = rows.Scan(&w); err != nil {
			return nil, err
		}
		words = append(words, w)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return words, nil
}

// Corpus loads the named corpus as a markov.Corpus together with its metadata.
func (s *Store) Corpus(ctx context.Context, name string) (*markov.Corpus, Info, error) {
	info, err := s.GetInfo(ctx, name)
	if err != nil {
		return nil, Info{}, err
	}
	words, err := s.GetWords(ctx, name)
	if err != nil {
		return nil, Info{}, err
	}
	return markov.NewCorpus(words), info, nil
}

// CreateCorpus stores words under name, replacing the words of an existing
// corpus with the same name.
func (s *Store) CreateCorpus(ctx context.Context, name string, words []string) (Info, error) {
	return s.write(ctx, name, words, true)
}

// AppendWords adds words to the named corpus, creating it when needed. Words
// already present are ignored.
func (s *Store) AppendWords(ctx context.Context, name string, words []string) (Info, error) {
	return s.write(ctx, name, words, false)
}

// ValidateName reports whether name can be used for a stored corpus. A name
// is a single path element.
func ValidateName(name string) error {
	switch {
	case name == "", name == ".", name == "..":
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	case strings.ContainsAny(name, `/\`+"\x00"):
		return fmt.Errorf("%w: %q must not contain path separators", ErrInvalidName, name)
	}
	return nil
}

func (s *Store) write(ctx context.Context, name string, words []string, replace bool) (Info, error) {
	if err := ValidateName(name); err != nil {
		return Info{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Info{}, fmt.Errorf("could not begin transaction: %w", err)
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	var corpusID int
	err = tx.QueryRowContext(ctx, `
INSERT INTO corpora (corpus_name) VALUES (?)
ON CONFLICT(corpus_name) DO UPDATE SET revision = revision + 1
RETURNING corpus_id;`, name).Scan(&corpusID)
	if err != nil {
		return Info{}, fmt.Errorf("failed to upsert corpus '%s': %w", name, err)
	}

	if replace {
		if _, err = tx.ExecContext(ctx, `DELETE FROM corpus_words WHERE corpus_id = ?`, corpusID); err != nil {
			return Info{}, fmt.Errorf("failed to clear words of corpus '%s': %w", name, err)
		}
	}

	var next int
	err = tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(position) + 1, 0) FROM corpus_words WHERE corpus_id = ?`, corpusID).Scan(&next)
	if err != nil {
		return Info{}, fmt.Errorf("failed to read corpus position: %w", err)
	}

	stmtInsertWord, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO corpus_words (corpus_id, word, position) VALUES (?, ?, ?);`)
	if err != nil {
		return Info{}, fmt.Errorf("failed to prepare word insert statement: %w", err)
	}
	defer func(stmt *sql.Stmt) {
		_ = stmt.Close()
	}(stmtInsertWord)

	var inserted int64
	for _, w := range words {
		w = markov.Normalize(w)
		if w == "" {
			continue
		}
		res, err := stmtInsertWord.ExecContext(ctx, corpusID, w, next)
		if err != nil {
			return Info{}, fmt.Errorf("failed to insert word '%s': %w", w, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted += n
			next++
		}
	}

	if err = tx.Commit(); err != nil {
		return Info{}, fmt.Errorf("could not commit transaction: %w", err)
	}

	s.logger.InfoContext(ctx, "Corpus updated",
		slog.String("corpus_name", name),
		slog.Int("corpus_id", corpusID),
		slog.Bool("replaced", replace),
		slog.Int64("words_inserted", inserted),
	)

	return s.GetInfo(ctx, name)
}

// RemoveCorpus deletes the named corpus and its words.
func (s *Store) RemoveCorpus(ctx context.Context, name string) error {
	info, err := s.GetInfo(ctx, name)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	if _, err = tx.ExecContext(ctx, "DELETE FROM corpus_words WHERE corpus_id = ?", info.Id); err != nil {
		return fmt.Errorf("failed to remove words for corpus %d: %w", info.Id, err)
	}
	if _, err = tx.ExecContext(ctx, "DELETE FROM corpora WHERE corpus_id = ?", info.Id); err != nil {
		return fmt.Errorf("failed to remove corpus %d: %w", info.Id, err)
	}

	s.logger.InfoContext(ctx, "Corpus removed",
		slog.String("corpus_name", name),
		slog.Int("corpus_id", info.Id),
	)

	return tx.Commit()
}

// Export writes the named corpus as indented JSON to w.
func (s *Store) Export(ctx context.Context, name string, w io.Writer) error {
	words, err := s.GetWords(ctx, name)
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "Corpus exported",
		slog.String("corpus_name", name),
		slog.Int("words_exported", len(words)),
	)

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(Exported{Name: name, Words: words})
}

// Import reads a corpus written by Export and merges its words into the
// stored corpus of the same name, creating it when needed.
func (s *Store) Import(ctx context.Context, r io.Reader) (Info, error) {
	var imported Exported
	if err := json.NewDecoder(r).Decode(&imported); err != nil {
		return Info{}, fmt.Errorf("failed to decode json corpus: %w", err)
	}
	return s.AppendWords(ctx, imported.Name, imported.Words)
}
