package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
)

const statsSchema = `
CREATE TABLE IF NOT EXISTS generation_log (
    session_id       TEXT    PRIMARY KEY,
    corpus_name      TEXT    NOT NULL,
    min_size         INTEGER NOT NULL,
    max_size         INTEGER NOT NULL,
    words_per_size   INTEGER NOT NULL,
    exclude_existing INTEGER NOT NULL,
    words_generated  INTEGER NOT NULL,
    duration_ms      INTEGER NOT NULL,
    created_at       INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_generation_log_created ON generation_log (created_at);
`

const (
	defaultRecentLimit = 20
	maxRecentLimit     = 100
)

// GenerationRecord is one completed /api/generate call.
type GenerationRecord struct {
	SessionID       string        `json:"session_id"`
	Corpus          string        `json:"corpus"`
	MinSize         int           `json:"min_size"`
	MaxSize         int           `json:"max_size"`
	WordsPerSize    int           `json:"words_per_size"`
	ExcludeExisting bool          `json:"exclude_existing"`
	WordsGenerated  int           `json:"words_generated"`
	Duration        time.Duration `json:"duration_ns"`
	CreatedAt       time.Time     `json:"created_at"`
	When            string        `json:"when"`
}

// GenerationSummary provides a high-level overview of the generation log.
type GenerationSummary struct {
	TotalSessions  int64  `json:"total_sessions"`
	TotalWords     int64  `json:"total_words"`
	TotalWordsText string `json:"total_words_text"`
	TopCorpus      string `json:"top_corpus"`
	LastGenerated  string `json:"last_generated"`
}

// StatsAPI records generation sessions and serves statistics about them.
type StatsAPI struct {
	db     *sql.DB
	logger *slog.Logger
}

func setupStatsSchema(db *sql.DB) error {
	_, err := db.Exec(statsSchema)
	return err
}

func NewStatsAPI(db *sql.DB, logger *slog.Logger) *StatsAPI {
	return &StatsAPI{
		db:     db,
		logger: logger,
	}
}

func (s *StatsAPI) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/stats/summary", requireScope(scopeStatsRead, s.handleSummary))
	mux.HandleFunc("/api/stats/recent", requireScope(scopeStatsRead, s.handleRecent))
}

// LogGeneration appends rec to the generation log.
func (s *StatsAPI) LogGeneration(ctx context.Context, rec GenerationRecord) error {
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO generation_log (session_id, corpus_name, min_size, max_size, words_per_size,
                                    exclude_existing, words_generated, duration_ms, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
    `, rec.SessionID, rec.Corpus, rec.MinSize, rec.MaxSize, rec.WordsPerSize,
		rec.ExcludeExisting, rec.WordsGenerated, rec.Duration.Milliseconds(), rec.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to insert generation log: %w", err)
	}
	return nil
}

func (s *StatsAPI) handleSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var summary GenerationSummary
	var last sql.NullInt64
	err := s.db.QueryRowContext(r.Context(),
		"SELECT COUNT(*), COALESCE(SUM(words_generated), 0), MAX(created_at) FROM generation_log").
		Scan(&summary.TotalSessions, &summary.TotalWords, &last)
	if err != nil {
		s.logger.Error("Failed to summarise generation log", "error", err)
		respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Database error: %v", err))
		return
	}
	_ = s.db.QueryRowContext(r.Context(), `
        SELECT corpus_name FROM generation_log
        GROUP BY corpus_name ORDER BY COUNT(*) DESC, corpus_name LIMIT 1`).Scan(&summary.TopCorpus)

	summary.TotalWordsText = humanize.Comma(summary.TotalWords)
	summary.LastGenerated = "never"
	if last.Valid {
		summary.LastGenerated = humanize.Time(time.UnixMilli(last.Int64))
	}
	respondWithJSON(w, http.StatusOK, summary)
}

func (s *StatsAPI) handleRecent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	limit := defaultRecentLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			respondWithError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxRecentLimit)
	}

	rows, err := s.db.QueryContext(r.Context(), `
        SELECT session_id, corpus_name, min_size, max_size, words_per_size, exclude_existing,
               words_generated, duration_ms, created_at
        FROM generation_log ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		s.logger.Error("Failed to query generation log", "error", err)
		respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Database error: %v", err))
		return
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	results := make([]GenerationRecord, 0, limit)
	for rows.Next() {
		var rec GenerationRecord
		var durationMs, createdAt int64
		err = rows.Scan(&rec.SessionID, &rec.Corpus, &rec.MinSize, &rec.MaxSize, &rec.WordsPerSize,
			&rec.ExcludeExisting, &rec.WordsGenerated, &durationMs, &createdAt)
		if err != nil {
			s.logger.Error("Failed to scan generation log", "error", err)
			continue
		}
		rec.Duration = time.Duration(durationMs) * time.Millisecond
		rec.CreatedAt = time.UnixMilli(createdAt).UTC()
		rec.When = humanize.Time(rec.CreatedAt)
		results = append(results, rec)
	}
	respondWithJSON(w, http.StatusOK, results)
}
