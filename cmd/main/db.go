package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/CTAG07/wordmachine/pkg/corpus"
)

// initDB opens the SQLite database at path with the driver selected at build
// time and creates every table the server uses.
func initDB(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open(sqliteDriver, path+sqliteParams)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}

	for name, setup := range map[string]func(*sql.DB) error{
		"corpus": corpus.SetupSchema,
		"auth":   setupAuthSchema,
		"stats":  setupStatsSchema,
	} {
		if err = setup(db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to setup %s schema: %w", name, err)
		}
	}
	return db, nil
}
