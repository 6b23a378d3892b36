package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// setupTestServer builds a Server over a fresh database and config file.
func setupTestServer(t *testing.T) (*Server, *ConfigManager) {
	t.Helper()
	dir := t.TempDir()

	cm, err := NewConfigManager(filepath.Join(dir, "config.json"))
	require.NoError(t, err)
	cfg := cm.Get()
	cfg.Server.DatabasePath = filepath.Join(dir, "test.db")
	cfg.Generation.Workers = 1
	cfg.Generation.WordsPerSize = 10
	cfg.Generation.MaxWordsPerSize = 50
	cfg.Generation.TimeoutSec = 10
	require.NoError(t, cm.Update(cfg))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cm.SetLogger(logger)

	db, err := initDB(cfg.Server.DatabasePath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	s, err := NewServer(cm, logger, db, make(chan string, 1))
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s, cm
}

// do sends a request through the server's handler.
func do(t *testing.T, s *Server, method, target, body string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealthAndVersion(t *testing.T) {
	s, _ := setupTestServer(t)

	rec := do(t, s, http.MethodGet, "/api/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", decode[map[string]string](t, rec)["status"])

	rec = do(t, s, http.MethodGet, "/api/server/version", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, Version, decode[VersionInfo](t, rec).Version)

	rec = do(t, s, http.MethodPost, "/api/health", "")
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestIndexPage(t *testing.T) {
	s, _ := setupTestServer(t)

	rec := do(t, s, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "The Word Machine")
	require.Contains(t, rec.Body.String(), `value="12"`)

	rec = do(t, s, http.MethodGet, "/favicon.ico", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestParseLogLevel(t *testing.T) {
	testCases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"verbose": slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for in, want := range testCases {
		require.Equal(t, want, parseLogLevel(in), in)
	}
}

func TestConfig_DefaultFileAndValidation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, 3, cfg.Generation.MinSize)
	require.Equal(t, 12, cfg.Generation.MaxSize)
	require.Equal(t, 100, cfg.Generation.WordsPerSize)

	// The defaults were written and load back identically.
	again, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, cfg, again)

	require.Equal(t, 64, cfg.Generation.MaxWordSize)

	bad := DefaultConfig()
	bad.Generation.MaxSize = 1
	require.Error(t, bad.Validate())
	bad = DefaultConfig()
	bad.Generation.MaxSize = 65
	require.Error(t, bad.Validate())
	require.Error(t, (&Config{}).Validate())
}

func TestServerConfigAPI(t *testing.T) {
	s, cm := setupTestServer(t)

	rec := do(t, s, http.MethodGet, "/api/server/config", "")
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[Config](t, rec)
	require.Equal(t, 50, got.Generation.MaxWordsPerSize)

	got.Generation.WordsPerSize = 7
	body, err := json.Marshal(got)
	require.NoError(t, err)
	rec = do(t, s, http.MethodPut, "/api/server/config", string(body))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 7, cm.Generation().WordsPerSize)

	got.Generation.MinSize = -1
	body, err = json.Marshal(got)
	require.NoError(t, err)
	rec = do(t, s, http.MethodPut, "/api/server/config", string(body))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, 7, cm.Generation().WordsPerSize)
}
