package main

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

const authSchema = `
CREATE TABLE IF NOT EXISTS api_keys (
    id           INTEGER PRIMARY KEY,
    key_hash     TEXT    NOT NULL UNIQUE,
    scopes       TEXT    NOT NULL,
    description  TEXT    NOT NULL DEFAULT '',
    created_at   INTEGER NOT NULL,
    last_used_at INTEGER
);
`

// authHeader carries the raw API key on every authenticated request.
const authHeader = "twm-auth"

// rawKeyPrefix marks strings handed out as API keys.
const rawKeyPrefix = "twm_"

// Scopes understood by the API. A key holding scopeMaster may do anything.
const (
	scopeMaster        = "*"
	scopeCorporaRead   = "corpora:read"
	scopeCorporaWrite  = "corpora:write"
	scopeGenerate      = "generate"
	scopeStatsRead     = "stats:read"
	scopeServerConfig  = "server:config"
	scopeServerControl = "server:control"
	scopeAuthManage    = "auth:manage"
)

var knownScopes = []string{
	scopeMaster, scopeCorporaRead, scopeCorporaWrite, scopeGenerate,
	scopeStatsRead, scopeServerConfig, scopeServerControl, scopeAuthManage,
}

type ctxKey int

const scopesCtxKey ctxKey = iota

// scopeSet is the set of scopes granted to the current request.
type scopeSet map[string]struct{}

func (s scopeSet) has(scope string) bool {
	if _, ok := s[scopeMaster]; ok {
		return true
	}
	_, ok := s[scope]
	return ok
}

func (s scopeSet) list() []string {
	out := make([]string, 0, len(s))
	for scope := range s {
		out = append(out, scope)
	}
	slices.Sort(out)
	return out
}

func parseScopes(stored string) scopeSet {
	set := make(scopeSet)
	for _, s := range strings.Fields(stored) {
		set[s] = struct{}{}
	}
	return set
}

func setupAuthSchema(db *sql.DB) error {
	_, err := db.Exec(authSchema)
	return err
}

// keyStore holds the prepared statements behind API key lookups. Only hashes
// of keys are stored.
type keyStore struct {
	stmtCount    *sql.Stmt
	stmtLookup   *sql.Stmt
	stmtTouch    *sql.Stmt
	stmtInsert   *sql.Stmt
	stmtDelete   *sql.Stmt
	stmtListKeys *sql.Stmt
}

func newKeyStore(db *sql.DB) (*keyStore, error) {
	ks := &keyStore{}
	for _, q := range []struct {
		dst   **sql.Stmt
		query string
	}{
		{&ks.stmtCount, `SELECT COUNT(*) FROM api_keys;`},
		{&ks.stmtLookup, `SELECT id, scopes FROM api_keys WHERE key_hash = ?;`},
		{&ks.stmtTouch, `UPDATE api_keys SET last_used_at = ? WHERE id = ?;`},
		{&ks.stmtInsert, `INSERT INTO api_keys (key_hash, description, scopes, created_at) VALUES (?, ?, ?, ?) RETURNING id;`},
		{&ks.stmtDelete, `DELETE FROM api_keys WHERE id = ?;`},
		{&ks.stmtListKeys, `SELECT id, description, scopes, created_at, last_used_at FROM api_keys ORDER BY id;`},
	} {
		stmt, err := db.Prepare(q.query)
		if err != nil {
			ks.close()
			return nil, fmt.Errorf("failed to prepare api key statement: %w", err)
		}
		*q.dst = stmt
	}
	return ks, nil
}

func (ks *keyStore) close() {
	for _, stmt := range []*sql.Stmt{ks.stmtCount, ks.stmtLookup, ks.stmtTouch, ks.stmtInsert, ks.stmtDelete, ks.stmtListKeys} {
		if stmt != nil {
			_ = stmt.Close()
		}
	}
}

func (ks *keyStore) count(ctx context.Context) (int, error) {
	var n int
	err := ks.stmtCount.QueryRowContext(ctx).Scan(&n)
	return n, err
}

// resolve returns the scopes of rawKey and records its use. sql.ErrNoRows means
// the key is unknown.
func (ks *keyStore) resolve(ctx context.Context, rawKey string) (scopeSet, error) {
	var (
		id     int
		stored string
	)
	if err := ks.stmtLookup.QueryRowContext(ctx, hashAPIKey(rawKey)).Scan(&id, &stored); err != nil {
		return nil, err
	}
	if _, err := ks.stmtTouch.ExecContext(ctx, time.Now().UnixMilli(), id); err != nil {
		return nil, fmt.Errorf("failed to record key use: %w", err)
	}
	return parseScopes(stored), nil
}

// AuthAPI manages API keys and authenticates requests against them.
type AuthAPI struct {
	keys   *keyStore
	logger *slog.Logger
}

func NewAuthAPI(db *sql.DB, logger *slog.Logger) (*AuthAPI, error) {
	keys, err := newKeyStore(db)
	if err != nil {
		return nil, err
	}
	return &AuthAPI{keys: keys, logger: logger}, nil
}

// Close releases the prepared statements.
func (a *AuthAPI) Close() {
	a.keys.close()
}

// RegisterRoutes sets up the routing for all /api/auth endpoints.
func (a *AuthAPI) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/auth/me", a.handleMe)
	mux.HandleFunc("/api/auth/keys", requireScope(scopeAuthManage, a.handleKeys))
	mux.HandleFunc("/api/auth/keys/", requireScope(scopeAuthManage, a.handleKeyByID))
}

// APIKeyInfo describes a stored key. The raw key is never returned here.
type APIKeyInfo struct {
	ID          int       `json:"id"`
	Scopes      []string  `json:"scopes"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	LastUsed    string    `json:"last_used"`
}

// CreateKeyRequest is the JSON body of POST /api/auth/keys.
type CreateKeyRequest struct {
	Scopes      []string `json:"scopes"`
	Description string   `json:"description"`
}

// CreateKeyResponse is returned once, when a key is created.
type CreateKeyResponse struct {
	ID     int      `json:"id"`
	RawKey string   `json:"raw_key"`
	Scopes []string `json:"scopes"`
}

// Authenticate resolves the key in the twm-auth header into a scope set.
// While no key exists the API is open and every request gets the master scope.
func (a *AuthAPI) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		keyCount, err := a.keys.count(r.Context())
		if err != nil {
			a.logger.Error("Failed to count API keys", "error", err)
			respondWithError(w, http.StatusInternalServerError, "Internal Server Error")
			return
		}

		scopes := scopeSet{scopeMaster: {}}
		if keyCount > 0 {
			rawKey := r.Header.Get(authHeader)
			if rawKey == "" {
				respondWithError(w, http.StatusUnauthorized, "Missing "+authHeader+" header")
				return
			}
			scopes, err = a.keys.resolve(r.Context(), rawKey)
			switch {
			case errors.Is(err, sql.ErrNoRows):
				a.logger.Debug("Rejected unknown API key", "path", r.URL.Path)
				respondWithError(w, http.StatusUnauthorized, "Invalid API key")
				return
			case err != nil:
				a.logger.Error("Failed to resolve API key", "error", err)
				respondWithError(w, http.StatusInternalServerError, "Internal Server Error")
				return
			}
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), scopesCtxKey, scopes)))
	})
}

// requireScope wraps h so that it only runs for requests granted scope.
func requireScope(scope string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !hasScope(r, scope) {
			respondWithError(w, http.StatusForbidden, fmt.Sprintf("Forbidden: requires '%s' scope", scope))
			return
		}
		h(w, r)
	}
}

// hasScope reports whether the request context grants scope.
func hasScope(r *http.Request, scope string) bool {
	scopes, ok := r.Context().Value(scopesCtxKey).(scopeSet)
	return ok && scopes.has(scope)
}

func (a *AuthAPI) handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	scopes, ok := r.Context().Value(scopesCtxKey).(scopeSet)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Invalid or missing key")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string][]string{"scopes": scopes.list()})
}

func (a *AuthAPI) handleKeys(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listKeys(w, r)
	case http.MethodPost:
		a.createKey(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (a *AuthAPI) handleKeyByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		w.Header().Set("Allow", "DELETE")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	id, err := strconv.Atoi(strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/auth/keys/"), "/"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Key id must be an integer")
		return
	}
	// Key 1 always holds the master scope.
	if id == 1 {
		respondWithError(w, http.StatusBadRequest, "Key 1 cannot be revoked")
		return
	}

	res, err := a.keys.stmtDelete.ExecContext(r.Context(), id)
	if err != nil {
		a.logger.Error("Failed to revoke API key", "id", id, "error", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to revoke key")
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		respondWithError(w, http.StatusNotFound, fmt.Sprintf("No key with id %d", id))
		return
	}
	a.logger.Info("API key revoked", "id", id)
	w.WriteHeader(http.StatusNoContent)
}

func (a *AuthAPI) listKeys(w http.ResponseWriter, r *http.Request) {
	rows, err := a.keys.stmtListKeys.QueryContext(r.Context())
	if err != nil {
		a.logger.Error("Failed to list API keys", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to list keys")
		return
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	keys := make([]APIKeyInfo, 0)
	for rows.Next() {
		var (
			key       APIKeyInfo
			stored    string
			createdAt int64
			lastUsed  sql.NullInt64
		)
		if err = rows.Scan(&key.ID, &key.Description, &stored, &createdAt, &lastUsed); err != nil {
			a.logger.Error("Failed to scan API key", "error", err)
			respondWithError(w, http.StatusInternalServerError, "Failed to list keys")
			return
		}
		key.Scopes = parseScopes(stored).list()
		key.CreatedAt = time.UnixMilli(createdAt).UTC()
		key.LastUsed = "never"
		if lastUsed.Valid {
			key.LastUsed = humanize.Time(time.UnixMilli(lastUsed.Int64))
		}
		keys = append(keys, key)
	}
	if err = rows.Err(); err != nil {
		a.logger.Error("Failed to read API keys", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to list keys")
		return
	}
	respondWithJSON(w, http.StatusOK, keys)
}

func (a *AuthAPI) createKey(w http.ResponseWriter, r *http.Request) {
	var req CreateKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid JSON request body")
		return
	}
	for _, s := range req.Scopes {
		if !slices.Contains(knownScopes, s) {
			respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Unknown scope '%s'", s))
			return
		}
	}

	keyCount, err := a.keys.count(r.Context())
	if err != nil {
		a.logger.Error("Failed to count API keys", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	scopes := strings.Join(req.Scopes, " ")
	// The first key always gets the master scope so the API cannot lock itself out.
	if keyCount == 0 {
		scopes = scopeMaster
	}

	rawKey, err := generateAPIKey()
	if err != nil {
		a.logger.Error("Failed to generate API key", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Key generation failed")
		return
	}

	var id int
	err = a.keys.stmtInsert.QueryRowContext(r.Context(), hashAPIKey(rawKey), req.Description, scopes, time.Now().UnixMilli()).Scan(&id)
	if err != nil {
		a.logger.Error("Failed to store API key", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to store key")
		return
	}

	a.logger.Info("API key created", "id", id, "scopes", scopes)
	respondWithJSON(w, http.StatusCreated, CreateKeyResponse{
		ID:     id,
		RawKey: rawKey,
		Scopes: parseScopes(scopes).list(),
	})
}

func generateAPIKey() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return rawKeyPrefix + hex.EncodeToString(buf), nil
}

func hashAPIKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}
