package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/CTAG07/wordmachine/pkg/corpus"
	"github.com/CTAG07/wordmachine/pkg/heatmap"
)

// maxUploadBytes bounds word-list uploads and JSON imports.
const maxUploadBytes = 32 << 20

// CorporaAPI holds the dependencies for the corpus handlers.
type CorporaAPI struct {
	store  *corpus.Store
	models *modelCache
	cm     *ConfigManager
	logger *slog.Logger
}

// NewCorporaAPI creates a new instance of the CorporaAPI.
func NewCorporaAPI(store *corpus.Store, models *modelCache, cm *ConfigManager, logger *slog.Logger) *CorporaAPI {
	return &CorporaAPI{
		store:  store,
		models: models,
		cm:     cm,
		logger: logger,
	}
}

// RegisterRoutes sets up the routing for all /api/corpora endpoints.
func (c *CorporaAPI) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/corpora", c.handleListAndImport)
	mux.HandleFunc("/api/corpora/", c.handleCorpusByName)
}

// AlphabetResponse lists the characters of a corpus in index order. Index 0,
// the word boundary, is not listed.
type AlphabetResponse struct {
	Corpus     string   `json:"corpus"`
	Size       int      `json:"size"`
	Characters []string `json:"characters"`
}

// handleListAndImport handles GET for listing and POST for importing corpora.
func (c *CorporaAPI) handleListAndImport(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if !hasScope(r, scopeCorporaRead) {
			respondWithError(w, http.StatusForbidden, "Forbidden: requires 'corpora:read' scope")
			return
		}
		infos, err := c.store.ListCorpora(r.Context())
		if err != nil {
			c.logger.Error("Failed to list corpora", "error", err)
			respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to retrieve corpora: %v", err))
			return
		}
		respondWithJSON(w, http.StatusOK, infos)

	case http.MethodPost:
		if !hasScope(r, scopeCorporaWrite) {
			respondWithError(w, http.StatusForbidden, "Forbidden: requires 'corpora:write' scope")
			return
		}
		info, err := c.store.Import(r.Context(), http.MaxBytesReader(w, r.Body, maxUploadBytes))
		if err != nil {
			c.logger.Error("Failed to import corpus", "error", err)
			respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Import failed: %v", err))
			return
		}
		c.models.Invalidate(info.Name)
		respondWithJSON(w, http.StatusCreated, info)

	default:
		w.Header().Set("Allow", "GET, POST")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// handleCorpusByName routes actions for a single corpus.
func (c *CorporaAPI) handleCorpusByName(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/corpora/")
	name, action, _ := strings.Cut(path, "/")
	if name == "" {
		respondWithError(w, http.StatusBadRequest, "Corpus name not specified")
		return
	}

	switch action {
	case "":
		c.handleCorpus(w, r, name)
	case "export":
		c.handleExport(w, r, name)
	case "matrix.svg":
		c.handleMatrix(w, r, name)
	case "alphabet":
		c.handleAlphabet(w, r, name)
	default:
		respondWithError(w, http.StatusNotFound, "Action not found")
	}
}

func (c *CorporaAPI) handleCorpus(w http.ResponseWriter, r *http.Request, name string) {
	switch r.Method {
	case http.MethodGet:
		if !hasScope(r, scopeCorporaRead) {
			respondWithError(w, http.StatusForbidden, "Forbidden: requires 'corpora:read' scope")
			return
		}
		info, err := c.store.GetInfo(r.Context(), name)
		if err != nil {
			respondWithError(w, statusFor(err), err.Error())
			return
		}
		respondWithJSON(w, http.StatusOK, info)

	case http.MethodPut:
		if !hasScope(r, scopeCorporaWrite) {
			respondWithError(w, http.StatusForbidden, "Forbidden: requires 'corpora:write' scope")
			return
		}
		encoding := r.URL.Query().Get("encoding")
		if encoding == "" {
			encoding = c.cm.Get().Server.DefaultEncoding
		}
		words, err := corpus.ReadWords(http.MaxBytesReader(w, r.Body, maxUploadBytes), encoding)
		if err != nil {
			code := statusFor(err)
			if code == http.StatusInternalServerError {
				code = http.StatusBadRequest
			}
			respondWithError(w, code, fmt.Sprintf("Failed to read word list: %v", err))
			return
		}
		info, err := c.store.CreateCorpus(r.Context(), name, words)
		if err != nil {
			code := statusFor(err)
			if code == http.StatusInternalServerError {
				c.logger.Error("Failed to store corpus", "name", name, "error", err)
			}
			respondWithError(w, code, fmt.Sprintf("Failed to store corpus: %v", err))
			return
		}
		c.models.Invalidate(name)
		respondWithJSON(w, http.StatusOK, info)

	case http.MethodDelete:
		if !hasScope(r, scopeCorporaWrite) {
			respondWithError(w, http.StatusForbidden, "Forbidden: requires 'corpora:write' scope")
			return
		}
		if err := c.store.RemoveCorpus(r.Context(), name); err != nil {
			if statusFor(err) == http.StatusInternalServerError {
				c.logger.Error("Failed to remove corpus", "name", name, "error", err)
			}
			respondWithError(w, statusFor(err), err.Error())
			return
		}
		c.models.Invalidate(name)
		w.WriteHeader(http.StatusNoContent)

	default:
		w.Header().Set("Allow", "GET, PUT, DELETE")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (c *CorporaAPI) handleExport(w http.ResponseWriter, r *http.Request, name string) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if !hasScope(r, scopeCorporaRead) {
		respondWithError(w, http.StatusForbidden, "Forbidden: requires 'corpora:read' scope")
		return
	}
	if _, err := c.store.GetInfo(r.Context(), name); err != nil {
		respondWithError(w, statusFor(err), err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.json\"", name))
	if err := c.store.Export(r.Context(), name, w); err != nil {
		c.logger.Error("Failed to export corpus", "name", name, "error", err)
	}
}

func (c *CorporaAPI) handleMatrix(w http.ResponseWriter, r *http.Request, name string) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if !hasScope(r, scopeCorporaRead) {
		respondWithError(w, http.StatusForbidden, "Forbidden: requires 'corpora:read' scope")
		return
	}
	skipDigits, _ := strconv.ParseBool(r.URL.Query().Get("skipDigits"))

	m, _, err := c.models.Get(r.Context(), name)
	if err != nil {
		respondWithError(w, statusFor(err), err.Error())
		return
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	err = heatmap.RenderSVG(w, m.Alphabet(), m.Bigram(), heatmap.Options{
		Title:      "twm " + Version,
		SkipDigits: skipDigits,
	})
	if err != nil {
		c.logger.Error("Failed to write matrix", "name", name, "error", err)
	}
}

func (c *CorporaAPI) handleAlphabet(w http.ResponseWriter, r *http.Request, name string) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if !hasScope(r, scopeCorporaRead) {
		respondWithError(w, http.StatusForbidden, "Forbidden: requires 'corpora:read' scope")
		return
	}

	m, _, err := c.models.Get(r.Context(), name)
	if err != nil {
		respondWithError(w, statusFor(err), err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, alphabetResponse(name, m.Alphabet().Runes()))
}

func alphabetResponse(name string, runes []rune) AlphabetResponse {
	chars := make([]string, 0, len(runes))
	for _, r := range runes[1:] {
		chars = append(chars, string(r))
	}
	return AlphabetResponse{Corpus: name, Size: len(runes), Characters: chars}
}
