package main

import (
	"database/sql"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/CTAG07/wordmachine/pkg/corpus"
)

//go:embed web/*.gohtml
var webFS embed.FS

// Server wires the storage, the model cache and every API onto one mux.
type Server struct {
	cm            *ConfigManager
	db            *sql.DB
	logger        *slog.Logger
	store         *corpus.Store
	models        *modelCache
	authAPI       *AuthAPI
	corporaAPI    *CorporaAPI
	generateAPI   *GenerateAPI
	statsAPI      *StatsAPI
	serverAPI     *ServerAPI
	apiMux        *http.ServeMux
	indexTemplate *template.Template
}

// indexData is passed to the index page template.
type indexData struct {
	Version  string
	Defaults GenerationConfig
}

func NewServer(cm *ConfigManager, logger *slog.Logger, db *sql.DB, actionChan chan string) (*Server, error) {
	store, err := corpus.NewStore(db)
	if err != nil {
		return nil, fmt.Errorf("error creating corpus store: %w", err)
	}
	store.SetLogger(logger)

	models := newModelCache(store, func() int { return cm.Generation().Workers }, logger)

	authAPI, err := NewAuthAPI(db, logger)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("error creating auth api: %w", err)
	}

	statsAPI := NewStatsAPI(db, logger)
	server := &Server{
		cm:          cm,
		db:          db,
		logger:      logger,
		store:       store,
		models:      models,
		authAPI:     authAPI,
		corporaAPI:  NewCorporaAPI(store, models, cm, logger),
		generateAPI: NewGenerateAPI(models, statsAPI, cm, logger),
		statsAPI:    statsAPI,
		serverAPI:   NewServerAPI(cm, actionChan, logger),
		apiMux:      http.NewServeMux(),
	}

	server.indexTemplate, err = template.ParseFS(webFS, "web/*.gohtml")
	if err != nil {
		server.Close()
		return nil, fmt.Errorf("failed to parse index template: %w", err)
	}

	apiMux := http.NewServeMux()
	server.authAPI.RegisterRoutes(apiMux)
	server.corporaAPI.RegisterRoutes(apiMux)
	server.generateAPI.RegisterRoutes(apiMux)
	server.statsAPI.RegisterRoutes(apiMux)
	server.serverAPI.RegisterRoutes(apiMux)

	// Everything under /api/ is authenticated except the health check.
	server.apiMux.HandleFunc("/api/health", server.serverAPI.handleHealthCheck)
	server.apiMux.Handle("/api/", server.authAPI.Authenticate(apiMux))
	server.apiMux.HandleFunc("/", server.handleIndex)

	return server, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.apiMux
}

// Close releases the prepared statements. The database is owned by the caller.
func (s *Server) Close() {
	s.authAPI.Close()
	s.store.Close()
}

// handleIndex renders the single-page generator UI.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	data := indexData{Version: Version, Defaults: s.cm.Generation()}
	if err := s.indexTemplate.ExecuteTemplate(w, "index.gohtml", data); err != nil {
		s.logger.Error("Failed to render index template", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
