package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/CTAG07/wordmachine/pkg/heatmap"
	"github.com/CTAG07/wordmachine/pkg/markov"
	"github.com/google/uuid"
)

// GenerateAPI serves word generation over stored corpora.
type GenerateAPI struct {
	models *modelCache
	stats  *StatsAPI
	cm     *ConfigManager
	logger *slog.Logger
}

// NewGenerateAPI creates a new instance of the GenerateAPI.
func NewGenerateAPI(models *modelCache, stats *StatsAPI, cm *ConfigManager, logger *slog.Logger) *GenerateAPI {
	return &GenerateAPI{
		models: models,
		stats:  stats,
		cm:     cm,
		logger: logger,
	}
}

// RegisterRoutes sets up the routing for /api/generate.
func (g *GenerateAPI) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/generate", requireScope(scopeGenerate, g.handleGenerate))
}

// GenerateResponse is the result of one generation session: the heat-map of
// the corpus and the generated words keyed by length.
type GenerateResponse struct {
	ID        string           `json:"id"`
	Corpus    string           `json:"corpus"`
	Revision  int              `json:"revision"`
	Alphabet  []string         `json:"alphabet"`
	MatrixSVG string           `json:"matrix_svg"`
	Words     map[int][]string `json:"words"`
}

// generateParams is the parsed query of a generation request.
type generateParams struct {
	corpus     string
	req        markov.Request
	seed       uint64
	seeded     bool
	skipDigits bool
}

func parseGenerateParams(q url.Values, defaults GenerationConfig) (generateParams, error) {
	p := generateParams{
		corpus: q.Get("corpus"),
		req: markov.Request{
			MinSize:         defaults.MinSize,
			MaxSize:         defaults.MaxSize,
			NumWords:        defaults.WordsPerSize,
			ExcludeExisting: defaults.ExcludeExisting,
		},
	}
	if p.corpus == "" {
		return p, errors.New("corpus parameter is required")
	}

	ints := map[string]*int{
		"minSize":  &p.req.MinSize,
		"maxSize":  &p.req.MaxSize,
		"numWords": &p.req.NumWords,
	}
	for name, dst := range ints {
		if v := q.Get(name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return p, fmt.Errorf("%s must be an integer", name)
			}
			*dst = n
		}
	}

	var err error
	if v := q.Get("excludeExisting"); v != "" {
		if p.req.ExcludeExisting, err = strconv.ParseBool(v); err != nil {
			return p, errors.New("excludeExisting must be a boolean")
		}
	}
	if v := q.Get("skipDigits"); v != "" {
		if p.skipDigits, err = strconv.ParseBool(v); err != nil {
			return p, errors.New("skipDigits must be a boolean")
		}
	}
	if v := q.Get("seed"); v != "" {
		if p.seed, err = strconv.ParseUint(v, 10, 64); err != nil {
			return p, errors.New("seed must be an unsigned integer")
		}
		p.seeded = true
	}

	if defaults.MaxWordsPerSize > 0 && p.req.NumWords > defaults.MaxWordsPerSize {
		return p, fmt.Errorf("numWords must be at most %d", defaults.MaxWordsPerSize)
	}
	if defaults.MaxWordSize > 0 && p.req.MaxSize > defaults.MaxWordSize {
		return p, fmt.Errorf("maxSize must be at most %d", defaults.MaxWordSize)
	}
	return p, nil
}

func (g *GenerateAPI) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	cfg := g.cm.Generation()
	params, err := parseGenerateParams(r.URL.Query(), cfg)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	if cfg.TimeoutSec > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(cfg.TimeoutSec)*time.Second)
		defer cancel()
	}

	m, info, err := g.models.Get(ctx, params.corpus)
	if err != nil {
		g.respondWithGenerateError(w, params, err)
		return
	}

	id := uuid.New()
	start := time.Now()
	opts := []markov.GenerateOption{}
	if params.seeded {
		opts = append(opts, markov.WithSeed(params.seed))
	}
	buckets, err := m.Generate(ctx, params.req, opts...)
	if err != nil {
		g.respondWithGenerateError(w, params, err)
		return
	}

	svg := heatmap.RenderString(m.Alphabet(), m.Bigram(), heatmap.Options{
		Title:      "twm " + Version,
		SkipDigits: params.skipDigits,
	})
	resp := GenerateResponse{
		ID:        id.String(),
		Corpus:    info.Name,
		Revision:  info.Revision,
		Alphabet:  alphabetResponse(info.Name, m.Alphabet().Runes()).Characters,
		MatrixSVG: svg,
		Words:     make(map[int][]string, len(buckets)),
	}
	total := 0
	for length, bucket := range buckets {
		resp.Words[length] = bucket.Sorted()
		total += len(bucket)
	}

	rec := GenerationRecord{
		SessionID:       resp.ID,
		Corpus:          info.Name,
		MinSize:         params.req.MinSize,
		MaxSize:         params.req.MaxSize,
		WordsPerSize:    params.req.NumWords,
		ExcludeExisting: params.req.ExcludeExisting,
		WordsGenerated:  total,
		Duration:        time.Since(start),
		CreatedAt:       start,
	}
	if err = g.stats.LogGeneration(r.Context(), rec); err != nil {
		g.logger.Warn("Failed to record generation", "session_id", rec.SessionID, "error", err)
	}

	g.logger.Info("Words generated",
		slog.String("session_id", rec.SessionID),
		slog.String("corpus", info.Name),
		slog.Int("words", total),
		slog.Duration("duration", rec.Duration),
	)
	respondWithJSON(w, http.StatusOK, resp)
}

func (g *GenerateAPI) respondWithGenerateError(w http.ResponseWriter, params generateParams, err error) {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		g.logger.Warn("Generation timed out", "corpus", params.corpus, "min_size", params.req.MinSize,
			"max_size", params.req.MaxSize, "num_words", params.req.NumWords)
		respondWithError(w, http.StatusServiceUnavailable, "Generation timed out before every length was filled")
	case errors.Is(err, context.Canceled):
		g.logger.Debug("Generation cancelled by client", "corpus", params.corpus)
	default:
		code := statusFor(err)
		if code == http.StatusInternalServerError {
			g.logger.Error("Generation failed", "corpus", params.corpus, "error", err)
		}
		respondWithError(w, code, err.Error())
	}
}
