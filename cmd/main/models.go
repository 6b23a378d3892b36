package main

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/CTAG07/wordmachine/pkg/corpus"
	"github.com/CTAG07/wordmachine/pkg/markov"
)

// modelCache keeps one built model per stored corpus. An entry is reused
// while the corpus revision is unchanged; concurrent requests for the same
// revision wait for a single build.
type modelCache struct {
	store   *corpus.Store
	workers func() int
	logger  *slog.Logger

	mu      sync.Mutex
	entries map[string]*cacheEntry
}

type cacheEntry struct {
	revision int
	ready    chan struct{}
	model    *markov.Model
	err      error
}

func newModelCache(store *corpus.Store, workers func() int, logger *slog.Logger) *modelCache {
	return &modelCache{
		store:   store,
		workers: workers,
		logger:  logger,
		entries: make(map[string]*cacheEntry),
	}
}

// Get returns the model of the named corpus at its current revision.
func (c *modelCache) Get(ctx context.Context, name string) (*markov.Model, corpus.Info, error) {
	info, err := c.store.GetInfo(ctx, name)
	if err != nil {
		return nil, corpus.Info{}, err
	}

	c.mu.Lock()
	e, ok := c.entries[name]
	if !ok || e.revision != info.Revision {
		e = &cacheEntry{revision: info.Revision, ready: make(chan struct{})}
		c.entries[name] = e
		c.mu.Unlock()
		go c.build(ctx, name, e)
	} else {
		c.mu.Unlock()
	}

	select {
	case <-e.ready:
	case <-ctx.Done():
		return nil, corpus.Info{}, ctx.Err()
	}
	if e.err != nil {
		return nil, corpus.Info{}, e.err
	}
	return e.model, info, nil
}

// build fills e and closes e.ready. Other requests may be waiting on e, so
// cancellation of the request that started the build is ignored.
func (c *modelCache) build(ctx context.Context, name string, e *cacheEntry) {
	defer close(e.ready)
	ctx = context.WithoutCancel(ctx)

	start := time.Now()
	words, err := c.store.GetWords(ctx, name)
	if err != nil {
		e.err = err
		c.mu.Lock()
		if c.entries[name] == e {
			delete(c.entries, name)
		}
		c.mu.Unlock()
		return
	}

	e.model = markov.Build(markov.NewCorpus(words),
		markov.WithWorkers(c.workers()),
		markov.WithLogger(c.logger),
	)
	c.logger.Info("Model cached",
		slog.String("corpus", name),
		slog.Int("revision", e.revision),
		slog.Int("alphabet_size", e.model.Alphabet().Size()),
		slog.Duration("duration", time.Since(start)),
	)
}

// Invalidate drops the cached model of the named corpus.
func (c *modelCache) Invalidate(name string) {
	c.mu.Lock()
	delete(c.entries, name)
	c.mu.Unlock()
}
