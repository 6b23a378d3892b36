package main

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"github.com/CTAG07/wordmachine/pkg/markov"
	"github.com/stretchr/testify/require"
)

func TestModelCache_ReusesRevision(t *testing.T) {
	s, _ := setupTestServer(t)
	require.Equal(t, http.StatusOK, do(t, s, http.MethodPut, "/api/corpora/letters", "abc\nbcd\n").Code)
	ctx := context.Background()

	var wg sync.WaitGroup
	models := make([]*markov.Model, 4)
	errs := make([]error, 4)
	for i := range models {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			models[i], _, errs[i] = s.models.Get(ctx, "letters")
		}(i)
	}
	wg.Wait()
	for i := range models {
		require.NoError(t, errs[i])
		require.Same(t, models[0], models[i])
	}

	require.Equal(t, http.StatusOK, do(t, s, http.MethodPut, "/api/corpora/letters", "xyz\n").Code)
	m, info, err := s.models.Get(ctx, "letters")
	require.NoError(t, err)
	require.Equal(t, 2, info.Revision)
	require.NotSame(t, models[0], m)
	require.Equal(t, 4, m.Alphabet().Size())
}

func TestModelCache_BuildOutlivesCancelledRequest(t *testing.T) {
	s, _ := setupTestServer(t)
	require.Equal(t, http.StatusOK, do(t, s, http.MethodPut, "/api/corpora/letters", "abc\nbcd\n").Code)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	e := &cacheEntry{revision: 1, ready: make(chan struct{})}
	s.models.mu.Lock()
	s.models.entries["letters"] = e
	s.models.mu.Unlock()

	s.models.build(ctx, "letters", e)
	<-e.ready
	require.NoError(t, e.err)
	require.NotNil(t, e.model)

	m, _, err := s.models.Get(context.Background(), "letters")
	require.NoError(t, err)
	require.Same(t, e.model, m)
}
