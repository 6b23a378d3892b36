package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/CTAG07/wordmachine/pkg/corpus"
	"github.com/CTAG07/wordmachine/pkg/markov"
)

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			fmt.Printf("ERROR: Failed to encode JSON response: %v\n", err)
		}
	}
}

// statusFor maps library errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, markov.ErrInvalidRequest),
		errors.Is(err, corpus.ErrUnknownEncoding),
		errors.Is(err, corpus.ErrInvalidName):
		return http.StatusBadRequest
	case errors.Is(err, corpus.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
