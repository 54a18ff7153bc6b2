package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/wonny/idxscreen/internal/contracts"
)

// maxBodyBytes caps JSON request bodies
const maxBodyBytes = 1 << 20

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// statusFor maps a domain error to an HTTP status
func statusFor(err error) int {
	var (
		validation *contracts.ValidationError
		upstream   *contracts.UpstreamFetchError
		quote      *contracts.QuoteUnavailableError
		depth      *contracts.DepthUnavailableError
	)
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.Is(err, contracts.ErrInsufficientHistory):
		return http.StatusBadRequest
	case errors.As(err, &depth):
		return http.StatusNotFound
	case errors.As(err, &quote), errors.As(err, &upstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON reads a bounded JSON body into dest
func decodeJSON(w http.ResponseWriter, r *http.Request, dest interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		return contracts.NewValidationError("body", "invalid JSON: %v", err)
	}
	return nil
}

// splitSymbols parses a comma separated symbols parameter
func splitSymbols(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if s := strings.TrimSpace(part); s != "" {
			out = append(out, s)
		}
	}
	return out
}
