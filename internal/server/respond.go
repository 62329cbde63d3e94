package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/songbook/internal/services"
	"github.com/desertthunder/songbook/internal/shared"
	"github.com/desertthunder/songbook/internal/similarity"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

type errorBody struct {
	Error   string      `json:"error"`
	Matches []matchBody `json:"matches,omitempty"`
	Policy  *policyBody `json:"policy,omitempty"`
}

type matchBody struct {
	ID      string  `json:"id"`
	Title   string  `json:"title"`
	Artist  string  `json:"artist"`
	Score   float64 `json:"score"`
	Percent float64 `json:"percent"`
}

type policyBody struct {
	Name      string  `json:"name"`
	Threshold float64 `json:"threshold"`
	Strict    bool    `json:"strict"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	json.NewEncoder(w).Encode(v)
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrDuplicate), errors.Is(err, shared.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, shared.ErrInvalidInput),
		errors.Is(err, shared.ErrMissingArgument),
		errors.Is(err, shared.ErrInvalidArgument),
		errors.Is(err, similarity.ErrUnknownScorer):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeError writes err as {"error": ...}. Server errors are logged and their detail withheld.
// A rejected duplicate submission also lists the entries it matched.
func writeError(w http.ResponseWriter, logger *log.Logger, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error("request failed", "err", err)
		writeJSON(w, status, errorBody{Error: "internal error"})
		return
	}

	body := errorBody{Error: err.Error()}

	var dup *services.DuplicateError
	if errors.As(err, &dup) {
		body.Error = services.ErrDuplicate.Error()
		body.Policy = &policyBody{Name: dup.Policy.Name, Threshold: dup.Policy.Threshold, Strict: dup.Policy.Strict}
		for _, m := range dup.Matches {
			body.Matches = append(body.Matches, matchBody{
				ID:      m.Entry.ID(),
				Title:   m.Entry.Title,
				Artist:  m.Entry.Artist,
				Score:   m.Score,
				Percent: similarity.Candidate{Score: m.Score}.Percent(),
			})
		}
	}

	writeJSON(w, status, body)
}

// decode reads a JSON body into v, rejecting unknown fields.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: malformed JSON body: %v", shared.ErrInvalidInput, err)
	}
	return nil
}
