package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"vocab-quiz-service/internal/domain"
	"vocab-quiz-service/internal/game"
)

// UserHeader carries the caller's identity; authentication happens upstream.
const UserHeader = "X-User-ID"

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), map[string]string{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrWordListNotFound), errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrInvalidWordList),
		errors.Is(err, domain.ErrInvalidPeriod),
		errors.Is(err, domain.ErrInvalidPool),
		errors.Is(err, domain.ErrNotStarted),
		errors.Is(err, game.ErrUnknownDifficulty),
		errors.Is(err, game.ErrWrongMode),
		errors.Is(err, game.ErrBadCell),
		errors.Is(err, game.ErrCellTaken),
		errors.Is(err, game.ErrNoSelection),
		errors.Is(err, game.ErrGameOver),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

var errBadRequest = errors.New("bad request")
