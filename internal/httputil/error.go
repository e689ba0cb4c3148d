package httputil

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/AdamBeresnev/quiz-bracket/internal/apperr"
)

func InternalServerError(w http.ResponseWriter, msg string, err error) {
	slog.Error(msg, "error", err)
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

func BadRequest(w http.ResponseWriter, msg string, err error) {
	if err != nil {
		slog.Warn("bad request", "message", msg, "error", err)
	} else {
		slog.Warn("bad request", "message", msg)
	}
	http.Error(w, msg, http.StatusBadRequest)
}

func NotFound(w http.ResponseWriter, msg string, err error) {
	if err != nil {
		slog.Warn("not found", "message", msg, "error", err)
	} else {
		slog.Warn("not found", "message", msg)
	}
	http.Error(w, msg, http.StatusNotFound)
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, apperr.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrInvalidState), errors.Is(err, apperr.ErrConflict):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// WriteError writes err as a JSON body with the status for its kind. Errors
// without a kind are logged and answered with a generic message.
func WriteError(w http.ResponseWriter, msg string, err error) {
	status := StatusFor(err)
	kind := apperr.KindOf(err)

	switch {
	case status == http.StatusInternalServerError:
		slog.Error(msg, "error", err, "kind", kind)
		if kind == "" {
			JSON(w, status, errorBody{Error: "Internal Server Error"})
			return
		}
	default:
		slog.Warn(msg, "error", err, "kind", kind)
	}
	JSON(w, status, errorBody{Error: err.Error(), Kind: string(kind)})
}
