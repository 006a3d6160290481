package handlers

import (
	"errors"
	"net/http"
	"strconv"
)

type HandlerWithErr func(w http.ResponseWriter, r *http.Request) error

// Error is a status-carrying handler error. Message is the user-facing text;
// Detail, when set, is surfaced as the "error" field for debugging.
type Error struct {
	Status  int
	Message string
	Detail  string
}

func (e Error) Error() string {
	return e.Message + " code=" + strconv.FormatInt(int64(e.Status), 10)
}

type errorResponse struct {
	Message string `json:"message"`
	Detail  string `json:"error,omitempty"`
}

func Adapt(h HandlerWithErr) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := h(w, r); err != nil {
			var statusErr *Error
			if errors.As(err, &statusErr) {
				writeJSON(w, statusErr.Status, &errorResponse{Message: statusErr.Message, Detail: statusErr.Detail})
				return
			}
			writeJSON(w, http.StatusInternalServerError, &errorResponse{Message: err.Error()})
		}
	})
}
