package handlers

import (
	"net/http"
)

func (h *Handler) MiddlewareRequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.currentUID(r) == "" {
			writeJSON(w, http.StatusUnauthorized, &errorResponse{Message: "unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}
