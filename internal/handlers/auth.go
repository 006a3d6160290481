package handlers

import (
	"crypto/subtle"
	"net/http"
	"sync"

	"github.com/google/uuid"
)

// sessionRegistry maps opaque cookie tokens to user ids. Sessions live in
// memory; a restart logs everyone out, which is acceptable for this app.
type sessionRegistry struct {
	mu      sync.RWMutex
	byToken map[string]string
}

func newSessionRegistry() *sessionRegistry {
	return &sessionRegistry{byToken: make(map[string]string)}
}

func (s *sessionRegistry) create(uid string) string {
	token := uuid.NewString()
	s.mu.Lock()
	s.byToken[token] = uid
	s.mu.Unlock()
	return token
}

func (s *sessionRegistry) lookup(token string) (string, bool) {
	s.mu.RLock()
	uid, ok := s.byToken[token]
	s.mu.RUnlock()
	return uid, ok
}

func (s *sessionRegistry) drop(token string) {
	s.mu.Lock()
	delete(s.byToken, token)
	s.mu.Unlock()
}

// currentUID resolves the auth cookie to a user id, or "" when the request
// carries no valid session.
func (h *Handler) currentUID(r *http.Request) string {
	c, err := r.Cookie(authCookieName)
	if err != nil || c.Value == "" {
		return ""
	}
	uid, ok := h.sessions.lookup(c.Value)
	if !ok {
		return ""
	}
	return uid
}

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Nickname string `json:"nickname"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Authenticated bool   `json:"authenticated"`
	Nickname      string `json:"nickname,omitempty"`
}

func (h *Handler) postSignup(w http.ResponseWriter, r *http.Request) error {
	var req signupRequest
	if err := decodeJSON(r, &req); err != nil {
		return badRequest("bad request")
	}
	if req.Email == "" || req.Password == "" || req.Nickname == "" {
		return badRequest("email, password and nickname are required")
	}

	user, err := h.store.CreateUser(r.Context(), req.Email, hashPassword(req.Password), req.Nickname)
	if err != nil {
		if isEmailTaken(err) {
			return conflict("email already registered")
		}
		return err
	}

	setAuthCookie(w, h.sessions.create(user.UID))
	writeJSON(w, http.StatusOK, &sessionResponse{Authenticated: true, Nickname: user.Nickname})
	return nil
}

func (h *Handler) postLogin(w http.ResponseWriter, r *http.Request) error {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		return badRequest("bad request")
	}

	user, err := h.store.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		if isNoRows(err) {
			return unauthorized("invalid credentials")
		}
		return err
	}

	hashed := hashPassword(req.Password)
	if subtle.ConstantTimeCompare([]byte(hashed), []byte(user.PasswordHash)) != 1 {
		return unauthorized("invalid credentials")
	}

	setAuthCookie(w, h.sessions.create(user.UID))
	writeJSON(w, http.StatusOK, &sessionResponse{Authenticated: true, Nickname: user.Nickname})
	return nil
}

func (h *Handler) postLogout(w http.ResponseWriter, r *http.Request) error {
	if c, err := r.Cookie(authCookieName); err == nil && c.Value != "" {
		h.sessions.drop(c.Value)
	}
	clearAuthCookie(w)
	writeJSON(w, http.StatusOK, &sessionResponse{Authenticated: false})
	return nil
}

func (h *Handler) getSession(w http.ResponseWriter, r *http.Request) error {
	uid := h.currentUID(r)
	if uid == "" {
		writeJSON(w, http.StatusOK, &sessionResponse{Authenticated: false})
		return nil
	}

	user, err := h.store.GetUserByUID(r.Context(), uid)
	if err != nil {
		if isNoRows(err) {
			writeJSON(w, http.StatusOK, &sessionResponse{Authenticated: false})
			return nil
		}
		return err
	}

	writeJSON(w, http.StatusOK, &sessionResponse{Authenticated: true, Nickname: user.Nickname})
	return nil
}

type profileResponse struct {
	UID       string `json:"uid"`
	Email     string `json:"email"`
	Nickname  string `json:"nickname"`
	CreatedAt string `json:"createdAt"`
}

func (h *Handler) getProfile(w http.ResponseWriter, r *http.Request) error {
	user, err := h.store.GetUserByUID(r.Context(), h.currentUID(r))
	if err != nil {
		if isNoRows(err) {
			return unauthorized("unauthorized")
		}
		return err
	}

	writeJSON(w, http.StatusOK, &profileResponse{
		UID:       user.UID,
		Email:     user.Email,
		Nickname:  user.Nickname,
		CreatedAt: user.CreatedAt,
	})
	return nil
}
