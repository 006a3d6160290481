package handlers

import (
	"errors"
	"net/http"
	"sync"

	"github.com/google/uuid"

	"github.com/seongmin-k/movietalk/internal/chat"
)

const chatCookieName = "chat"

// chatRegistry keeps one chat controller per browser, keyed by a dedicated
// cookie so anonymous visitors can chat too. Controllers are never shared
// between browsers.
type chatRegistry struct {
	talker chat.Talker

	mu       sync.Mutex
	byCookie map[string]*chat.Controller
}

func newChatRegistry(talker chat.Talker) *chatRegistry {
	return &chatRegistry{
		talker:   talker,
		byCookie: make(map[string]*chat.Controller),
	}
}

func (c *chatRegistry) get(key string) *chat.Controller {
	c.mu.Lock()
	defer c.mu.Unlock()
	ctrl, ok := c.byCookie[key]
	if !ok {
		ctrl = chat.NewController(c.talker)
		c.byCookie[key] = ctrl
	}
	return ctrl
}

// chatController resolves the caller's controller, minting the cookie on
// first use.
func (h *Handler) chatController(w http.ResponseWriter, r *http.Request) *chat.Controller {
	if c, err := r.Cookie(chatCookieName); err == nil && c.Value != "" {
		return h.chats.get(c.Value)
	}

	key := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     chatCookieName,
		Value:    key,
		Path:     "/",
		HttpOnly: true,
		SameSite: sameSite(),
		Secure:   secure(),
	})
	return h.chats.get(key)
}

type chatOpenRequest struct {
	MovieID       string `json:"movieId"`
	MovieTitle    string `json:"movieTitle"`
	CharacterName string `json:"characterName"`
	AvatarURL     string `json:"avatarUrl"`
}

type chatMessageRequest struct {
	Text string `json:"text"`
}

func (h *Handler) postChatOpen(w http.ResponseWriter, r *http.Request) error {
	var req chatOpenRequest
	if err := decodeJSON(r, &req); err != nil {
		return badRequest("bad request")
	}
	if req.MovieID == "" || req.CharacterName == "" {
		return badRequest("movieId and characterName are required")
	}

	ctrl := h.chatController(w, r)
	session := ctrl.Select(req.MovieID, req.MovieTitle, req.CharacterName, req.AvatarURL)
	writeJSON(w, http.StatusOK, session)
	return nil
}

func (h *Handler) postChatMessage(w http.ResponseWriter, r *http.Request) error {
	var req chatMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		return badRequest("bad request")
	}

	ctrl := h.chatController(w, r)
	session, err := ctrl.Send(r.Context(), req.Text)
	if err != nil {
		if errors.Is(err, chat.ErrSessionClosed) || errors.Is(err, chat.ErrSessionStale) {
			return conflict("no open chat session")
		}
		return err
	}

	writeJSON(w, http.StatusOK, session)
	return nil
}

func (h *Handler) postChatClose(w http.ResponseWriter, r *http.Request) error {
	ctrl := h.chatController(w, r)
	ctrl.Close()
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	return nil
}
