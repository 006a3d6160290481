// Package handlers wires HTTP routing and API handlers.
package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/seongmin-k/movietalk/internal/dialogue"
	"github.com/seongmin-k/movietalk/internal/kmdb"
	"github.com/seongmin-k/movietalk/internal/movie"
	"github.com/seongmin-k/movietalk/internal/store"
)

// Demo credentials for the legacy /login_process form.
const (
	demoLoginID       = "user"
	demoLoginPassword = "1234"
)

type Handler struct {
	store    *store.Store
	kmdb     *kmdb.Client
	renderer *movie.Renderer
	dialogue *dialogue.Client
	sessions *sessionRegistry
	chats    *chatRegistry
}

type Config struct {
	Store    *store.Store
	KMDB     *kmdb.Client
	Renderer *movie.Renderer
	Dialogue *dialogue.Client
}

func New(cfg *Config) (*Handler, error) {
	if cfg.Store == nil {
		return nil, errors.New("store is required")
	}
	if cfg.KMDB == nil {
		return nil, errors.New("kmdb client is required")
	}
	if cfg.Dialogue == nil {
		return nil, errors.New("dialogue client is required")
	}

	renderer := cfg.Renderer
	if renderer == nil {
		renderer = movie.NewRenderer(movie.Options{})
	}

	return &Handler{
		store:    cfg.Store,
		kmdb:     cfg.KMDB,
		renderer: renderer,
		dialogue: cfg.Dialogue,
		sessions: newSessionRegistry(),
		chats:    newChatRegistry(cfg.Dialogue),
	}, nil
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Method(http.MethodPost, "/login_process", Adapt(h.postLoginProcess))

	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodGet, "/search", Adapt(h.getSearch))
		r.Method(http.MethodGet, "/browse", Adapt(h.getBrowse))
		r.Method(http.MethodGet, "/characters/{movieID}", Adapt(h.getCharacters))
		r.Method(http.MethodPost, "/talk", Adapt(h.postTalk))

		r.Method(http.MethodGet, "/session", Adapt(h.getSession))
		r.Route("/auth", func(r chi.Router) {
			r.Method(http.MethodPost, "/signup", Adapt(h.postSignup))
			r.Method(http.MethodPost, "/login", Adapt(h.postLogin))
			r.Method(http.MethodPost, "/logout", Adapt(h.postLogout))
		})

		r.Group(func(r chi.Router) {
			r.Use(h.MiddlewareRequireAuth)
			r.Method(http.MethodGet, "/profile", Adapt(h.getProfile))
		})

		r.Route("/chat", func(r chi.Router) {
			r.Method(http.MethodPost, "/open", Adapt(h.postChatOpen))
			r.Method(http.MethodPost, "/message", Adapt(h.postChatMessage))
			r.Method(http.MethodPost, "/close", Adapt(h.postChatClose))
		})
	})
}

// getSearch proxies the movie search upstream and returns the raw record
// array untouched. The client never sees the service key.
func (h *Handler) getSearch(w http.ResponseWriter, r *http.Request) error {
	records, err := h.kmdb.Search(r.Context(), r.URL.Query())
	if err != nil {
		slog.Error("search failed", slog.String("kind", string(kmdb.Kind(err))), slog.Any("err", err))
		return &Error{
			Status:  http.StatusInternalServerError,
			Message: "movie search failed",
			Detail:  string(kmdb.Kind(err)),
		}
	}

	writeJSON(w, http.StatusOK, records)
	return nil
}

// getBrowse runs the same search but answers with render-ready cards.
func (h *Handler) getBrowse(w http.ResponseWriter, r *http.Request) error {
	records, err := h.kmdb.Search(r.Context(), r.URL.Query())
	if err != nil {
		slog.Error("browse failed", slog.String("kind", string(kmdb.Kind(err))), slog.Any("err", err))
		return &Error{
			Status:  http.StatusInternalServerError,
			Message: "movie search failed",
			Detail:  string(kmdb.Kind(err)),
		}
	}

	writeJSON(w, http.StatusOK, h.renderer.RenderAll(records))
	return nil
}

type charactersPayload struct {
	Characters []dialogue.CharacterIdentity `json:"characters"`
}

// getCharacters always answers 200: a failed lookup degrades to an empty
// character list so the page renders the same either way.
func (h *Handler) getCharacters(w http.ResponseWriter, r *http.Request) error {
	movieID := chi.URLParam(r, "movieID")

	characters, err := h.dialogue.ListCharacters(r.Context(), movieID)
	if err != nil {
		slog.Warn("character lookup unreachable", slog.String("movie_id", movieID), slog.Any("err", err))
		characters = []dialogue.CharacterIdentity{}
	}

	writeJSON(w, http.StatusOK, &charactersPayload{Characters: characters})
	return nil
}

type talkRequest struct {
	MovieID       string `json:"movieId"`
	CharacterName string `json:"characterName"`
	UserMessage   string `json:"userMessage"`
}

type talkResponse struct {
	Reply string `json:"reply"`
}

func (h *Handler) postTalk(w http.ResponseWriter, r *http.Request) error {
	var req talkRequest
	if err := decodeJSON(r, &req); err != nil {
		return badRequest("bad request")
	}
	if req.MovieID == "" || req.CharacterName == "" || req.UserMessage == "" {
		return badRequest("movieId, characterName and userMessage are required")
	}

	reply, err := h.dialogue.Talk(r.Context(), req.MovieID, req.CharacterName, req.UserMessage)
	if err != nil {
		slog.Error("talk failed", slog.String("movie_id", req.MovieID), slog.Any("err", err))
		return &Error{
			Status:  http.StatusInternalServerError,
			Message: "reply generation failed",
			Detail:  err.Error(),
		}
	}

	writeJSON(w, http.StatusOK, &talkResponse{Reply: reply})
	return nil
}

type loginProcessResponse struct {
	Success bool `json:"success"`
}

// postLoginProcess keeps the original demo form login: fixed credentials,
// no account involved.
func (h *Handler) postLoginProcess(w http.ResponseWriter, r *http.Request) error {
	if err := r.ParseForm(); err != nil {
		return badRequest("bad request")
	}

	if r.PostFormValue("id") != demoLoginID || r.PostFormValue("password") != demoLoginPassword {
		writeJSON(w, http.StatusUnauthorized, &loginProcessResponse{Success: false})
		return nil
	}

	writeJSON(w, http.StatusOK, &loginProcessResponse{Success: true})
	return nil
}
