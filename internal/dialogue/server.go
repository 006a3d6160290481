package dialogue

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog/v3"
)

// NewServer exposes the engine over HTTP. The character payload uses the
// backend's own {name,image} shape; the web tier normalizes it for browsers.
func NewServer(logger *slog.Logger, engine *Engine, imagesDir string) http.Handler {
	r := chi.NewRouter()
	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:         slog.LevelInfo,
		RecoverPanics: true,
	}))

	s := &server{engine: engine}
	r.Get("/api/characters/{movieID}", s.getCharacters)
	// Old clients used unprefixed paths.
	r.Get("/characters/{movieID}", s.getCharacters)
	r.Post("/api/talk", s.postTalk)

	if imagesDir != "" {
		fs := http.StripPrefix("/images/", http.FileServer(http.Dir(imagesDir)))
		r.Get("/images/*", fs.ServeHTTP)
	}
	return r
}

type server struct {
	engine *Engine
}

type backendCharacter struct {
	Name  string `json:"name"`
	Image string `json:"image"`
}

func (s *server) getCharacters(w http.ResponseWriter, r *http.Request) {
	movieID := chi.URLParam(r, "movieID")

	// Unknown movies answer with an empty list so the web tier renders the
	// same "no characters" state either way.
	characters, err := s.engine.Characters(movieID)
	if err != nil {
		characters = nil
	}

	out := make([]backendCharacter, 0, len(characters))
	for _, c := range characters {
		out = append(out, backendCharacter{Name: c.Name, Image: c.AvatarURL})
	}
	writeBackendJSON(w, http.StatusOK, map[string]any{"characters": out})
}

func (s *server) postTalk(w http.ResponseWriter, r *http.Request) {
	var req TalkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBackendJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.MovieID == "" || req.CharacterName == "" || req.UserMessage == "" {
		writeBackendJSON(w, http.StatusBadRequest, map[string]string{"error": "movieId, characterName and userMessage are required"})
		return
	}

	reply, err := s.engine.Reply(r.Context(), req.MovieID, req.CharacterName, req.UserMessage)
	switch {
	case errors.Is(err, ErrUnknownMovie), errors.Is(err, ErrUnknownCharacter):
		writeBackendJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case err != nil:
		slog.Error("dialogue: reply failed",
			slog.String("movie_id", req.MovieID),
			slog.String("character", req.CharacterName),
			slog.Any("err", err))
		writeBackendJSON(w, http.StatusInternalServerError, map[string]string{"error": "reply generation failed"})
	default:
		writeBackendJSON(w, http.StatusOK, map[string]string{"reply": reply})
	}
}

func writeBackendJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
