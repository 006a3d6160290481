package main

import (
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"

	"github.com/seongmin-k/movietalk/internal/dialogue"
	"github.com/seongmin-k/movietalk/internal/handlers"
	"github.com/seongmin-k/movietalk/internal/kmdb"
	"github.com/seongmin-k/movietalk/internal/logger"
	"github.com/seongmin-k/movietalk/internal/movie"
	"github.com/seongmin-k/movietalk/internal/store"
	"github.com/seongmin-k/movietalk/internal/web"

	_ "github.com/joho/godotenv/autoload"
)

const (
	defaultPort       = "8080"
	defaultBackendURL = "http://localhost:8000"
)

func main() {
	slog.SetDefault(logger.New(slog.LevelDebug))
	if err := run(); err != nil {
		fmt.Println("Error:", err.Error())
		os.Exit(1)
	}
}

func run() error {
	apiKey := os.Getenv("KMDB_API_KEY")
	if apiKey == "" {
		return errors.New("KMDB_API_KEY is required")
	}
	dbPath := envOr("DB_PATH", "/app/data/movietalk.db")
	backendURL := envOr("DIALOGUE_BACKEND_URL", defaultBackendURL)

	st, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			slog.Error("Failed to close DB", logger.Error(err))
		}
	}()

	app, err := handlers.New(&handlers.Config{
		Store: st,
		KMDB:  kmdb.New(apiKey, os.Getenv("KMDB_BASE_URL")),
		Renderer: movie.NewRenderer(movie.Options{
			PosterDelimiter: os.Getenv("POSTER_DELIM"),
		}),
		Dialogue: dialogue.NewClient(backendURL),
	})
	if err != nil {
		return fmt.Errorf("failed to init handlers: %w", err)
	}

	r := chi.NewRouter()
	r.Use(httplog.RequestLogger(slog.Default(), &httplog.Options{
		Level:         slog.LevelInfo,
		RecoverPanics: true,
	}))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
	}))
	app.RegisterRoutes(r)

	distFS, err := web.Dist()
	if err != nil {
		return fmt.Errorf("failed to load embedded frontend: %w", err)
	}
	spa, err := handlers.SPA(distFS)
	if err != nil {
		return err
	}
	r.NotFound(spa.ServeHTTP)

	addr := ":" + envOr("PORT", defaultPort)
	log.Printf("listening on %s", addr)
	server := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func envOr(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
