package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/philippgille/chromem-go"
	"github.com/sashabaranov/go-openai"

	"github.com/seongmin-k/movietalk/internal/dialogue"
	"github.com/seongmin-k/movietalk/internal/logger"

	_ "github.com/joho/godotenv/autoload"
)

const defaultPort = "8000"

func main() {
	slog.SetDefault(logger.New(slog.LevelDebug))
	if err := run(); err != nil {
		fmt.Println("Error:", err.Error())
		os.Exit(1)
	}
}

func run() error {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return errors.New("OPENAI_API_KEY is required")
	}
	dataDir := os.Getenv("DIALOGUE_DATA_DIR")
	if dataDir == "" {
		return errors.New("DIALOGUE_DATA_DIR is required")
	}

	movies, err := dialogue.LoadDataDir(dataDir)
	if err != nil {
		return fmt.Errorf("failed to load dialogue data: %w", err)
	}

	engine, err := dialogue.NewEngine(
		context.Background(),
		movies,
		openai.NewClient(apiKey),
		chromem.NewEmbeddingFuncOpenAI(apiKey, chromem.EmbeddingModelOpenAI3Small),
	)
	if err != nil {
		return fmt.Errorf("failed to build dialogue engine: %w", err)
	}

	handler := dialogue.NewServer(slog.Default(), engine, dataDir)

	addr := ":" + envOr("PORT", defaultPort)
	log.Printf("listening on %s", addr)
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      60 * time.Second,
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
