// Package main is the entry point for the mood journal API server.
//
// main only reads configuration, builds the logger, opens the store and
// hands everything to internal/server. All behaviour lives in internal/.
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/sakif/mood-journal/internal/config"
	"github.com/sakif/mood-journal/internal/logging"
	"github.com/sakif/mood-journal/internal/repository/backend"
	"github.com/sakif/mood-journal/internal/sentiment"
	"github.com/sakif/mood-journal/internal/server"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	// === 1. CONFIGURATION ===
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// === 2. LOGGING ===
	logger, logCloser, err := logging.New(cfg.LogLevel, cfg.LogFormat, cfg.LogFile)
	if err != nil {
		return err
	}
	defer logCloser.Close()
	slog.SetDefault(logger)

	// === 3. SENTIMENT LEXICON ===
	// The embedded AFINN list is the default; LEXICON_PATH swaps in another
	// word list without a rebuild.
	analyzer := sentiment.Default()
	if cfg.LexiconPath != "" {
		lex, err := sentiment.LoadLexicon(cfg.LexiconPath)
		if err != nil {
			return err
		}
		analyzer = sentiment.New(lex)
		logger.Info("loaded sentiment lexicon",
			slog.String("path", cfg.LexiconPath),
			slog.Int("words", len(lex)),
		)
	}

	// === 4. STORE ===
	openCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	store, err := backend.Open(openCtx, cfg.Storage.Backend(), nil)
	if err != nil {
		return err
	}
	logger.Info("store opened", slog.String("driver", cfg.Storage.Driver))

	// === 5. SERVER ===
	srv, err := server.New(server.Config{
		Port:               cfg.Port,
		ClientOrigin:       cfg.ClientOrigin,
		JWTSecret:          cfg.JWTSecret,
		TokenTTL:           cfg.TokenTTL,
		CookieSecure:       cfg.CookieSecure || cfg.IsProduction(),
		GitHubClientID:     cfg.GitHubClientID,
		GitHubClientSecret: cfg.GitHubClientSecret,
		GitHubCallbackURL:  cfg.GitHubCallbackURL,
		WriteRateLimit:     cfg.WriteRateLimit,
		WriteRateBurst:     cfg.WriteRateBurst,
	}, store, analyzer, logger)
	if err != nil {
		store.Close()
		return err
	}

	// Start blocks until SIGINT/SIGTERM and closes the store on the way out.
	return srv.Start()
}
