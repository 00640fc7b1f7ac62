package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	appcfg "github.com/kapu/notyourbuddy/internal/config"
	"github.com/kapu/notyourbuddy/internal/game"
	"github.com/kapu/notyourbuddy/internal/history"
	"github.com/kapu/notyourbuddy/internal/httpapi"
	"github.com/kapu/notyourbuddy/internal/lexicon"
	"github.com/kapu/notyourbuddy/internal/msgcat"
	"github.com/kapu/notyourbuddy/internal/obslog"
)

func main() {
	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}

	lex, err := lexicon.LoadFile(cfg.LexiconPath)
	if err != nil {
		log.Fatalf("lexicon load error: %v", err)
	}
	obslog.L().Info("lexicon_loaded", zap.Int("words", lex.Len()), zap.String("path", cfg.LexiconPath))

	cat, err := msgcat.New(cfg.MessagesDir)
	if err != nil {
		log.Fatalf("message catalog error: %v", err)
	}

	store := game.Store(game.NewMemoryStore())
	if cfg.RedisURL != "" {
		store, err = game.NewRedisStore(cfg.RedisURL, time.Duration(cfg.SessionTTLSec)*time.Second)
		if err != nil {
			log.Fatalf("redis store init error: %v", err)
		}
		obslog.L().Info("session_store", zap.String("backend", "redis"))
	} else {
		obslog.L().Info("session_store", zap.String("backend", "memory"))
	}

	repo := history.Repository(history.NewMemoryRepository())
	if cfg.DatabaseURL != "" {
		repo, err = history.NewRepository(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("history repo init error: %v", err)
		}
		obslog.L().Info("run_archive", zap.String("backend", "postgres"))
	}
	defer func() { _ = repo.Close() }()

	engine := game.NewEngine(lex, store, cat, game.WithHistory(repo))
	server := httpapi.NewServer(engine, lex, repo, cfg.SessionCookie, cfg.HistoryLimit)

	errCh := make(chan error, 1)
	go func() { errCh <- server.ListenAndServe(cfg.ListenAddr) }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatalf("server error: %v", err)
		}
	case sig := <-sigCh:
		obslog.L().Info("shutdown_signal", zap.String("signal", sig.String()))
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			obslog.L().Warn("shutdown_error", zap.Error(err))
		}
	}
}
