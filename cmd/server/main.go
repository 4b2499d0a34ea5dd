package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/deathcats4/BoardGame-sub001/internal/config"
	"github.com/deathcats4/BoardGame-sub001/internal/game"
	"github.com/deathcats4/BoardGame-sub001/internal/game/dicethrone"
	"github.com/deathcats4/BoardGame-sub001/internal/game/tictactoe"
	"github.com/deathcats4/BoardGame-sub001/internal/logging"
	"github.com/deathcats4/BoardGame-sub001/internal/server"
	"github.com/deathcats4/BoardGame-sub001/internal/session"
	"github.com/deathcats4/BoardGame-sub001/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging: %v\n", err)
		os.Exit(1)
	}
	if err := run(cfg, log); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}

func run(cfg config.Config, log *logrus.Logger) error {
	store, err := storage.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer store.Close()

	registry, err := newRegistry(cfg, log)
	if err != nil {
		return err
	}

	mgr := session.NewManager(registry, store, log)
	if err := mgr.Restore(); err != nil {
		log.WithError(err).Warn("restore sessions")
	}

	done := make(chan struct{})
	defer close(done)
	go mgr.CleanupLoop(cfg.CleanupInterval, cfg.SessionMaxAge, done)

	var webFS fs.FS
	if cfg.WebDir != "" {
		webFS = os.DirFS(cfg.WebDir)
	}
	srv := &http.Server{
		Addr:    cfg.Addr(),
		Handler: server.New(registry, mgr, webFS, log),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.WithFields(logrus.Fields{"addr": cfg.Addr(), "db": cfg.DBPath, "cheats": cfg.CheatsEnabled}).Info("listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}

func newRegistry(cfg config.Config, log *logrus.Logger) (*game.Registry, error) {
	dt, err := dicethrone.New(dicethrone.Options{
		Logger:               log.WithField("game", dicethrone.Name),
		CheatsEnabled:        cfg.CheatsEnabled,
		UndoDepth:            cfg.UndoDepth,
		LogLimit:             cfg.LogLimit,
		MaxContinuationDepth: cfg.MaxContinuationDepth,
	})
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", dicethrone.Name, err)
	}
	registry := game.NewRegistry()
	registry.Register(dt)
	registry.Register(tictactoe.TicTacToe{
		Logger:    log.WithField("game", tictactoe.Name),
		UndoDepth: cfg.UndoDepth,
	})
	return registry, nil
}
