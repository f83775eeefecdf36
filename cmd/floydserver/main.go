package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/floydverse/flappy-floyd/internal/config"
	"github.com/floydverse/flappy-floyd/internal/server"
	"github.com/floydverse/flappy-floyd/internal/session"
	"github.com/floydverse/flappy-floyd/internal/store"
)

const shutdownTimeout = 5 * time.Second

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatal("Invalid configuration", "err", err)
	}
	if level, err := log.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	} else {
		log.Warn("Unknown log level, using info", "level", cfg.LogLevel)
	}
	log.SetReportTimestamp(true)

	var (
		db       *store.DB
		recorder *store.Recorder
	)
	if cfg.DBPath != "" {
		db, err = store.Open(cfg.DBPath)
		if err != nil {
			log.Fatal("Failed to open database", "path", cfg.DBPath, "err", err)
		}
		defer db.Close()
		recorder = store.NewRecorder(db)
		log.Info("Database ready", "path", cfg.DBPath)
	} else {
		log.Warn("Persistence disabled, highscores will not survive a restart")
	}

	identity, err := server.LoadIdentity(db)
	if err != nil {
		log.Fatal("Failed to load token secret", "err", err)
	}

	registry := session.NewRegistry(cfg.Session, cfg.TickRate, server.NewResults(recorder))
	hub := server.NewHub(registry, db, identity)
	httpServer := &http.Server{Addr: cfg.Addr, Handler: server.SetupRoutes(hub, cfg.PublicURL)}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return registry.Run(ctx) })
	g.Go(func() error { return hub.Run(ctx) })
	g.Go(func() error {
		log.Info("Server starting", "addr", cfg.Addr, "tickRate", cfg.TickRate,
			"capacity", cfg.Session.Capacity, "minPlayers", cfg.Session.MinimumPlayers)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("Server stopped", "err", err)
	}
	if recorder != nil {
		recorder.Stop()
	}
}
