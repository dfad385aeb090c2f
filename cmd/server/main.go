package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/HarshilGandhi7/Code-collab/internal/app"
	httpx "github.com/HarshilGandhi7/Code-collab/internal/http"
	"github.com/HarshilGandhi7/Code-collab/internal/room"
	"github.com/HarshilGandhi7/Code-collab/internal/store"
	"github.com/HarshilGandhi7/Code-collab/internal/ws"
)

func main() {
	// Load local .env (dev only)
	_ = godotenv.Load()

	cfg := app.LoadConfig()
	logger := app.NewLogger(cfg.Env)

	// Cancel on SIGINT/SIGTERM
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Optional teardown snapshot archive
	var pg *store.Postgres
	if cfg.ArchiveEnabled() {
		var err error
		pg, err = store.NewPostgres(ctx, cfg, logger)
		if err != nil {
			logger.Error("postgres connect", "err", err)
			log.Fatal(err)
		}
		defer pg.Close()
		if err := store.RunMigrations(ctx, pg, logger); err != nil {
			logger.Error("migrations", "err", err)
			log.Fatal(err)
		}
	} else {
		logger.Info("archive.disabled")
	}

	// Optional redis bus for cross-instance fanout
	var bus *ws.RedisBus
	if cfg.BusEnabled() {
		var err error
		bus, err = ws.NewRedisBus(ctx, cfg, logger)
		if err != nil {
			logger.Error("redis connect", "err", err)
			log.Fatal(err)
		}
		defer bus.Close()
	} else {
		logger.Info("bus.disabled")
	}

	// Room state + presence policy. The archiver hook stays nil without
	// postgres; a typed-nil *Postgres would dodge the presence nil check.
	rooms := room.NewStore()
	var archiver room.Archiver
	if pg != nil {
		archiver = pg
	}
	presence := room.NewPresence(rooms, logger, archiver)

	// WebSocket hub
	hub := ws.NewHub(logger, rooms, presence, bus)
	go hub.Run(ctx)

	// HTTP + WS router
	router := httpx.NewRouter(cfg, hub, rooms, pg)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server
	go func() {
		logger.Info("server.listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server.crash", "err", err)
			cancel()
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	logger.Info("server.shutdown.start")

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	_ = srv.Shutdown(shutdownCtx)

	logger.Info("server.shutdown.complete")
}
