package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	httpapi "xo-arena/internal/api/http"
	"xo-arena/internal/api/ws"
	"xo-arena/internal/config"
	"xo-arena/internal/game"
	"xo-arena/internal/logging"
	"xo-arena/internal/room"
	"xo-arena/internal/store"
	"xo-arena/internal/worker"
)

func main() {
	cfg, err := config.Load(os.Getenv("XO_CONFIG"))
	logging.Setup(cfg.LogLevel, cfg.LogPretty)
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	gin.SetMode(gin.ReleaseMode)

	opts := game.OptionsFrom(cfg)
	pool := worker.New(cfg.Worker, func(req game.Request) (game.Choice, error) {
		return game.Solve(req, opts)
	})

	mem := store.NewMemoryStore()
	rm := room.NewManager(mem, pool, cfg)
	hub := ws.NewHub(rm)
	rm.SetHub(hub)
	r := httpapi.SetupRouter(rm, pool, hub, cfg)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return pool.Run(gctx)
	})
	g.Go(func() error {
		log.Info().Str("addr", cfg.HTTPAddr).Int("workers", cfg.Worker.Workers).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
	log.Info().Msg("bye")
}
