package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lalored20/lavaseco-app-sub000/internal/config"
	"github.com/lalored20/lavaseco-app-sub000/internal/infra"
	"github.com/lalored20/lavaseco-app-sub000/internal/remote"
	"github.com/lalored20/lavaseco-app-sub000/internal/repository"
	"github.com/lalored20/lavaseco-app-sub000/internal/router"
	syncengine "github.com/lalored20/lavaseco-app-sub000/internal/sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Structured logger — dev: pretty, prod: JSON
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// The local store is the source of truth for the terminal. Without it the
	// shop cannot operate, so failure here is fatal.
	localDB, err := infra.NewLocalDB(cfg.LocalDBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open local database")
	}

	// The central store may be unreachable at boot (shop opens offline). The
	// handle is created without dialing; the replication engine reaches it
	// through the circuit breaker when connectivity returns.
	remoteDB, err := infra.NewRemoteDB(cfg.RemoteDatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid central database configuration")
	}
	remoto := remote.NewStore(remoteDB)

	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	cb := infra.NewCircuitBreaker(infra.DefaultCBConfig())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	engine := syncengine.NewEngine(
		repository.NewOrdenRepository(localDB),
		repository.NewAbonoRepository(localDB),
		remoto, cb, rdb,
		syncengine.Config{
			Interval:        time.Duration(cfg.SyncIntervalSeconds) * time.Second,
			BatchSize:       cfg.SyncBatchSize,
			PullEveryNTicks: cfg.PullEveryNTicks,
			PullLimit:       cfg.PullLimit,
		},
	)
	engine.Start(ctx)

	r := router.New(cfg, localDB, rdb, remoto, cb, engine)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Str("sede", cfg.NombreSede).Msgf("lavaseco terminal listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server exited")
}
