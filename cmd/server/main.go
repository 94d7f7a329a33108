package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dulceriapos/internal/config"
	"dulceriapos/internal/infra"
	"dulceriapos/internal/router"
	"dulceriapos/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// @title                      DulceriaPOS API
// @version                    1.0
// @description                Punto de venta multi-negocio para dulcerias.
// @BasePath                   /
// @securityDefinitions.apikey BearerAuth
// @in                         header
// @name                       Authorization
// @securityDefinitions.apikey AdminKey
// @in                         header
// @name                       X-Admin-Key
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	setupLogger(cfg)

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	if cfg.RunMigrations {
		if err := infra.RunMigrations(db); err != nil {
			log.Fatal().Err(err).Msg("failed to run migrations")
		}
	}

	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mailer := infra.NewMailer(cfg)
	dispatcher := worker.NewDispatcher(rdb)
	repos := router.NewRepositories(db)
	svcs := router.NewServices(cfg, repos, rdb, mailer, dispatcher)

	// Worker handlers are wired here (composition root) so that the pool
	// has full access to all infrastructure dependencies.
	pool := worker.NewPool(rdb, cfg.WorkerPoolSize)
	pool.Handle(worker.QueueTicket, worker.NewTicketWorker(repos.Ventas, repos.Negocios, dispatcher, cfg.PDFStoragePath, cfg.Location()).Process)
	pool.Handle(worker.QueueEmail, worker.NewEmailWorker(mailer).Process)
	pool.Handle(worker.QueueReporte, worker.NewReporteWorker(svcs.Reportes).Process)
	pool.Start(ctx)

	worker.StartCron(ctx, worker.CronConfig{
		Negocios:      repos.Negocios,
		Sesiones:      repos.Sesiones,
		Jobs:          dispatcher,
		Cola:          rdb,
		Hora:          cfg.ReporteDiarioHora,
		SessionWindow: cfg.SessionWindow(),
	})

	r := router.New(cfg, db, rdb, svcs, mailer.Breaker())

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Int("port", cfg.Port).Str("env", cfg.Env).Msg("DulceriaPOS backend listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	cancel() // stop workers and cron before draining HTTP
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	_ = rdb.Close()
	log.Info().Msg("server exited")
}

// setupLogger: dev pretty console, prod JSON.
func setupLogger(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if cfg.Env != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}
