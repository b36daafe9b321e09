package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ojedapedro/aci-tpv-movilnet/internal/config"
	"github.com/ojedapedro/aci-tpv-movilnet/internal/infra"
	"github.com/ojedapedro/aci-tpv-movilnet/internal/repository"
	"github.com/ojedapedro/aci-tpv-movilnet/internal/router"
	"github.com/ojedapedro/aci-tpv-movilnet/internal/sheets"
	"github.com/ojedapedro/aci-tpv-movilnet/internal/worker"
)

func main() {
	// Structured logger — dev: pretty, prod: JSON
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if cfg.Env == "production" {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hoja, err := sheets.NewService(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build sheets client")
	}

	// One breaker guards every call to the Sheets API: catalog reads, sale
	// rows and stock updates all trip and recover together.
	sheetsCB := infra.NewCircuitBreaker(infra.DefaultCBConfig())

	mailer := infra.NewMailer(cfg)
	dispatcher := worker.NewDispatcher(rdb)
	ventaRepo := repository.NewVentaRepository(db)

	empresa := infra.Empresa{
		Nombre:    cfg.EmpresaNombre,
		Direccion: cfg.EmpresaDireccion,
		Telefono:  cfg.EmpresaTelefono,
	}

	// Async workers: low-stock alerts and receipt pre-generation.
	worker.StartWorkerPool(ctx, rdb, cfg.WorkerPoolSize, worker.Handlers{
		AlertaStock: worker.NewAlertaStockWorker(hoja, sheetsCB, mailer, rdb, cfg.AlertaEmail),
		Recibo:      worker.NewReciboWorker(ventaRepo, empresa, cfg.FormatoFecha, cfg.PDFStoragePath, rdb),
	})

	// Background re-delivery of ventas that never reached the sheet.
	worker.StartRetryCron(ctx, worker.RetryCronConfig{
		VentaRepo: ventaRepo,
		Sink:      hoja,
		CB:        sheetsCB,
		RDB:       rdb,
	})

	r := router.New(cfg, db, rdb, hoja, sheetsCB, dispatcher)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("TPV backend listening on :%d", cfg.Port)
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
