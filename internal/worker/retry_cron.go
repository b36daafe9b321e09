package worker

// retry_cron.go
// Background goroutine that periodically re-attempts the push to the external
// sheet for ventas stuck in estado_envio='pendiente' with a proximo_intento
// in the past. Uses the Circuit Breaker to avoid hammering an unreachable API.

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/ojedapedro/aci-tpv-movilnet/internal/infra"
	"github.com/ojedapedro/aci-tpv-movilnet/internal/model"
	"github.com/ojedapedro/aci-tpv-movilnet/internal/repository"
)

const (
	retryTickInterval = 60 * time.Second
	retryBatchSize    = 10

	// MaxEnvioIntentos is the ceiling after which a venta moves to
	// estado_envio='error' and its payload lands in the DLQ.
	MaxEnvioIntentos = 8
)

// VentaSink is the slice of the sheets client the retry cron pushes through.
type VentaSink interface {
	AppendVenta(ctx context.Context, v *model.Venta) error
	DescontarStock(ctx context.Context, items []model.VentaItem) error
}

// RetryCronConfig holds all dependencies for the retry goroutine.
type RetryCronConfig struct {
	VentaRepo repository.VentaRepository
	Sink      VentaSink
	CB        *infra.CircuitBreaker
	RDB       *redis.Client
}

// StartRetryCron launches a background goroutine that ticks every minute,
// queries pending ventas, and re-attempts the sheet push through the CB.
// It respects the context for graceful shutdown.
func StartRetryCron(ctx context.Context, cfg RetryCronConfig) {
	go func() {
		ticker := time.NewTicker(retryTickInterval)
		defer ticker.Stop()

		log.Info().Msg("retry_cron: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("retry_cron: shutting down")
				return
			case <-ticker.C:
				processRetries(ctx, cfg)
			}
		}
	}()
}

func processRetries(ctx context.Context, cfg RetryCronConfig) {
	// If CB is open, skip entirely — don't hammer an unreachable API
	if cfg.CB.State() == infra.CBOpen {
		log.Debug().Msg("retry_cron: circuit breaker is open, skipping tick")
		return
	}

	ventas, err := cfg.VentaRepo.ListPendientes(ctx, time.Now(), retryBatchSize)
	if err != nil {
		log.Error().Err(err).Msg("retry_cron: failed to query pending ventas")
		return
	}
	if len(ventas) == 0 {
		return
	}

	log.Info().Int("count", len(ventas)).Msg("retry_cron: processing pending ventas")

	for i := range ventas {
		v := &ventas[i]

		// Check CB state before each push — it may have tripped mid-batch
		if cfg.CB.State() == infra.CBOpen {
			log.Debug().Msg("retry_cron: circuit breaker opened mid-batch, stopping")
			return
		}

		// Only the row append counts: re-running a push that already appended
		// would duplicate the sale in the sheet, so the stock decrement is
		// best-effort after a confirmed append.
		cbErr := cfg.CB.Execute(func() error {
			return cfg.Sink.AppendVenta(ctx, v)
		})

		if cbErr != nil {
			intentos := v.IntentosEnvio + 1
			if intentos >= MaxEnvioIntentos {
				_ = cfg.VentaRepo.MarcarFallo(ctx, v.ID, model.EnvioError, cbErr.Error(), nil)
				log.Error().
					Int("numero", v.Numero).
					Int("intentos", intentos).
					Msg("retry_cron: max intentos exceeded, venta en estado error")

				payload := fmt.Sprintf(`{"venta_id":"%s","numero":%d}`, v.ID, v.Numero)
				SendToDLQ(ctx, cfg.RDB, "jobs:envio_venta", "envio_venta", []byte(payload),
					fmt.Sprintf("max intentos (%d) exceeded: %s", MaxEnvioIntentos, cbErr.Error()),
					intentos)
			} else {
				proximo := time.Now().Add(computeRetryBackoff(intentos))
				_ = cfg.VentaRepo.MarcarFallo(ctx, v.ID, model.EnvioPendiente, cbErr.Error(), &proximo)
				log.Warn().
					Int("numero", v.Numero).
					Int("intentos", intentos).
					Time("proximo_intento", proximo).
					Msg("retry_cron: push failed, scheduled next attempt")
			}
			continue
		}

		if err := cfg.Sink.DescontarStock(ctx, v.Items); err != nil {
			log.Warn().Err(err).Int("numero", v.Numero).Msg("retry_cron: descuento de stock falló, corregir en la hoja")
		}

		if err := cfg.VentaRepo.MarcarEnviada(ctx, v.ID); err != nil {
			log.Error().Err(err).Int("numero", v.Numero).Msg("retry_cron: failed to mark venta enviada")
			continue
		}
		log.Info().
			Int("numero", v.Numero).
			Int("intentos_previos", v.IntentosEnvio).
			Msg("retry_cron: venta enviada after retry")
	}
}

// computeRetryBackoff returns the wait before attempt n+1.
// Schedule: 1m, 2m, 4m, 8m … capped at 30m.
func computeRetryBackoff(intentos int) time.Duration {
	backoff := time.Duration(1<<uint(intentos-1)) * time.Minute
	if backoff > 30*time.Minute {
		return 30 * time.Minute
	}
	return backoff
}
