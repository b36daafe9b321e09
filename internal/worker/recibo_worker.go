package worker

// recibo_worker.go
// Pre-generates the PDF receipt for a registered sale so the handler can
// serve it instantly. The file path is deterministic (recibo_{numero}.pdf);
// the handler regenerates on demand when the file is missing, so a failed
// job degrades to a slower first download instead of a lost receipt.

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/ojedapedro/aci-tpv-movilnet/internal/credito"
	"github.com/ojedapedro/aci-tpv-movilnet/internal/infra"
	"github.com/ojedapedro/aci-tpv-movilnet/internal/repository"
)

// ReciboJobPayload is the job envelope sent to QueueRecibo.
type ReciboJobPayload struct {
	VentaID string `json:"venta_id"`
}

type ReciboWorker struct {
	ventaRepo    repository.VentaRepository
	empresa      infra.Empresa
	formatoFecha string
	storagePath  string
	rdb          *redis.Client
}

func NewReciboWorker(ventaRepo repository.VentaRepository, empresa infra.Empresa, formatoFecha, storagePath string, rdb *redis.Client) *ReciboWorker {
	return &ReciboWorker{
		ventaRepo:    ventaRepo,
		empresa:      empresa,
		formatoFecha: formatoFecha,
		storagePath:  storagePath,
		rdb:          rdb,
	}
}

func (w *ReciboWorker) Process(ctx context.Context, raw json.RawMessage) {
	var payload ReciboJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("recibo_worker: invalid payload")
		return
	}

	ventaID, err := uuid.Parse(payload.VentaID)
	if err != nil {
		log.Error().Str("venta_id", payload.VentaID).Msg("recibo_worker: invalid venta_id")
		return
	}

	venta, err := w.ventaRepo.FindByID(ctx, ventaID)
	if err != nil {
		log.Error().Err(err).Str("venta_id", payload.VentaID).Msg("recibo_worker: venta not found")
		return
	}

	var plan *credito.Plan
	if venta.PlanCredito != nil && *venta.PlanCredito != "" {
		var p credito.Plan
		if err := json.Unmarshal([]byte(*venta.PlanCredito), &p); err == nil {
			plan = &p
		}
	}

	path, err := infra.GenerarReciboPDF(venta, plan, w.empresa, w.formatoFecha, w.storagePath)
	if err != nil {
		log.Warn().Err(err).Int("numero", venta.Numero).Msg("recibo_worker: generación de PDF falló")
		SendToDLQ(ctx, w.rdb, QueueRecibo, "recibo", raw, err.Error(), 1)
		return
	}
	log.Info().Str("pdf", path).Int("numero", venta.Numero).Msg("recibo_worker: recibo generado")
}
