package worker

// alerta_worker.go
// Processes low-stock alert jobs from QueueAlertaStock. The job is enqueued
// after every completed sale; the worker re-reads the inventory sheet through
// the circuit breaker and mails a summary of products at or below their
// minimum. A Redis key per product suppresses duplicate alerts for 24h.

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/ojedapedro/aci-tpv-movilnet/internal/infra"
	"github.com/ojedapedro/aci-tpv-movilnet/internal/model"
)

const alertaSupresionTTL = 24 * time.Hour

// AlertaStockJobPayload is the job envelope sent to QueueAlertaStock.
type AlertaStockJobPayload struct {
	VentaID     string `json:"venta_id"`
	VentaNumero int    `json:"venta_numero"`
}

// InventarioFuente is the slice of the sheets client the alert worker needs.
type InventarioFuente interface {
	ProductosBajoStock(ctx context.Context) ([]model.Producto, error)
}

// Correo abstracts the SMTP mailer for tests.
type Correo interface {
	SendAlerta(to, subject, body string) error
}

type AlertaStockWorker struct {
	inventario  InventarioFuente
	cb          *infra.CircuitBreaker
	correo      Correo
	rdb         *redis.Client
	alertaEmail string
}

func NewAlertaStockWorker(inventario InventarioFuente, cb *infra.CircuitBreaker, correo Correo, rdb *redis.Client, alertaEmail string) *AlertaStockWorker {
	return &AlertaStockWorker{
		inventario:  inventario,
		cb:          cb,
		correo:      correo,
		rdb:         rdb,
		alertaEmail: alertaEmail,
	}
}

func (w *AlertaStockWorker) Process(ctx context.Context, raw json.RawMessage) {
	var payload AlertaStockJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("alerta_worker: invalid payload")
		return
	}

	if w.alertaEmail == "" {
		log.Debug().Msg("alerta_worker: ALERTA_EMAIL no configurado, omitiendo")
		return
	}

	var bajos []model.Producto
	cbErr := w.cb.Execute(func() error {
		var err error
		bajos, err = w.inventario.ProductosBajoStock(ctx)
		return err
	})
	if cbErr != nil {
		log.Warn().Err(cbErr).
			Int("venta_numero", payload.VentaNumero).
			Msg("alerta_worker: inventario inaccesible")
		SendToDLQ(ctx, w.rdb, QueueAlertaStock, "alerta_stock", raw, cbErr.Error(), 1)
		return
	}

	pendientes := w.filtrarNoNotificados(ctx, bajos)
	if len(pendientes) == 0 {
		return
	}

	subject := fmt.Sprintf("Alerta de stock bajo — %d producto(s)", len(pendientes))
	if err := w.correo.SendAlerta(w.alertaEmail, subject, cuerpoAlerta(pendientes, payload.VentaNumero)); err != nil {
		log.Error().Err(err).Msg("alerta_worker: envío de correo falló")
		SendToDLQ(ctx, w.rdb, QueueAlertaStock, "alerta_stock", raw, err.Error(), 1)
		return
	}

	w.marcarNotificados(ctx, pendientes)
	log.Info().Int("productos", len(pendientes)).Msg("alerta_worker: alerta enviada")
}

// filtrarNoNotificados drops products already alerted within the TTL window.
// With no Redis available every product passes; a duplicate mail beats silence.
func (w *AlertaStockWorker) filtrarNoNotificados(ctx context.Context, bajos []model.Producto) []model.Producto {
	if w.rdb == nil {
		return bajos
	}
	var pendientes []model.Producto
	for _, p := range bajos {
		n, err := w.rdb.Exists(ctx, alertaKey(p.Codigo)).Result()
		if err != nil || n == 0 {
			pendientes = append(pendientes, p)
		}
	}
	return pendientes
}

func (w *AlertaStockWorker) marcarNotificados(ctx context.Context, productos []model.Producto) {
	if w.rdb == nil {
		return
	}
	for _, p := range productos {
		_ = w.rdb.Set(ctx, alertaKey(p.Codigo), 1, alertaSupresionTTL).Err()
	}
}

func alertaKey(codigo string) string { return "alerta:stock:" + codigo }

func cuerpoAlerta(productos []model.Producto, ventaNumero int) string {
	var b strings.Builder
	b.WriteString("Los siguientes productos están en o por debajo de su stock mínimo")
	if ventaNumero > 0 {
		fmt.Fprintf(&b, " (detectado tras la venta #%d)", ventaNumero)
	}
	b.WriteString(":\n\n")
	for _, p := range productos {
		fmt.Fprintf(&b, "  %s — %s: stock %d (mínimo %d)\n", p.Codigo, p.Nombre, p.Stock, p.StockMinimo)
	}
	b.WriteString("\nReponga el inventario en la hoja PROCDINVENT.\n")
	return b.String()
}
