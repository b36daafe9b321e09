package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ojedapedro/aci-tpv-movilnet/internal/carrito"
	"github.com/ojedapedro/aci-tpv-movilnet/internal/credito"
	"github.com/ojedapedro/aci-tpv-movilnet/internal/dto"
	"github.com/ojedapedro/aci-tpv-movilnet/internal/infra"
	"github.com/ojedapedro/aci-tpv-movilnet/internal/model"
	"github.com/ojedapedro/aci-tpv-movilnet/internal/moneda"
	"github.com/ojedapedro/aci-tpv-movilnet/internal/repository"
	"github.com/ojedapedro/aci-tpv-movilnet/internal/worker"
)

var (
	ErrVentaNoEncontrada = errors.New("venta no encontrada")
	ErrVentaYaEnviada    = errors.New("la venta ya fue enviada a la hoja")
)

// primerReintento is the wait before the retry cron picks up a venta whose
// synchronous push failed at registration time.
const primerReintento = time.Minute

// VentaSink is the slice of the sheets client the sale flow pushes through.
type VentaSink interface {
	AppendVenta(ctx context.Context, v *model.Venta) error
	DescontarStock(ctx context.Context, items []model.VentaItem) error
}

type VentaService interface {
	Registrar(ctx context.Context, req dto.RegistrarVentaRequest) (*dto.VentaResponse, error)
	RegistrarDesdeCarrito(ctx context.Context, c *carrito.Carrito) (*dto.VentaResponse, error)
	Obtener(ctx context.Context, id uuid.UUID) (*dto.VentaResponse, error)
	Listar(ctx context.Context, filter dto.VentaFilter) (*dto.VentaListResponse, error)
	Reenviar(ctx context.Context, id uuid.UUID) (*dto.ReenviarVentaResponse, error)
}

type ventaService struct {
	repo            repository.VentaRepository
	catalogo        CatalogoService
	sink            VentaSink
	cb              *infra.CircuitBreaker
	dispatcher      *worker.Dispatcher
	fraccionInicial decimal.Decimal
	numCuotas       int
	formatoFecha    string
}

func NewVentaService(
	repo repository.VentaRepository,
	catalogo CatalogoService,
	sink VentaSink,
	cb *infra.CircuitBreaker,
	dispatcher *worker.Dispatcher,
	fraccionInicial float64,
	numCuotas int,
	formatoFecha string,
) VentaService {
	fraccion := decimal.NewFromFloat(fraccionInicial)
	if fraccion.IsZero() {
		fraccion = credito.FraccionInicialDefault
	}
	if numCuotas == 0 {
		numCuotas = credito.NumCuotasDefault
	}
	return &ventaService{
		repo:            repo,
		catalogo:        catalogo,
		sink:            sink,
		cb:              cb,
		dispatcher:      dispatcher,
		fraccionInicial: fraccion,
		numCuotas:       numCuotas,
		formatoFecha:    formatoFecha,
	}
}

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// ── Registrar ────────────────────────────────────────────────────────────────
// The sale flow:
//   1. Validate payment method and credit provider
//   2. Resolve item prices from the catalog (direct API path) or take the
//      snapshot prices from the cart (checkout path)
//   3. Build the credit plan when metodo_pago=credito (rate frozen here)
//   4. BEGIN TX: next numero, journal venta+items as estado_envio=pendiente
//   5. Synchronous push to the sheet through the circuit breaker:
//      append row + decrement stock. Success → enviada; failure → the venta
//      stays pendiente and the retry cron takes over.
//   6. Async jobs: low-stock alert (only after a successful stock decrement)
//      and PDF receipt.

func (s *ventaService) Registrar(ctx context.Context, req dto.RegistrarVentaRequest) (*dto.VentaResponse, error) {
	if req.MetodoPago == model.PagoCredito {
		if req.Proveedor == nil || !credito.ProveedorValido(*req.Proveedor) {
			return nil, ErrProveedorInvalido
		}
	}

	items := make([]model.VentaItem, 0, len(req.Items))
	for _, it := range req.Items {
		p, err := s.catalogo.BuscarProducto(ctx, it.Codigo)
		if err != nil {
			return nil, fmt.Errorf("producto %s: %w", it.Codigo, err)
		}
		cantidad := decimal.NewFromInt(int64(it.Cantidad))
		items = append(items, model.VentaItem{
			Codigo:      p.Codigo,
			Nombre:      p.Nombre,
			Cantidad:    it.Cantidad,
			PrecioUSD:   p.PrecioUSD,
			SubtotalUSD: p.PrecioUSD.Mul(cantidad).Round(2),
		})
	}

	return s.registrar(ctx, ventaDatos{
		cliente:       model.Cliente{Nombre: req.Cliente.Nombre, Cedula: req.Cliente.Cedula, Telefono: req.Cliente.Telefono},
		items:         items,
		metodoPago:    req.MetodoPago,
		proveedor:     req.Proveedor,
		tasa:          req.Tasa,
		observaciones: req.Observaciones,
	})
}

func (s *ventaService) RegistrarDesdeCarrito(ctx context.Context, c *carrito.Carrito) (*dto.VentaResponse, error) {
	if err := c.Completo(); err != nil {
		return nil, err
	}
	if c.MetodoPago == model.PagoCredito && !credito.ProveedorValido(c.ProveedorCredito) {
		return nil, ErrProveedorInvalido
	}

	items := make([]model.VentaItem, 0, len(c.Items))
	for _, it := range c.Items {
		cantidad := decimal.NewFromInt(int64(it.Cantidad))
		items = append(items, model.VentaItem{
			Codigo:      it.Codigo,
			Nombre:      it.Nombre,
			Cantidad:    it.Cantidad,
			PrecioUSD:   it.PrecioUSD,
			SubtotalUSD: it.PrecioUSD.Mul(cantidad).Round(2),
		})
	}

	var proveedor *string
	if c.ProveedorCredito != "" {
		p := c.ProveedorCredito
		proveedor = &p
	}
	var obs *string
	if c.Observaciones != "" {
		o := c.Observaciones
		obs = &o
	}

	return s.registrar(ctx, ventaDatos{
		cliente:       c.Cliente,
		items:         items,
		metodoPago:    c.MetodoPago,
		proveedor:     proveedor,
		tasa:          c.Tasa,
		observaciones: obs,
	})
}

type ventaDatos struct {
	cliente       model.Cliente
	items         []model.VentaItem
	metodoPago    string
	proveedor     *string
	tasa          decimal.Decimal
	observaciones *string
}

func (s *ventaService) registrar(ctx context.Context, datos ventaDatos) (*dto.VentaResponse, error) {
	if len(datos.items) == 0 {
		return nil, carrito.ErrCarritoVacio
	}
	if !datos.tasa.IsPositive() {
		return nil, credito.ErrTasaInvalida
	}

	totalUSD := decimal.Zero
	for _, it := range datos.items {
		totalUSD = totalUSD.Add(it.SubtotalUSD)
	}
	totalBs := moneda.Convertir(totalUSD, datos.tasa)

	// Credit plan, rate frozen now. The anchor is the registration moment.
	var plan *credito.Plan
	var planJSON *string
	if datos.metodoPago == model.PagoCredito {
		p, err := credito.Calcular(credito.PlanParams{
			Total:           totalUSD,
			Tasa:            datos.tasa,
			FraccionInicial: s.fraccionInicial,
			NumCuotas:       s.numCuotas,
			Proveedor:       *datos.proveedor,
		})
		if err != nil {
			return nil, err
		}
		plan = p
		b, err := json.Marshal(p)
		if err != nil {
			return nil, fmt.Errorf("serializar plan: %w", err)
		}
		j := string(b)
		planJSON = &j
	}

	venta := model.Venta{
		ClienteNombre:    datos.cliente.Nombre,
		ClienteCedula:    datos.cliente.Cedula,
		ClienteTelefono:  datos.cliente.Telefono,
		MetodoPago:       datos.metodoPago,
		ProveedorCredito: datos.proveedor,
		PlanCredito:      planJSON,
		TotalUSD:         totalUSD,
		TotalBs:          totalBs,
		Tasa:             datos.tasa,
		Observaciones:    datos.observaciones,
		EstadoEnvio:      model.EnvioPendiente,
		Items:            datos.items,
		CreatedAt:        time.Now(),
	}

	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		numero, err := s.repo.NextNumero(ctx, tx)
		if err != nil {
			return err
		}
		venta.Numero = numero
		return s.repo.Create(ctx, tx, &venta)
	})
	if txErr != nil {
		return nil, txErr
	}

	// Synchronous push. A failure here never fails the sale: the row is
	// journaled and the retry cron owns it from now on.
	exito, mensaje := s.enviar(ctx, &venta)

	if s.dispatcher != nil {
		if exito {
			_ = s.dispatcher.EnqueueAlertaStock(ctx, worker.AlertaStockJobPayload{
				VentaID:     venta.ID.String(),
				VentaNumero: venta.Numero,
			})
		}
		_ = s.dispatcher.EnqueueRecibo(ctx, worker.ReciboJobPayload{VentaID: venta.ID.String()})
	}

	resp := s.ventaToResponse(&venta, plan)
	resp.Exito = exito
	resp.Mensaje = mensaje
	return resp, nil
}

// enviar pushes the venta to the sheet through the circuit breaker and
// updates the journal state. Returns whether the push landed.
// Only the row append decides success: a retry must never re-append a row
// that already landed, so the stock decrement stays outside the verdict.
func (s *ventaService) enviar(ctx context.Context, v *model.Venta) (bool, string) {
	cbErr := s.cb.Execute(func() error {
		return s.sink.AppendVenta(ctx, v)
	})
	if cbErr != nil {
		proximo := time.Now().Add(primerReintento)
		if err := s.repo.MarcarFallo(ctx, v.ID, model.EnvioPendiente, cbErr.Error(), &proximo); err != nil {
			log.Error().Err(err).Int("numero", v.Numero).Msg("venta: no se pudo registrar el fallo de envío")
		}
		log.Warn().Err(cbErr).Int("numero", v.Numero).Msg("venta: envío a la hoja falló, queda pendiente")
		return false, "La venta quedó registrada localmente; el envío a la hoja se reintentará automáticamente."
	}

	// Best-effort decrement: the appended row is already the canonical
	// record, a miss here is corrected by hand in the sheet.
	if err := s.sink.DescontarStock(ctx, v.Items); err != nil {
		log.Warn().Err(err).Int("numero", v.Numero).Msg("venta: descuento de stock falló, corregir en la hoja")
	}

	if err := s.repo.MarcarEnviada(ctx, v.ID); err != nil {
		log.Error().Err(err).Int("numero", v.Numero).Msg("venta: no se pudo marcar enviada")
	}
	v.EstadoEnvio = model.EnvioEnviada
	return true, ""
}

// ── Consultas ────────────────────────────────────────────────────────────────

func (s *ventaService) Obtener(ctx context.Context, id uuid.UUID) (*dto.VentaResponse, error) {
	v, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrVentaNoEncontrada
	}
	return s.ventaToResponse(v, planDeVenta(v)), nil
}

func (s *ventaService) Listar(ctx context.Context, filter dto.VentaFilter) (*dto.VentaListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	ventas, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	data := make([]dto.VentaResponse, 0, len(ventas))
	for i := range ventas {
		data = append(data, *s.ventaToResponse(&ventas[i], planDeVenta(&ventas[i])))
	}
	return &dto.VentaListResponse{
		Data:  data,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}, nil
}

// Reenviar forces one push attempt for a stuck venta, outside the cron's
// schedule. Used from the sales list when the operator sees estado=error.
func (s *ventaService) Reenviar(ctx context.Context, id uuid.UUID) (*dto.ReenviarVentaResponse, error) {
	v, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrVentaNoEncontrada
	}
	if v.EstadoEnvio == model.EnvioEnviada {
		return nil, ErrVentaYaEnviada
	}

	exito, mensaje := s.enviar(ctx, v)
	resp := &dto.ReenviarVentaResponse{ID: v.ID.String(), EstadoEnvio: v.EstadoEnvio, Mensaje: mensaje}
	if exito {
		resp.EstadoEnvio = model.EnvioEnviada
	}
	return resp, nil
}

// ── Mapeo ────────────────────────────────────────────────────────────────────

func planDeVenta(v *model.Venta) *credito.Plan {
	if v.PlanCredito == nil || *v.PlanCredito == "" {
		return nil
	}
	var p credito.Plan
	if err := json.Unmarshal([]byte(*v.PlanCredito), &p); err != nil {
		return nil
	}
	return &p
}

func (s *ventaService) ventaToResponse(v *model.Venta, plan *credito.Plan) *dto.VentaResponse {
	items := make([]dto.ItemVentaResponse, 0, len(v.Items))
	for _, it := range v.Items {
		items = append(items, dto.ItemVentaResponse{
			Codigo:      it.Codigo,
			Nombre:      it.Nombre,
			Cantidad:    it.Cantidad,
			PrecioUSD:   it.PrecioUSD,
			SubtotalUSD: it.SubtotalUSD,
		})
	}
	resp := &dto.VentaResponse{
		ID:     v.ID.String(),
		Numero: v.Numero,
		Cliente: dto.ClienteRequest{
			Nombre:   v.ClienteNombre,
			Cedula:   v.ClienteCedula,
			Telefono: v.ClienteTelefono,
		},
		Items:         items,
		MetodoPago:    v.MetodoPago,
		Proveedor:     v.ProveedorCredito,
		TotalUSD:      v.TotalUSD,
		TotalBs:       v.TotalBs,
		Tasa:          v.Tasa,
		Observaciones: v.Observaciones,
		EstadoEnvio:   v.EstadoEnvio,
		Exito:         v.EstadoEnvio == model.EnvioEnviada,
		CreatedAt:     v.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
	if plan != nil {
		resp.Plan = planToResponse(plan, s.formatoFecha)
	}
	return resp
}
