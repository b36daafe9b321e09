package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/ojedapedro/aci-tpv-movilnet/internal/carrito"
	"github.com/ojedapedro/aci-tpv-movilnet/internal/credito"
	"github.com/ojedapedro/aci-tpv-movilnet/internal/dto"
	"github.com/ojedapedro/aci-tpv-movilnet/internal/model"
	"github.com/ojedapedro/aci-tpv-movilnet/internal/moneda"
	"github.com/ojedapedro/aci-tpv-movilnet/internal/repository"
)

var ErrItemNoEnCarrito = errors.New("el producto no está en el carrito")

// CarritoService runs one cart per terminal, persisted in Redis between
// requests. Every mutation loads the cart, applies a transition and saves it
// back; the terminal id comes from the X-Terminal header.
type CarritoService interface {
	Obtener(ctx context.Context, terminal string) (*dto.CarritoResponse, error)
	FijarTasa(ctx context.Context, terminal string, tasa decimal.Decimal) (*dto.CarritoResponse, error)
	AgregarItem(ctx context.Context, terminal string, req dto.AgregarItemRequest) (*dto.CarritoResponse, error)
	QuitarItem(ctx context.Context, terminal, codigo string) (*dto.CarritoResponse, error)
	SeleccionarCliente(ctx context.Context, terminal string, req dto.ClienteRequest) (*dto.CarritoResponse, error)
	FijarMetodoPago(ctx context.Context, terminal string, req dto.MetodoPagoRequest) (*dto.CarritoResponse, error)
	FijarObservaciones(ctx context.Context, terminal, texto string) (*dto.CarritoResponse, error)
	Vaciar(ctx context.Context, terminal string) (*dto.CarritoResponse, error)
	Checkout(ctx context.Context, terminal string) (*dto.VentaResponse, error)
}

type carritoService struct {
	repo            repository.CarritoRepository
	catalogo        CatalogoService
	ventas          VentaService
	fraccionInicial decimal.Decimal
	numCuotas       int
	formatoFecha    string
}

func NewCarritoService(
	repo repository.CarritoRepository,
	catalogo CatalogoService,
	ventas VentaService,
	fraccionInicial float64,
	numCuotas int,
	formatoFecha string,
) CarritoService {
	fraccion := decimal.NewFromFloat(fraccionInicial)
	if fraccion.IsZero() {
		fraccion = credito.FraccionInicialDefault
	}
	if numCuotas == 0 {
		numCuotas = credito.NumCuotasDefault
	}
	return &carritoService{
		repo:            repo,
		catalogo:        catalogo,
		ventas:          ventas,
		fraccionInicial: fraccion,
		numCuotas:       numCuotas,
		formatoFecha:    formatoFecha,
	}
}

// cargar returns the terminal's cart, creating a fresh one when none exists.
func (s *carritoService) cargar(ctx context.Context, terminal string) (*carrito.Carrito, error) {
	c, err := s.repo.Get(ctx, terminal)
	if errors.Is(err, repository.ErrCarritoNoEncontrado) {
		return carrito.Nuevo(), nil
	}
	return c, err
}

func (s *carritoService) guardarYResponder(ctx context.Context, terminal string, c *carrito.Carrito) (*dto.CarritoResponse, error) {
	if err := s.repo.Save(ctx, terminal, c); err != nil {
		return nil, err
	}
	return s.carritoToResponse(terminal, c), nil
}

func (s *carritoService) Obtener(ctx context.Context, terminal string) (*dto.CarritoResponse, error) {
	c, err := s.cargar(ctx, terminal)
	if err != nil {
		return nil, err
	}
	return s.carritoToResponse(terminal, c), nil
}

func (s *carritoService) FijarTasa(ctx context.Context, terminal string, tasa decimal.Decimal) (*dto.CarritoResponse, error) {
	c, err := s.cargar(ctx, terminal)
	if err != nil {
		return nil, err
	}
	if err := c.FijarTasa(tasa); err != nil {
		return nil, err
	}
	return s.guardarYResponder(ctx, terminal, c)
}

func (s *carritoService) AgregarItem(ctx context.Context, terminal string, req dto.AgregarItemRequest) (*dto.CarritoResponse, error) {
	c, err := s.cargar(ctx, terminal)
	if err != nil {
		return nil, err
	}
	p, err := s.catalogo.BuscarProducto(ctx, req.Codigo)
	if err != nil {
		return nil, err
	}
	if err := c.AgregarItem(*p, req.Cantidad); err != nil {
		return nil, err
	}
	return s.guardarYResponder(ctx, terminal, c)
}

func (s *carritoService) QuitarItem(ctx context.Context, terminal, codigo string) (*dto.CarritoResponse, error) {
	c, err := s.cargar(ctx, terminal)
	if err != nil {
		return nil, err
	}
	if !c.QuitarItem(codigo) {
		return nil, ErrItemNoEnCarrito
	}
	return s.guardarYResponder(ctx, terminal, c)
}

func (s *carritoService) SeleccionarCliente(ctx context.Context, terminal string, req dto.ClienteRequest) (*dto.CarritoResponse, error) {
	c, err := s.cargar(ctx, terminal)
	if err != nil {
		return nil, err
	}
	c.SeleccionarCliente(model.Cliente{Nombre: req.Nombre, Cedula: req.Cedula, Telefono: req.Telefono})
	return s.guardarYResponder(ctx, terminal, c)
}

func (s *carritoService) FijarMetodoPago(ctx context.Context, terminal string, req dto.MetodoPagoRequest) (*dto.CarritoResponse, error) {
	c, err := s.cargar(ctx, terminal)
	if err != nil {
		return nil, err
	}
	proveedor := ""
	if req.Proveedor != nil {
		proveedor = *req.Proveedor
	}
	if req.MetodoPago == model.PagoCredito && !credito.ProveedorValido(proveedor) {
		return nil, ErrProveedorInvalido
	}
	if err := c.FijarMetodoPago(req.MetodoPago, proveedor); err != nil {
		return nil, err
	}
	return s.guardarYResponder(ctx, terminal, c)
}

func (s *carritoService) FijarObservaciones(ctx context.Context, terminal, texto string) (*dto.CarritoResponse, error) {
	c, err := s.cargar(ctx, terminal)
	if err != nil {
		return nil, err
	}
	c.FijarObservaciones(texto)
	return s.guardarYResponder(ctx, terminal, c)
}

func (s *carritoService) Vaciar(ctx context.Context, terminal string) (*dto.CarritoResponse, error) {
	c, err := s.cargar(ctx, terminal)
	if err != nil {
		return nil, err
	}
	c.Reset()
	return s.guardarYResponder(ctx, terminal, c)
}

// Checkout registers the cart as a sale and resets the cart on success.
// The session rate survives the reset.
func (s *carritoService) Checkout(ctx context.Context, terminal string) (*dto.VentaResponse, error) {
	c, err := s.cargar(ctx, terminal)
	if err != nil {
		return nil, err
	}

	resp, err := s.ventas.RegistrarDesdeCarrito(ctx, c)
	if err != nil {
		return nil, err
	}

	c.Reset()
	if err := s.repo.Save(ctx, terminal, c); err != nil {
		log.Warn().Err(err).Str("terminal", terminal).Msg("carrito: no se pudo limpiar tras checkout")
	}
	return resp, nil
}

// ── Mapeo ────────────────────────────────────────────────────────────────────

func (s *carritoService) carritoToResponse(terminal string, c *carrito.Carrito) *dto.CarritoResponse {
	resp := &dto.CarritoResponse{
		Terminal:      terminal,
		Items:         make([]dto.ItemCarritoResponse, 0, len(c.Items)),
		MetodoPago:    c.MetodoPago,
		Tasa:          c.Tasa,
		Observaciones: c.Observaciones,
		TotalUSD:      c.TotalUSD().Round(2),
		TotalBs:       c.TotalBs(),
	}
	for _, it := range c.Items {
		sub := it.PrecioUSD.Mul(decimal.NewFromInt(int64(it.Cantidad))).Round(2)
		resp.Items = append(resp.Items, dto.ItemCarritoResponse{
			Codigo:      it.Codigo,
			Nombre:      it.Nombre,
			Cantidad:    it.Cantidad,
			PrecioUSD:   it.PrecioUSD,
			SubtotalUSD: sub,
			SubtotalBs:  moneda.Convertir(sub, c.Tasa),
		})
	}
	if c.Cliente.Nombre != "" || c.Cliente.Cedula != "" {
		resp.Cliente = &dto.ClienteRequest{
			Nombre:   c.Cliente.Nombre,
			Cedula:   c.Cliente.Cedula,
			Telefono: c.Cliente.Telefono,
		}
	}
	if c.ProveedorCredito != "" {
		p := c.ProveedorCredito
		resp.Proveedor = &p
	}

	// Live plan preview: recalculated on every cart change, anchored to now.
	if c.MetodoPago == model.PagoCredito && len(c.Items) > 0 && c.Tasa.IsPositive() {
		plan, err := credito.Calcular(credito.PlanParams{
			Total:           resp.TotalUSD,
			Tasa:            c.Tasa,
			FraccionInicial: s.fraccionInicial,
			NumCuotas:       s.numCuotas,
			Proveedor:       c.ProveedorCredito,
		})
		if err == nil {
			resp.Plan = planToResponse(plan, s.formatoFecha)
		}
	}
	return resp
}
