package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ojedapedro/aci-tpv-movilnet/internal/carrito"
	"github.com/ojedapedro/aci-tpv-movilnet/internal/dto"
	"github.com/ojedapedro/aci-tpv-movilnet/internal/infra"
	"github.com/ojedapedro/aci-tpv-movilnet/internal/model"
	"github.com/ojedapedro/aci-tpv-movilnet/internal/repository"
)

// stubCarritoRepo keeps carts in a map instead of Redis.
type stubCarritoRepo struct {
	carritos map[string]*carrito.Carrito
}

func newStubCarritoRepo() *stubCarritoRepo {
	return &stubCarritoRepo{carritos: make(map[string]*carrito.Carrito)}
}

func (r *stubCarritoRepo) Get(_ context.Context, terminal string) (*carrito.Carrito, error) {
	c, ok := r.carritos[terminal]
	if !ok {
		return nil, repository.ErrCarritoNoEncontrado
	}
	copia := *c
	return &copia, nil
}

func (r *stubCarritoRepo) Save(_ context.Context, terminal string, c *carrito.Carrito) error {
	copia := *c
	r.carritos[terminal] = &copia
	return nil
}

func (r *stubCarritoRepo) Delete(_ context.Context, terminal string) error {
	delete(r.carritos, terminal)
	return nil
}

var _ repository.CarritoRepository = (*stubCarritoRepo)(nil)

func buildCarritoSvc() (CarritoService, *stubCarritoRepo, *stubSink) {
	carritoRepo := newStubCarritoRepo()
	catalogo := newStubCatalogo(
		model.Producto{Codigo: "TEL-001", Nombre: "Teléfono XR20", PrecioUSD: decimal.NewFromInt(75), Stock: 10, StockMinimo: 2},
		model.Producto{Codigo: "ACC-014", Nombre: "Forro transparente", PrecioUSD: decimal.NewFromFloat(5.50), Stock: 40, StockMinimo: 5},
	)
	sink := &stubSink{}
	cb := infra.NewCircuitBreaker(infra.DefaultCBConfig())
	ventas := NewVentaService(newStubVentaRepo(), catalogo, sink, cb, nil, 0.4, 6, "02/01/2006")
	svc := NewCarritoService(carritoRepo, catalogo, ventas, 0.4, 6, "02/01/2006")
	return svc, carritoRepo, sink
}

const terminal = "caja-1"

func TestCarrito_FlujoCompleto(t *testing.T) {
	svc, _, sink := buildCarritoSvc()
	ctx := context.Background()

	// Empty cart on first contact
	resp, err := svc.Obtener(ctx, terminal)
	require.NoError(t, err)
	assert.Empty(t, resp.Items)
	assert.Equal(t, model.PagoContado, resp.MetodoPago)

	// Rate first, then items
	_, err = svc.FijarTasa(ctx, terminal, decimal.NewFromInt(40))
	require.NoError(t, err)

	resp, err = svc.AgregarItem(ctx, terminal, dto.AgregarItemRequest{Codigo: "TEL-001", Cantidad: 1})
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "75", resp.TotalUSD.String())
	assert.Equal(t, "3000", resp.TotalBs.String())

	// Same código merges into the existing line
	resp, err = svc.AgregarItem(ctx, terminal, dto.AgregarItemRequest{Codigo: "TEL-001", Cantidad: 1})
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, 2, resp.Items[0].Cantidad)

	_, err = svc.SeleccionarCliente(ctx, terminal, dto.ClienteRequest{
		Nombre: "María Pérez", Cedula: "V-14553211", Telefono: "0414-5551234",
	})
	require.NoError(t, err)

	ventaResp, err := svc.Checkout(ctx, terminal)
	require.NoError(t, err)
	assert.True(t, ventaResp.Exito)
	assert.Equal(t, "150", ventaResp.TotalUSD.String())
	require.Len(t, sink.enviadas, 1)

	// Cart reset after checkout, rate survives
	carritoResp, err := svc.Obtener(ctx, terminal)
	require.NoError(t, err)
	assert.Empty(t, carritoResp.Items)
	assert.Equal(t, "40", carritoResp.Tasa.String())
}

func TestCarrito_TasaInmutable(t *testing.T) {
	svc, _, _ := buildCarritoSvc()
	ctx := context.Background()

	_, err := svc.FijarTasa(ctx, terminal, decimal.NewFromInt(40))
	require.NoError(t, err)

	_, err = svc.FijarTasa(ctx, terminal, decimal.NewFromInt(45))
	assert.ErrorIs(t, err, carrito.ErrTasaYaFijada)
}

func TestCarrito_PlanPreviewEnCredito(t *testing.T) {
	svc, _, _ := buildCarritoSvc()
	ctx := context.Background()
	proveedor := "Zona Naranja"

	_, err := svc.FijarTasa(ctx, terminal, decimal.NewFromInt(40))
	require.NoError(t, err)
	_, err = svc.AgregarItem(ctx, terminal, dto.AgregarItemRequest{Codigo: "TEL-001", Cantidad: 2})
	require.NoError(t, err)

	resp, err := svc.FijarMetodoPago(ctx, terminal, dto.MetodoPagoRequest{MetodoPago: model.PagoCredito, Proveedor: &proveedor})
	require.NoError(t, err)

	require.NotNil(t, resp.Plan)
	assert.Equal(t, "Zona Naranja", resp.Plan.Proveedor)
	assert.Equal(t, "60", resp.Plan.InicialUSD.String())
	require.Len(t, resp.Plan.Cuotas, 6)
	assert.Equal(t, "15", resp.Plan.Cuotas[0].MontoUSD.String())

	// Back to contado clears provider and preview
	resp, err = svc.FijarMetodoPago(ctx, terminal, dto.MetodoPagoRequest{MetodoPago: model.PagoContado})
	require.NoError(t, err)
	assert.Nil(t, resp.Plan)
	assert.Nil(t, resp.Proveedor)
}

func TestCarrito_ProveedorDesconocido(t *testing.T) {
	svc, _, _ := buildCarritoSvc()
	proveedor := "Krediya"

	_, err := svc.FijarMetodoPago(context.Background(), terminal, dto.MetodoPagoRequest{
		MetodoPago: model.PagoCredito, Proveedor: &proveedor,
	})
	assert.ErrorIs(t, err, ErrProveedorInvalido)
}

func TestCarrito_QuitarItemInexistente(t *testing.T) {
	svc, _, _ := buildCarritoSvc()

	_, err := svc.QuitarItem(context.Background(), terminal, "NO-EXISTE")
	assert.ErrorIs(t, err, ErrItemNoEnCarrito)
}

func TestCarrito_CheckoutIncompleto(t *testing.T) {
	svc, repo, _ := buildCarritoSvc()
	ctx := context.Background()

	_, err := svc.FijarTasa(ctx, terminal, decimal.NewFromInt(40))
	require.NoError(t, err)
	_, err = svc.AgregarItem(ctx, terminal, dto.AgregarItemRequest{Codigo: "ACC-014", Cantidad: 1})
	require.NoError(t, err)

	// No customer selected yet
	_, err = svc.Checkout(ctx, terminal)
	assert.ErrorIs(t, err, carrito.ErrClienteIncompleto)

	// The cart must survive a failed checkout untouched
	c, err := repo.Get(ctx, terminal)
	require.NoError(t, err)
	assert.Len(t, c.Items, 1)
}
