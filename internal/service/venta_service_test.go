package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ojedapedro/aci-tpv-movilnet/internal/carrito"
	"github.com/ojedapedro/aci-tpv-movilnet/internal/dto"
	"github.com/ojedapedro/aci-tpv-movilnet/internal/infra"
	"github.com/ojedapedro/aci-tpv-movilnet/internal/model"
	"github.com/ojedapedro/aci-tpv-movilnet/internal/repository"
)

// ── Stubs ─────────────────────────────────────────────────────────────────────

// stubVentaRepo is an in-memory VentaRepository for testing.
type stubVentaRepo struct {
	mu     sync.Mutex
	ventas map[uuid.UUID]*model.Venta
	seq    int
}

func newStubVentaRepo() *stubVentaRepo {
	return &stubVentaRepo{ventas: make(map[uuid.UUID]*model.Venta)}
}

func (r *stubVentaRepo) Create(_ context.Context, _ *gorm.DB, v *model.Venta) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	r.ventas[v.ID] = v
	return nil
}

func (r *stubVentaRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Venta, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.ventas[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return v, nil
}

func (r *stubVentaRepo) NextNumero(_ context.Context, _ *gorm.DB) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	return r.seq, nil
}

func (r *stubVentaRepo) List(_ context.Context, _ dto.VentaFilter) ([]model.Venta, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Venta, 0, len(r.ventas))
	for _, v := range r.ventas {
		out = append(out, *v)
	}
	return out, int64(len(out)), nil
}

func (r *stubVentaRepo) MarcarEnviada(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.ventas[id]
	if !ok {
		return errors.New("not found")
	}
	v.EstadoEnvio = model.EnvioEnviada
	v.UltimoError = nil
	v.ProximoIntento = nil
	return nil
}

func (r *stubVentaRepo) MarcarFallo(_ context.Context, id uuid.UUID, estado, motivo string, proximo *time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.ventas[id]
	if !ok {
		return errors.New("not found")
	}
	v.EstadoEnvio = estado
	v.IntentosEnvio++
	v.UltimoError = &motivo
	v.ProximoIntento = proximo
	return nil
}

func (r *stubVentaRepo) ListPendientes(_ context.Context, ahora time.Time, limite int) ([]model.Venta, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Venta
	for _, v := range r.ventas {
		if v.EstadoEnvio != model.EnvioPendiente {
			continue
		}
		if v.ProximoIntento != nil && v.ProximoIntento.After(ahora) {
			continue
		}
		out = append(out, *v)
		if len(out) == limite {
			break
		}
	}
	return out, nil
}

func (r *stubVentaRepo) ResumenMes(_ context.Context, _ int, _ time.Month) (*repository.ResumenMensual, error) {
	return &repository.ResumenMensual{TotalUSD: "0", TotalBs: "0"}, nil
}

func (r *stubVentaRepo) DB() *gorm.DB { return nil }

var _ repository.VentaRepository = (*stubVentaRepo)(nil)

// stubCatalogo serves a fixed product list without sheet or cache.
type stubCatalogo struct {
	productos map[string]model.Producto
}

func newStubCatalogo(productos ...model.Producto) *stubCatalogo {
	s := &stubCatalogo{productos: make(map[string]model.Producto)}
	for _, p := range productos {
		s.productos[p.Codigo] = p
	}
	return s
}

func (s *stubCatalogo) ListarProductos(_ context.Context, _ string) (*dto.ProductoListResponse, error) {
	resp := &dto.ProductoListResponse{}
	for _, p := range s.productos {
		resp.Data = append(resp.Data, dto.ProductoResponse{Codigo: p.Codigo, Nombre: p.Nombre, PrecioUSD: p.PrecioUSD})
	}
	resp.Total = len(resp.Data)
	return resp, nil
}

func (s *stubCatalogo) BuscarProducto(_ context.Context, codigo string) (*model.Producto, error) {
	p, ok := s.productos[codigo]
	if !ok {
		return nil, ErrProductoNoEncontrado
	}
	return &p, nil
}

func (s *stubCatalogo) ListarClientes(_ context.Context, _ string) (*dto.ClienteListResponse, error) {
	return &dto.ClienteListResponse{}, nil
}

var _ CatalogoService = (*stubCatalogo)(nil)

// stubSink records pushed rows and can be told to fail, either wholesale or
// only on the stock decrement.
type stubSink struct {
	mu              sync.Mutex
	fallar          bool
	fallarDescuento bool
	enviadas        []model.Venta
	descontados     []model.VentaItem
}

func (s *stubSink) AppendVenta(_ context.Context, v *model.Venta) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fallar {
		return errors.New("googleapi: Error 503")
	}
	s.enviadas = append(s.enviadas, *v)
	return nil
}

func (s *stubSink) DescontarStock(_ context.Context, items []model.VentaItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fallar || s.fallarDescuento {
		return errors.New("googleapi: Error 503")
	}
	s.descontados = append(s.descontados, items...)
	return nil
}

var _ VentaSink = (*stubSink)(nil)

// ── Helpers ───────────────────────────────────────────────────────────────────

func buildVentaSvc() (VentaService, *stubVentaRepo, *stubCatalogo, *stubSink) {
	repo := newStubVentaRepo()
	catalogo := newStubCatalogo(
		model.Producto{Codigo: "TEL-001", Nombre: "Teléfono XR20", PrecioUSD: decimal.NewFromInt(75), Stock: 10, StockMinimo: 2},
		model.Producto{Codigo: "ACC-014", Nombre: "Forro transparente", PrecioUSD: decimal.NewFromFloat(5.50), Stock: 40, StockMinimo: 5},
	)
	sink := &stubSink{}
	cb := infra.NewCircuitBreaker(infra.DefaultCBConfig())
	svc := NewVentaService(repo, catalogo, sink, cb, nil, 0.4, 6, "02/01/2006")
	return svc, repo, catalogo, sink
}

func reqContado() dto.RegistrarVentaRequest {
	return dto.RegistrarVentaRequest{
		Cliente:    dto.ClienteRequest{Nombre: "María Pérez", Cedula: "V-14553211", Telefono: "0414-5551234"},
		Items:      []dto.ItemVentaRequest{{Codigo: "TEL-001", Cantidad: 2}},
		MetodoPago: model.PagoContado,
		Tasa:       decimal.NewFromInt(40),
	}
}

// ── Tests ─────────────────────────────────────────────────────────────────────

func TestRegistrarVenta_Contado_Enviada(t *testing.T) {
	svc, repo, _, sink := buildVentaSvc()

	resp, err := svc.Registrar(context.Background(), reqContado())
	require.NoError(t, err)

	assert.True(t, resp.Exito)
	assert.Equal(t, model.EnvioEnviada, resp.EstadoEnvio)
	assert.Equal(t, 1, resp.Numero)
	assert.Equal(t, "150", resp.TotalUSD.String())
	assert.Equal(t, "6000", resp.TotalBs.String())
	assert.Nil(t, resp.Plan)

	// One row appended, stock decremented for the sold item
	require.Len(t, sink.enviadas, 1)
	require.Len(t, sink.descontados, 1)
	assert.Equal(t, "TEL-001", sink.descontados[0].Codigo)
	assert.Equal(t, 2, sink.descontados[0].Cantidad)

	stored, err := repo.FindByID(context.Background(), uuid.MustParse(resp.ID))
	require.NoError(t, err)
	assert.Equal(t, model.EnvioEnviada, stored.EstadoEnvio)
}

func TestRegistrarVenta_Credito_PlanGuardado(t *testing.T) {
	svc, repo, _, sink := buildVentaSvc()
	proveedor := "Cashea"

	req := reqContado()
	req.MetodoPago = model.PagoCredito
	req.Proveedor = &proveedor

	resp, err := svc.Registrar(context.Background(), req)
	require.NoError(t, err)

	// 150 × 0.4 = 60 inicial, (150-60)/6 = 15 por cuota
	require.NotNil(t, resp.Plan)
	assert.Equal(t, "Cashea", resp.Plan.Proveedor)
	assert.Equal(t, "60", resp.Plan.InicialUSD.String())
	assert.Equal(t, "2400", resp.Plan.InicialBs.String())
	require.Len(t, resp.Plan.Cuotas, 6)
	for _, c := range resp.Plan.Cuotas {
		assert.Equal(t, "15", c.MontoUSD.String())
		assert.Equal(t, "600", c.MontoBs.String())
	}

	// Serialized plan lands in the journal and in the sheet row
	stored, _ := repo.FindByID(context.Background(), uuid.MustParse(resp.ID))
	require.NotNil(t, stored.PlanCredito)
	assert.Contains(t, *stored.PlanCredito, "Cashea")
	require.Len(t, sink.enviadas, 1)
	assert.Equal(t, model.PagoCredito, sink.enviadas[0].MetodoPago)
}

func TestRegistrarVenta_ProveedorInvalido(t *testing.T) {
	svc, _, _, _ := buildVentaSvc()
	proveedor := "CrediFácil"

	req := reqContado()
	req.MetodoPago = model.PagoCredito
	req.Proveedor = &proveedor

	_, err := svc.Registrar(context.Background(), req)
	assert.ErrorIs(t, err, ErrProveedorInvalido)
}

func TestRegistrarVenta_ProductoDesconocido(t *testing.T) {
	svc, _, _, _ := buildVentaSvc()

	req := reqContado()
	req.Items = []dto.ItemVentaRequest{{Codigo: "NO-EXISTE", Cantidad: 1}}

	_, err := svc.Registrar(context.Background(), req)
	assert.ErrorIs(t, err, ErrProductoNoEncontrado)
}

func TestRegistrarVenta_FalloEnvio_QuedaPendiente(t *testing.T) {
	svc, repo, _, sink := buildVentaSvc()
	sink.fallar = true

	resp, err := svc.Registrar(context.Background(), reqContado())
	require.NoError(t, err, "un fallo de envío nunca pierde la venta")

	assert.False(t, resp.Exito)
	assert.NotEmpty(t, resp.Mensaje)
	assert.Equal(t, model.EnvioPendiente, resp.EstadoEnvio)

	stored, _ := repo.FindByID(context.Background(), uuid.MustParse(resp.ID))
	assert.Equal(t, model.EnvioPendiente, stored.EstadoEnvio)
	assert.Equal(t, 1, stored.IntentosEnvio)
	require.NotNil(t, stored.ProximoIntento)
	assert.True(t, stored.ProximoIntento.After(time.Now()))
	require.NotNil(t, stored.UltimoError)
	assert.Contains(t, *stored.UltimoError, "503")
}

func TestRegistrarVenta_DescuentoFallaNoDuplicaFila(t *testing.T) {
	svc, repo, _, sink := buildVentaSvc()
	sink.fallarDescuento = true

	resp, err := svc.Registrar(context.Background(), reqContado())
	require.NoError(t, err)

	// The row landed, so the venta is delivered despite the failed decrement
	assert.True(t, resp.Exito)
	assert.Equal(t, model.EnvioEnviada, resp.EstadoEnvio)
	require.Len(t, sink.enviadas, 1)
	assert.Empty(t, sink.descontados)

	stored, _ := repo.FindByID(context.Background(), uuid.MustParse(resp.ID))
	assert.Equal(t, model.EnvioEnviada, stored.EstadoEnvio)

	// No retry path may re-append the same sale to the sheet
	_, err = svc.Reenviar(context.Background(), uuid.MustParse(resp.ID))
	assert.ErrorIs(t, err, ErrVentaYaEnviada)
	require.Len(t, sink.enviadas, 1)
}

func TestReenviar(t *testing.T) {
	svc, repo, _, sink := buildVentaSvc()
	sink.fallar = true

	resp, err := svc.Registrar(context.Background(), reqContado())
	require.NoError(t, err)
	id := uuid.MustParse(resp.ID)

	// API back up — manual resend succeeds
	sink.fallar = false
	re, err := svc.Reenviar(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, model.EnvioEnviada, re.EstadoEnvio)

	stored, _ := repo.FindByID(context.Background(), id)
	assert.Equal(t, model.EnvioEnviada, stored.EstadoEnvio)

	// Resending an already delivered venta is rejected
	_, err = svc.Reenviar(context.Background(), id)
	assert.ErrorIs(t, err, ErrVentaYaEnviada)
}

func TestRegistrarDesdeCarrito_PrecioCongelado(t *testing.T) {
	svc, _, catalogo, sink := buildVentaSvc()

	c := carrito.Nuevo()
	require.NoError(t, c.FijarTasa(decimal.NewFromInt(40)))
	p := catalogo.productos["TEL-001"]
	require.NoError(t, c.AgregarItem(p, 1))
	c.SeleccionarCliente(model.Cliente{Nombre: "José Rojas", Cedula: "V-9882301", Telefono: "0412-7779001"})

	// Catalog price moves after the line was added; the sale must keep $75
	p.PrecioUSD = decimal.NewFromInt(90)
	catalogo.productos["TEL-001"] = p

	resp, err := svc.RegistrarDesdeCarrito(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, "75", resp.TotalUSD.String())
	require.Len(t, sink.enviadas, 1)
	assert.Equal(t, "75", sink.enviadas[0].TotalUSD.String())
}

func TestRegistrarDesdeCarrito_Incompleto(t *testing.T) {
	svc, _, _, _ := buildVentaSvc()

	c := carrito.Nuevo()
	_, err := svc.RegistrarDesdeCarrito(context.Background(), c)
	assert.ErrorIs(t, err, carrito.ErrCarritoVacio)
}
