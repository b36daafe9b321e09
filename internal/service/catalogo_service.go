package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/ojedapedro/aci-tpv-movilnet/internal/dto"
	"github.com/ojedapedro/aci-tpv-movilnet/internal/infra"
	"github.com/ojedapedro/aci-tpv-movilnet/internal/model"
)

// ErrProductoNoEncontrado is returned when a código is not in the catalog.
var ErrProductoNoEncontrado = errors.New("producto no encontrado")

const (
	inventarioCacheKey = "catalogo:inventario"
	clientesCacheKey   = "catalogo:clientes"
	// Fresh window: the sheet is the source of truth, the cache only shields
	// it from one request per keystroke in the product search box.
	catalogoCacheTTL = 2 * time.Minute
	// Backup window: last good copy, served (flagged degradado) when the
	// sheet is unreachable so the terminal keeps selling.
	catalogoRespaldoTTL = 24 * time.Hour
)

// CatalogoFuente is the slice of the sheets client the catalog reads through.
type CatalogoFuente interface {
	FetchInventario(ctx context.Context) ([]model.Producto, error)
	FetchClientes(ctx context.Context) ([]model.Cliente, error)
}

// CatalogoService serves products and the customer autocomplete list, both
// sourced from the external sheet with a Redis cache in front.
type CatalogoService interface {
	ListarProductos(ctx context.Context, filtro string) (*dto.ProductoListResponse, error)
	BuscarProducto(ctx context.Context, codigo string) (*model.Producto, error)
	ListarClientes(ctx context.Context, filtro string) (*dto.ClienteListResponse, error)
}

type catalogoService struct {
	fuente CatalogoFuente
	cb     *infra.CircuitBreaker
	rdb    *redis.Client
}

func NewCatalogoService(fuente CatalogoFuente, cb *infra.CircuitBreaker, rdb *redis.Client) CatalogoService {
	return &catalogoService{fuente: fuente, cb: cb, rdb: rdb}
}

func (s *catalogoService) ListarProductos(ctx context.Context, filtro string) (*dto.ProductoListResponse, error) {
	productos, degradado := s.inventario(ctx)

	filtro = strings.ToLower(strings.TrimSpace(filtro))
	resp := &dto.ProductoListResponse{
		Data:      make([]dto.ProductoResponse, 0, len(productos)),
		Degradado: degradado,
	}
	for _, p := range productos {
		if filtro != "" &&
			!strings.Contains(strings.ToLower(p.Nombre), filtro) &&
			!strings.Contains(strings.ToLower(p.Codigo), filtro) {
			continue
		}
		resp.Data = append(resp.Data, dto.ProductoResponse{
			Codigo:      p.Codigo,
			Nombre:      p.Nombre,
			PrecioUSD:   p.PrecioUSD,
			Stock:       p.Stock,
			StockMinimo: p.StockMinimo,
			BajoStock:   p.BajoStock(),
		})
	}
	resp.Total = len(resp.Data)
	return resp, nil
}

func (s *catalogoService) BuscarProducto(ctx context.Context, codigo string) (*model.Producto, error) {
	productos, _ := s.inventario(ctx)
	for i := range productos {
		if productos[i].Codigo == codigo {
			return &productos[i], nil
		}
	}
	return nil, ErrProductoNoEncontrado
}

func (s *catalogoService) ListarClientes(ctx context.Context, filtro string) (*dto.ClienteListResponse, error) {
	clientes, degradado := s.clientes(ctx)

	filtro = strings.ToLower(strings.TrimSpace(filtro))
	resp := &dto.ClienteListResponse{Data: make([]dto.ClienteResponse, 0), Degradado: degradado}
	for _, c := range clientes {
		if filtro != "" &&
			!strings.Contains(strings.ToLower(c.Nombre), filtro) &&
			!strings.Contains(c.Cedula, filtro) {
			continue
		}
		resp.Data = append(resp.Data, dto.ClienteResponse{
			Nombre:   c.Nombre,
			Cedula:   c.Cedula,
			Telefono: c.Telefono,
		})
	}
	resp.Total = len(resp.Data)
	return resp, nil
}

// ── Lectura con caché y degradación ─────────────────────────────────────────

// inventario returns the catalog and whether it came from the backup copy.
func (s *catalogoService) inventario(ctx context.Context) ([]model.Producto, bool) {
	var productos []model.Producto
	if cacheGet(ctx, s.rdb, inventarioCacheKey, &productos) {
		return productos, false
	}

	cbErr := s.cb.Execute(func() error {
		var err error
		productos, err = s.fuente.FetchInventario(ctx)
		return err
	})
	if cbErr == nil {
		cacheSet(ctx, s.rdb, inventarioCacheKey, productos, catalogoCacheTTL)
		cacheSet(ctx, s.rdb, inventarioCacheKey+":respaldo", productos, catalogoRespaldoTTL)
		return productos, false
	}

	log.Warn().Err(cbErr).Msg("catalogo: inventario inaccesible, sirviendo respaldo")
	if cacheGet(ctx, s.rdb, inventarioCacheKey+":respaldo", &productos) {
		return productos, true
	}
	return nil, true
}

func (s *catalogoService) clientes(ctx context.Context) ([]model.Cliente, bool) {
	var clientes []model.Cliente
	if cacheGet(ctx, s.rdb, clientesCacheKey, &clientes) {
		return clientes, false
	}

	cbErr := s.cb.Execute(func() error {
		var err error
		clientes, err = s.fuente.FetchClientes(ctx)
		return err
	})
	if cbErr == nil {
		cacheSet(ctx, s.rdb, clientesCacheKey, clientes, catalogoCacheTTL)
		cacheSet(ctx, s.rdb, clientesCacheKey+":respaldo", clientes, catalogoRespaldoTTL)
		return clientes, false
	}

	log.Warn().Err(cbErr).Msg("catalogo: clientes inaccesibles, sirviendo respaldo")
	if cacheGet(ctx, s.rdb, clientesCacheKey+":respaldo", &clientes) {
		return clientes, true
	}
	return nil, true
}

// cacheGet/cacheSet are best-effort: a nil client (unit tests) or a Redis
// error degrade to a direct sheet read, never to a request failure.
func cacheGet(ctx context.Context, rdb *redis.Client, key string, dest interface{}) bool {
	if rdb == nil {
		return false
	}
	b, err := rdb.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(b, dest) == nil
}

func cacheSet(ctx context.Context, rdb *redis.Client, key string, val interface{}, ttl time.Duration) {
	if rdb == nil {
		return
	}
	if b, err := json.Marshal(val); err == nil {
		_ = rdb.Set(ctx, key, b, ttl).Err()
	}
}
