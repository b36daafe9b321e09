package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ojedapedro/aci-tpv-movilnet/internal/carrito"
)

// ErrCarritoNoEncontrado indica que el terminal no tiene carrito activo.
var ErrCarritoNoEncontrado = errors.New("carrito no encontrado")

// Un carrito abandonado expira solo; una jornada completa con margen.
const carritoTTL = 24 * time.Hour

// CarritoRepository persists per-terminal cart sessions so a terminal can
// recover its cart after a page reload or a crash.
type CarritoRepository interface {
	Get(ctx context.Context, terminal string) (*carrito.Carrito, error)
	Save(ctx context.Context, terminal string, c *carrito.Carrito) error
	Delete(ctx context.Context, terminal string) error
}

type carritoRepo struct{ rdb *redis.Client }

func NewCarritoRepository(rdb *redis.Client) CarritoRepository {
	return &carritoRepo{rdb: rdb}
}

func carritoKey(terminal string) string { return "carrito:" + terminal }

func (r *carritoRepo) Get(ctx context.Context, terminal string) (*carrito.Carrito, error) {
	b, err := r.rdb.Get(ctx, carritoKey(terminal)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCarritoNoEncontrado
	}
	if err != nil {
		return nil, fmt.Errorf("carrito: leer sesión: %w", err)
	}
	var c carrito.Carrito
	if err := json.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("carrito: deserializar sesión: %w", err)
	}
	return &c, nil
}

func (r *carritoRepo) Save(ctx context.Context, terminal string, c *carrito.Carrito) error {
	b, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("carrito: serializar sesión: %w", err)
	}
	return r.rdb.Set(ctx, carritoKey(terminal), b, carritoTTL).Err()
}

func (r *carritoRepo) Delete(ctx context.Context, terminal string) error {
	return r.rdb.Del(ctx, carritoKey(terminal)).Err()
}
