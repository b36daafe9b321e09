package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ojedapedro/aci-tpv-movilnet/internal/dto"
	"github.com/ojedapedro/aci-tpv-movilnet/internal/infra"
	"github.com/ojedapedro/aci-tpv-movilnet/internal/model"
	"github.com/ojedapedro/aci-tpv-movilnet/internal/repository"
)

// stubVentaRepo is the minimal in-memory journal the cron needs.
type stubVentaRepo struct {
	ventas map[uuid.UUID]*model.Venta
}

func newStubVentaRepo(ventas ...*model.Venta) *stubVentaRepo {
	r := &stubVentaRepo{ventas: make(map[uuid.UUID]*model.Venta)}
	for _, v := range ventas {
		if v.ID == uuid.Nil {
			v.ID = uuid.New()
		}
		r.ventas[v.ID] = v
	}
	return r
}

func (r *stubVentaRepo) Create(_ context.Context, _ *gorm.DB, v *model.Venta) error {
	r.ventas[v.ID] = v
	return nil
}

func (r *stubVentaRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Venta, error) {
	v, ok := r.ventas[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return v, nil
}

func (r *stubVentaRepo) NextNumero(_ context.Context, _ *gorm.DB) (int, error) { return 0, nil }

func (r *stubVentaRepo) List(_ context.Context, _ dto.VentaFilter) ([]model.Venta, int64, error) {
	return nil, 0, nil
}

func (r *stubVentaRepo) MarcarEnviada(_ context.Context, id uuid.UUID) error {
	v := r.ventas[id]
	v.EstadoEnvio = model.EnvioEnviada
	v.ProximoIntento = nil
	return nil
}

func (r *stubVentaRepo) MarcarFallo(_ context.Context, id uuid.UUID, estado, motivo string, proximo *time.Time) error {
	v := r.ventas[id]
	v.EstadoEnvio = estado
	v.IntentosEnvio++
	v.UltimoError = &motivo
	v.ProximoIntento = proximo
	return nil
}

func (r *stubVentaRepo) ListPendientes(_ context.Context, ahora time.Time, limite int) ([]model.Venta, error) {
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

type stubSink struct {
	fallar          bool
	fallarDescuento bool
	enviadas        int
}

func (s *stubSink) AppendVenta(_ context.Context, _ *model.Venta) error {
	if s.fallar {
		return errors.New("googleapi: Error 503")
	}
	s.enviadas++
	return nil
}

func (s *stubSink) DescontarStock(_ context.Context, _ []model.VentaItem) error {
	if s.fallar || s.fallarDescuento {
		return errors.New("googleapi: Error 503")
	}
	return nil
}

func ventaPendiente(intentos int) *model.Venta {
	return &model.Venta{
		ID:            uuid.New(),
		Numero:        intentos + 100,
		EstadoEnvio:   model.EnvioPendiente,
		IntentosEnvio: intentos,
	}
}

func TestProcessRetries_EnviaPendientes(t *testing.T) {
	v := ventaPendiente(2)
	repo := newStubVentaRepo(v)
	sink := &stubSink{}

	processRetries(context.Background(), RetryCronConfig{
		VentaRepo: repo,
		Sink:      sink,
		CB:        infra.NewCircuitBreaker(infra.DefaultCBConfig()),
	})

	assert.Equal(t, 1, sink.enviadas)
	assert.Equal(t, model.EnvioEnviada, repo.ventas[v.ID].EstadoEnvio)
	assert.Nil(t, repo.ventas[v.ID].ProximoIntento)
}

func TestProcessRetries_DescuentoFallaNoReencola(t *testing.T) {
	v := ventaPendiente(2)
	repo := newStubVentaRepo(v)
	sink := &stubSink{fallarDescuento: true}
	cfg := RetryCronConfig{
		VentaRepo: repo,
		Sink:      sink,
		CB:        infra.NewCircuitBreaker(infra.DefaultCBConfig()),
	}

	processRetries(context.Background(), cfg)

	// The row was appended, so the venta is delivered and leaves the queue
	assert.Equal(t, 1, sink.enviadas)
	assert.Equal(t, model.EnvioEnviada, repo.ventas[v.ID].EstadoEnvio)

	// A second tick must not append the same sale again
	processRetries(context.Background(), cfg)
	assert.Equal(t, 1, sink.enviadas)
}

func TestProcessRetries_FalloProgramaSiguiente(t *testing.T) {
	v := ventaPendiente(1)
	repo := newStubVentaRepo(v)
	sink := &stubSink{fallar: true}

	processRetries(context.Background(), RetryCronConfig{
		VentaRepo: repo,
		Sink:      sink,
		CB:        infra.NewCircuitBreaker(infra.DefaultCBConfig()),
	})

	got := repo.ventas[v.ID]
	assert.Equal(t, model.EnvioPendiente, got.EstadoEnvio)
	assert.Equal(t, 2, got.IntentosEnvio)
	require.NotNil(t, got.ProximoIntento)
	assert.True(t, got.ProximoIntento.After(time.Now()))
}

func TestProcessRetries_RespetaProximoIntento(t *testing.T) {
	v := ventaPendiente(3)
	futuro := time.Now().Add(10 * time.Minute)
	v.ProximoIntento = &futuro
	repo := newStubVentaRepo(v)
	sink := &stubSink{}

	processRetries(context.Background(), RetryCronConfig{
		VentaRepo: repo,
		Sink:      sink,
		CB:        infra.NewCircuitBreaker(infra.DefaultCBConfig()),
	})

	assert.Equal(t, 0, sink.enviadas, "una venta agendada a futuro no se toca")
}

func TestComputeRetryBackoff(t *testing.T) {
	assert.Equal(t, time.Minute, computeRetryBackoff(1))
	assert.Equal(t, 2*time.Minute, computeRetryBackoff(2))
	assert.Equal(t, 4*time.Minute, computeRetryBackoff(3))
	assert.Equal(t, 16*time.Minute, computeRetryBackoff(5))
	// Capped
	assert.Equal(t, 30*time.Minute, computeRetryBackoff(6))
	assert.Equal(t, 30*time.Minute, computeRetryBackoff(12))
}
