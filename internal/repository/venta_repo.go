package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ojedapedro/aci-tpv-movilnet/internal/dto"
	"github.com/ojedapedro/aci-tpv-movilnet/internal/model"
)

// ResumenMensual aggregates the journal for a calendar month.
type ResumenMensual struct {
	TotalVentas   int64
	TotalUSD      string
	TotalBs       string
	VentasContado int64
	VentasCredito int64
}

type VentaRepository interface {
	Create(ctx context.Context, tx *gorm.DB, v *model.Venta) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Venta, error)
	NextNumero(ctx context.Context, tx *gorm.DB) (int, error)
	List(ctx context.Context, filter dto.VentaFilter) ([]model.Venta, int64, error)
	MarcarEnviada(ctx context.Context, id uuid.UUID) error
	MarcarFallo(ctx context.Context, id uuid.UUID, estado, motivo string, proximoIntento *time.Time) error
	ListPendientes(ctx context.Context, ahora time.Time, limite int) ([]model.Venta, error)
	ResumenMes(ctx context.Context, anio int, mes time.Month) (*ResumenMensual, error)
	DB() *gorm.DB // exposes the DB for transaction creation in service layer
}

type ventaRepo struct{ db *gorm.DB }

func NewVentaRepository(db *gorm.DB) VentaRepository { return &ventaRepo{db: db} }

func (r *ventaRepo) DB() *gorm.DB { return r.db }

func (r *ventaRepo) Create(ctx context.Context, tx *gorm.DB, v *model.Venta) error {
	return tx.WithContext(ctx).Create(v).Error
}

func (r *ventaRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Venta, error) {
	var v model.Venta
	err := r.db.WithContext(ctx).Preload("Items").First(&v, id).Error
	return &v, err
}

func (r *ventaRepo) NextNumero(ctx context.Context, tx *gorm.DB) (int, error) {
	// MAX+1 inside the sale transaction; the unique index on numero catches
	// the (unlikely) race between two concurrent terminals.
	var num int
	err := tx.WithContext(ctx).
		Raw("SELECT COALESCE(MAX(numero), 0) + 1 FROM ventas").
		Scan(&num).Error
	return num, err
}

func (r *ventaRepo) List(ctx context.Context, filter dto.VentaFilter) ([]model.Venta, int64, error) {
	var ventas []model.Venta
	var total int64
	offset := (filter.Page - 1) * filter.Limit

	q := r.db.WithContext(ctx).Model(&model.Venta{})

	if filter.EstadoEnvio != "" && filter.EstadoEnvio != "all" {
		q = q.Where("estado_envio = ?", filter.EstadoEnvio)
	}
	if filter.MetodoPago != "" {
		q = q.Where("metodo_pago = ?", filter.MetodoPago)
	}
	if filter.Cedula != "" {
		q = q.Where("cliente_cedula = ?", filter.Cedula)
	}
	if filter.Fecha != "" {
		q = q.Where("DATE(created_at) = ?", filter.Fecha)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.Preload("Items").
		Order("created_at DESC").
		Offset(offset).Limit(filter.Limit).
		Find(&ventas).Error

	return ventas, total, err
}

func (r *ventaRepo) MarcarEnviada(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Venta{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"estado_envio":    model.EnvioEnviada,
			"ultimo_error":    nil,
			"proximo_intento": nil,
		}).Error
}

func (r *ventaRepo) MarcarFallo(ctx context.Context, id uuid.UUID, estado, motivo string, proximoIntento *time.Time) error {
	return r.db.WithContext(ctx).Model(&model.Venta{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"estado_envio":    estado,
			"intentos_envio":  gorm.Expr("intentos_envio + 1"),
			"ultimo_error":    motivo,
			"proximo_intento": proximoIntento,
		}).Error
}

func (r *ventaRepo) ListPendientes(ctx context.Context, ahora time.Time, limite int) ([]model.Venta, error) {
	var ventas []model.Venta
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("estado_envio = ?", model.EnvioPendiente).
		Where("proximo_intento IS NULL OR proximo_intento <= ?", ahora).
		Order("created_at ASC").
		Limit(limite).
		Find(&ventas).Error
	return ventas, err
}

func (r *ventaRepo) ResumenMes(ctx context.Context, anio int, mes time.Month) (*ResumenMensual, error) {
	desde := time.Date(anio, mes, 1, 0, 0, 0, 0, time.Local)
	hasta := desde.AddDate(0, 1, 0)

	var res ResumenMensual
	err := r.db.WithContext(ctx).Model(&model.Venta{}).
		Select(`COUNT(*) AS total_ventas,
			COALESCE(SUM(total_usd), 0) AS total_usd,
			COALESCE(SUM(total_bs), 0) AS total_bs,
			COUNT(*) FILTER (WHERE metodo_pago = 'contado') AS ventas_contado,
			COUNT(*) FILTER (WHERE metodo_pago = 'credito') AS ventas_credito`).
		Where("created_at >= ? AND created_at < ?", desde, hasta).
		Scan(&res).Error
	if err != nil {
		return nil, err
	}
	return &res, nil
}
