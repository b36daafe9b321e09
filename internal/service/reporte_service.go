package service

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ojedapedro/aci-tpv-movilnet/internal/dto"
	"github.com/ojedapedro/aci-tpv-movilnet/internal/repository"
)

var ErrMesInvalido = errors.New("mes inválido")

// ReporteService aggregates the local journal. The sheet keeps the canonical
// history; these numbers come from the journal because it also covers ventas
// that never reached the sheet.
type ReporteService interface {
	ResumenMensual(ctx context.Context, anio, mes int) (*dto.ReporteMensualResponse, error)
}

type reporteService struct {
	repo repository.VentaRepository
}

func NewReporteService(repo repository.VentaRepository) ReporteService {
	return &reporteService{repo: repo}
}

func (s *reporteService) ResumenMensual(ctx context.Context, anio, mes int) (*dto.ReporteMensualResponse, error) {
	if mes < 1 || mes > 12 {
		return nil, ErrMesInvalido
	}
	if anio == 0 {
		anio = time.Now().Year()
	}

	res, err := s.repo.ResumenMes(ctx, anio, time.Month(mes))
	if err != nil {
		return nil, err
	}

	totalUSD, err := decimal.NewFromString(res.TotalUSD)
	if err != nil {
		totalUSD = decimal.Zero
	}
	totalBs, err := decimal.NewFromString(res.TotalBs)
	if err != nil {
		totalBs = decimal.Zero
	}

	return &dto.ReporteMensualResponse{
		Anio:          anio,
		Mes:           mes,
		TotalVentas:   res.TotalVentas,
		TotalUSD:      totalUSD,
		TotalBs:       totalBs,
		VentasContado: res.VentasContado,
		VentasCredito: res.VentasCredito,
	}, nil
}
