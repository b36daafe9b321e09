package service

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ojedapedro/aci-tpv-movilnet/internal/credito"
	"github.com/ojedapedro/aci-tpv-movilnet/internal/dto"
)

var ErrProveedorInvalido = errors.New("proveedor de crédito no reconocido")

// CreditoService previews payment plans for the terminal UI. The same
// calculation runs again, with the same inputs, when the sale is registered;
// the preview never locks anything in.
type CreditoService interface {
	CalcularPlan(req dto.CalcularPlanRequest) (*dto.PlanResponse, error)
}

type creditoService struct {
	fraccionInicial decimal.Decimal
	numCuotas       int
	formatoFecha    string
}

func NewCreditoService(fraccionInicial float64, numCuotas int, formatoFecha string) CreditoService {
	fraccion := decimal.NewFromFloat(fraccionInicial)
	if fraccion.IsZero() {
		fraccion = credito.FraccionInicialDefault
	}
	if numCuotas == 0 {
		numCuotas = credito.NumCuotasDefault
	}
	return &creditoService{
		fraccionInicial: fraccion,
		numCuotas:       numCuotas,
		formatoFecha:    formatoFecha,
	}
}

func (s *creditoService) CalcularPlan(req dto.CalcularPlanRequest) (*dto.PlanResponse, error) {
	if !credito.ProveedorValido(req.Proveedor) {
		return nil, ErrProveedorInvalido
	}

	params := credito.PlanParams{
		Total:           req.Total,
		Tasa:            req.Tasa,
		FraccionInicial: s.fraccionInicial,
		NumCuotas:       s.numCuotas,
		Proveedor:       req.Proveedor,
	}
	if req.FraccionInicial != nil {
		params.FraccionInicial = *req.FraccionInicial
	}
	if req.NumCuotas != nil {
		params.NumCuotas = *req.NumCuotas
	}
	if req.FechaAncla != "" {
		ancla, err := time.Parse("2006-01-02", req.FechaAncla)
		if err != nil {
			return nil, errors.New("fecha_ancla inválida, formato esperado YYYY-MM-DD")
		}
		params.FechaAncla = ancla
	}

	plan, err := credito.Calcular(params)
	if err != nil {
		return nil, err
	}
	return planToResponse(plan, s.formatoFecha), nil
}

func planToResponse(p *credito.Plan, formatoFecha string) *dto.PlanResponse {
	resp := &dto.PlanResponse{
		Proveedor:  p.Proveedor,
		InicialUSD: p.InicialUSD,
		InicialBs:  p.InicialBs,
		Cuotas:     make([]dto.CuotaResponse, 0, len(p.Cuotas)),
	}
	for _, c := range p.Cuotas {
		resp.Cuotas = append(resp.Cuotas, dto.CuotaResponse{
			Numero:   c.Numero,
			Fecha:    c.Fecha.Format(formatoFecha),
			MontoUSD: c.MontoUSD,
			MontoBs:  c.MontoBs,
		})
	}
	return resp
}
