package dto

import "github.com/shopspring/decimal"

// CalcularPlanRequest previews a credit plan without registering a sale.
type CalcularPlanRequest struct {
	Total      decimal.Decimal `json:"total"       validate:"required"`
	Tasa       decimal.Decimal `json:"tasa"        validate:"required"`
	Proveedor  string          `json:"proveedor"   validate:"required,min=2"`
	FechaAncla string          `json:"fecha_ancla" validate:"omitempty,datetime=2006-01-02"`
	// FraccionInicial and NumCuotas override the configured defaults when set.
	FraccionInicial *decimal.Decimal `json:"fraccion_inicial" validate:"omitempty"`
	NumCuotas       *int             `json:"num_cuotas"       validate:"omitempty,min=0,max=24"`
}

type CuotaResponse struct {
	Numero   int             `json:"numero"`
	Fecha    string          `json:"fecha"`
	MontoUSD decimal.Decimal `json:"monto_usd"`
	MontoBs  decimal.Decimal `json:"monto_bs"`
}

type PlanResponse struct {
	Proveedor  string          `json:"proveedor"`
	InicialUSD decimal.Decimal `json:"inicial_usd"`
	InicialBs  decimal.Decimal `json:"inicial_bs"`
	Cuotas     []CuotaResponse `json:"cuotas"`
}
