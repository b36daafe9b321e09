package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type FijarTasaRequest struct {
	Tasa decimal.Decimal `json:"tasa" validate:"required"`
}

type AgregarItemRequest struct {
	Codigo   string `json:"codigo"   validate:"required"`
	Cantidad int    `json:"cantidad" validate:"required,min=1"`
}

type MetodoPagoRequest struct {
	MetodoPago string  `json:"metodo_pago" validate:"required,oneof=contado credito"`
	Proveedor  *string `json:"proveedor"   validate:"omitempty,min=2"`
}

type ObservacionesRequest struct {
	Observaciones string `json:"observaciones" validate:"max=500"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ItemCarritoResponse struct {
	Codigo      string          `json:"codigo"`
	Nombre      string          `json:"nombre"`
	Cantidad    int             `json:"cantidad"`
	PrecioUSD   decimal.Decimal `json:"precio_usd"`
	SubtotalUSD decimal.Decimal `json:"subtotal_usd"`
	SubtotalBs  decimal.Decimal `json:"subtotal_bs"`
}

type CarritoResponse struct {
	Terminal      string                `json:"terminal"`
	Items         []ItemCarritoResponse `json:"items"`
	Cliente       *ClienteRequest       `json:"cliente,omitempty"`
	MetodoPago    string                `json:"metodo_pago,omitempty"`
	Proveedor     *string               `json:"proveedor,omitempty"`
	Tasa          decimal.Decimal       `json:"tasa"`
	Observaciones string                `json:"observaciones,omitempty"`
	TotalUSD      decimal.Decimal       `json:"total_usd"`
	TotalBs       decimal.Decimal       `json:"total_bs"`
	// Plan is a live preview, present only when metodo_pago=credito.
	Plan *PlanResponse `json:"plan,omitempty"`
}
