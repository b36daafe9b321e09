package dto

import "github.com/shopspring/decimal"

// ─── Filter / List ──────────────────────────────────────────────────────────

// VentaFilter is bound from query string of GET /v1/ventas.
type VentaFilter struct {
	Fecha       string `form:"fecha"`  // YYYY-MM-DD; empty = sin filtro
	EstadoEnvio string `form:"estado"` // pendiente | enviada | error | all
	MetodoPago  string `form:"metodo_pago"`
	Cedula      string `form:"cedula"`
	Page        int    `form:"page,default=1"   validate:"min=1"`
	Limit       int    `form:"limit,default=50" validate:"min=1,max=200"`
}

type VentaListResponse struct {
	Data  []VentaResponse `json:"data"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}

// ─── Request DTOs ────────────────────────────────────────────────────────────

type ItemVentaRequest struct {
	Codigo   string `json:"codigo"   validate:"required"`
	Cantidad int    `json:"cantidad" validate:"required,min=1"`
}

type ClienteRequest struct {
	Nombre   string `json:"nombre"   validate:"required,min=3"`
	Cedula   string `json:"cedula"   validate:"required,min=6"`
	Telefono string `json:"telefono" validate:"required,min=7"`
}

// RegistrarVentaRequest is the direct sale registration payload. The same
// shape is produced internally by the carrito checkout.
type RegistrarVentaRequest struct {
	Cliente    ClienteRequest     `json:"cliente"     validate:"required"`
	Items      []ItemVentaRequest `json:"items"       validate:"required,min=1,dive"`
	MetodoPago string             `json:"metodo_pago" validate:"required,oneof=contado credito"`
	// Proveedor is required when metodo_pago=credito.
	Proveedor     *string         `json:"proveedor"     validate:"omitempty,min=2"`
	Tasa          decimal.Decimal `json:"tasa"          validate:"required"`
	Observaciones *string         `json:"observaciones" validate:"omitempty,max=500"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ItemVentaResponse struct {
	Codigo      string          `json:"codigo"`
	Nombre      string          `json:"nombre"`
	Cantidad    int             `json:"cantidad"`
	PrecioUSD   decimal.Decimal `json:"precio_usd"`
	SubtotalUSD decimal.Decimal `json:"subtotal_usd"`
}

type VentaResponse struct {
	ID            string              `json:"id"`
	Numero        int                 `json:"numero"`
	Cliente       ClienteRequest      `json:"cliente"`
	Items         []ItemVentaResponse `json:"items"`
	MetodoPago    string              `json:"metodo_pago"`
	Proveedor     *string             `json:"proveedor,omitempty"`
	Plan          *PlanResponse       `json:"plan,omitempty"`
	TotalUSD      decimal.Decimal     `json:"total_usd"`
	TotalBs       decimal.Decimal     `json:"total_bs"`
	Tasa          decimal.Decimal     `json:"tasa"`
	Observaciones *string             `json:"observaciones,omitempty"`
	EstadoEnvio   string              `json:"estado_envio"`
	// Exito=false with a Mensaje means the sale was journaled locally but the
	// push to the external sheet failed and will be retried.
	Exito     bool   `json:"exito"`
	Mensaje   string `json:"mensaje,omitempty"`
	CreatedAt string `json:"created_at"`
}

type ReenviarVentaResponse struct {
	ID          string `json:"id"`
	EstadoEnvio string `json:"estado_envio"`
	Mensaje     string `json:"mensaje,omitempty"`
}
