package model

import "github.com/shopspring/decimal"

// Producto is one catalog row as published by the external inventory sheet.
// The sheet is the source of truth for price and stock; the backend never
// mutates stock beyond the best-effort decrement after a registered sale.
type Producto struct {
	Codigo      string          `json:"codigo"` // código de barras o IMEI
	Nombre      string          `json:"nombre"`
	PrecioUSD   decimal.Decimal `json:"precio_usd"`
	Stock       int             `json:"stock"`
	StockMinimo int             `json:"stock_minimo"`
}

// BajoStock reports whether the product is at or below its configured minimum.
func (p Producto) BajoStock() bool {
	return p.StockMinimo > 0 && p.Stock <= p.StockMinimo
}
