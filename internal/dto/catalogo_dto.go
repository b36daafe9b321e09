package dto

import "github.com/shopspring/decimal"

type ProductoResponse struct {
	Codigo      string          `json:"codigo"`
	Nombre      string          `json:"nombre"`
	PrecioUSD   decimal.Decimal `json:"precio_usd"`
	PrecioBs    decimal.Decimal `json:"precio_bs"`
	Stock       int             `json:"stock"`
	StockMinimo int             `json:"stock_minimo"`
	BajoStock   bool            `json:"bajo_stock"`
}

type ProductoListResponse struct {
	Data  []ProductoResponse `json:"data"`
	Total int                `json:"total"`
	// Degradado=true means the external sheet was unreachable and the list
	// came from the local cache (possibly empty).
	Degradado bool `json:"degradado"`
}

type ClienteResponse struct {
	Nombre   string `json:"nombre"`
	Cedula   string `json:"cedula"`
	Telefono string `json:"telefono"`
}

type ClienteListResponse struct {
	Data      []ClienteResponse `json:"data"`
	Total     int               `json:"total"`
	Degradado bool              `json:"degradado"`
}

type ReporteMensualResponse struct {
	Anio          int             `json:"anio"`
	Mes           int             `json:"mes"`
	TotalVentas   int64           `json:"total_ventas"`
	TotalUSD      decimal.Decimal `json:"total_usd"`
	TotalBs       decimal.Decimal `json:"total_bs"`
	VentasContado int64           `json:"ventas_contado"`
	VentasCredito int64           `json:"ventas_credito"`
}
