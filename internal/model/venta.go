package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Estados de envío de una venta hacia la hoja de cálculo externa.
const (
	EnvioPendiente = "pendiente"
	EnvioEnviada   = "enviada"
	EnvioError     = "error"
)

// Métodos de pago.
const (
	PagoContado = "contado"
	PagoCredito = "credito"
)

// Venta is the local journal record of a registered sale. A venta is
// immutable once created; only the delivery bookkeeping columns change while
// the row travels to the external sheet. Corrections require a new sale.
type Venta struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Numero int       `gorm:"uniqueIndex;not null"`

	ClienteNombre   string `gorm:"not null"`
	ClienteCedula   string `gorm:"index;not null"`
	ClienteTelefono string `gorm:"not null"`

	MetodoPago       string  `gorm:"type:varchar(10);not null"` // contado | credito
	ProveedorCredito *string `gorm:"type:varchar(30)"`
	// PlanCredito holds the serialized credito.Plan when MetodoPago=credito.
	PlanCredito *string `gorm:"type:jsonb"`

	TotalUSD decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	TotalBs  decimal.Decimal `gorm:"type:decimal(16,2);not null"`
	Tasa     decimal.Decimal `gorm:"type:decimal(12,4);not null"`

	Observaciones *string

	// Delivery bookkeeping towards the external sheet.
	EstadoEnvio    string     `gorm:"type:varchar(10);not null;default:'pendiente';index"`
	IntentosEnvio  int        `gorm:"not null;default:0"`
	UltimoError    *string
	ProximoIntento *time.Time `gorm:"index"`

	CreatedAt time.Time
	UpdatedAt time.Time

	Items []VentaItem `gorm:"foreignKey:VentaID"`
}

// VentaItem is one cart line with the unit price frozen at sale time.
type VentaItem struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	VentaID     uuid.UUID       `gorm:"type:uuid;index;not null"`
	Codigo      string          `gorm:"not null"`
	Nombre      string          `gorm:"not null"`
	Cantidad    int             `gorm:"not null"`
	PrecioUSD   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	SubtotalUSD decimal.Decimal `gorm:"type:decimal(12,2);not null"`
}
