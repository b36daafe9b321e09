// Package credito implements the installment scheduler: given a sale total in
// USD, the session exchange rate and an initial-payment fraction, it produces
// a payment plan of an initial payment plus N equal cuotas, each due on the
// next bimonthly pay days (see fechas.go).
//
// The computation is pure: no clock reads when FechaAncla is supplied, no
// shared state, safe to call concurrently on every cart change.
package credito

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Defaults applied by callers when the operator does not override them.
const (
	NumCuotasDefault = 6
)

// FraccionInicialDefault is the standard 40% initial payment.
var FraccionInicialDefault = decimal.NewFromFloat(0.4)

// Proveedores de crédito aceptados en tienda.
const (
	ProveedorCashea      = "Cashea"
	ProveedorZonaNaranja = "Zona Naranja"
	ProveedorWepa        = "Wepa"
	ProveedorChollo      = "Chollo"
)

// Proveedores lists every accepted credit provider.
var Proveedores = []string{ProveedorCashea, ProveedorZonaNaranja, ProveedorWepa, ProveedorChollo}

// Invalid-argument sentinels. Callers map these to 4xx responses.
var (
	ErrTotalNegativo     = errors.New("el total de la venta no puede ser negativo")
	ErrTasaInvalida      = errors.New("la tasa de cambio debe ser mayor que cero")
	ErrFraccionInvalida  = errors.New("la fracción inicial debe estar entre 0 y 1")
	ErrNumCuotasInvalido = errors.New("el número de cuotas no puede ser negativo")
)

// PlanParams are the inputs of Calcular. Total is in USD; Tasa converts to
// bolívares (Bs = USD × Tasa). A zero FechaAncla means "now": tests and the
// plan-preview endpoint inject an explicit date for determinism.
type PlanParams struct {
	Total           decimal.Decimal
	Tasa            decimal.Decimal
	FraccionInicial decimal.Decimal
	NumCuotas       int
	FechaAncla      time.Time
	Proveedor       string
}

// Cuota is one scheduled future payment. Both amounts carry the rate frozen
// at plan-build time; they are never recomputed against a later rate.
type Cuota struct {
	Numero   int             `json:"numero"`
	Fecha    time.Time       `json:"fecha"`
	MontoUSD decimal.Decimal `json:"monto_usd"`
	MontoBs  decimal.Decimal `json:"monto_bs"`
}

// Plan is the scheduler output: the initial payment plus the ordered cuotas.
type Plan struct {
	Proveedor  string          `json:"proveedor"`
	InicialUSD decimal.Decimal `json:"inicial_usd"`
	InicialBs  decimal.Decimal `json:"inicial_bs"`
	Cuotas     []Cuota         `json:"cuotas"`
}

// Calcular builds a credit plan.
//
// Rounding policy: every amount (inicial and cuotas, both currencies) is
// rounded half-up to 2 decimals. Each cuota receives (Total − Inicial)/N
// independently; the residual cent drift on non-divisible totals is NOT
// folded into the last cuota, matching the behavior the store has always
// printed on its receipts. The error is bounded by one cent per cuota.
func Calcular(p PlanParams) (*Plan, error) {
	if p.Total.IsNegative() {
		return nil, ErrTotalNegativo
	}
	if !p.Tasa.IsPositive() {
		return nil, ErrTasaInvalida
	}
	if p.FraccionInicial.IsNegative() || p.FraccionInicial.GreaterThan(decimal.NewFromInt(1)) {
		return nil, ErrFraccionInvalida
	}
	if p.NumCuotas < 0 {
		return nil, ErrNumCuotasInvalido
	}

	ancla := p.FechaAncla
	if ancla.IsZero() {
		ancla = time.Now()
	}

	inicial := p.Total.Mul(p.FraccionInicial).Round(2)
	plan := &Plan{
		Proveedor:  p.Proveedor,
		InicialUSD: inicial,
		InicialBs:  inicial.Mul(p.Tasa).Round(2),
	}
	if p.NumCuotas == 0 {
		return plan, nil
	}

	restante := p.Total.Sub(inicial)
	montoUSD := restante.Div(decimal.NewFromInt(int64(p.NumCuotas))).Round(2)
	montoBs := montoUSD.Mul(p.Tasa).Round(2)

	for i, fecha := range ProximasFechasDePago(ancla, p.NumCuotas) {
		plan.Cuotas = append(plan.Cuotas, Cuota{
			Numero:   i + 1,
			Fecha:    fecha,
			MontoUSD: montoUSD,
			MontoBs:  montoBs,
		})
	}
	return plan, nil
}

// ProveedorValido reports whether nombre is an accepted credit provider.
func ProveedorValido(nombre string) bool {
	for _, p := range Proveedores {
		if p == nombre {
			return true
		}
	}
	return false
}
