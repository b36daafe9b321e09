// Package moneda centralizes currency conversion and locale-aware rendering.
// The scheduler and the models carry raw decimals; only this package and the
// configured date layout decide how an amount looks on screen or paper.
package moneda

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	printerUSD = message.NewPrinter(language.AmericanEnglish)
	printerVES = message.NewPrinter(language.MustParse("es-VE"))
)

// Convertir returns monto (USD) expressed in bolívares at the given rate,
// rounded to 2 decimals.
func Convertir(montoUSD, tasa decimal.Decimal) decimal.Decimal {
	return montoUSD.Mul(tasa).Round(2)
}

// FormatearUSD renders an amount in en-US style: $1,234.50
func FormatearUSD(m decimal.Decimal) string {
	return printerUSD.Sprintf("$%.2f", m.InexactFloat64())
}

// FormatearBs renders an amount in es-VE style: Bs 1.234,50
func FormatearBs(m decimal.Decimal) string {
	return printerVES.Sprintf("Bs %.2f", m.InexactFloat64())
}
