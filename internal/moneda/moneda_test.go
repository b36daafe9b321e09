package moneda

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestConvertir(t *testing.T) {
	usd := decimal.RequireFromString("15")
	tasa := decimal.RequireFromString("40")
	assert.True(t, Convertir(usd, tasa).Equal(decimal.RequireFromString("600")))

	usd = decimal.RequireFromString("16.67")
	tasa = decimal.RequireFromString("36.555")
	// 16.67 × 36.555 = 609.372... → 609.37
	assert.True(t, Convertir(usd, tasa).Equal(decimal.RequireFromString("609.37")))
}

func TestFormatearUSD(t *testing.T) {
	assert.Equal(t, "$1,234.50", FormatearUSD(decimal.RequireFromString("1234.5")))
	assert.Equal(t, "$0.00", FormatearUSD(decimal.Zero))
}

func TestFormatearBs(t *testing.T) {
	// es-VE usa coma decimal; no fijamos el separador de miles exacto aquí.
	s := FormatearBs(decimal.RequireFromString("600"))
	assert.Contains(t, s, "Bs ")
	assert.Contains(t, s, "600")
}
