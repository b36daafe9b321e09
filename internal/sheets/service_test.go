package sheets

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ojedapedro/aci-tpv-movilnet/internal/credito"
	"github.com/ojedapedro/aci-tpv-movilnet/internal/model"
)

// The Sheets API returns untyped cells; these helpers absorb whatever the
// spreadsheet happens to contain (formats, commas, stray spaces).

func TestCeldaTexto(t *testing.T) {
	fila := []interface{}{" TEL-001 ", 15.0, nil}
	assert.Equal(t, "TEL-001", celdaTexto(fila, 0))
	assert.Equal(t, "15", celdaTexto(fila, 1))
	assert.Equal(t, "", celdaTexto(fila, 2), "una celda vacía nunca imprime <nil>")
	assert.Equal(t, "", celdaTexto(fila, 5), "índice fuera de rango")
}

func TestCeldaEntero(t *testing.T) {
	fila := []interface{}{12.0, " 7 ", "no-numero", json.Number("33")}
	assert.Equal(t, 12, celdaEntero(fila, 0))
	assert.Equal(t, 7, celdaEntero(fila, 1))
	assert.Equal(t, 0, celdaEntero(fila, 2))
	assert.Equal(t, 33, celdaEntero(fila, 3))
	assert.Equal(t, 0, celdaEntero(fila, 9))
}

func TestCeldaDecimal(t *testing.T) {
	fila := []interface{}{75.5, "12,50", "  8.25 ", "precio", json.Number("3.10")}
	assert.Equal(t, "75.5", celdaDecimal(fila, 0).String())
	// Venezuelan sheets use comma as decimal separator
	assert.Equal(t, "12.5", celdaDecimal(fila, 1).String())
	assert.Equal(t, "8.25", celdaDecimal(fila, 2).String())
	assert.True(t, celdaDecimal(fila, 3).IsZero())
	assert.Equal(t, "3.1", celdaDecimal(fila, 4).String())
}

func TestItemsTexto(t *testing.T) {
	items := []model.VentaItem{
		{Codigo: "TEL-001", Nombre: "Teléfono XR20", Cantidad: 1},
		{Codigo: "ACC-014", Nombre: "Forro transparente", Cantidad: 2},
	}
	assert.Equal(t, "TEL-001 - Teléfono XR20 (x1), ACC-014 - Forro transparente (x2)", itemsTexto(items))
}

func TestDetalleCreditoTexto(t *testing.T) {
	s := &Service{formatoFecha: "02/01/2006"}

	plan := credito.Plan{
		Proveedor:  "Cashea",
		InicialUSD: decimal.NewFromInt(60),
		InicialBs:  decimal.NewFromInt(2400),
		Cuotas: []credito.Cuota{
			{Numero: 1, Fecha: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), MontoUSD: decimal.NewFromInt(15)},
			{Numero: 2, Fecha: time.Date(2024, 1, 30, 0, 0, 0, 0, time.UTC), MontoUSD: decimal.NewFromInt(15)},
		},
	}
	b, err := json.Marshal(plan)
	require.NoError(t, err)
	j := string(b)

	v := &model.Venta{PlanCredito: &j}
	assert.Equal(t,
		"Cashea - Inicial: $60.00 | Cuota 1: $15.00 (15/01/2024) | Cuota 2: $15.00 (30/01/2024)",
		s.detalleCreditoTexto(v))
}

func TestDetalleCreditoTexto_SinPlan(t *testing.T) {
	s := &Service{formatoFecha: "02/01/2006"}
	assert.Equal(t, "N/A", s.detalleCreditoTexto(&model.Venta{}))

	roto := "{no es json"
	assert.Equal(t, "N/A", s.detalleCreditoTexto(&model.Venta{PlanCredito: &roto}))
}

func TestFormaPagoTexto(t *testing.T) {
	assert.Equal(t, "Crédito", formaPagoTexto(model.PagoCredito))
	assert.Equal(t, "Contado", formaPagoTexto(model.PagoContado))
}
