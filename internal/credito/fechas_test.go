package credito

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fecha(anio int, mes time.Month, dia int) time.Time {
	return time.Date(anio, mes, dia, 0, 0, 0, 0, time.UTC)
}

func TestSegundoDiaDePago(t *testing.T) {
	assert.Equal(t, 30, segundoDiaDePago(2024, time.January))  // 31 días → 30
	assert.Equal(t, 30, segundoDiaDePago(2024, time.April))    // 30 días → 30
	assert.Equal(t, 29, segundoDiaDePago(2024, time.February)) // bisiesto
	assert.Equal(t, 28, segundoDiaDePago(2023, time.February))
}

func TestEsDiaDePago(t *testing.T) {
	assert.True(t, esDiaDePago(fecha(2024, time.January, 15)))
	assert.True(t, esDiaDePago(fecha(2024, time.January, 30)))
	assert.False(t, esDiaDePago(fecha(2024, time.January, 31))) // el 31 nunca paga
	assert.True(t, esDiaDePago(fecha(2024, time.February, 29)))
	assert.True(t, esDiaDePago(fecha(2023, time.February, 28)))
	assert.False(t, esDiaDePago(fecha(2024, time.February, 28))) // bisiesto: último es 29
	assert.False(t, esDiaDePago(fecha(2024, time.January, 14)))
}

func TestProximasFechasDePago_AnclaAntesDel15(t *testing.T) {
	fechas := ProximasFechasDePago(fecha(2024, time.January, 10), 6)
	require.Len(t, fechas, 6)
	esperadas := []time.Time{
		fecha(2024, time.January, 15),
		fecha(2024, time.January, 30),
		fecha(2024, time.February, 15),
		fecha(2024, time.February, 29), // 2024 es bisiesto
		fecha(2024, time.March, 15),
		fecha(2024, time.March, 30),
	}
	assert.Equal(t, esperadas, fechas)
}

func TestProximasFechasDePago_AnioNoBisiesto(t *testing.T) {
	fechas := ProximasFechasDePago(fecha(2023, time.February, 1), 3)
	esperadas := []time.Time{
		fecha(2023, time.February, 15),
		fecha(2023, time.February, 28),
		fecha(2023, time.March, 15),
	}
	assert.Equal(t, esperadas, fechas)
}

func TestProximasFechasDePago_AnclaEnDiaDePago(t *testing.T) {
	// El ancla nunca se selecciona a sí misma: la búsqueda arranca al día siguiente.
	fechas := ProximasFechasDePago(fecha(2024, time.March, 15), 1)
	require.Len(t, fechas, 1)
	assert.Equal(t, fecha(2024, time.March, 30), fechas[0])

	fechas = ProximasFechasDePago(fecha(2024, time.March, 14), 1)
	assert.Equal(t, fecha(2024, time.March, 15), fechas[0])
}

func TestProximasFechasDePago_Fin31NoSalta(t *testing.T) {
	// Anclado el 30: el 31 no es día de pago, la próxima fecha es el 15 siguiente.
	fechas := ProximasFechasDePago(fecha(2024, time.January, 30), 1)
	assert.Equal(t, fecha(2024, time.February, 15), fechas[0])
}

func TestProximasFechasDePago_NingunMesSaltado(t *testing.T) {
	// Dos fechas por mes, estrictamente crecientes, durante dos años de anclas.
	ancla := fecha(2023, time.January, 1)
	for d := 0; d < 730; d += 17 {
		fechas := ProximasFechasDePago(ancla.AddDate(0, 0, d), 12)
		require.Len(t, fechas, 12)
		porMes := make(map[string]int)
		for i, f := range fechas {
			if i > 0 {
				assert.True(t, f.After(fechas[i-1]), "fechas deben ser estrictamente crecientes")
			}
			porMes[f.Format("2006-01")]++
		}
		for mes, n := range porMes {
			assert.LessOrEqual(t, n, 2, "mes %s con más de dos días de pago", mes)
		}
	}
}
