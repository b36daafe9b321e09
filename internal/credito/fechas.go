package credito

import "time"

// La regla comercial de los proveedores de crédito es cobrar "los 15 y 30"
// de cada mes. Febrero no tiene día 30, así que en meses de menos de 30 días
// el segundo día de pago es el último día real del mes. El 31 nunca es día
// de pago: todo mes aporta exactamente dos fechas.

// segundoDiaDePago returns the second pay day of a month: nominally the 30th,
// or the month's actual last day when it has fewer than 30 days.
func segundoDiaDePago(anio int, mes time.Month) int {
	// Day 0 of the following month is the last day of this one.
	ultimo := time.Date(anio, mes+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if ultimo < 30 {
		return ultimo
	}
	return 30
}

// esDiaDePago reports whether fecha falls on a pay day.
func esDiaDePago(fecha time.Time) bool {
	dia := fecha.Day()
	return dia == 15 || dia == segundoDiaDePago(fecha.Year(), fecha.Month())
}

// ProximasFechasDePago returns the first n pay days strictly after ancla,
// in chronological order. The anchor itself is never selected, even when it
// falls on a pay day. The scan advances one calendar day at a time; each
// month yields two pay days so the loop is bounded by ~16 days per fecha.
func ProximasFechasDePago(ancla time.Time, n int) []time.Time {
	fechas := make([]time.Time, 0, n)
	dia := time.Date(ancla.Year(), ancla.Month(), ancla.Day(), 0, 0, 0, 0, ancla.Location())
	for len(fechas) < n {
		dia = dia.AddDate(0, 0, 1)
		if esDiaDePago(dia) {
			fechas = append(fechas, dia)
		}
	}
	return fechas
}
