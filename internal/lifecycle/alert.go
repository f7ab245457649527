package lifecycle

import "time"

// Nivel de alerta de entrega, computed at day granularity: a delivery promised
// for "today" is urgent from midnight, regardless of the hour it was promised.
type Alerta string

const (
	AlertaNinguna     Alerta = "ninguna"
	AlertaNormal      Alerta = "normal"
	AlertaAdvertencia Alerta = "advertencia"
	AlertaUrgente     Alerta = "urgente"
	AlertaVencida     Alerta = "vencida"
)

// NivelAlerta classifies an order's delivery pressure.
// Orders without a scheduled date never alert. Short orders (under 4 days of
// total leeway) only go urgent on the due day itself; long orders go urgent a
// day early because they represent accumulated work.
func NivelAlerta(programada *time.Time, creada, ahora time.Time) Alerta {
	if programada == nil {
		return AlertaNinguna
	}

	diasRestantes := diasEntre(ahora, *programada)
	duracionTotal := diasEntre(creada, *programada)

	switch {
	case diasRestantes < 0:
		return AlertaVencida
	case diasRestantes == 0:
		return AlertaUrgente
	case duracionTotal >= 4 && diasRestantes <= 1:
		return AlertaUrgente
	case diasRestantes == 1:
		return AlertaAdvertencia
	default:
		return AlertaNormal
	}
}

// diasEntre returns whole calendar days from a to b, using a's location
// for the midnight truncation.
func diasEntre(a, b time.Time) int {
	loc := a.Location()
	da := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, loc)
	bb := b.In(loc)
	db := time.Date(bb.Year(), bb.Month(), bb.Day(), 0, 0, 0, 0, loc)
	return int(db.Sub(da).Hours() / 24)
}
