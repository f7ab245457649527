package lifecycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func dia(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 10, 0, 0, 0, time.Local)
}

func TestNivelAlertaSinFechaProgramada(t *testing.T) {
	assert.Equal(t, AlertaNinguna, NivelAlerta(nil, dia(2026, 3, 1), dia(2026, 3, 5)))
}

func TestNivelAlertaCasosFijos(t *testing.T) {
	ahora := dia(2026, 3, 5)

	cases := []struct {
		name       string
		creada     time.Time
		programada time.Time
		want       Alerta
	}{
		// Short order (2 days total): urgent only on the due day
		{"corta vencida", dia(2026, 3, 3), dia(2026, 3, 4), AlertaVencida},
		{"corta hoy", dia(2026, 3, 3), dia(2026, 3, 5), AlertaUrgente},
		{"corta manana", dia(2026, 3, 4), dia(2026, 3, 6), AlertaAdvertencia},
		{"corta en dos dias", dia(2026, 3, 5), dia(2026, 3, 7), AlertaNormal},

		// Long order (>= 4 days total): urgent already a day early
		{"larga manana", dia(2026, 3, 1), dia(2026, 3, 6), AlertaUrgente},
		{"larga en dos dias", dia(2026, 3, 1), dia(2026, 3, 7), AlertaNormal},
		{"larga hoy", dia(2026, 2, 25), dia(2026, 3, 5), AlertaUrgente},
		{"larga vencida", dia(2026, 2, 20), dia(2026, 3, 1), AlertaVencida},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := NivelAlerta(&tc.programada, tc.creada, ahora)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestNivelAlertaGranularidadDeDia(t *testing.T) {
	// 23:59 vs 00:01 on adjacent days is still one whole calendar day
	ahora := time.Date(2026, 3, 5, 23, 59, 0, 0, time.Local)
	programada := time.Date(2026, 3, 6, 0, 1, 0, 0, time.Local)
	creada := time.Date(2026, 3, 4, 12, 0, 0, 0, time.Local)

	assert.Equal(t, AlertaAdvertencia, NivelAlerta(&programada, creada, ahora))

	// Same calendar day, earlier hour, is still "due today" not overdue
	ahora = time.Date(2026, 3, 6, 18, 0, 0, 0, time.Local)
	assert.Equal(t, AlertaUrgente, NivelAlerta(&programada, creada, ahora))
}
