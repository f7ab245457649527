package dto

// ConteoRequest saves (or corrects) the garment tally of one day.
type ConteoRequest struct {
	Fecha        string `json:"fecha"         validate:"required"` // YYYY-MM-DD
	ConteoPlanta int    `json:"conteo_planta" validate:"min=0"`
	ConteoCasa   int    `json:"conteo_casa"   validate:"min=0"`
	NotasPlanta  string `json:"notas_planta"`
	NotasCasa    string `json:"notas_casa"`
}

type ConteoResponse struct {
	ID           string `json:"id"`
	Fecha        string `json:"fecha"`
	ConteoPlanta int    `json:"conteo_planta"`
	ConteoCasa   int    `json:"conteo_casa"`
	NotasPlanta  string `json:"notas_planta,omitempty"`
	NotasCasa    string `json:"notas_casa,omitempty"`
}

// LogisticaFilter is bound from the query string of GET /v1/logistica/resumen.
type LogisticaFilter struct {
	Desde string `form:"desde"` // YYYY-MM-DD; empty = 7 days back
	Hasta string `form:"hasta"` // YYYY-MM-DD; empty = today
}

// DiaLogistica merges the manual tally with the order flow of one day.
type DiaLogistica struct {
	Fecha       string `json:"fecha"`
	Planta      int    `json:"planta"`
	Casa        int    `json:"casa"`
	Ingresos    int    `json:"ingresos"` // orders received that day
	Egresos     int    `json:"egresos"`  // orders delivered that day
	NotasPlanta string `json:"notas_planta,omitempty"`
	NotasCasa   string `json:"notas_casa,omitempty"`
}
