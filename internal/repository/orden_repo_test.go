package repository

import (
	"testing"

	"github.com/lalored20/lavaseco-app-sub000/internal/model"

	"github.com/stretchr/testify/assert"
)

func ordenParaBusqueda() *model.Orden {
	return &model.Orden{
		NumeroTicket:    152,
		ClienteID:       "1017234567",
		ClienteNombre:   "Maria Fernanda Lopez",
		ClienteTelefono: "300-123-4567",
		Items: []model.OrdenItem{
			{Descripcion: "Vestido de gala"},
			{Descripcion: "Camisa blanca"},
		},
	}
}

func TestCoincideOrdenSubstring(t *testing.T) {
	o := ordenParaBusqueda()

	assert.True(t, coincideOrden(o, "fernanda", false))
	assert.True(t, coincideOrden(o, "vestido", false))
	assert.True(t, coincideOrden(o, "gala", false))
	assert.False(t, coincideOrden(o, "pantalon", false))
}

func TestCoincideOrdenDigitosNormalizados(t *testing.T) {
	o := ordenParaBusqueda()

	// the stored phone has dashes, the query does not
	assert.True(t, coincideOrden(o, "3001234567", false))
	// partial cédula
	assert.True(t, coincideOrden(o, "10172", false))
	// a query with separators matches against digit-only fields
	assert.True(t, coincideOrden(o, "300-123", false))
}

func TestCoincideOrdenExacto(t *testing.T) {
	o := ordenParaBusqueda()

	assert.True(t, coincideOrden(o, "maria fernanda lopez", true))
	assert.True(t, coincideOrden(o, "1017234567", true))
	// substring is not enough in exact mode
	assert.False(t, coincideOrden(o, "maria", true))
	assert.False(t, coincideOrden(o, "10172", true))
}

func TestCoincideOrdenTicket(t *testing.T) {
	o := ordenParaBusqueda()

	assert.True(t, coincideOrden(o, "152", false))
	assert.True(t, coincideOrden(o, "152", true))
	assert.False(t, coincideOrden(o, "153", true))
}

func TestEsNumerico(t *testing.T) {
	assert.True(t, esNumerico("042"))
	assert.False(t, esNumerico(""))
	assert.False(t, esNumerico("15a"))
	assert.False(t, esNumerico("15 "))
}

func TestSoloDigitos(t *testing.T) {
	assert.Equal(t, "3001234567", soloDigitos("300-123-4567"))
	assert.Equal(t, "", soloDigitos("sin digitos"))
}
