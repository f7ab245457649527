package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ─── Filter / List ──────────────────────────────────────────────────────────

// OrdenFilterRequest is bound from query string of GET /v1/ordenes.
type OrdenFilterRequest struct {
	// Q is the counter search box content, quirks included: short numeric
	// queries hit the ticket number, a trailing space forces exact match
	Q        string `form:"q"`
	Estado   string `form:"estado"`    // "" = all
	Fecha    string `form:"fecha"`     // YYYY-MM-DD
	FechaFin string `form:"fecha_fin"` // YYYY-MM-DD, inclusive
	Limit    int    `form:"limit,default=50" validate:"min=1,max=200"`
}

// ─── Request DTOs ────────────────────────────────────────────────────────────

type ItemOrdenRequest struct {
	Descripcion    string          `json:"descripcion"     validate:"required,min=2"`
	Cantidad       int             `json:"cantidad"        validate:"required,min=1"`
	PrecioUnitario decimal.Decimal `json:"precio_unitario" validate:"min=0"`
	Marcas         string          `json:"marcas"`
}

type CrearOrdenRequest struct {
	ClienteNombre   string             `json:"cliente_nombre"   validate:"required,min=2"`
	ClienteCedula   string             `json:"cliente_cedula"   validate:"required,min=3"`
	ClienteTelefono string             `json:"cliente_telefono"`
	Items           []ItemOrdenRequest `json:"items"            validate:"required,min=1,dive"`
	// AbonoInicial is the payment taken at intake, may be zero
	AbonoInicial    decimal.Decimal `json:"abono_inicial"    validate:"min=0"`
	MetodoAbono     string          `json:"metodo_abono"     validate:"omitempty,oneof=Efectivo Nequi Daviplata Tarjeta Transferencia Otro"`
	FechaProgramada *time.Time      `json:"fecha_programada"`
	Notas           string          `json:"notas"`
}

// AccionRequest drives POST /v1/ordenes/:id/acciones.
type AccionRequest struct {
	Tipo   string          `json:"tipo"   validate:"required,oneof=organizar marcar_faltante marcar_hallada entregar cancelar abonar"`
	Monto  decimal.Decimal `json:"monto"  validate:"min=0"`
	Metodo string          `json:"metodo" validate:"omitempty,oneof=Efectivo Nequi Daviplata Tarjeta Transferencia Otro"`
	Nota   string          `json:"nota"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ItemOrdenResponse struct {
	Descripcion    string          `json:"descripcion"`
	Cantidad       int             `json:"cantidad"`
	PrecioUnitario decimal.Decimal `json:"precio_unitario"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	Marcas         string          `json:"marcas,omitempty"`
}

type AbonoResponse struct {
	ID         string          `json:"id"`
	Tipo       string          `json:"tipo"`
	Metodo     string          `json:"metodo"`
	Monto      decimal.Decimal `json:"monto"`
	Nota       string          `json:"nota,omitempty"`
	Recuperado bool            `json:"recuperado,omitempty"`
	CreatedAt  string          `json:"created_at"`
}

type OrdenResponse struct {
	ID              string              `json:"id"`
	NumeroTicket    int                 `json:"numero_ticket"`
	ClienteNombre   string              `json:"cliente_nombre"`
	ClienteCedula   string              `json:"cliente_cedula"`
	ClienteTelefono string              `json:"cliente_telefono,omitempty"`
	Items           []ItemOrdenResponse `json:"items"`
	Total           decimal.Decimal     `json:"total"`
	Pagado          decimal.Decimal     `json:"pagado"`
	Saldo           decimal.Decimal     `json:"saldo"`
	Estado          string              `json:"estado"`
	EstadoPago      string              `json:"estado_pago"`
	Alerta          string              `json:"alerta"`
	FechaProgramada *time.Time          `json:"fecha_programada,omitempty"`
	FechaEntrega    *time.Time          `json:"fecha_entrega,omitempty"`
	Notas           string              `json:"notas,omitempty"`
	SyncEstado      string              `json:"sync_estado"`
	Abonos          []AbonoResponse     `json:"abonos,omitempty"`
	CreatedAt       string              `json:"created_at"`
}

type OrdenListResponse struct {
	Data  []OrdenResponse `json:"data"`
	Total int             `json:"total"`
}

// ReciboResponse is the flattened projection an external renderer consumes —
// no nested objects, everything pre-formatted per line.
type ReciboResponse struct {
	NumeroTicket    int             `json:"numero_ticket"`
	Sede            string          `json:"sede"`
	ClienteNombre   string          `json:"cliente_nombre"`
	ClienteCedula   string          `json:"cliente_cedula"`
	ClienteTelefono string          `json:"cliente_telefono,omitempty"`
	Lineas          []string        `json:"lineas"`
	Total           decimal.Decimal `json:"total"`
	Pagado          decimal.Decimal `json:"pagado"`
	Saldo           decimal.Decimal `json:"saldo"`
	FechaRecepcion  string          `json:"fecha_recepcion"`
	FechaProgramada string          `json:"fecha_programada,omitempty"`
	Notas           string          `json:"notas,omitempty"`
}

type ProximoTicketResponse struct {
	ProximoTicket int  `json:"proximo_ticket"`
	Estimado      bool `json:"estimado"` // true when derived from the offline cache
}
