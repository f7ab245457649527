package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Estado de negocio de una orden.
// EstadoEntregado keeps the historical lowercase wire value — older records
// in the field were written with it and the sync protocol preserves it.
const (
	EstadoPendiente = "PENDIENTE"
	EstadoEnProceso = "EN_PROCESO"
	EstadoProblema  = "PROBLEMA"
	EstadoEntregado = "delivered"
	EstadoCancelado = "CANCELADO"
)

// Estado de pago de una orden.
// PagoPagado survives only on historical central rows written before full
// payment collapsed into CANCELADO; pulls re-derive it from the stored totals.
const (
	PagoPendiente = "PENDIENTE"
	PagoAbono     = "ABONO"
	PagoPagado    = "PAGADO"
	PagoCancelado = "CANCELADO"
)

// Estado de sincronización de un registro local.
// PENDING_SYNC: created locally, never acknowledged by the central store.
// PENDING_UPDATE: acknowledged before, mutated locally since.
// SYNCED: local and remote agree as of the last ack.
const (
	SyncPendingSync   = "PENDING_SYNC"
	SyncPendingUpdate = "PENDING_UPDATE"
	SyncSynced        = "SYNCED"
)

// EsTerminal reports whether a business status admits no further actions.
func EsTerminal(estado string) bool {
	return estado == EstadoEntregado || estado == EstadoCancelado
}

// Orden is a dry-cleaning service order (the unit the counter works with).
// NumeroTicket and CreatedAt are assigned once and never change; on any
// conflict during replication the central store's value wins. Items are
// likewise frozen at intake.
type Orden struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	NumeroTicket int       `gorm:"index"` // 0 until the central store assigns one

	// Client snapshot — ClienteID is the normalized cédula
	ClienteID       string `gorm:"index;not null"`
	ClienteNombre   string `gorm:"not null"`
	ClienteTelefono string

	Items []OrdenItem `gorm:"foreignKey:OrdenID"`

	Total  decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Pagado decimal.Decimal `gorm:"type:decimal(12,2);not null"`

	Estado     string `gorm:"type:varchar(20);not null;default:'PENDIENTE';index"`
	EstadoPago string `gorm:"type:varchar(20);not null;default:'PENDIENTE'"`

	FechaProgramada *time.Time `gorm:"index"`
	FechaEntrega    *time.Time

	Notas string

	SyncEstado string `gorm:"type:varchar(20);not null;default:'PENDING_SYNC';index"`

	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time
}

// OrdenItem is a garment line within an order. Frozen at intake.
type OrdenItem struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey"`
	OrdenID        uuid.UUID       `gorm:"type:uuid;index;not null"`
	Descripcion    string          `gorm:"not null"`
	Cantidad       int             `gorm:"not null"`
	PrecioUnitario decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Subtotal       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	// Marcas: distinguishing marks noted at intake (stains, missing buttons)
	Marcas string
}

// Cliente is deduplicated by cédula: the normalized document number IS the id,
// so the same person registered from two terminals collapses into one row.
type Cliente struct {
	ID        string `gorm:"primaryKey"` // normalized cédula (digits only)
	Nombre    string `gorm:"not null"`
	Telefono  string
	CreatedAt time.Time
}
