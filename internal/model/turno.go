package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Turno is a closed accounting window — a frozen snapshot of the counter's
// takings between the previous close and EndTime. NumeroTurno restarts at 1
// on each calendar day and increments within the day.
type Turno struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	NumeroTurno int       `gorm:"not null"`
	// Fecha is the local-midnight day bucket the turn belongs to
	Fecha      time.Time `gorm:"index;not null"`
	StartTime  time.Time `gorm:"not null"`
	EndTime    time.Time `gorm:"not null"`
	CerradoPor string

	// Snapshot totals — computed at close, never recomputed afterwards
	TotalEfectivo decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	TotalDigital  decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	TotalGastos   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	// EfectivoNeto = TotalEfectivo - TotalGastos
	EfectivoNeto decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	// TotalCalculado = TotalEfectivo + TotalDigital
	TotalCalculado decimal.Decimal `gorm:"type:decimal(12,2);not null"`

	Observaciones string
	CreatedAt     time.Time
}
