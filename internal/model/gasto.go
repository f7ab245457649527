package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Gasto is a cash expense paid out of the register (soap, delivery fuel).
// Deletion is allowed only within 3 days of registration; after that the
// entry is part of a potentially closed accounting window.
type Gasto struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Descripcion string          `gorm:"not null"`
	Monto       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Metodo      string          `gorm:"type:varchar(20);not null;default:'Efectivo'"`
	CreatedAt   time.Time       `gorm:"index"`
}
