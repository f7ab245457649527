package model

import (
	"time"

	"github.com/google/uuid"
)

// ConteoPrendas is the end-of-day garment tally: pieces processed at the
// plant versus at home, one row per calendar day. Saving the same day again
// replaces the tally — it is a correction, not a new count.
type ConteoPrendas struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Fecha        time.Time `gorm:"uniqueIndex;not null"` // local midnight
	ConteoPlanta int       `gorm:"not null"`
	ConteoCasa   int       `gorm:"not null"`
	NotasPlanta  string
	NotasCasa    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
