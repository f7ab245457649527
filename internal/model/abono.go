package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Tipo de abono.
// ABONO_INICIAL: payment taken at intake.
// ABONO: partial payment during the order's life.
// CANCELACION: the payment that settles the remaining balance.
const (
	AbonoInicial     = "ABONO_INICIAL"
	AbonoParcial     = "ABONO"
	AbonoCancelacion = "CANCELACION"
)

// Métodos de pago. Everything that is not Efectivo counts as digital
// in the daily cash summary.
const (
	MetodoEfectivo      = "Efectivo"
	MetodoNequi         = "Nequi"
	MetodoDaviplata     = "Daviplata"
	MetodoTarjeta       = "Tarjeta"
	MetodoTransferencia = "Transferencia"
	MetodoOtro          = "Otro"
)

// Abono is an immutable entry in an order's payment ledger.
// Entries are NEVER modified or deleted — corrections create new entries,
// and Orden.Pagado must equal the sum of its entries at all times.
type Abono struct {
	ID      uuid.UUID       `gorm:"type:uuid;primaryKey"`
	OrdenID uuid.UUID       `gorm:"type:uuid;index;not null"`
	Tipo    string          `gorm:"type:varchar(20);not null"`
	Metodo  string          `gorm:"type:varchar(20);not null"`
	Monto   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Nota    string
	// Recuperado marks entries synthesized during replication for orders
	// that arrived with Pagado > 0 but an empty ledger.
	Recuperado bool      `gorm:"not null;default:false"`
	CreatedAt  time.Time `gorm:"index"`
}

// EsDigital reports whether a payment method counts toward the digital bucket.
func EsDigital(metodo string) bool {
	return metodo != MetodoEfectivo
}
