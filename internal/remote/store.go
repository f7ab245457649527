// Package remote implements the central-store side of replication. The
// terminal never trusts itself on immutable fields: whatever the central
// store already recorded for ticket number, intake timestamp and garment
// items wins over any local version.
package remote

import (
	"context"
	"errors"
	"sync"

	"github.com/lalored20/lavaseco-app-sub000/internal/lifecycle"
	"github.com/lalored20/lavaseco-app-sub000/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ticketCounter is the single row that hands out consecutive ticket numbers.
// Updating it row-locks the counter, so two terminals pushing at the same
// time can never receive the same number.
type ticketCounter struct {
	ID     int `gorm:"primaryKey"`
	Ultimo int `gorm:"not null"`
}

func (ticketCounter) TableName() string { return "ticket_counter" }

// Snapshot is the replication unit: one order with its full ledger.
type Snapshot struct {
	Orden  model.Orden
	Abonos []model.Abono
}

// Ack is the central store's positive acknowledgement of an upsert. The
// engine only marks a local record SYNCED after receiving one.
type Ack struct {
	NumeroTicket int
}

type Store interface {
	// EnsureSchema migrates the central schema; safe to call every cycle,
	// runs at most once after the first successful connection
	EnsureSchema(ctx context.Context) error
	UpsertOrden(ctx context.Context, snap Snapshot) (*Ack, error)
	FetchRecientes(ctx context.Context, limit int) ([]Snapshot, error)
	UltimoTicket(ctx context.Context) (int, error)
	Ping(ctx context.Context) error
}

type gormStore struct {
	db      *gorm.DB
	migDone bool
	migMu   sync.Mutex
}

func NewStore(db *gorm.DB) Store { return &gormStore{db: db} }

func (s *gormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *gormStore) EnsureSchema(ctx context.Context) error {
	s.migMu.Lock()
	defer s.migMu.Unlock()
	if s.migDone {
		return nil
	}
	db := s.db.WithContext(ctx)
	err := db.AutoMigrate(
		&model.Orden{},
		&model.OrdenItem{},
		&model.Cliente{},
		&model.Abono{},
		&ticketCounter{},
	)
	if err != nil {
		return err
	}
	if err := alinearContador(db); err != nil {
		return err
	}
	s.migDone = true
	return nil
}

// alinearContador seeds the ticket counter and raises it to the highest
// ticket already on record, so numbers written by other tools are never
// handed out twice.
func alinearContador(db *gorm.DB) error {
	var max int
	if err := db.Model(&model.Orden{}).
		Select("COALESCE(MAX(numero_ticket), 0)").Scan(&max).Error; err != nil {
		return err
	}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&ticketCounter{ID: 1, Ultimo: max}).Error; err != nil {
		return err
	}
	return db.Model(&ticketCounter{}).
		Where("id = 1 AND ultimo < ?", max).
		Update("ultimo", max).Error
}

// UpsertOrden is idempotent: replaying the same snapshot is a no-op.
//   - New orders get their ticket number assigned here (from the counter
//     row) when the terminal sent none.
//   - Existing orders keep their stored NumeroTicket, CreatedAt and items —
//     only lifecycle fields are updated from the snapshot.
//   - Ledger entries are appended, never rewritten; entries already present
//     by id are skipped.
//   - An order arriving with Pagado > 0 and an empty ledger gets a recovery
//     entry backdated to its intake time, so the ledger-sum invariant holds
//     for records that predate ledger bookkeeping.
func (s *gormStore) UpsertOrden(ctx context.Context, snap Snapshot) (*Ack, error) {
	var ack Ack
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		o := snap.Orden

		var existing model.Orden
		err := tx.First(&existing, "id = ?", o.ID).Error
		switch {
		case err == gorm.ErrRecordNotFound:
			if o.NumeroTicket == 0 {
				n, err := nextTicket(tx)
				if err != nil {
					return err
				}
				o.NumeroTicket = n
			}
			if err := tx.Omit("Items").Create(&o).Error; err != nil {
				return err
			}
			for i := range o.Items {
				o.Items[i].OrdenID = o.ID
				if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
					Create(&o.Items[i]).Error; err != nil {
					return err
				}
			}

		case err != nil:
			return err

		default:
			if o.NumeroTicket != 0 && o.NumeroTicket != existing.NumeroTicket {
				log.Warn().
					Str("orden_id", o.ID.String()).
					Int("ticket_local", o.NumeroTicket).
					Int("ticket_central", existing.NumeroTicket).
					Msg("remote: conflicto en numero de ticket, gana el central")
			}
			updates := map[string]interface{}{
				"estado":           o.Estado,
				"estado_pago":      o.EstadoPago,
				"pagado":           o.Pagado,
				"fecha_programada": o.FechaProgramada,
				"fecha_entrega":    o.FechaEntrega,
				"notas":            o.Notas,
				"cliente_nombre":   o.ClienteNombre,
				"cliente_telefono": o.ClienteTelefono,
				"updated_at":       o.UpdatedAt,
			}
			if err := tx.Model(&model.Orden{}).
				Where("id = ?", o.ID).Updates(updates).Error; err != nil {
				return err
			}
			o.NumeroTicket = existing.NumeroTicket
		}

		for i := range snap.Abonos {
			snap.Abonos[i].OrdenID = o.ID
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
				Create(&snap.Abonos[i]).Error; err != nil {
				return err
			}
		}

		if err := s.recuperarLedger(tx, &o); err != nil {
			return err
		}

		ack.NumeroTicket = o.NumeroTicket
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &ack, nil
}

// recuperarLedger synthesizes the backdated initial payment for orders whose
// paid amount has no ledger backing it.
func (s *gormStore) recuperarLedger(tx *gorm.DB, o *model.Orden) error {
	if !o.Pagado.IsPositive() {
		return nil
	}
	var n int64
	if err := tx.Model(&model.Abono{}).
		Where("orden_id = ?", o.ID).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	rec := model.Abono{
		ID:         uuid.New(),
		OrdenID:    o.ID,
		Tipo:       model.AbonoInicial,
		Metodo:     model.MetodoEfectivo,
		Monto:      o.Pagado,
		Nota:       "Abono inicial (recuperado en sincronizacion)",
		Recuperado: true,
		CreatedAt:  o.CreatedAt,
	}
	if err := tx.Create(&rec).Error; err != nil {
		return err
	}
	log.Info().
		Str("orden_id", o.ID.String()).
		Str("monto", o.Pagado.String()).
		Msg("remote: ledger recuperado para orden sin abonos")
	return nil
}

// nextTicket consumes the next number from the counter row. The UPDATE takes
// the row lock, so concurrent assignments serialize inside their transactions.
func nextTicket(tx *gorm.DB) (int, error) {
	var n int
	err := tx.Raw("UPDATE ticket_counter SET ultimo = ultimo + 1 WHERE id = 1 RETURNING ultimo").
		Scan(&n).Error
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, errors.New("ticket_counter sin fila inicial, falta EnsureSchema")
	}
	return n, nil
}

func (s *gormStore) FetchRecientes(ctx context.Context, limit int) ([]Snapshot, error) {
	if limit <= 0 {
		limit = 100
	}
	var ordenes []model.Orden
	err := s.db.WithContext(ctx).Preload("Items").
		Order("updated_at DESC").Limit(limit).
		Find(&ordenes).Error
	if err != nil {
		return nil, err
	}

	snaps := make([]Snapshot, 0, len(ordenes))
	if len(ordenes) == 0 {
		return snaps, nil
	}

	ids := make([]uuid.UUID, len(ordenes))
	for i := range ordenes {
		ids[i] = ordenes[i].ID
	}
	var abonos []model.Abono
	if err := s.db.WithContext(ctx).
		Where("orden_id IN ?", ids).Order("created_at ASC").
		Find(&abonos).Error; err != nil {
		return nil, err
	}
	porOrden := make(map[uuid.UUID][]model.Abono)
	for _, a := range abonos {
		porOrden[a.OrdenID] = append(porOrden[a.OrdenID], a)
	}

	for _, o := range ordenes {
		// Central rows touched by other tools can drift; the payment status
		// must agree with the stored totals before it reaches a terminal
		o.EstadoPago = reconciliarEstadoPago(o)
		snaps = append(snaps, Snapshot{Orden: o, Abonos: porOrden[o.ID]})
	}
	return snaps, nil
}

func reconciliarEstadoPago(o model.Orden) string {
	if model.EsTerminal(o.Estado) && o.Estado == model.EstadoEntregado {
		return model.PagoCancelado
	}
	return lifecycle.DerivarEstadoPago(o.Total, o.Pagado)
}

func (s *gormStore) UltimoTicket(ctx context.Context) (int, error) {
	var last int
	err := s.db.WithContext(ctx).Model(&model.Orden{}).
		Select("COALESCE(MAX(numero_ticket), 0)").Scan(&last).Error
	return last, err
}
