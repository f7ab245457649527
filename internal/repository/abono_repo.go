package repository

import (
	"context"
	"time"

	"github.com/lalored20/lavaseco-app-sub000/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AbonoRepository is append-only on purpose: the ledger has no Update or
// Delete. A wrong payment is corrected with a new entry.
type AbonoRepository interface {
	Append(ctx context.Context, a *model.Abono) error
	// AppendBatch inserts replicated entries, ignoring ids already present
	AppendBatch(ctx context.Context, abonos []model.Abono) error
	ListByOrden(ctx context.Context, ordenID uuid.UUID) ([]model.Abono, error)
	SumByOrden(ctx context.Context, ordenID uuid.UUID) (decimal.Decimal, error)
	ListEnVentana(ctx context.Context, desde, hasta time.Time) ([]model.Abono, error)
	// ReconciliarOrden rewrites the local mirror of one order's ledger with
	// the merged result of a pull cycle. This is the single exception to
	// append-only: it replaces local duplicates with the central copy, it
	// never drops a payment
	ReconciliarOrden(ctx context.Context, ordenID uuid.UUID, abonos []model.Abono) error
}

type abonoRepo struct{ db *gorm.DB }

func NewAbonoRepository(db *gorm.DB) AbonoRepository { return &abonoRepo{db: db} }

func (r *abonoRepo) Append(ctx context.Context, a *model.Abono) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *abonoRepo) AppendBatch(ctx context.Context, abonos []model.Abono) error {
	if len(abonos) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&abonos).Error
}

func (r *abonoRepo) ReconciliarOrden(ctx context.Context, ordenID uuid.UUID, abonos []model.Abono) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&model.Abono{}, "orden_id = ?", ordenID).Error; err != nil {
			return err
		}
		if len(abonos) == 0 {
			return nil
		}
		for i := range abonos {
			abonos[i].OrdenID = ordenID
		}
		return tx.Create(&abonos).Error
	})
}

func (r *abonoRepo) ListByOrden(ctx context.Context, ordenID uuid.UUID) ([]model.Abono, error) {
	var abonos []model.Abono
	err := r.db.WithContext(ctx).
		Where("orden_id = ?", ordenID).Order("created_at ASC").
		Find(&abonos).Error
	return abonos, err
}

func (r *abonoRepo) SumByOrden(ctx context.Context, ordenID uuid.UUID) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	err := r.db.WithContext(ctx).Model(&model.Abono{}).
		Where("orden_id = ?", ordenID).
		Select("COALESCE(SUM(monto), 0)").Scan(&total).Error
	if err != nil || !total.Valid {
		return decimal.Zero, err
	}
	return total.Decimal, nil
}

func (r *abonoRepo) ListEnVentana(ctx context.Context, desde, hasta time.Time) ([]model.Abono, error) {
	var abonos []model.Abono
	err := r.db.WithContext(ctx).
		Where("created_at >= ? AND created_at < ?", desde, hasta).
		Order("created_at ASC").
		Find(&abonos).Error
	return abonos, err
}
