package repository

import (
	"context"

	"gorm.io/gorm"
)

// UnitOfWork groups order and ledger writes that must land together: either
// both rows hit the local store or neither does, so Pagado never drifts from
// the ledger sum on a partial failure.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ordenes OrdenRepository, abonos AbonoRepository) error) error
}

type gormUnitOfWork struct{ db *gorm.DB }

func NewUnitOfWork(db *gorm.DB) UnitOfWork { return &gormUnitOfWork{db: db} }

func (u *gormUnitOfWork) Do(ctx context.Context,
	fn func(ordenes OrdenRepository, abonos AbonoRepository) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewOrdenRepository(tx), NewAbonoRepository(tx))
	})
}
