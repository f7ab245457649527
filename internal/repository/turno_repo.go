package repository

import (
	"context"
	"time"

	"github.com/lalored20/lavaseco-app-sub000/internal/model"

	"gorm.io/gorm"
)

type TurnoRepository interface {
	Create(ctx context.Context, t *model.Turno) error
	// Ultimo returns the most recently closed turn, gorm.ErrRecordNotFound if none
	Ultimo(ctx context.Context) (*model.Turno, error)
	// UltimoDelDia returns the latest turn whose window falls on the given day
	UltimoDelDia(ctx context.Context, dia time.Time) (*model.Turno, error)
	ListByFecha(ctx context.Context, dia time.Time) ([]model.Turno, error)
}

type turnoRepo struct{ db *gorm.DB }

func NewTurnoRepository(db *gorm.DB) TurnoRepository { return &turnoRepo{db: db} }

func (r *turnoRepo) Create(ctx context.Context, t *model.Turno) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *turnoRepo) Ultimo(ctx context.Context) (*model.Turno, error) {
	var t model.Turno
	err := r.db.WithContext(ctx).Order("end_time DESC").First(&t).Error
	return &t, err
}

func (r *turnoRepo) UltimoDelDia(ctx context.Context, dia time.Time) (*model.Turno, error) {
	var t model.Turno
	err := r.db.WithContext(ctx).
		Where("fecha = ?", dia).Order("end_time DESC").
		First(&t).Error
	return &t, err
}

func (r *turnoRepo) ListByFecha(ctx context.Context, dia time.Time) ([]model.Turno, error) {
	var turnos []model.Turno
	err := r.db.WithContext(ctx).
		Where("fecha = ?", dia).Order("numero_turno ASC").
		Find(&turnos).Error
	return turnos, err
}
