package repository

import (
	"context"
	"time"

	"github.com/lalored20/lavaseco-app-sub000/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ConteoRepository interface {
	// Upsert keys on the day: saving the same date twice updates the tally
	Upsert(ctx context.Context, c *model.ConteoPrendas) error
	GetByFecha(ctx context.Context, fecha time.Time) (*model.ConteoPrendas, error)
	ListEnRango(ctx context.Context, desde, hasta time.Time) ([]model.ConteoPrendas, error)
	ListRecientes(ctx context.Context, limit int) ([]model.ConteoPrendas, error)
}

type conteoRepo struct{ db *gorm.DB }

func NewConteoRepository(db *gorm.DB) ConteoRepository { return &conteoRepo{db: db} }

func (r *conteoRepo) Upsert(ctx context.Context, c *model.ConteoPrendas) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "fecha"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"conteo_planta", "conteo_casa", "notas_planta", "notas_casa", "updated_at",
		}),
	}).Create(c).Error
}

func (r *conteoRepo) GetByFecha(ctx context.Context, fecha time.Time) (*model.ConteoPrendas, error) {
	var c model.ConteoPrendas
	err := r.db.WithContext(ctx).First(&c, "fecha = ?", fecha).Error
	return &c, err
}

func (r *conteoRepo) ListEnRango(ctx context.Context, desde, hasta time.Time) ([]model.ConteoPrendas, error) {
	var conteos []model.ConteoPrendas
	err := r.db.WithContext(ctx).
		Where("fecha >= ? AND fecha < ?", desde, hasta).
		Order("fecha ASC").
		Find(&conteos).Error
	return conteos, err
}

func (r *conteoRepo) ListRecientes(ctx context.Context, limit int) ([]model.ConteoPrendas, error) {
	if limit <= 0 {
		limit = 30
	}
	var conteos []model.ConteoPrendas
	err := r.db.WithContext(ctx).
		Order("fecha DESC").Limit(limit).
		Find(&conteos).Error
	return conteos, err
}
