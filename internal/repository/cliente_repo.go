package repository

import (
	"context"

	"github.com/lalored20/lavaseco-app-sub000/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ClienteRepository interface {
	// FindOrCreate dedupes by normalized cédula (the primary key); an existing
	// client keeps its stored name and phone
	FindOrCreate(ctx context.Context, c *model.Cliente) (*model.Cliente, error)
	Get(ctx context.Context, id string) (*model.Cliente, error)
}

type clienteRepo struct{ db *gorm.DB }

func NewClienteRepository(db *gorm.DB) ClienteRepository { return &clienteRepo{db: db} }

func (r *clienteRepo) FindOrCreate(ctx context.Context, c *model.Cliente) (*model.Cliente, error) {
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(c).Error; err != nil {
		return nil, err
	}
	var existing model.Cliente
	if err := r.db.WithContext(ctx).First(&existing, "id = ?", c.ID).Error; err != nil {
		return nil, err
	}
	return &existing, nil
}

func (r *clienteRepo) Get(ctx context.Context, id string) (*model.Cliente, error) {
	var c model.Cliente
	err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error
	return &c, err
}
