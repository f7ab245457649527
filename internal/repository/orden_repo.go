package repository

import (
	"context"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/lalored20/lavaseco-app-sub000/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OrdenFilter drives listing and the counter search box.
// Desde/Hasta are local-midnight day bounds (Hasta exclusive).
type OrdenFilter struct {
	Query  string
	Estado string // "" = all
	Desde  *time.Time
	Hasta  *time.Time
	Limit  int
}

type OrdenRepository interface {
	Create(ctx context.Context, o *model.Orden) error
	Get(ctx context.Context, id uuid.UUID) (*model.Orden, error)
	GetByTicket(ctx context.Context, numero int) (*model.Orden, error)
	Update(ctx context.Context, o *model.Orden) error
	// Upsert merges a replicated snapshot; item rows are insert-only (immutable)
	Upsert(ctx context.Context, o *model.Orden) error
	Search(ctx context.Context, f OrdenFilter) ([]model.Orden, error)
	// Range listings for the logistics summary (per-day order flow).
	// [desde, hasta) over intake and delivery timestamps respectively.
	ListCreadasEnRango(ctx context.Context, desde, hasta time.Time) ([]model.Orden, error)
	ListEntregadasEnRango(ctx context.Context, desde, hasta time.Time) ([]model.Orden, error)
	ListPendientes(ctx context.Context, limit int) ([]model.Orden, error)
	CountPendientes(ctx context.Context) (int64, error)
	MarkSynced(ctx context.Context, id uuid.UUID, numeroTicket int) error
}

type ordenRepo struct{ db *gorm.DB }

func NewOrdenRepository(db *gorm.DB) OrdenRepository { return &ordenRepo{db: db} }

func (r *ordenRepo) Create(ctx context.Context, o *model.Orden) error {
	return r.db.WithContext(ctx).Create(o).Error
}

func (r *ordenRepo) Get(ctx context.Context, id uuid.UUID) (*model.Orden, error) {
	var o model.Orden
	err := r.db.WithContext(ctx).Preload("Items").First(&o, "id = ?", id).Error
	return &o, err
}

func (r *ordenRepo) GetByTicket(ctx context.Context, numero int) (*model.Orden, error) {
	var o model.Orden
	err := r.db.WithContext(ctx).Preload("Items").First(&o, "numero_ticket = ?", numero).Error
	return &o, err
}

func (r *ordenRepo) Update(ctx context.Context, o *model.Orden) error {
	// Omit Items: they are frozen at intake and Save would try to rewrite them
	return r.db.WithContext(ctx).Omit("Items").Save(o).Error
}

func (r *ordenRepo) Upsert(ctx context.Context, o *model.Orden) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Items").Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).Create(o).Error; err != nil {
			return err
		}
		for i := range o.Items {
			o.Items[i].OrdenID = o.ID
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
				Create(&o.Items[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *ordenRepo) ListCreadasEnRango(ctx context.Context, desde, hasta time.Time) ([]model.Orden, error) {
	var ordenes []model.Orden
	err := r.db.WithContext(ctx).
		Where("created_at >= ? AND created_at < ?", desde, hasta).
		Order("created_at ASC").
		Find(&ordenes).Error
	return ordenes, err
}

func (r *ordenRepo) ListEntregadasEnRango(ctx context.Context, desde, hasta time.Time) ([]model.Orden, error) {
	var ordenes []model.Orden
	err := r.db.WithContext(ctx).
		Where("fecha_entrega >= ? AND fecha_entrega < ? AND estado = ?",
			desde, hasta, model.EstadoEntregado).
		Order("fecha_entrega ASC").
		Find(&ordenes).Error
	return ordenes, err
}

func (r *ordenRepo) ListPendientes(ctx context.Context, limit int) ([]model.Orden, error) {
	var ordenes []model.Orden
	err := r.db.WithContext(ctx).Preload("Items").
		Where("sync_estado IN ?", []string{model.SyncPendingSync, model.SyncPendingUpdate}).
		Order("created_at ASC").Limit(limit).
		Find(&ordenes).Error
	return ordenes, err
}

func (r *ordenRepo) CountPendientes(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Orden{}).
		Where("sync_estado IN ?", []string{model.SyncPendingSync, model.SyncPendingUpdate}).
		Count(&n).Error
	return n, err
}

func (r *ordenRepo) MarkSynced(ctx context.Context, id uuid.UUID, numeroTicket int) error {
	updates := map[string]interface{}{"sync_estado": model.SyncSynced}
	if numeroTicket > 0 {
		updates["numero_ticket"] = numeroTicket
	}
	return r.db.WithContext(ctx).Model(&model.Orden{}).
		Where("id = ?", id).Updates(updates).Error
}

// Search implements the counter search box semantics:
//   - a trimmed all-digit query of up to 4 characters is a ticket-number lookup
//   - a query ending in a space requires exact matches on normalized fields
//   - anything else is a substring match over ticket, client name, cédula
//     (digits only), phone (digits only) and garment descriptions
//
// Rows that fail to scan are skipped with a warning instead of aborting the
// whole listing — one corrupted record must never blind the counter.
func (r *ordenRepo) Search(ctx context.Context, f OrdenFilter) ([]model.Orden, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}

	trimmed := strings.TrimSpace(f.Query)
	if esNumerico(trimmed) && len(trimmed) >= 1 && len(trimmed) <= 4 {
		n, _ := strconv.Atoi(trimmed)
		var o model.Orden
		err := r.db.WithContext(ctx).Preload("Items").First(&o, "numero_ticket = ?", n).Error
		if err == gorm.ErrRecordNotFound {
			return []model.Orden{}, nil
		}
		if err != nil {
			return nil, err
		}
		return []model.Orden{o}, nil
	}

	q := r.db.WithContext(ctx).Model(&model.Orden{}).Order("created_at DESC")
	if f.Estado != "" {
		q = q.Where("estado = ?", f.Estado)
	}
	if f.Desde != nil {
		q = q.Where("created_at >= ?", *f.Desde)
	}
	if f.Hasta != nil {
		q = q.Where("created_at < ?", *f.Hasta)
	}
	if trimmed == "" {
		q = q.Limit(limit)
	}

	rows, err := q.Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ordenes []model.Orden
	for rows.Next() {
		var o model.Orden
		if err := r.db.ScanRows(rows, &o); err != nil {
			log.Warn().Err(err).Msg("orden_repo: skipping corrupted record")
			continue
		}
		ordenes = append(ordenes, o)
	}

	if err := r.cargarItems(ctx, ordenes); err != nil {
		return nil, err
	}

	if trimmed == "" {
		return ordenes, nil
	}

	exacto := strings.HasSuffix(f.Query, " ")
	needle := strings.ToLower(trimmed)

	var filtradas []model.Orden
	for _, o := range ordenes {
		if coincideOrden(&o, needle, exacto) {
			filtradas = append(filtradas, o)
			if len(filtradas) >= limit {
				break
			}
		}
	}
	if filtradas == nil {
		filtradas = []model.Orden{}
	}
	return filtradas, nil
}

func (r *ordenRepo) cargarItems(ctx context.Context, ordenes []model.Orden) error {
	if len(ordenes) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(ordenes))
	for i := range ordenes {
		ids[i] = ordenes[i].ID
	}
	var items []model.OrdenItem
	if err := r.db.WithContext(ctx).Where("orden_id IN ?", ids).Find(&items).Error; err != nil {
		return err
	}
	porOrden := make(map[uuid.UUID][]model.OrdenItem, len(ordenes))
	for _, it := range items {
		porOrden[it.OrdenID] = append(porOrden[it.OrdenID], it)
	}
	for i := range ordenes {
		ordenes[i].Items = porOrden[ordenes[i].ID]
	}
	return nil
}

func coincideOrden(o *model.Orden, needle string, exacto bool) bool {
	campos := []string{
		strconv.Itoa(o.NumeroTicket),
		strings.ToLower(o.ClienteNombre),
		soloDigitos(o.ClienteID),
		soloDigitos(o.ClienteTelefono),
	}
	for _, it := range o.Items {
		campos = append(campos, strings.ToLower(it.Descripcion))
	}

	needleDigitos := soloDigitos(needle)
	for _, campo := range campos {
		if campo == "" {
			continue
		}
		if exacto {
			if campo == needle || (needleDigitos != "" && campo == needleDigitos) {
				return true
			}
			continue
		}
		if strings.Contains(campo, needle) {
			return true
		}
		if needleDigitos != "" && strings.Contains(campo, needleDigitos) {
			return true
		}
	}
	return false
}

func esNumerico(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func soloDigitos(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
