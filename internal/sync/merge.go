package sync

import (
	"sort"
	"time"

	"github.com/lalored20/lavaseco-app-sub000/internal/model"
)

// VentanaDedupe bounds how far apart two timestamps can be for a local and a
// central ledger entry of the same amount to be considered the same payment
// recorded twice (once offline, once by the central store).
const VentanaDedupe = 120 * time.Second

// MergeAbonos reconciles an order's local ledger against the central one.
// Central entries are authoritative; a local entry survives only when it is
// neither present by id nor redundant against a central entry (same amount
// within VentanaDedupe). Exactly one copy of each payment survives.
func MergeAbonos(centrales, locales []model.Abono) []model.Abono {
	ids := make(map[string]bool, len(centrales))
	for _, c := range centrales {
		ids[c.ID.String()] = true
	}

	merged := append([]model.Abono(nil), centrales...)
	for _, l := range locales {
		if ids[l.ID.String()] {
			continue
		}
		if esRedundante(l, centrales) {
			continue
		}
		merged = append(merged, l)
	}

	sort.Slice(merged, func(i, j int) bool {
		return merged[i].CreatedAt.Before(merged[j].CreatedAt)
	})
	return merged
}

func esRedundante(local model.Abono, centrales []model.Abono) bool {
	for _, c := range centrales {
		if !local.Monto.Equal(c.Monto) {
			continue
		}
		dt := local.CreatedAt.Sub(c.CreatedAt)
		if dt < 0 {
			dt = -dt
		}
		if dt < VentanaDedupe {
			return true
		}
	}
	return false
}

// MergeOrden applies a central snapshot over the local copy.
// Local records with unpushed edits (PENDING_*) are left alone — the edit
// wins until it has been pushed. For everything else the central copy wins,
// including the immutable fields, and the result lands as SYNCED.
// Returns nil when the local copy must not be touched.
func MergeOrden(local *model.Orden, central model.Orden) *model.Orden {
	if local != nil && local.SyncEstado != model.SyncSynced {
		return nil
	}
	central.SyncEstado = model.SyncSynced
	return &central
}
