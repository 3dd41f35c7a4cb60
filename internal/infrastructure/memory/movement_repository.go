package memory

import (
	"context"
	"sort"
	"time"

	"github.com/jhoicas/granja-api/internal/domain"
	"github.com/jhoicas/granja-api/internal/domain/entity"
	"github.com/jhoicas/granja-api/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

// MovementRepo movimientos append-only en memoria.
type MovementRepo struct {
	store *Store
	tx    *state
}

// Create agrega un movimiento; el lote debe existir.
func (r *MovementRepo) Create(_ context.Context, m *entity.Movement) error {
	return r.store.update(r.tx, func(st *state) error {
		if _, ok := st.items[m.ItemID]; !ok {
			return domain.NewNotFoundError("lote", m.ItemID)
		}
		st.movements = append(st.movements, *m)
		return nil
	})
}

// ListByItem movimientos del lote en orden de registro.
func (r *MovementRepo) ListByItem(_ context.Context, itemID string) ([]*entity.Movement, error) {
	out := []*entity.Movement{}
	err := r.store.view(r.tx, func(st *state) error {
		for _, m := range st.movements {
			if m.ItemID == itemID {
				cp := m
				out = append(out, &cp)
			}
		}
		return nil
	})
	return out, err
}

// ListLossExits salidas con referencia de pérdida, más recientes primero.
func (r *MovementRepo) ListLossExits(_ context.Context, from, to *time.Time) ([]*repository.MovementDetail, error) {
	out := []*repository.MovementDetail{}
	err := r.store.view(r.tx, func(st *state) error {
		for _, m := range st.movements {
			if m.Direction != entity.DirectionExit || !entity.IsLossKind(m.Reference.Kind) {
				continue
			}
			if from != nil && m.Timestamp.Before(*from) {
				continue
			}
			if to != nil && m.Timestamp.After(*to) {
				continue
			}
			it, ok := st.items[m.ItemID]
			if !ok {
				continue
			}
			out = append(out, &repository.MovementDetail{Movement: m, Item: it})
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Movement.Timestamp.After(out[j].Movement.Timestamp)
	})
	return out, err
}

// DeleteByItem elimina todos los movimientos del lote.
func (r *MovementRepo) DeleteByItem(_ context.Context, itemID string) error {
	return r.store.update(r.tx, func(st *state) error {
		kept := st.movements[:0]
		for _, m := range st.movements {
			if m.ItemID != itemID {
				kept = append(kept, m)
			}
		}
		st.movements = kept
		return nil
	})
}
