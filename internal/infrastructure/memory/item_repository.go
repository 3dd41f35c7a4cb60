package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/granja-api/internal/domain"
	"github.com/jhoicas/granja-api/internal/domain/entity"
	"github.com/jhoicas/granja-api/internal/domain/repository"
)

var _ repository.InventoryItemRepository = (*ItemRepo)(nil)

// ItemRepo lotes en memoria. Devuelve siempre copias.
type ItemRepo struct {
	store *Store
	tx    *state
}

// Create inserta un lote nuevo.
func (r *ItemRepo) Create(_ context.Context, item *entity.InventoryItem) error {
	return r.store.update(r.tx, func(st *state) error {
		if _, ok := st.items[item.ID]; ok {
			return fmt.Errorf("lote %q ya existe: %w", item.ID, domain.ErrConflict)
		}
		st.items[item.ID] = *item
		return nil
	})
}

// GetByID obtiene un lote.
func (r *ItemRepo) GetByID(_ context.Context, id string) (*entity.InventoryItem, error) {
	var out *entity.InventoryItem
	err := r.store.view(r.tx, func(st *state) error {
		it, ok := st.items[id]
		if !ok {
			return domain.NewNotFoundError("lote", id)
		}
		out = &it
		return nil
	})
	return out, err
}

// GetForUpdate en memoria el escritor único ya serializa; equivale a GetByID.
func (r *ItemRepo) GetForUpdate(ctx context.Context, id string) (*entity.InventoryItem, error) {
	return r.GetByID(ctx, id)
}

// List filtra y ordena por fecha de origen (FIFO) o por fecha de alta.
func (r *ItemRepo) List(_ context.Context, f entity.ItemFilter) ([]*entity.InventoryItem, error) {
	var out []*entity.InventoryItem
	err := r.store.view(r.tx, func(st *state) error {
		for _, it := range st.items {
			if !matchesFilter(&it, f) {
				continue
			}
			cp := it
			out = append(out, &cp)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if f.FIFO {
		sortFIFO(out)
	} else {
		sort.Slice(out, func(i, j int) bool {
			if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
				return out[i].CreatedAt.Before(out[j].CreatedAt)
			}
			return out[i].ID < out[j].ID
		})
	}

	if f.Offset > 0 {
		if f.Offset >= len(out) {
			return []*entity.InventoryItem{}, nil
		}
		out = out[f.Offset:]
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	if out == nil {
		out = []*entity.InventoryItem{}
	}
	return out, nil
}

// ListAvailableForUpdate lotes con saldo del tipo en orden FIFO.
func (r *ItemRepo) ListAvailableForUpdate(_ context.Context, productType entity.ProductType) ([]*entity.InventoryItem, error) {
	var out []*entity.InventoryItem
	err := r.store.view(r.tx, func(st *state) error {
		for _, it := range st.items {
			if it.ProductType == productType && it.Quantity.GreaterThan(decimal.Zero) {
				cp := it
				out = append(out, &cp)
			}
		}
		return nil
	})
	sortFIFO(out)
	return out, err
}

// UpdateQuantity reemplaza el saldo cacheado. Rechaza saldos negativos.
func (r *ItemRepo) UpdateQuantity(_ context.Context, id string, quantity decimal.Decimal, at time.Time) error {
	if quantity.IsNegative() {
		return fmt.Errorf("saldo negativo para lote %q: %w", id, domain.ErrInvalidInput)
	}
	return r.store.update(r.tx, func(st *state) error {
		it, ok := st.items[id]
		if !ok {
			return domain.NewNotFoundError("lote", id)
		}
		it.Quantity = quantity
		it.UpdatedAt = at
		st.items[id] = it
		return nil
	})
}

// Delete elimina el lote (sus movimientos los borra MovementRepo.DeleteByItem).
func (r *ItemRepo) Delete(_ context.Context, id string) error {
	return r.store.update(r.tx, func(st *state) error {
		if _, ok := st.items[id]; !ok {
			return domain.NewNotFoundError("lote", id)
		}
		delete(st.items, id)
		return nil
	})
}

func matchesFilter(it *entity.InventoryItem, f entity.ItemFilter) bool {
	if f.ProductType != "" && it.ProductType != f.ProductType {
		return false
	}
	if f.Status != "" && it.Status() != f.Status {
		return false
	}
	if f.GroupID != "" && it.Origin.ProductionGroupID != f.GroupID {
		return false
	}
	if f.Subtype != "" && it.Subtype != f.Subtype {
		return false
	}
	return true
}

func sortFIFO(items []*entity.InventoryItem) {
	sort.Slice(items, func(i, j int) bool {
		a, b := items[i].Origin.CreationDate, items[j].Origin.CreationDate
		if !a.Equal(b) {
			return a.Before(b)
		}
		return items[i].ID < items[j].ID
	})
}
