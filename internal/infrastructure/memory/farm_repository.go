package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/granja-api/internal/domain"
	"github.com/jhoicas/granja-api/internal/domain/entity"
	"github.com/jhoicas/granja-api/internal/domain/repository"
)

var (
	_ repository.ProductCatalog             = (*Catalog)(nil)
	_ repository.GroupDirectory             = (*Directory)(nil)
	_ repository.ProductionRecordRepository = (*ProductionRecords)(nil)
	_ repository.MortalityRecordRepository  = (*MortalityRecords)(nil)
)

func catalogKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Catalog catálogo de productos en memoria.
type Catalog struct{ store *Store }

// Catalog devuelve el catálogo del store.
func (s *Store) Catalog() *Catalog { return &Catalog{store: s} }

// GetByName búsqueda sin distinguir mayúsculas.
func (c *Catalog) GetByName(_ context.Context, name string) (*entity.Product, error) {
	c.store.mu.RLock()
	defer c.store.mu.RUnlock()
	p, ok := c.store.products[catalogKey(name)]
	if !ok {
		return nil, domain.NewNotFoundError("producto", name)
	}
	return &p, nil
}

// List productos ordenados por nombre.
func (c *Catalog) List(_ context.Context) ([]*entity.Product, error) {
	c.store.mu.RLock()
	defer c.store.mu.RUnlock()
	out := make([]*entity.Product, 0, len(c.store.products))
	for _, p := range c.store.products {
		cp := p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Upsert valida y guarda el producto por nombre.
func (c *Catalog) Upsert(_ context.Context, p *entity.Product) error {
	if err := p.Validate(); err != nil {
		return domain.NewValidationError("product", err.Error())
	}
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	now := time.Now()
	key := catalogKey(p.Name)
	if prev, ok := c.store.products[key]; ok {
		p.ID = prev.ID
		p.CreatedAt = prev.CreatedAt
	}
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	c.store.products[key] = *p
	return nil
}

// Directory directorio de grupos de producción en memoria.
type Directory struct{ store *Store }

// Directory devuelve el directorio del store.
func (s *Store) Directory() *Directory { return &Directory{store: s} }

// ResolveGroupOrigin nombre visible del grupo.
func (d *Directory) ResolveGroupOrigin(_ context.Context, groupID string) (*entity.GroupOrigin, error) {
	d.store.mu.RLock()
	defer d.store.mu.RUnlock()
	g, ok := d.store.groups[groupID]
	if !ok {
		return nil, domain.NewNotFoundError("grupo", groupID)
	}
	return &g, nil
}

// PutGroup registra o reemplaza un grupo.
func (d *Directory) PutGroup(g entity.GroupOrigin) {
	d.store.mu.Lock()
	defer d.store.mu.Unlock()
	d.store.groups[g.GroupID] = g
}

// ProductionRecords registros de producción en memoria.
type ProductionRecords struct{ store *Store }

// ProductionRecords devuelve el repositorio de producción del store.
func (s *Store) ProductionRecords() *ProductionRecords { return &ProductionRecords{store: s} }

// Add registra un registro de producción.
func (r *ProductionRecords) Add(rec entity.ProductionRecord) {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.production = append(r.store.production, rec)
}

// ListLosses registros con destino pérdida o autoconsumo.
func (r *ProductionRecords) ListLosses(_ context.Context, from, to *time.Time) ([]*entity.ProductionRecord, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	out := []*entity.ProductionRecord{}
	for _, rec := range r.store.production {
		if _, ok := entity.LossDestination(rec.Destination); !ok || !inRange(rec.Date, from, to) {
			continue
		}
		cp := rec
		out = append(out, &cp)
	}
	return out, nil
}

// MortalityRecords registros de mortalidad en memoria.
type MortalityRecords struct{ store *Store }

// MortalityRecords devuelve el repositorio de mortalidad del store.
func (s *Store) MortalityRecords() *MortalityRecords { return &MortalityRecords{store: s} }

// Add registra una mortalidad.
func (r *MortalityRecords) Add(rec entity.MortalityRecord) {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.mortality = append(r.store.mortality, rec)
}

// List mortalidades en el rango (extremos opcionales).
func (r *MortalityRecords) List(_ context.Context, from, to *time.Time) ([]*entity.MortalityRecord, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	out := []*entity.MortalityRecord{}
	for _, rec := range r.store.mortality {
		if !inRange(rec.Date, from, to) {
			continue
		}
		cp := rec
		out = append(out, &cp)
	}
	return out, nil
}

func inRange(t time.Time, from, to *time.Time) bool {
	if from != nil && t.Before(*from) {
		return false
	}
	if to != nil && t.After(*to) {
		return false
	}
	return true
}
