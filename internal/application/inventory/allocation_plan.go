package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/granja-api/internal/domain"
	"github.com/jhoicas/granja-api/internal/domain/entity"
	"github.com/jhoicas/granja-api/internal/domain/matching"
	"github.com/jhoicas/granja-api/internal/domain/repository"
)

// maxRecipeDepth límite de anidamiento de fichas técnicas (producto derivado de derivados).
const maxRecipeDepth = 8

// plannedTake una salida decidida en la fase de planificación, aún sin registrar.
type plannedTake struct {
	item     *entity.InventoryItem
	quantity decimal.Decimal
	context  string
}

// allocationPlan recorre el árbol de la receta sin escribir nada. Los lotes candidatos se
// bloquean una vez por tipo y las reservas de ingredientes anteriores se descuentan de la
// disponibilidad de los siguientes, de modo que el plan completo es consistente con los saldos.
type allocationPlan struct {
	items      repository.InventoryItemRepository
	catalog    repository.ProductCatalog
	matcher    matching.Matcher
	candidates map[entity.ProductType][]*entity.InventoryItem
	reserved   map[string]decimal.Decimal
	takes      []plannedTake
	results    []entity.AllocationResult
}

func newAllocationPlan(items repository.InventoryItemRepository, catalog repository.ProductCatalog, matcher matching.Matcher) *allocationPlan {
	return &allocationPlan{
		items:      items,
		catalog:    catalog,
		matcher:    matcher,
		candidates: make(map[entity.ProductType][]*entity.InventoryItem),
		reserved:   make(map[string]decimal.Decimal),
	}
}

// node asigna un producto: derivado (con ficha técnica) o materia prima.
// path lleva los derivados en curso para detectar recetas cíclicas.
func (p *allocationPlan) node(
	ctx context.Context,
	productType entity.ProductType,
	name string,
	quantity decimal.Decimal,
	allocCtx string,
	bom []entity.BOMLine,
	depth int,
	path []string,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(bom) > 0 {
		return p.derived(ctx, name, quantity, allocCtx, bom, depth, path)
	}

	// Un ingrediente puede ser a su vez un derivado del catálogo.
	if depth > 0 && p.catalog != nil {
		product, err := p.catalog.GetByName(ctx, name)
		switch {
		case err == nil && product.IsDerived():
			return p.derived(ctx, product.Name, quantity, allocCtx, product.BillOfMaterials, depth, path)
		case err != nil && !errors.Is(err, domain.ErrNotFound):
			return fmt.Errorf("catálogo %q: %w", name, err)
		}
	}
	return p.raw(ctx, productType, name, quantity, allocCtx)
}

func (p *allocationPlan) derived(
	ctx context.Context,
	name string,
	quantity decimal.Decimal,
	allocCtx string,
	bom []entity.BOMLine,
	depth int,
	path []string,
) error {
	if depth >= maxRecipeDepth {
		return domain.NewValidationError("bill_of_materials",
			fmt.Sprintf("receta de %q supera %d niveles de anidamiento", name, maxRecipeDepth))
	}
	key := matching.Normalize(name)
	for _, seen := range path {
		if seen == key {
			return domain.NewValidationError("bill_of_materials",
				fmt.Sprintf("receta cíclica: %s -> %s", strings.Join(path, " -> "), key))
		}
	}
	path = append(path, key)

	childCtx := allocCtx + " (componente de " + name + ")"
	for _, line := range bom {
		if err := line.Validate(); err != nil {
			return domain.NewValidationError("bill_of_materials", fmt.Sprintf("%q: %v", name, err))
		}
		// La necesidad se redondea hacia arriba a la escala persistida: nunca menos de lo que pide la receta.
		need := line.QuantityPerUnit.Mul(quantity).RoundUp(entity.QuantityScale)
		if err := p.node(ctx, line.StockType, line.RawMaterialName, need, childCtx, nil, depth+1, path); err != nil {
			return err
		}
	}
	return nil
}

// raw recorre en orden FIFO los lotes que coinciden y reserva min(disponible, restante) de cada uno.
func (p *allocationPlan) raw(
	ctx context.Context,
	productType entity.ProductType,
	name string,
	quantity decimal.Decimal,
	allocCtx string,
) error {
	if !productType.Valid() {
		return domain.NewValidationError("product_type", fmt.Sprintf("tipo inválido %q para %q", productType, name))
	}
	candidates, err := p.lockCandidates(ctx, productType)
	if err != nil {
		return err
	}

	type match struct {
		item      *entity.InventoryItem
		available decimal.Decimal
	}
	var matched []match
	total := decimal.Zero
	for _, it := range candidates {
		if !p.matcher.Matches(name, it.Subtype) {
			continue
		}
		avail := it.Quantity.Sub(p.reserved[it.ID])
		if !avail.GreaterThan(decimal.Zero) {
			continue
		}
		matched = append(matched, match{item: it, available: avail})
		total = total.Add(avail)
	}
	if total.LessThan(quantity) {
		return domain.NewInsufficientStockError(name, total, quantity)
	}

	remaining := quantity
	for _, m := range matched {
		if !remaining.GreaterThan(decimal.Zero) {
			break
		}
		take := decimal.Min(m.available, remaining)
		p.reserved[m.item.ID] = p.reserved[m.item.ID].Add(take)
		remaining = remaining.Sub(take)

		p.takes = append(p.takes, plannedTake{item: m.item, quantity: take, context: allocCtx})
		p.results = append(p.results, entity.AllocationResult{
			ItemID:        m.item.ID,
			ProductType:   m.item.ProductType,
			Subtype:       m.item.Subtype,
			QuantityTaken: take,
			Origin:        m.item.Origin,
		})
	}
	return nil
}

// lockCandidates bloquea (una vez por tipo y transacción) los lotes con saldo en orden FIFO.
func (p *allocationPlan) lockCandidates(ctx context.Context, productType entity.ProductType) ([]*entity.InventoryItem, error) {
	if c, ok := p.candidates[productType]; ok {
		return c, nil
	}
	c, err := p.items.ListAvailableForUpdate(ctx, productType)
	if err != nil {
		return nil, err
	}
	p.candidates[productType] = c
	return c, nil
}
