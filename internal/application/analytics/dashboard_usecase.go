// Package analytics contiene el resumen de almacén para el dashboard.
package analytics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/granja-api/internal/application/dto"
	"github.com/jhoicas/granja-api/internal/domain/entity"
	"github.com/jhoicas/granja-api/internal/domain/repository"
)

// expiringWindow horizonte para avisar de lotes próximos a vencer.
const expiringWindow = 7 * 24 * time.Hour

// lossHistory fuente del total de pérdidas del mes (lo implementa traceability.LossHistoryUseCase).
type lossHistory interface {
	BuildLossHistoryRange(ctx context.Context, from, to *time.Time) ([]entity.LossEvent, error)
}

// DashboardUseCase genera el resumen del almacén: saldo por tipo, lotes agotados y pérdidas del mes.
//
// Fuentes (read-only): InventoryItemRepository y el historial de pérdidas.
type DashboardUseCase struct {
	items  repository.InventoryItemRepository
	losses lossHistory
	now    func() time.Time
}

// NewDashboardUseCase construye el caso de uso.
func NewDashboardUseCase(items repository.InventoryItemRepository, losses lossHistory) *DashboardUseCase {
	return &DashboardUseCase{items: items, losses: losses, now: time.Now}
}

// GetSummary construye el StockDashboardDTO.
//
// Tres llamadas en paralelo:
//  1. List(in_stock, FIFO) → saldo por tipo, lote más antiguo, próximos a vencer
//  2. List(sold_out)       → SoldOutLots
//  3. historial del mes    → MonthLosses
func (uc *DashboardUseCase) GetSummary(ctx context.Context) (*dto.StockDashboardDTO, error) {
	now := uc.now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	type itemsResult struct {
		items []*entity.InventoryItem
		err   error
	}
	type lossResult struct {
		total decimal.Decimal
		err   error
	}

	inStockCh := make(chan itemsResult, 1)
	soldOutCh := make(chan itemsResult, 1)
	lossCh := make(chan lossResult, 1)

	go func() {
		list, err := uc.items.List(ctx, entity.ItemFilter{Status: entity.ItemStatusInStock, FIFO: true})
		inStockCh <- itemsResult{list, err}
	}()
	go func() {
		list, err := uc.items.List(ctx, entity.ItemFilter{Status: entity.ItemStatusSoldOut})
		soldOutCh <- itemsResult{list, err}
	}()
	go func() {
		events, err := uc.losses.BuildLossHistoryRange(ctx, &monthStart, &now)
		total := decimal.Zero
		for _, e := range events {
			total = total.Add(e.Quantity)
		}
		lossCh <- lossResult{total, err}
	}()

	inStock := <-inStockCh
	soldOut := <-soldOutCh
	losses := <-lossCh

	if inStock.err != nil {
		return nil, fmt.Errorf("dashboard: lotes con saldo: %w", inStock.err)
	}
	if soldOut.err != nil {
		return nil, fmt.Errorf("dashboard: lotes agotados: %w", soldOut.err)
	}
	if losses.err != nil {
		return nil, fmt.Errorf("dashboard: pérdidas del mes: %w", losses.err)
	}

	out := &dto.StockDashboardDTO{
		ByType:      stockByType(inStock.items),
		SoldOutLots: len(soldOut.items),
		MonthLosses: losses.total,
		DateLabel:   monthLabel(now),
	}
	limit := now.Add(expiringWindow)
	for _, it := range inStock.items {
		if it.ExpirationDate != nil && it.ExpirationDate.Before(limit) {
			out.ExpiringSoon = append(out.ExpiringSoon, dto.ExpiringLotDTO{
				ItemID:         it.ID,
				Subtype:        it.Subtype,
				Quantity:       it.Quantity,
				ExpirationDate: *it.ExpirationDate,
				Expired:        it.IsExpired(now),
			})
		}
	}
	return out, nil
}

// stockByType agrupa lotes (ya en orden FIFO) por tipo; el primero de cada tipo es el más antiguo.
func stockByType(items []*entity.InventoryItem) []dto.StockByTypeDTO {
	idx := make(map[entity.ProductType]int)
	var out []dto.StockByTypeDTO
	for _, it := range items {
		i, ok := idx[it.ProductType]
		if !ok {
			i = len(out)
			idx[it.ProductType] = i
			out = append(out, dto.StockByTypeDTO{
				ProductType:  it.ProductType.String(),
				Unit:         it.ProductType.Unit(),
				Quantity:     decimal.Zero,
				OldestOrigin: it.Origin.CreationDate,
			})
		}
		out[i].Quantity = out[i].Quantity.Add(it.Quantity)
		out[i].Lots++
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ProductType < out[b].ProductType })
	return out
}

// monthLabel devuelve una etiqueta legible del mes, ej: "Febrero 2026".
func monthLabel(t time.Time) string {
	months := [...]string{
		"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
		"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre",
	}
	return fmt.Sprintf("%s %d", months[t.Month()-1], t.Year())
}
