package inventory_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/granja-api/internal/application/inventory"
	"github.com/jhoicas/granja-api/internal/domain/entity"
	"github.com/jhoicas/granja-api/internal/domain/matching"
	"github.com/jhoicas/granja-api/internal/infrastructure/memory"
)

type fixture struct {
	store  *memory.Store
	ledger *inventory.LedgerUseCase
	alloc  *inventory.AllocationUseCase
	rec    *recorderSpy
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s := memory.NewStore()
	rec := &recorderSpy{}
	return &fixture{
		store:  s,
		ledger: inventory.NewLedgerUseCase(s, s.Items(), s.Movements(), nil),
		alloc: inventory.NewAllocationUseCase(s, s.Catalog(), matching.NewFuzzyMatcher(),
			inventory.AllocationOptions{MaxRetries: 3, TxTimeout: time.Second}, rec, nil),
		rec: rec,
	}
}

func day(d int) time.Time {
	return time.Date(2024, 1, d, 8, 0, 0, 0, time.UTC)
}

// stock registra un lote con saldo qty y fecha de origen created.
func (f *fixture) stock(t *testing.T, pt entity.ProductType, subtype string, qty int64, created time.Time) *entity.InventoryItem {
	t.Helper()
	it, err := f.ledger.AddInventory(context.Background(), inventory.AddInventoryInput{
		NewItemInput: inventory.NewItemInput{
			ProductType: pt,
			Subtype:     subtype,
			Origin:      entity.Origin{ProductionGroupID: "grupo-1", CreationDate: created},
		},
		Quantity:  decimal.NewFromInt(qty),
		Reference: entity.Reference{Kind: entity.RefProduction},
	})
	require.NoError(t, err)
	return it
}

func (f *fixture) quantity(t *testing.T, id string) decimal.Decimal {
	t.Helper()
	it, err := f.ledger.GetItem(context.Background(), id)
	require.NoError(t, err)
	return it.Quantity
}

func (f *fixture) movementCount(t *testing.T, id string) int {
	t.Helper()
	movs, err := f.ledger.ListMovements(context.Background(), id)
	require.NoError(t, err)
	return len(movs)
}

func qty(n int64) decimal.Decimal { return decimal.NewFromInt(n) }

type recorderSpy struct {
	mu       sync.Mutex
	outcomes []string
}

func (r *recorderSpy) ObserveAllocation(_, outcome string, _ float64, _ float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, outcome)
}

func (r *recorderSpy) last() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.outcomes) == 0 {
		return ""
	}
	return r.outcomes[len(r.outcomes)-1]
}
