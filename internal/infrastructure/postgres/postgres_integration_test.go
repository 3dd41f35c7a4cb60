package postgres_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/granja-api/internal/application/inventory"
	"github.com/jhoicas/granja-api/internal/application/traceability"
	"github.com/jhoicas/granja-api/internal/domain"
	"github.com/jhoicas/granja-api/internal/domain/entity"
	"github.com/jhoicas/granja-api/internal/infrastructure/postgres"
)

// newTestPool aplica migraciones y limpia las tablas. Se omite sin TEST_DATABASE_URL.
func newTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skipf("TEST_DATABASE_URL no definido; se omiten pruebas de PostgreSQL")
	}
	ctx := context.Background()
	require.NoError(t, postgres.Migrate(ctx, dsn))

	pool, err := postgres.NewPoolFromDSN(ctx, dsn, 10)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = pool.Exec(ctx, `TRUNCATE inventory_movements, inventory_items, product_bom_lines, products,
		mortality_records, production_records, cages, production_groups`)
	require.NoError(t, err)
	return pool
}

type pgFixture struct {
	ledger *inventory.LedgerUseCase
	alloc  *inventory.AllocationUseCase
}

func newPGFixture(pool *pgxpool.Pool) pgFixture {
	runner := postgres.NewTxRunner(pool)
	items := postgres.NewInventoryItemRepository(pool)
	movs := postgres.NewMovementRepository(pool)
	return pgFixture{
		ledger: inventory.NewLedgerUseCase(runner, items, movs, nil),
		alloc: inventory.NewAllocationUseCase(runner, postgres.NewProductRepository(pool), nil,
			inventory.AllocationOptions{MaxRetries: 5, TxTimeout: 5 * time.Second}, nil, nil),
	}
}

func (f pgFixture) add(t *testing.T, subtype string, n int64, created time.Time) *entity.InventoryItem {
	t.Helper()
	it, err := f.ledger.AddInventory(context.Background(), inventory.AddInventoryInput{
		NewItemInput: inventory.NewItemInput{
			ProductType: entity.ProductTypeEgg,
			Subtype:     subtype,
			Origin:      entity.Origin{ProductionGroupID: "g1", CreationDate: created},
		},
		Quantity:  decimal.NewFromInt(n),
		Reference: entity.Reference{Kind: entity.RefProduction},
	})
	require.NoError(t, err)
	return it
}

func TestPostgres_AllocateFIFOAndLedgerInvariant(t *testing.T) {
	pool := newTestPool(t)
	f := newPGFixture(pool)
	ctx := context.Background()

	x := f.add(t, "Ovo Cru", 50, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	y := f.add(t, "Ovo Cru", 50, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC))

	res, err := f.alloc.Allocate(ctx, inventory.AllocationRequest{
		ProductType: entity.ProductTypeEgg, ProductName: "ovo cru", Quantity: decimal.NewFromInt(60), Context: "venda",
	})
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, x.ID, res[0].ItemID)
	assert.Equal(t, y.ID, res[1].ItemID)

	for _, id := range []string{x.ID, y.ID} {
		check, err := f.ledger.VerifyLedger(ctx, id)
		require.NoError(t, err)
		assert.True(t, check.Consistent, id)
	}
	gotY, err := f.ledger.GetItem(ctx, y.ID)
	require.NoError(t, err)
	assert.True(t, gotY.Quantity.Equal(decimal.NewFromInt(40)))
}

func TestPostgres_ShortageRollsBack(t *testing.T) {
	pool := newTestPool(t)
	f := newPGFixture(pool)
	ctx := context.Background()
	x := f.add(t, "Ovo Cru", 60, time.Now().Add(-time.Hour))

	_, err := f.alloc.Allocate(ctx, inventory.AllocationRequest{
		BillOfMaterials: []entity.BOMLine{
			{RawMaterialName: "ovo cru", StockType: entity.ProductTypeEgg, QuantityPerUnit: decimal.NewFromInt(30)},
			{RawMaterialName: "ovo fertil", StockType: entity.ProductTypeEgg, QuantityPerUnit: decimal.NewFromInt(1)},
		},
		ProductName: "kit", Quantity: decimal.NewFromInt(1),
	})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	movs, err := f.ledger.ListMovements(ctx, x.ID)
	require.NoError(t, err)
	assert.Len(t, movs, 1)
}

func TestPostgres_ConcurrentAllocationsNeverOversell(t *testing.T) {
	pool := newTestPool(t)
	f := newPGFixture(pool)
	it := f.add(t, "Ovo Cru", 50, time.Now().Add(-time.Hour))

	var wg sync.WaitGroup
	var mu sync.Mutex
	ok := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.alloc.Allocate(context.Background(), inventory.AllocationRequest{
				ProductType: entity.ProductTypeEgg, ProductName: "ovo cru", Quantity: decimal.NewFromInt(10),
			})
			if err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, ok)
	got, err := f.ledger.GetItem(context.Background(), it.ID)
	require.NoError(t, err)
	assert.True(t, got.Quantity.IsZero())
}

func TestPostgres_CatalogAndLossHistory(t *testing.T) {
	pool := newTestPool(t)
	f := newPGFixture(pool)
	ctx := context.Background()

	catalog := postgres.NewProductRepository(pool)
	require.NoError(t, catalog.Upsert(ctx, &entity.Product{
		Name: "Bandeja 30",
		BillOfMaterials: []entity.BOMLine{
			{RawMaterialName: "ovo cru", StockType: entity.ProductTypeEgg, QuantityPerUnit: decimal.NewFromInt(30)},
		},
	}))
	p, err := catalog.GetByName(ctx, "BANDEJA 30")
	require.NoError(t, err)
	require.Len(t, p.BillOfMaterials, 1)
	assert.True(t, p.BillOfMaterials[0].QuantityPerUnit.Equal(decimal.NewFromInt(30)))

	it := f.add(t, "Ovo Cru", 10, time.Now().Add(-time.Hour))
	_, err = f.ledger.RecordMovement(ctx, it.ID, entity.DirectionExit, decimal.NewFromInt(2), entity.Reference{Kind: entity.RefLoss, Note: "quebrados"})
	require.NoError(t, err)
	_, err = f.ledger.RecordMovement(ctx, it.ID, entity.DirectionExit, decimal.NewFromInt(3), entity.Reference{Kind: entity.RefSale})
	require.NoError(t, err)

	_, err = pool.Exec(ctx, `INSERT INTO production_groups (id, aviary_id, display_name) VALUES ('g1', 'av1', 'Aviário 1')`)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `INSERT INTO mortality_records (id, group_id, quantity, cause, recorded_at) VALUES ('m1', 'g1', 5, 'doença', now())`)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `INSERT INTO production_records (id, group_id, product_type, quantity, destination, recorded_at)
		VALUES ('p1', 'g1', 'ovos', 3, 'Perda', now() - interval '1 day')`)
	require.NoError(t, err)

	farm := postgres.NewFarmRepository(pool)
	uc := traceability.NewLossHistoryUseCase(farm, farm, postgres.NewMovementRepository(pool), farm, nil)
	events, err := uc.BuildLossHistory(ctx)
	require.NoError(t, err)
	require.Len(t, events, 3)

	sources := map[string]int{}
	for _, e := range events {
		sources[e.Source]++
		assert.Equal(t, "Aviário 1", e.Origin)
	}
	assert.Equal(t, 1, sources[entity.LossSourceField])
	assert.Equal(t, 1, sources[entity.LossSourceProduction])
	assert.Equal(t, 1, sources[entity.LossSourceWarehouse])
}
