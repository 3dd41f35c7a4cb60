package inventory_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/granja-api/internal/application/inventory"
	"github.com/jhoicas/granja-api/internal/domain"
	"github.com/jhoicas/granja-api/internal/domain/entity"
	"github.com/jhoicas/granja-api/internal/domain/matching"
	"github.com/jhoicas/granja-api/internal/domain/repository"
	"github.com/jhoicas/granja-api/internal/infrastructure/memory"
)

func eggRequest(name string, n int64) inventory.AllocationRequest {
	return inventory.AllocationRequest{
		ProductType: entity.ProductTypeEgg,
		ProductName: name,
		Quantity:    qty(n),
		Context:     "venda",
	}
}

// ---------------------------------------------------------------------------
// FIFO
// ---------------------------------------------------------------------------

func TestAllocate_FIFOTakesOldestFirst(t *testing.T) {
	f := newFixture(t)
	b := f.stock(t, entity.ProductTypeEgg, "Ovo Cru", 10, day(2))
	a := f.stock(t, entity.ProductTypeEgg, "Ovo Cru", 10, day(1))

	res, err := f.alloc.Allocate(context.Background(), eggRequest("ovo cru", 15))
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, a.ID, res[0].ItemID)
	assert.True(t, res[0].QuantityTaken.Equal(qty(10)))
	assert.Equal(t, b.ID, res[1].ItemID)
	assert.True(t, res[1].QuantityTaken.Equal(qty(5)))

	assert.True(t, f.quantity(t, a.ID).IsZero())
	assert.True(t, f.quantity(t, b.ID).Equal(qty(5)))
	assert.Equal(t, inventory.OutcomeAllocated, f.rec.last())
}

func TestAllocate_ScenarioXY(t *testing.T) {
	f := newFixture(t)
	x := f.stock(t, entity.ProductTypeEgg, "Ovo Cru", 50, day(1))
	y := f.stock(t, entity.ProductTypeEgg, "Ovo Cru", 50, day(5))

	res, err := f.alloc.Allocate(context.Background(), eggRequest("ovo cru", 60))
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, x.ID, res[0].ItemID)
	assert.True(t, res[0].QuantityTaken.Equal(qty(50)))
	assert.Equal(t, y.ID, res[1].ItemID)
	assert.True(t, res[1].QuantityTaken.Equal(qty(10)))
	assert.Equal(t, "grupo-1", res[0].Origin.ProductionGroupID)

	xi, err := f.ledger.GetItem(context.Background(), x.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ItemStatusSoldOut, xi.Status())
	assert.True(t, f.quantity(t, y.ID).Equal(qty(40)))

	movs, err := f.ledger.ListMovements(context.Background(), y.ID)
	require.NoError(t, err)
	require.Len(t, movs, 2)
	assert.Equal(t, entity.DirectionExit, movs[1].Direction)
	assert.Equal(t, entity.RefSale, movs[1].Reference.Kind)
	assert.Equal(t, "venda", movs[1].Reference.Note)
}

func TestAllocate_ShortageLeavesLedgerUnchanged(t *testing.T) {
	f := newFixture(t)
	x := f.stock(t, entity.ProductTypeEgg, "Ovo Cru", 50, day(1))
	y := f.stock(t, entity.ProductTypeEgg, "Ovo Cru", 10, day(2))

	_, err := f.alloc.Allocate(context.Background(), eggRequest("ovo cru", 200))
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	ise, ok := domain.AsInsufficientStock(err)
	require.True(t, ok)
	assert.True(t, ise.Available.Equal(qty(60)))
	assert.True(t, ise.Required.Equal(qty(200)))
	assert.Equal(t, "ovo cru", ise.Product)

	assert.True(t, f.quantity(t, x.ID).Equal(qty(50)))
	assert.True(t, f.quantity(t, y.ID).Equal(qty(10)))
	assert.Equal(t, 1, f.movementCount(t, x.ID))
	assert.Equal(t, 1, f.movementCount(t, y.ID))
	assert.Equal(t, inventory.OutcomeInsufficientStock, f.rec.last())
}

func TestAllocate_DecimalQuantities(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	it := f.stock(t, entity.ProductTypeMeat, "Codorna Abatida", 3, day(1))

	res, err := f.alloc.Allocate(ctx, inventory.AllocationRequest{
		ProductType: entity.ProductTypeMeat,
		ProductName: "codorna abatida",
		Quantity:    decimal.RequireFromString("1.25"),
	})
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.True(t, f.quantity(t, it.ID).Equal(decimal.RequireFromString("1.75")))
}

func TestAllocate_RecipeNeedRoundsUpToStoredScale(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	it := f.stock(t, entity.ProductTypeMeat, "Codorna Abatida", 3, day(1))

	res, err := f.alloc.Allocate(ctx, inventory.AllocationRequest{
		ProductName: "porção",
		Quantity:    decimal.RequireFromString("0.1"),
		BillOfMaterials: []entity.BOMLine{
			{RawMaterialName: "codorna abatida", StockType: entity.ProductTypeMeat, QuantityPerUnit: decimal.RequireFromString("0.125")},
		},
	})
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.True(t, res[0].QuantityTaken.Equal(decimal.RequireFromString("0.013")), res[0].QuantityTaken.String())
	assert.True(t, f.quantity(t, it.ID).Equal(decimal.RequireFromString("2.987")))

	check, err := f.ledger.VerifyLedger(ctx, it.ID)
	require.NoError(t, err)
	assert.True(t, check.Consistent)
}

func TestAllocate_NormalizesReferenceKind(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	it := f.stock(t, entity.ProductTypeEgg, "Ovo Cru", 10, day(1))

	req := eggRequest("ovo cru", 2)
	req.ReferenceKind = " Loss "
	_, err := f.alloc.Allocate(ctx, req)
	require.NoError(t, err)

	movs, err := f.ledger.ListMovements(ctx, it.ID)
	require.NoError(t, err)
	last := movs[len(movs)-1]
	assert.Equal(t, entity.RefLoss, last.Reference.Kind)
	assert.NotEmpty(t, last.Reference.ID)
}

// ---------------------------------------------------------------------------
// Coincidencia
// ---------------------------------------------------------------------------

func TestAllocate_GenericEggNeverConsumesFertile(t *testing.T) {
	f := newFixture(t)
	fertile := f.stock(t, entity.ProductTypeEgg, "Ovo Fértil", 100, day(1))
	galado := f.stock(t, entity.ProductTypeEgg, "Ovo Galado", 100, day(1))
	plain := f.stock(t, entity.ProductTypeEgg, "Ovo Cru", 20, day(3))

	res, err := f.alloc.Allocate(context.Background(), eggRequest("ovos", 20))
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, plain.ID, res[0].ItemID)
	assert.True(t, f.quantity(t, fertile.ID).Equal(qty(100)))
	assert.True(t, f.quantity(t, galado.ID).Equal(qty(100)))

	_, err = f.alloc.Allocate(context.Background(), eggRequest("ovo", 1))
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
}

func TestAllocate_FertileNeverConsumesPlain(t *testing.T) {
	f := newFixture(t)
	f.stock(t, entity.ProductTypeEgg, "Ovo Cru", 100, day(1))

	_, err := f.alloc.Allocate(context.Background(), eggRequest("Ovo Fértil", 1))
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
}

func TestAllocate_OnlyMatchesRequestedType(t *testing.T) {
	f := newFixture(t)
	f.stock(t, entity.ProductTypeMeat, "codorna", 10, day(1))

	_, err := f.alloc.Allocate(context.Background(), eggRequest("codorna", 1))
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
}

func TestAllocate_StrictMatcher(t *testing.T) {
	s := memory.NewStore()
	ledger := inventory.NewLedgerUseCase(s, s.Items(), s.Movements(), nil)
	alloc := inventory.NewAllocationUseCase(s, nil, matching.ExactMatcher{}, inventory.AllocationOptions{}, nil, nil)
	ctx := context.Background()

	_, err := ledger.AddInventory(ctx, inventory.AddInventoryInput{
		NewItemInput: inventory.NewItemInput{
			ProductType: entity.ProductTypeEgg, Subtype: "Ovo Cru de Codorna",
			Origin: entity.Origin{ProductionGroupID: "g"},
		},
		Quantity: qty(10),
	})
	require.NoError(t, err)

	_, err = alloc.Allocate(ctx, eggRequest("ovo cru", 1))
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	_, err = alloc.Allocate(ctx, eggRequest("ovo cru de codorna", 1))
	assert.NoError(t, err)
}

// ---------------------------------------------------------------------------
// Fichas técnicas
// ---------------------------------------------------------------------------

func TestAllocate_RecipeDeductsIngredients(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	raw := f.stock(t, entity.ProductTypeEgg, "Ovo Cru", 100, day(1))

	res, err := f.alloc.Allocate(ctx, inventory.AllocationRequest{
		ProductName: "bandeja 30",
		Quantity:    qty(2),
		Context:     "venda",
		BillOfMaterials: []entity.BOMLine{
			{RawMaterialName: "ovo cru", StockType: entity.ProductTypeEgg, QuantityPerUnit: qty(30)},
		},
	})
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.True(t, res[0].QuantityTaken.Equal(qty(60)))
	assert.True(t, f.quantity(t, raw.ID).Equal(qty(40)))

	items, err := f.ledger.ListInventory(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, items, 1, "el derivado nunca se convierte en lote")

	movs, err := f.ledger.ListMovements(ctx, raw.ID)
	require.NoError(t, err)
	assert.Equal(t, "venda (componente de bandeja 30)", movs[len(movs)-1].Reference.Note)
}

func TestAllocate_RecipeIsAllOrNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	eggs := f.stock(t, entity.ProductTypeEgg, "Ovo Cru", 100, day(1))
	meat := f.stock(t, entity.ProductTypeMeat, "Codorna Abatida", 3, day(1))

	_, err := f.alloc.Allocate(ctx, inventory.AllocationRequest{
		ProductName: "kit granja",
		Quantity:    qty(1),
		BillOfMaterials: []entity.BOMLine{
			{RawMaterialName: "ovo cru", StockType: entity.ProductTypeEgg, QuantityPerUnit: qty(30)},
			{RawMaterialName: "codorna abatida", StockType: entity.ProductTypeMeat, QuantityPerUnit: qty(5)},
		},
	})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	ise, ok := domain.AsInsufficientStock(err)
	require.True(t, ok)
	assert.Equal(t, "codorna abatida", ise.Product)
	assert.True(t, ise.Available.Equal(qty(3)))
	assert.True(t, ise.Required.Equal(qty(5)))

	assert.True(t, f.quantity(t, eggs.ID).Equal(qty(100)))
	assert.True(t, f.quantity(t, meat.ID).Equal(qty(3)))
	assert.Equal(t, 1, f.movementCount(t, eggs.ID))
	assert.Equal(t, 1, f.movementCount(t, meat.ID))
}

func TestAllocate_RecipeReservationsShareBatches(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	raw := f.stock(t, entity.ProductTypeEgg, "Ovo Cru", 50, day(1))

	bom := []entity.BOMLine{
		{RawMaterialName: "ovo cru", StockType: entity.ProductTypeEgg, QuantityPerUnit: qty(30)},
		{RawMaterialName: "ovos crus", StockType: entity.ProductTypeEgg, QuantityPerUnit: qty(30)},
	}
	_, err := f.alloc.Allocate(ctx, inventory.AllocationRequest{ProductName: "duas bandejas", Quantity: qty(1), BillOfMaterials: bom})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	ise, _ := domain.AsInsufficientStock(err)
	assert.True(t, ise.Available.Equal(qty(20)))
	assert.True(t, f.quantity(t, raw.ID).Equal(qty(50)))

	f.stock(t, entity.ProductTypeEgg, "Ovo Cru", 10, day(2))
	res, err := f.alloc.Allocate(ctx, inventory.AllocationRequest{ProductName: "duas bandejas", Quantity: qty(1), BillOfMaterials: bom})
	require.NoError(t, err)
	assert.True(t, entity.TotalTaken(res).Equal(qty(60)))

	check, err := f.ledger.VerifyLedger(ctx, raw.ID)
	require.NoError(t, err)
	assert.True(t, check.Consistent)
	assert.True(t, check.Cached.IsZero())
}

func TestAllocateProduct_NestedCatalogRecipe(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	raw := f.stock(t, entity.ProductTypeEgg, "Ovo Cru", 100, day(1))

	require.NoError(t, f.store.Catalog().Upsert(ctx, &entity.Product{
		Name: "Bandeja 30",
		BillOfMaterials: []entity.BOMLine{
			{RawMaterialName: "ovo cru", StockType: entity.ProductTypeEgg, QuantityPerUnit: qty(30)},
		},
	}))
	require.NoError(t, f.store.Catalog().Upsert(ctx, &entity.Product{
		Name: "Caixa",
		BillOfMaterials: []entity.BOMLine{
			{RawMaterialName: "bandeja 30", StockType: entity.ProductTypeEgg, QuantityPerUnit: qty(3)},
		},
	}))

	res, err := f.alloc.AllocateProduct(ctx, inventory.AllocationRequest{ProductName: "caixa", Quantity: qty(1), Context: "venda"})
	require.NoError(t, err)
	assert.True(t, entity.TotalTaken(res).Equal(qty(90)))
	assert.True(t, f.quantity(t, raw.ID).Equal(qty(10)))

	movs, err := f.ledger.ListMovements(ctx, raw.ID)
	require.NoError(t, err)
	assert.Equal(t, "venda (componente de Caixa) (componente de Bandeja 30)", movs[len(movs)-1].Reference.Note)
}

func TestAllocateProduct_CycleIsValidationError(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.stock(t, entity.ProductTypeEgg, "Ovo Cru", 100, day(1))

	require.NoError(t, f.store.Catalog().Upsert(ctx, &entity.Product{
		Name:            "A",
		BillOfMaterials: []entity.BOMLine{{RawMaterialName: "B", StockType: entity.ProductTypeEgg, QuantityPerUnit: qty(1)}},
	}))
	require.NoError(t, f.store.Catalog().Upsert(ctx, &entity.Product{
		Name:            "B",
		BillOfMaterials: []entity.BOMLine{{RawMaterialName: "A", StockType: entity.ProductTypeEgg, QuantityPerUnit: qty(1)}},
	}))

	_, err := f.alloc.AllocateProduct(ctx, inventory.AllocationRequest{ProductName: "A", Quantity: qty(1)})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, err.Error(), "cíclica")
}

func TestAllocateProduct_UnknownNameFallsBackToRaw(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.stock(t, entity.ProductTypeEgg, "Ovo Cru", 10, day(1))

	res, err := f.alloc.AllocateProduct(ctx, eggRequest("ovo cru", 4))
	require.NoError(t, err)
	assert.True(t, entity.TotalTaken(res).Equal(qty(4)))

	_, err = f.alloc.AllocateProduct(ctx, inventory.AllocationRequest{ProductName: "desconhecido", Quantity: qty(1)})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ---------------------------------------------------------------------------
// Simulación y validación
// ---------------------------------------------------------------------------

func TestAllocate_SimulationDoesNotTouchLedger(t *testing.T) {
	f := newFixture(t)
	it := f.stock(t, entity.ProductTypeEgg, "Ovo Cru", 50, day(1))

	record := false
	req := eggRequest("ovo cru", 30)
	req.RecordMovements = &record

	res, err := f.alloc.Allocate(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.True(t, res[0].QuantityTaken.Equal(qty(30)))
	assert.True(t, f.quantity(t, it.ID).Equal(qty(50)))
	assert.Equal(t, 1, f.movementCount(t, it.ID))
	assert.Equal(t, inventory.OutcomeSimulated, f.rec.last())
}

func TestAllocate_ValidationBeforeLedgerAccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := []inventory.AllocationRequest{
		eggRequest("", 1),
		eggRequest("ovo cru", 0),
		{ProductType: "leite", ProductName: "leite", Quantity: qty(1)},
		{ProductName: "x", Quantity: qty(1), BillOfMaterials: []entity.BOMLine{
			{RawMaterialName: "ovo", StockType: entity.ProductTypeEgg, QuantityPerUnit: decimal.Zero},
		}},
		{ProductType: entity.ProductTypeMeat, ProductName: "codorna", Quantity: decimal.RequireFromString("0.0015")},
	}
	for i, req := range cases {
		_, err := f.alloc.Allocate(ctx, req)
		assert.ErrorIs(t, err, domain.ErrInvalidInput, "case %d", i)
	}
	assert.Equal(t, inventory.OutcomeInvalid, f.rec.last())
}

// ---------------------------------------------------------------------------
// Concurrencia y reintentos
// ---------------------------------------------------------------------------

func TestAllocate_ConcurrentRequestsNeverOversell(t *testing.T) {
	f := newFixture(t)
	it := f.stock(t, entity.ProductTypeEgg, "Ovo Cru", 50, day(1))

	var ok, short int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.alloc.Allocate(context.Background(), eggRequest("ovo cru", 10))
			switch {
			case err == nil:
				atomic.AddInt32(&ok, 1)
			case assert.ErrorIs(t, err, domain.ErrInsufficientStock):
				atomic.AddInt32(&short, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(5), ok)
	assert.Equal(t, int32(5), short)
	assert.True(t, f.quantity(t, it.ID).IsZero())

	check, err := f.ledger.VerifyLedger(context.Background(), it.ID)
	require.NoError(t, err)
	assert.True(t, check.Consistent)
}

// flakyRunner falla con un conflicto transitorio las primeras n transacciones.
type flakyRunner struct {
	inner    inventory.TxRunner
	failures int32
	calls    int32
}

func (r *flakyRunner) Run(ctx context.Context, fn func(repository.InventoryItemRepository, repository.MovementRepository) error) error {
	if atomic.AddInt32(&r.calls, 1) <= r.failures {
		return fmt.Errorf("deadlock detected: %w", domain.ErrConflict)
	}
	return r.inner.Run(ctx, fn)
}

func TestAllocate_RetriesTransientConflicts(t *testing.T) {
	s := memory.NewStore()
	ledger := inventory.NewLedgerUseCase(s, s.Items(), s.Movements(), nil)
	_, err := ledger.AddInventory(context.Background(), inventory.AddInventoryInput{
		NewItemInput: inventory.NewItemInput{
			ProductType: entity.ProductTypeEgg, Subtype: "Ovo Cru",
			Origin: entity.Origin{ProductionGroupID: "g"},
		},
		Quantity: qty(10),
	})
	require.NoError(t, err)

	runner := &flakyRunner{inner: s, failures: 2}
	alloc := inventory.NewAllocationUseCase(runner, nil, nil, inventory.AllocationOptions{MaxRetries: 3}, nil, nil)
	res, err := alloc.Allocate(context.Background(), eggRequest("ovo cru", 4))
	require.NoError(t, err)
	assert.Len(t, res, 1)
	assert.Equal(t, int32(3), atomic.LoadInt32(&runner.calls))

	runner = &flakyRunner{inner: s, failures: 5}
	alloc = inventory.NewAllocationUseCase(runner, nil, nil, inventory.AllocationOptions{MaxRetries: 2}, nil, nil)
	_, err = alloc.Allocate(context.Background(), eggRequest("ovo cru", 1))
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, int32(2), atomic.LoadInt32(&runner.calls))
}

func TestAllocate_InsufficientStockIsNotRetried(t *testing.T) {
	s := memory.NewStore()
	runner := &flakyRunner{inner: s}
	alloc := inventory.NewAllocationUseCase(runner, nil, nil, inventory.AllocationOptions{MaxRetries: 5}, nil, nil)

	_, err := alloc.Allocate(context.Background(), eggRequest("ovo cru", 1))
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, int32(1), atomic.LoadInt32(&runner.calls))
}

func TestAllocate_RespectsContextCancellation(t *testing.T) {
	f := newFixture(t)
	f.stock(t, entity.ProductTypeEgg, "Ovo Cru", 10, day(1))

	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	time.Sleep(time.Millisecond)

	_, err := f.alloc.Allocate(ctx, eggRequest("ovo cru", 1))
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "deadline"))
}
