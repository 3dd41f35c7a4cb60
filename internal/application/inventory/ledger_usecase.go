package inventory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/granja-api/internal/domain"
	"github.com/jhoicas/granja-api/internal/domain/entity"
	"github.com/jhoicas/granja-api/internal/domain/repository"
	"github.com/jhoicas/granja-api/pkg/logger"
)

// LedgerUseCase administra lotes y movimientos. Cada movimiento y la actualización
// del saldo cacheado ocurren en la misma transacción (TxRunner).
type LedgerUseCase struct {
	txRunner  TxRunner
	items     repository.InventoryItemRepository
	movements repository.MovementRepository
	log       *logger.Logger
	now       func() time.Time
}

// NewLedgerUseCase construye el caso de uso. items y movements se usan fuera de transacción (lecturas).
func NewLedgerUseCase(
	txRunner TxRunner,
	items repository.InventoryItemRepository,
	movements repository.MovementRepository,
	log *logger.Logger,
) *LedgerUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &LedgerUseCase{
		txRunner:  txRunner,
		items:     items,
		movements: movements,
		log:       log.Named("ledger"),
		now:       time.Now,
	}
}

// NewItemInput datos de un lote nuevo.
type NewItemInput struct {
	ProductType    entity.ProductType
	Subtype        string
	Origin         entity.Origin
	ExpirationDate *time.Time
}

// AddInventoryInput entrada de stock: lote nuevo más su movimiento inicial.
type AddInventoryInput struct {
	NewItemInput
	Quantity  decimal.Decimal
	Reference entity.Reference
}

// LedgerCheck resultado de recalcular el saldo de un lote desde sus movimientos.
type LedgerCheck struct {
	ItemID     string
	Cached     decimal.Decimal
	Computed   decimal.Decimal
	Drift      decimal.Decimal
	Movements  int
	Consistent bool
}

// CreateItem crea un lote con saldo cero.
func (uc *LedgerUseCase) CreateItem(ctx context.Context, in NewItemInput) (string, error) {
	item, err := uc.newItem(in)
	if err != nil {
		return "", err
	}
	err = uc.txRunner.Run(ctx, func(items repository.InventoryItemRepository, _ repository.MovementRepository) error {
		return items.Create(ctx, item)
	})
	if err != nil {
		return "", err
	}
	return item.ID, nil
}

// AddInventory crea el lote y registra la entrada inicial en una sola transacción.
func (uc *LedgerUseCase) AddInventory(ctx context.Context, in AddInventoryInput) (*entity.InventoryItem, error) {
	if err := validateQuantity(in.Quantity); err != nil {
		return nil, err
	}
	ref, err := normalizeReference(in.Reference, entity.RefManualEntry)
	if err != nil {
		return nil, err
	}
	item, err := uc.newItem(in.NewItemInput)
	if err != nil {
		return nil, err
	}

	err = uc.txRunner.Run(ctx, func(items repository.InventoryItemRepository, movements repository.MovementRepository) error {
		if err := items.Create(ctx, item); err != nil {
			return err
		}
		_, err := applyMovement(ctx, items, movements, item, entity.DirectionEntry, in.Quantity, ref, item.CreatedAt)
		return err
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().
		Str("item_id", item.ID).
		Str("type", item.ProductType.String()).
		Str("subtype", item.Subtype).
		Str("quantity", item.Quantity.String()).
		Msg("entrada de inventario registrada")
	return item, nil
}

// RecordMovement bloquea el lote, valida el saldo y registra el movimiento junto al nuevo saldo.
func (uc *LedgerUseCase) RecordMovement(
	ctx context.Context,
	itemID string,
	direction entity.Direction,
	quantity decimal.Decimal,
	reference entity.Reference,
) (*entity.Movement, error) {
	if strings.TrimSpace(itemID) == "" {
		return nil, domain.NewValidationError("item_id", "requerido")
	}
	if !direction.Valid() {
		return nil, domain.NewValidationError("direction", "debe ser entry o exit")
	}
	if err := validateQuantity(quantity); err != nil {
		return nil, err
	}
	ref, err := normalizeReference(reference, "")
	if err != nil {
		return nil, err
	}

	var mov *entity.Movement
	err = uc.txRunner.Run(ctx, func(items repository.InventoryItemRepository, movements repository.MovementRepository) error {
		item, err := items.GetForUpdate(ctx, itemID)
		if err != nil {
			return err
		}
		mov, err = applyMovement(ctx, items, movements, item, direction, quantity, ref, uc.now())
		return err
	})
	if err != nil {
		return nil, err
	}
	return mov, nil
}

// ListItems lista lotes según el filtro; con filter.FIFO ordena por fecha de origen ascendente.
func (uc *LedgerUseCase) ListItems(ctx context.Context, filter entity.ItemFilter) ([]*entity.InventoryItem, error) {
	if filter.ProductType != "" && !filter.ProductType.Valid() {
		return nil, domain.NewValidationError("type", "tipo de producto inválido")
	}
	switch filter.Status {
	case "", entity.ItemStatusInStock, entity.ItemStatusSoldOut:
	default:
		return nil, domain.NewValidationError("status", "debe ser in_stock o sold_out")
	}
	if filter.Limit < 0 || filter.Offset < 0 {
		return nil, domain.NewValidationError("limit", "paginación inválida")
	}
	return uc.items.List(ctx, filter)
}

// ListInventory contrato expuesto a colaboradores; filter nil lista todo.
func (uc *LedgerUseCase) ListInventory(ctx context.Context, filter *entity.ItemFilter) ([]*entity.InventoryItem, error) {
	if filter == nil {
		return uc.ListItems(ctx, entity.ItemFilter{})
	}
	return uc.ListItems(ctx, *filter)
}

// GetItem obtiene un lote por id.
func (uc *LedgerUseCase) GetItem(ctx context.Context, id string) (*entity.InventoryItem, error) {
	return uc.items.GetByID(ctx, id)
}

// ListMovements historial de un lote; NotFoundError si el lote no existe.
func (uc *LedgerUseCase) ListMovements(ctx context.Context, itemID string) ([]*entity.Movement, error) {
	if _, err := uc.items.GetByID(ctx, itemID); err != nil {
		return nil, err
	}
	return uc.movements.ListByItem(ctx, itemID)
}

// DeleteItem corrección administrativa: elimina el lote y todos sus movimientos atómicamente.
func (uc *LedgerUseCase) DeleteItem(ctx context.Context, id string) error {
	err := uc.txRunner.Run(ctx, func(items repository.InventoryItemRepository, movements repository.MovementRepository) error {
		if _, err := items.GetForUpdate(ctx, id); err != nil {
			return err
		}
		if err := movements.DeleteByItem(ctx, id); err != nil {
			return err
		}
		return items.Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	uc.log.Warn().Str("item_id", id).Msg("lote eliminado por corrección administrativa")
	return nil
}

// VerifyLedger recalcula Σentradas − Σsalidas y lo compara con el saldo cacheado.
func (uc *LedgerUseCase) VerifyLedger(ctx context.Context, itemID string) (*LedgerCheck, error) {
	item, err := uc.items.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	movs, err := uc.movements.ListByItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	computed := entity.MovementBalance(movs)
	check := &LedgerCheck{
		ItemID:     itemID,
		Cached:     item.Quantity,
		Computed:   computed,
		Drift:      item.Quantity.Sub(computed),
		Movements:  len(movs),
		Consistent: item.Quantity.Equal(computed),
	}
	if !check.Consistent {
		uc.log.Error().
			Str("item_id", itemID).
			Str("cached", check.Cached.String()).
			Str("computed", check.Computed.String()).
			Msg("saldo de lote inconsistente con sus movimientos")
	}
	return check, nil
}

func (uc *LedgerUseCase) newItem(in NewItemInput) (*entity.InventoryItem, error) {
	if !in.ProductType.Valid() {
		return nil, domain.NewValidationError("product_type", "tipo de producto inválido")
	}
	subtype := strings.TrimSpace(in.Subtype)
	if subtype == "" {
		return nil, domain.NewValidationError("subtype", "requerido")
	}
	if strings.TrimSpace(in.Origin.ProductionGroupID) == "" {
		return nil, domain.NewValidationError("origin.production_group_id", "requerido")
	}
	now := uc.now()
	origin := in.Origin
	if origin.CreationDate.IsZero() {
		origin.CreationDate = now
	}
	return &entity.InventoryItem{
		ID:             uuid.New().String(),
		ProductType:    in.ProductType,
		Subtype:        subtype,
		Quantity:       decimal.Zero,
		Origin:         origin,
		ExpirationDate: in.ExpirationDate,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// applyMovement aplica un movimiento sobre un lote ya bloqueado: nuevo saldo + registro append-only.
// Se usa desde el ledger y desde la fase de commit de la asignación.
func applyMovement(
	ctx context.Context,
	items repository.InventoryItemRepository,
	movements repository.MovementRepository,
	item *entity.InventoryItem,
	direction entity.Direction,
	quantity decimal.Decimal,
	ref entity.Reference,
	at time.Time,
) (*entity.Movement, error) {
	var newQty decimal.Decimal
	if direction == entity.DirectionExit {
		if item.Quantity.LessThan(quantity) {
			return nil, domain.NewInsufficientStockError(item.Subtype, item.Quantity, quantity)
		}
		newQty = item.Quantity.Sub(quantity)
	} else {
		newQty = item.Quantity.Add(quantity)
	}

	if err := items.UpdateQuantity(ctx, item.ID, newQty, at); err != nil {
		return nil, err
	}
	mov := &entity.Movement{
		ID:        uuid.New().String(),
		ItemID:    item.ID,
		Direction: direction,
		Quantity:  quantity,
		Reference: ref,
		Timestamp: at,
	}
	if err := movements.Create(ctx, mov); err != nil {
		return nil, err
	}
	item.Quantity = newQty
	item.UpdatedAt = at
	return mov, nil
}

// validateQuantity cantidad positiva con a lo sumo entity.QuantityScale decimales.
func validateQuantity(q decimal.Decimal) error {
	if !q.GreaterThan(decimal.Zero) {
		return domain.NewValidationError("quantity", "debe ser mayor que cero")
	}
	if !entity.HasQuantityScale(q) {
		return domain.NewValidationError("quantity",
			fmt.Sprintf("admite como máximo %d decimales", entity.QuantityScale))
	}
	return nil
}

func normalizeReference(ref entity.Reference, defaultKind string) (entity.Reference, error) {
	ref.Kind = strings.ToLower(strings.TrimSpace(ref.Kind))
	if ref.Kind == "" {
		ref.Kind = defaultKind
	}
	if ref.Kind == "" {
		return ref, domain.NewValidationError("reference.kind", "requerido")
	}
	if strings.TrimSpace(ref.ID) == "" {
		ref.ID = uuid.New().String()
	}
	return ref, nil
}
