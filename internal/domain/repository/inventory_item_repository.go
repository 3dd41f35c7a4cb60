package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/granja-api/internal/domain/entity"
)

// InventoryItemRepository define el puerto de persistencia de lotes (DIP).
// Las implementaciones se usan con pool o atadas a una transacción (ver TxRunner).
type InventoryItemRepository interface {
	Create(ctx context.Context, item *entity.InventoryItem) error
	// GetByID devuelve *domain.NotFoundError si el lote no existe.
	GetByID(ctx context.Context, id string) (*entity.InventoryItem, error)
	// GetForUpdate igual que GetByID pero bloquea la fila hasta el fin de la transacción.
	GetForUpdate(ctx context.Context, id string) (*entity.InventoryItem, error)
	List(ctx context.Context, filter entity.ItemFilter) ([]*entity.InventoryItem, error)
	// ListAvailableForUpdate lotes con saldo > 0 del tipo, en orden FIFO (creation_date, id),
	// bloqueados en ese mismo orden para que transacciones concurrentes no se crucen.
	ListAvailableForUpdate(ctx context.Context, productType entity.ProductType) ([]*entity.InventoryItem, error)
	UpdateQuantity(ctx context.Context, id string, quantity decimal.Decimal, at time.Time) error
	Delete(ctx context.Context, id string) error
}
