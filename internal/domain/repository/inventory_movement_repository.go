package repository

import (
	"context"
	"time"

	"github.com/jhoicas/granja-api/internal/domain/entity"
)

// MovementDetail salida del ledger junto al lote que afectó (para reportes de pérdidas).
type MovementDetail struct {
	Movement entity.Movement
	Item     entity.InventoryItem
}

// MovementRepository define el puerto append-only de movimientos (DIP).
type MovementRepository interface {
	Create(ctx context.Context, movement *entity.Movement) error
	// ListByItem movimientos de un lote en orden cronológico.
	ListByItem(ctx context.Context, itemID string) ([]*entity.Movement, error)
	// ListLossExits salidas cuyo tipo de referencia cuenta como pérdida (entity.IsLossKind),
	// opcionalmente acotadas por fecha. Nunca incluye ventas.
	ListLossExits(ctx context.Context, from, to *time.Time) ([]*MovementDetail, error)
	// DeleteByItem solo para la corrección administrativa que elimina un lote completo.
	DeleteByItem(ctx context.Context, itemID string) error
}
