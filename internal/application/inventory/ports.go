package inventory

import (
	"context"

	"github.com/jhoicas/granja-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción, pasando repositorios atados a esa tx.
// Si fn devuelve error no queda rastro de sus escrituras (Rollback).
type TxRunner interface {
	Run(ctx context.Context, fn func(
		items repository.InventoryItemRepository,
		movements repository.MovementRepository,
	) error) error
}

// Recorder recibe el resultado de cada asignación (métricas). Puede ser nil.
type Recorder interface {
	ObserveAllocation(productType, outcome string, quantity float64, seconds float64)
}
