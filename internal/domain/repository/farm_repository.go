package repository

import (
	"context"
	"time"

	"github.com/jhoicas/granja-api/internal/domain/entity"
)

// GroupDirectory resuelve nombres visibles de grupos de producción (aviarios, jaulas).
type GroupDirectory interface {
	// ResolveGroupOrigin devuelve *domain.NotFoundError si el grupo no existe.
	ResolveGroupOrigin(ctx context.Context, groupID string) (*entity.GroupOrigin, error)
}

// ProductionRecordRepository lectura de registros de producción del colaborador de granja.
type ProductionRecordRepository interface {
	// ListLosses registros cuyo destino es pérdida o autoconsumo (ver entity.LossDestination).
	ListLosses(ctx context.Context, from, to *time.Time) ([]*entity.ProductionRecord, error)
}

// MortalityRecordRepository lectura de registros de mortalidad.
type MortalityRecordRepository interface {
	List(ctx context.Context, from, to *time.Time) ([]*entity.MortalityRecord, error)
}
