package repository

import (
	"context"

	"github.com/jhoicas/granja-api/internal/domain/entity"
)

// ProductCatalog puerto del catálogo de productos (colaborador externo).
// El motor solo lo consulta; Upsert existe para carga inicial y pruebas.
type ProductCatalog interface {
	// GetByName busca por nombre sin distinguir mayúsculas. *domain.NotFoundError si no existe.
	GetByName(ctx context.Context, name string) (*entity.Product, error)
	List(ctx context.Context) ([]*entity.Product, error)
	Upsert(ctx context.Context, product *entity.Product) error
}
