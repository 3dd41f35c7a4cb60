package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/jhoicas/granja-api/internal/application/dto"
	"github.com/jhoicas/granja-api/internal/domain"
	"github.com/jhoicas/granja-api/internal/domain/entity"
	"github.com/jhoicas/granja-api/internal/domain/repository"
)

// ProductUseCase consulta y mantenimiento del catálogo de productos y sus fichas técnicas.
type ProductUseCase struct {
	catalog repository.ProductCatalog
}

// NewProductUseCase construye el caso de uso.
func NewProductUseCase(catalog repository.ProductCatalog) *ProductUseCase {
	return &ProductUseCase{catalog: catalog}
}

// Upsert crea o reemplaza el producto name con su ficha técnica.
func (uc *ProductUseCase) Upsert(ctx context.Context, name string, in dto.UpsertProductRequest) (*dto.ProductResponse, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.NewValidationError("name", "requerido")
	}
	lines, err := BOMLinesFromDTO(in.BillOfMaterials)
	if err != nil {
		return nil, err
	}
	product := &entity.Product{
		Name:                name,
		TracksPhysicalStock: in.TracksPhysicalStock == nil || *in.TracksPhysicalStock,
		BillOfMaterials:     lines,
	}
	if err := uc.catalog.Upsert(ctx, product); err != nil {
		return nil, err
	}
	return toProductResponse(product), nil
}

// GetByName producto por nombre (sin distinguir mayúsculas).
func (uc *ProductUseCase) GetByName(ctx context.Context, name string) (*dto.ProductResponse, error) {
	p, err := uc.catalog.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	return toProductResponse(p), nil
}

// List catálogo completo.
func (uc *ProductUseCase) List(ctx context.Context) (*dto.ProductListResponse, error) {
	list, err := uc.catalog.List(ctx)
	if err != nil {
		return nil, err
	}
	out := &dto.ProductListResponse{Items: make([]dto.ProductResponse, 0, len(list))}
	for _, p := range list {
		out.Items = append(out.Items, *toProductResponse(p))
	}
	return out, nil
}

// BOMLinesFromDTO traduce líneas de ficha técnica recibidas por HTTP; el tipo admite alias.
func BOMLinesFromDTO(in []dto.BOMLineDTO) ([]entity.BOMLine, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make([]entity.BOMLine, 0, len(in))
	for i, l := range in {
		pt, ok := entity.ParseProductType(l.StockType)
		if !ok {
			return nil, domain.NewValidationError(fmt.Sprintf("bill_of_materials[%d].stock_type", i),
				fmt.Sprintf("tipo desconocido %q", l.StockType))
		}
		out = append(out, entity.BOMLine{
			RawMaterialName: l.RawMaterialName,
			StockType:       pt,
			QuantityPerUnit: l.QuantityPerUnit,
		})
	}
	return out, nil
}

func toBOMDTO(lines []entity.BOMLine) []dto.BOMLineDTO {
	out := make([]dto.BOMLineDTO, 0, len(lines))
	for _, l := range lines {
		out = append(out, dto.BOMLineDTO{
			RawMaterialName: l.RawMaterialName,
			StockType:       l.StockType.String(),
			QuantityPerUnit: l.QuantityPerUnit,
		})
	}
	return out
}

func toProductResponse(p *entity.Product) *dto.ProductResponse {
	return &dto.ProductResponse{
		ID:                  p.ID,
		Name:                p.Name,
		TracksPhysicalStock: p.TracksPhysicalStock,
		Derived:             p.IsDerived(),
		BillOfMaterials:     toBOMDTO(p.BillOfMaterials),
		CreatedAt:           p.CreatedAt,
		UpdatedAt:           p.UpdatedAt,
	}
}
