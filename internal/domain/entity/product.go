package entity

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// BOMLine ingrediente de una ficha técnica: materia prima, tipo de stock y cantidad por unidad.
type BOMLine struct {
	RawMaterialName string
	StockType       ProductType
	QuantityPerUnit decimal.Decimal
}

// Product definición de catálogo (dato del colaborador externo) consumida por el motor.
// Un producto sin stock físico se descompone siempre por su ficha técnica.
type Product struct {
	ID                  string
	Name                string
	TracksPhysicalStock bool
	BillOfMaterials     []BOMLine
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// IsDerived indica si el producto se asigna a través de su ficha técnica.
func (p *Product) IsDerived() bool {
	return !p.TracksPhysicalStock || len(p.BillOfMaterials) > 0
}

// Validate aplica los invariantes de catálogo.
func (p *Product) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("producto sin nombre")
	}
	if !p.TracksPhysicalStock && len(p.BillOfMaterials) == 0 {
		return fmt.Errorf("producto %q sin stock físico requiere ficha técnica", p.Name)
	}
	for i, l := range p.BillOfMaterials {
		if err := l.Validate(); err != nil {
			return fmt.Errorf("ficha técnica de %q, línea %d: %w", p.Name, i+1, err)
		}
	}
	return nil
}

// Validate comprueba una línea de ficha técnica.
func (l BOMLine) Validate() error {
	if strings.TrimSpace(l.RawMaterialName) == "" {
		return fmt.Errorf("materia prima vacía")
	}
	if !l.StockType.Valid() {
		return fmt.Errorf("tipo de stock inválido %q", l.StockType)
	}
	if !l.QuantityPerUnit.GreaterThan(decimal.Zero) {
		return fmt.Errorf("cantidad por unidad debe ser positiva")
	}
	if !HasQuantityScale(l.QuantityPerUnit) {
		return fmt.Errorf("cantidad por unidad admite como máximo %d decimales", QuantityScale)
	}
	return nil
}
