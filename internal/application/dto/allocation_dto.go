package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// BOMLineDTO línea de ficha técnica.
type BOMLineDTO struct {
	RawMaterialName string          `json:"raw_material_name"`
	StockType       string          `json:"stock_type"`
	QuantityPerUnit decimal.Decimal `json:"quantity_per_unit"`
}

// AllocationRequest body para POST /api/inventory/allocations.
// Sin bill_of_materials el nombre se busca en el catálogo; si no existe se asigna como materia prima.
type AllocationRequest struct {
	ProductType     string          `json:"product_type,omitempty"`
	ProductName     string          `json:"product_name"`
	Quantity        decimal.Decimal `json:"quantity"`
	Context         string          `json:"context,omitempty"`
	BillOfMaterials []BOMLineDTO    `json:"bill_of_materials,omitempty"`
	RecordMovements *bool           `json:"record_movements,omitempty"` // false = simulación
	ReferenceKind   string          `json:"reference_kind,omitempty"`
	ReferenceID     string          `json:"reference_id,omitempty"`
}

// AllocationResultDTO consumo de un lote.
type AllocationResultDTO struct {
	ItemID            string          `json:"item_id"`
	ProductType       string          `json:"product_type"`
	Subtype           string          `json:"subtype"`
	QuantityTaken     decimal.Decimal `json:"quantity_taken"`
	ProductionGroupID string          `json:"production_group_id"`
	BatchID           *string         `json:"batch_id,omitempty"`
	CageID            *string         `json:"cage_id,omitempty"`
	CreationDate      time.Time       `json:"creation_date"`
}

// AllocationResponse resultado de una asignación.
type AllocationResponse struct {
	Recorded  bool                  `json:"recorded"`
	Total     decimal.Decimal       `json:"total"`
	Results   []AllocationResultDTO `json:"results"`
	Origins   []string              `json:"origins"`
	OriginTag string                `json:"origin_tag"`
}
