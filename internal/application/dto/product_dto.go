package dto

import "time"

// UpsertProductRequest body para PUT /api/products/{name}.
type UpsertProductRequest struct {
	TracksPhysicalStock *bool        `json:"tracks_physical_stock"` // nil = true
	BillOfMaterials     []BOMLineDTO `json:"bill_of_materials"`
}

// ProductResponse salida de un producto de catálogo.
type ProductResponse struct {
	ID                  string       `json:"id"`
	Name                string       `json:"name"`
	TracksPhysicalStock bool         `json:"tracks_physical_stock"`
	Derived             bool         `json:"derived"`
	BillOfMaterials     []BOMLineDTO `json:"bill_of_materials"`
	CreatedAt           time.Time    `json:"created_at"`
	UpdatedAt           time.Time    `json:"updated_at"`
}

// ProductListResponse lista del catálogo.
type ProductListResponse struct {
	Items []ProductResponse `json:"items"`
}
