package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// AddInventoryRequest body para POST /api/inventory/items.
type AddInventoryRequest struct {
	ProductType       string          `json:"product_type"` // egg | meat | chick (acepta ovos, carne, pintinhos...)
	Subtype           string          `json:"subtype"`
	Quantity          decimal.Decimal `json:"quantity"`
	ProductionGroupID string          `json:"production_group_id"`
	BatchID           *string         `json:"batch_id,omitempty"`
	CageID            *string         `json:"cage_id,omitempty"`
	CreationDate      *time.Time      `json:"creation_date,omitempty"` // vacío = ahora
	ExpirationDate    *time.Time      `json:"expiration_date,omitempty"`
	ReferenceKind     string          `json:"reference_kind,omitempty"` // por defecto manual_entry
	ReferenceID       string          `json:"reference_id,omitempty"`
	Note              string          `json:"note,omitempty"`
}

// RecordMovementRequest body para POST /api/inventory/items/{id}/movements.
type RecordMovementRequest struct {
	Direction     string          `json:"direction"` // entry | exit
	Quantity      decimal.Decimal `json:"quantity"`
	ReferenceKind string          `json:"reference_kind"`
	ReferenceID   string          `json:"reference_id,omitempty"`
	Note          string          `json:"note,omitempty"`
}

// OriginResponse procedencia de un lote.
type OriginResponse struct {
	ProductionGroupID string    `json:"production_group_id"`
	BatchID           *string   `json:"batch_id,omitempty"`
	CageID            *string   `json:"cage_id,omitempty"`
	CreationDate      time.Time `json:"creation_date"`
}

// ItemResponse salida de un lote.
type ItemResponse struct {
	ID             string          `json:"id"`
	ProductType    string          `json:"product_type"`
	Subtype        string          `json:"subtype"`
	Quantity       decimal.Decimal `json:"quantity"`
	Unit           string          `json:"unit"`
	Status         string          `json:"status"`
	Origin         OriginResponse  `json:"origin"`
	ExpirationDate *time.Time      `json:"expiration_date,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// ItemListResponse lista paginada de lotes.
type ItemListResponse struct {
	Items []ItemResponse `json:"items"`
	Page  PageResponse   `json:"page"`
}

// MovementResponse salida de un movimiento del ledger.
type MovementResponse struct {
	ID            string          `json:"id"`
	ItemID        string          `json:"item_id"`
	Direction     string          `json:"direction"`
	Quantity      decimal.Decimal `json:"quantity"`
	ReferenceKind string          `json:"reference_kind"`
	ReferenceID   string          `json:"reference_id"`
	Note          string          `json:"note,omitempty"`
	Timestamp     time.Time       `json:"timestamp"`
}

// LedgerCheckResponse resultado de recalcular el saldo de un lote.
type LedgerCheckResponse struct {
	ItemID     string          `json:"item_id"`
	Cached     decimal.Decimal `json:"cached"`
	Computed   decimal.Decimal `json:"computed"`
	Drift      decimal.Decimal `json:"drift"`
	Movements  int             `json:"movements"`
	Consistent bool            `json:"consistent"`
}
