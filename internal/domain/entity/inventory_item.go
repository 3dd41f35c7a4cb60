package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados derivados de un lote.
const (
	ItemStatusInStock = "in_stock"
	ItemStatusSoldOut = "sold_out"
)

// QuantityScale decimales que persisten los saldos y movimientos (NUMERIC(18,3)).
const QuantityScale = 3

// HasQuantityScale indica si q cabe en QuantityScale decimales sin redondeo.
func HasQuantityScale(q decimal.Decimal) bool {
	return q.Equal(q.Truncate(QuantityScale))
}

// Origin procedencia de un lote: grupo de producción, lote/jaula opcionales y fecha de creación.
type Origin struct {
	ProductionGroupID string
	BatchID           *string
	CageID            *string
	CreationDate      time.Time
}

// InventoryItem lote de stock ("batch") de un tipo/subtipo con un único origen.
// Quantity es la proyección cacheada del saldo: Σentradas − Σsalidas de sus movimientos.
type InventoryItem struct {
	ID             string
	ProductType    ProductType
	Subtype        string // nombre libre, ej. "ovo cru", "codorna abatida"
	Quantity       decimal.Decimal
	Origin         Origin
	ExpirationDate *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Status in_stock si hay saldo, sold_out si llegó a cero.
func (i *InventoryItem) Status() string {
	if i.Quantity.GreaterThan(decimal.Zero) {
		return ItemStatusInStock
	}
	return ItemStatusSoldOut
}

// IsExpired indica si el lote venció respecto de now.
func (i *InventoryItem) IsExpired(now time.Time) bool {
	return i.ExpirationDate != nil && i.ExpirationDate.Before(now)
}

// ItemFilter filtro para listar lotes. Campos vacíos no filtran.
type ItemFilter struct {
	ProductType ProductType
	Status      string // in_stock | sold_out
	GroupID     string
	Subtype     string // coincidencia exacta, sin normalizar
	// FIFO ordena por origin.creation_date ascendente (desempate por id).
	FIFO   bool
	Limit  int
	Offset int
}
