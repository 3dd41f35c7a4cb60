package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockDashboardDTO respuesta de GET /api/dashboard/summary.
type StockDashboardDTO struct {
	ByType       []StockByTypeDTO `json:"by_type"`
	SoldOutLots  int              `json:"sold_out_lots"`
	ExpiringSoon []ExpiringLotDTO `json:"expiring_soon"` // vencidos o a menos de 7 días
	MonthLosses  decimal.Decimal  `json:"month_losses"`  // todas las fuentes, mes en curso

	DateLabel string `json:"date_label"` // ej: "Febrero 2026"
}

// StockByTypeDTO saldo disponible de un tipo de producto.
type StockByTypeDTO struct {
	ProductType  string          `json:"product_type"`
	Unit         string          `json:"unit"`
	Quantity     decimal.Decimal `json:"quantity"`
	Lots         int             `json:"lots"`
	OldestOrigin time.Time       `json:"oldest_origin"` // próximo lote en salir por FIFO
}

// ExpiringLotDTO lote con saldo próximo a vencer.
type ExpiringLotDTO struct {
	ItemID         string          `json:"item_id"`
	Subtype        string          `json:"subtype"`
	Quantity       decimal.Decimal `json:"quantity"`
	ExpirationDate time.Time       `json:"expiration_date"`
	Expired        bool            `json:"expired"`
}
