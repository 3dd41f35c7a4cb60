package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// LossEventDTO evento del historial de pérdidas.
type LossEventDTO struct {
	Date     time.Time       `json:"date"`
	Source   string          `json:"source"` // Production | Field | Warehouse
	Category string          `json:"category"`
	Origin   string          `json:"origin"`
	Quantity decimal.Decimal `json:"quantity"`
	Reason   string          `json:"reason"`
}

// LossSummaryDTO totales del historial.
type LossSummaryDTO struct {
	Events     int                        `json:"events"`
	Total      decimal.Decimal            `json:"total"`
	BySource   map[string]decimal.Decimal `json:"by_source"`
	ByCategory map[string]decimal.Decimal `json:"by_category"`
}

// LossHistoryResponse historial más reciente primero y su resumen.
type LossHistoryResponse struct {
	Events  []LossEventDTO `json:"events"`
	Summary LossSummaryDTO `json:"summary"`
}
