package traceability

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/granja-api/internal/domain/entity"
)

// LossSummary totales del historial por fuente y por categoría.
type LossSummary struct {
	Events     int
	Total      decimal.Decimal
	BySource   map[string]decimal.Decimal
	ByCategory map[string]decimal.Decimal
}

// Summarize agrega un historial ya calculado.
func Summarize(events []entity.LossEvent) LossSummary {
	s := LossSummary{
		Events:     len(events),
		Total:      decimal.Zero,
		BySource:   make(map[string]decimal.Decimal),
		ByCategory: make(map[string]decimal.Decimal),
	}
	for _, e := range events {
		s.Total = s.Total.Add(e.Quantity)
		s.BySource[e.Source] = s.BySource[e.Source].Add(e.Quantity)
		s.ByCategory[e.Category] = s.ByCategory[e.Category].Add(e.Quantity)
	}
	return s
}
