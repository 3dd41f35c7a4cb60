package entity

import "github.com/shopspring/decimal"

// AllocationResult consumo parcial o total de un lote para satisfacer una solicitud.
type AllocationResult struct {
	ItemID        string
	ProductType   ProductType
	Subtype       string
	QuantityTaken decimal.Decimal
	Origin        Origin
}

// TotalTaken suma lo tomado en una lista de resultados.
func TotalTaken(results []AllocationResult) decimal.Decimal {
	total := decimal.Zero
	for _, r := range results {
		total = total.Add(r.QuantityTaken)
	}
	return total
}
