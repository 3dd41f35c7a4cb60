package entity

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Fuentes de pérdida tal como las atribuye la interfaz.
const (
	LossSourceProduction = "Production"
	LossSourceField      = "Field"
	LossSourceWarehouse  = "Warehouse"
)

// CategoryMortality categoría de los eventos de mortalidad.
const CategoryMortality = "mortalidade"

// LossEvent proyección de reporte; se sintetiza en cada consulta y nunca se persiste.
type LossEvent struct {
	Date     time.Time
	Category string
	Origin   string
	Quantity decimal.Decimal
	Reason   string
	Source   string
}

// ProductionRecord registro de producción del colaborador de granja.
type ProductionRecord struct {
	ID          string
	GroupID     string
	CageID      *string
	ProductType ProductType
	Quantity    decimal.Decimal
	Destination string // estoque, perda, consumo_proprio...
	Date        time.Time
	Note        string
}

// MortalityRecord registro de mortalidad; todo evento de mortalidad es pérdida.
type MortalityRecord struct {
	ID       string
	GroupID  string
	CageID   *string
	Quantity decimal.Decimal
	Cause    string
	Date     time.Time
}

// GroupOrigin nombre visible de un grupo de producción (aviario/ubicación).
type GroupOrigin struct {
	GroupID     string
	AviaryID    string
	DisplayName string
	// CageNames nombres de jaulas del grupo por id (opcional).
	CageNames map[string]string
}

// lossDestinations destinos de producción que cuentan como pérdida o autoconsumo.
var lossDestinations = map[string]string{
	"perda":            "perda",
	"perdas":           "perda",
	"loss":             "perda",
	"perdida":          "perda",
	"consumo_proprio":  "consumo_proprio",
	"consumo proprio":  "consumo_proprio",
	"autoconsumo":      "consumo_proprio",
	"self_consumption": "consumo_proprio",
}

// LossDestination devuelve el destino canónico si dest es pérdida/autoconsumo.
func LossDestination(dest string) (string, bool) {
	d, ok := lossDestinations[strings.ToLower(strings.TrimSpace(dest))]
	return d, ok
}

// LossDestinationValues lista los valores crudos aceptados (para filtros SQL).
func LossDestinationValues() []string {
	out := make([]string, 0, len(lossDestinations))
	for k := range lossDestinations {
		out = append(out, k)
	}
	return out
}
