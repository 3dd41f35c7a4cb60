package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Dirección de un movimiento.
type Direction string

const (
	DirectionEntry Direction = "entry"
	DirectionExit  Direction = "exit"
)

// Tipos de referencia que originan un movimiento.
const (
	RefProduction      = "production"
	RefHatchTransfer   = "hatch_transfer"
	RefManualEntry     = "manual_entry"
	RefSale            = "sale"
	RefConsumption     = "consumption"
	RefAdjustment      = "adjustment"
	RefLoss            = "loss"
	RefSelfConsumption = "self_consumption"
)

// Reference identifica la transacción de negocio que causó el movimiento.
type Reference struct {
	ID   string
	Kind string
	Note string
}

// Movement registro append-only de entrada o salida contra el saldo de un lote.
type Movement struct {
	ID        string
	ItemID    string
	Direction Direction
	Quantity  decimal.Decimal // siempre > 0; la dirección da el signo
	Reference Reference
	Timestamp time.Time
}

// Signed devuelve la cantidad con signo (+entrada, −salida).
func (m *Movement) Signed() decimal.Decimal {
	if m.Direction == DirectionExit {
		return m.Quantity.Neg()
	}
	return m.Quantity
}

// Valid indica si la dirección pertenece al enum.
func (d Direction) Valid() bool {
	return d == DirectionEntry || d == DirectionExit
}

// lossKinds referencias de salida que cuentan como pérdida en reportes.
var lossKinds = []string{RefAdjustment, RefLoss, RefSelfConsumption, RefConsumption}

// IsLossKind indica si una salida con esta referencia cuenta como pérdida en reportes.
// Las ventas nunca se reclasifican como pérdida.
func IsLossKind(kind string) bool {
	for _, k := range lossKinds {
		if k == kind {
			return true
		}
	}
	return false
}

// LossKinds copia de las referencias de pérdida (para filtros SQL).
func LossKinds() []string {
	out := make([]string, len(lossKinds))
	copy(out, lossKinds)
	return out
}

// MovementBalance suma con signo los movimientos (Σentradas − Σsalidas).
func MovementBalance(movs []*Movement) decimal.Decimal {
	total := decimal.Zero
	for _, m := range movs {
		total = total.Add(m.Signed())
	}
	return total
}
