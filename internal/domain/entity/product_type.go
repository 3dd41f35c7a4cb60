package entity

import "strings"

// ProductType tipo de stock físico del almacén.
type ProductType string

const (
	ProductTypeEgg   ProductType = "egg"
	ProductTypeMeat  ProductType = "meat"
	ProductTypeChick ProductType = "chick"
)

// Unidades de cantidad usadas por el dominio (no hay conversión entre ellas).
const (
	UnitCount = "un"
	UnitKg    = "kg"
)

// productTypeAliases traduce el vocabulario heredado (portugués/español/inglés) al canónico.
// Es el único punto de traducción de tipos; el resto del código usa ProductType.
var productTypeAliases = map[string]ProductType{
	"egg":       ProductTypeEgg,
	"eggs":      ProductTypeEgg,
	"ovo":       ProductTypeEgg,
	"ovos":      ProductTypeEgg,
	"huevo":     ProductTypeEgg,
	"huevos":    ProductTypeEgg,
	"meat":      ProductTypeMeat,
	"carne":     ProductTypeMeat,
	"carnes":    ProductTypeMeat,
	"abatido":   ProductTypeMeat,
	"chick":     ProductTypeChick,
	"chicks":    ProductTypeChick,
	"pintinho":  ProductTypeChick,
	"pintinhos": ProductTypeChick,
	"pollito":   ProductTypeChick,
	"pollitos":  ProductTypeChick,
	"ave":       ProductTypeChick,
	"aves":      ProductTypeChick,
}

// ParseProductType normaliza un tipo recibido del exterior. ok=false si no es reconocido.
func ParseProductType(s string) (ProductType, bool) {
	pt, ok := productTypeAliases[strings.ToLower(strings.TrimSpace(s))]
	return pt, ok
}

// Valid indica si el tipo pertenece al enum.
func (t ProductType) Valid() bool {
	switch t {
	case ProductTypeEgg, ProductTypeMeat, ProductTypeChick:
		return true
	}
	return false
}

// Unit devuelve la unidad en la que se expresa la cantidad del tipo.
func (t ProductType) Unit() string {
	if t == ProductTypeMeat {
		return UnitKg
	}
	return UnitCount
}

func (t ProductType) String() string { return string(t) }
