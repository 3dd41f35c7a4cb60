package traceability

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/jhoicas/granja-api/internal/domain/entity"
)

const lossSheet = "Perdas"

var lossHeader = []interface{}{"Data", "Fonte", "Categoria", "Origem", "Quantidade", "Motivo"}

// ExportLossHistoryXLSX escribe el historial como libro .xlsx en w (una fila por evento).
func ExportLossHistoryXLSX(w io.Writer, events []entity.LossEvent) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(f.GetActiveSheetIndex()), lossSheet); err != nil {
		return fmt.Errorf("xlsx: hoja: %w", err)
	}
	if err := f.SetSheetRow(lossSheet, "A1", &lossHeader); err != nil {
		return fmt.Errorf("xlsx: encabezado: %w", err)
	}

	row := 2
	for _, e := range events {
		qty, _ := e.Quantity.Float64()
		values := []interface{}{
			e.Date.Format("2006-01-02 15:04"),
			e.Source,
			e.Category,
			e.Origin,
			qty,
			e.Reason,
		}
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return fmt.Errorf("xlsx: celda: %w", err)
		}
		if err := f.SetSheetRow(lossSheet, cell, &values); err != nil {
			return fmt.Errorf("xlsx: fila %d: %w", row, err)
		}
		row++
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("xlsx: escribir: %w", err)
	}
	return nil
}
