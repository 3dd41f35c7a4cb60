package http

import (
	"bytes"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/granja-api/internal/application/dto"
	"github.com/jhoicas/granja-api/internal/application/traceability"
	"github.com/jhoicas/granja-api/internal/domain"
	"github.com/jhoicas/granja-api/internal/domain/entity"
	"github.com/jhoicas/granja-api/pkg/logger"
)

const dateLayout = "2006-01-02"

// ReportHandler reportes de trazabilidad (historial de pérdidas).
type ReportHandler struct {
	uc  *traceability.LossHistoryUseCase
	log *logger.Logger
}

// NewReportHandler construye el handler.
func NewReportHandler(uc *traceability.LossHistoryUseCase, log *logger.Logger) *ReportHandler {
	return &ReportHandler{uc: uc, log: log}
}

// Losses godoc
// @Summary      Historial de pérdidas
// @Description  Une producción perdida, mortalidad y salidas de almacén por pérdida; más reciente primero.
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Param        from  query  string  false  "Desde (YYYY-MM-DD o RFC3339)"
// @Param        to    query  string  false  "Hasta (YYYY-MM-DD o RFC3339, inclusive)"
// @Success      200   {object}  dto.LossHistoryResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/reports/losses [get]
func (h *ReportHandler) Losses(c *fiber.Ctx) error {
	events, err := h.history(c)
	if err != nil {
		return writeError(c, h.log, err)
	}
	s := traceability.Summarize(events)
	out := dto.LossHistoryResponse{
		Events: make([]dto.LossEventDTO, 0, len(events)),
		Summary: dto.LossSummaryDTO{
			Events:     s.Events,
			Total:      s.Total,
			BySource:   s.BySource,
			ByCategory: s.ByCategory,
		},
	}
	for _, e := range events {
		out.Events = append(out.Events, dto.LossEventDTO{
			Date:     e.Date,
			Source:   e.Source,
			Category: e.Category,
			Origin:   e.Origin,
			Quantity: e.Quantity,
			Reason:   e.Reason,
		})
	}
	return c.JSON(out)
}

// ExportLosses godoc
// @Summary      Exportar historial de pérdidas (xlsx)
// @Tags         reports
// @Security     Bearer
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        from  query  string  false  "Desde (YYYY-MM-DD o RFC3339)"
// @Param        to    query  string  false  "Hasta (YYYY-MM-DD o RFC3339, inclusive)"
// @Success      200
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/reports/losses/export [get]
func (h *ReportHandler) ExportLosses(c *fiber.Ctx) error {
	events, err := h.history(c)
	if err != nil {
		return writeError(c, h.log, err)
	}
	var buf bytes.Buffer
	if err := traceability.ExportLossHistoryXLSX(&buf, events); err != nil {
		return writeError(c, h.log, err)
	}
	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Attachment("perdas.xlsx")
	return c.Send(buf.Bytes())
}

func (h *ReportHandler) history(c *fiber.Ctx) ([]entity.LossEvent, error) {
	from, err := parseDate(c.Query("from"), false)
	if err != nil {
		return nil, domain.NewValidationError("from", "fecha inválida")
	}
	to, err := parseDate(c.Query("to"), true)
	if err != nil {
		return nil, domain.NewValidationError("to", "fecha inválida")
	}
	return h.uc.BuildLossHistoryRange(c.UserContext(), from, to)
}

// parseDate acepta YYYY-MM-DD o RFC3339. Con endOfDay una fecha corta cubre el día completo.
func parseDate(s string, endOfDay bool) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}
