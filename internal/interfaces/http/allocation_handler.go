package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/granja-api/internal/application/dto"
	"github.com/jhoicas/granja-api/internal/application/inventory"
	"github.com/jhoicas/granja-api/internal/application/traceability"
	"github.com/jhoicas/granja-api/internal/application/usecase"
	"github.com/jhoicas/granja-api/internal/domain/entity"
	"github.com/jhoicas/granja-api/pkg/logger"
)

// AllocationHandler expone el motor de asignación FIFO (protegido).
type AllocationHandler struct {
	alloc *inventory.AllocationUseCase
	trace *traceability.LossHistoryUseCase
	log   *logger.Logger
}

// NewAllocationHandler construye el handler. trace resuelve los nombres de origen.
func NewAllocationHandler(alloc *inventory.AllocationUseCase, trace *traceability.LossHistoryUseCase, log *logger.Logger) *AllocationHandler {
	return &AllocationHandler{alloc: alloc, trace: trace, log: log}
}

// Allocate godoc
// @Summary      Asignar stock FIFO
// @Description  Descuenta la cantidad de los lotes más antiguos que coinciden. Con ficha técnica
// @Description  (o producto derivado del catálogo) asigna cada ingrediente; todo o nada.
// @Description  record_movements=false devuelve el plan sin modificar el ledger.
// @Tags         allocations
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AllocationRequest  true  "Producto, cantidad y ficha técnica opcional"
// @Success      200   {object}  dto.AllocationResponse
// @Success      201   {object}  dto.AllocationResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.InsufficientStockResponse
// @Router       /api/inventory/allocations [post]
func (h *AllocationHandler) Allocate(c *fiber.Ctx) error {
	var in dto.AllocationRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	bom, err := usecase.BOMLinesFromDTO(in.BillOfMaterials)
	if err != nil {
		return writeError(c, h.log, err)
	}
	req := inventory.AllocationRequest{
		ProductType:     parseProductType(in.ProductType),
		ProductName:     in.ProductName,
		Quantity:        in.Quantity,
		Context:         in.Context,
		BillOfMaterials: bom,
		RecordMovements: in.RecordMovements,
		ReferenceKind:   in.ReferenceKind,
		ReferenceID:     in.ReferenceID,
	}

	results, err := h.alloc.AllocateProduct(c.UserContext(), req)
	if err != nil {
		return writeError(c, h.log, err)
	}

	recorded := in.RecordMovements == nil || *in.RecordMovements
	// Con el ledger ya modificado, un fallo del directorio solo degrada la etiqueta de origen.
	origins, err := h.trace.ResolveOriginNames(c.UserContext(), results)
	if err != nil {
		h.log.Warn().Err(err).
			Str("product", in.ProductName).
			Bool("recorded", recorded).
			Msg("no se pudieron resolver los orígenes; se usan ids de grupo")
		origins = traceability.RawOriginNames(results)
	}
	out := dto.AllocationResponse{
		Recorded:  recorded,
		Total:     entity.TotalTaken(results),
		Results:   make([]dto.AllocationResultDTO, 0, len(results)),
		Origins:   origins,
		OriginTag: strings.Join(origins, ", "),
	}
	for _, r := range results {
		out.Results = append(out.Results, dto.AllocationResultDTO{
			ItemID:            r.ItemID,
			ProductType:       r.ProductType.String(),
			Subtype:           r.Subtype,
			QuantityTaken:     r.QuantityTaken,
			ProductionGroupID: r.Origin.ProductionGroupID,
			BatchID:           r.Origin.BatchID,
			CageID:            r.Origin.CageID,
			CreationDate:      r.Origin.CreationDate,
		})
	}
	status := fiber.StatusOK
	if recorded {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(out)
}
