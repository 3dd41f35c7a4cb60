package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/granja-api/internal/application/dto"
	"github.com/jhoicas/granja-api/internal/application/inventory"
	"github.com/jhoicas/granja-api/internal/domain/entity"
	"github.com/jhoicas/granja-api/pkg/logger"
)

// InventoryHandler maneja lotes y movimientos del ledger (protegido).
type InventoryHandler struct {
	ledger *inventory.LedgerUseCase
	log    *logger.Logger
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(ledger *inventory.LedgerUseCase, log *logger.Logger) *InventoryHandler {
	return &InventoryHandler{ledger: ledger, log: log}
}

// AddInventory godoc
// @Summary      Registrar entrada de inventario
// @Description  Crea un lote nuevo con su movimiento de entrada inicial.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AddInventoryRequest  true  "Lote y cantidad inicial"
// @Success      201   {object}  dto.ItemResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/inventory/items [post]
func (h *InventoryHandler) AddInventory(c *fiber.Ctx) error {
	var in dto.AddInventoryRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	origin := entity.Origin{
		ProductionGroupID: in.ProductionGroupID,
		BatchID:           in.BatchID,
		CageID:            in.CageID,
	}
	if in.CreationDate != nil {
		origin.CreationDate = *in.CreationDate
	}
	item, err := h.ledger.AddInventory(c.UserContext(), inventory.AddInventoryInput{
		NewItemInput: inventory.NewItemInput{
			ProductType:    parseProductType(in.ProductType),
			Subtype:        in.Subtype,
			Origin:         origin,
			ExpirationDate: in.ExpirationDate,
		},
		Quantity:  in.Quantity,
		Reference: entity.Reference{ID: in.ReferenceID, Kind: in.ReferenceKind, Note: in.Note},
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toItemResponse(item))
}

// List godoc
// @Summary      Listar lotes
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        type      query  string  false  "egg | meat | chick"
// @Param        status    query  string  false  "in_stock | sold_out"
// @Param        group_id  query  string  false  "Grupo de producción"
// @Param        subtype   query  string  false  "Subtipo exacto"
// @Param        fifo      query  bool    false  "Orden por fecha de origen"
// @Param        limit     query  int     false  "Límite"  default(20)
// @Param        offset    query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.ItemListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/items [get]
func (h *InventoryHandler) List(c *fiber.Ctx) error {
	page := dto.PageRequest{Limit: c.QueryInt("limit", 20), Offset: c.QueryInt("offset", 0)}
	page.DefaultPage()
	filter := entity.ItemFilter{
		ProductType: parseProductType(c.Query("type")),
		Status:      c.Query("status"),
		GroupID:     c.Query("group_id"),
		Subtype:     c.Query("subtype"),
		FIFO:        c.QueryBool("fifo", false),
		Limit:       page.Limit,
		Offset:      page.Offset,
	}
	list, err := h.ledger.ListItems(c.UserContext(), filter)
	if err != nil {
		return writeError(c, h.log, err)
	}
	out := dto.ItemListResponse{
		Items: make([]dto.ItemResponse, 0, len(list)),
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	}
	for _, it := range list {
		out.Items = append(out.Items, toItemResponse(it))
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Obtener lote por ID
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del lote"
// @Success      200  {object}  dto.ItemResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/items/{id} [get]
func (h *InventoryHandler) GetByID(c *fiber.Ctx) error {
	item, err := h.ledger.GetItem(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(toItemResponse(item))
}

// Movements godoc
// @Summary      Movimientos de un lote
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del lote"
// @Success      200  {array}   dto.MovementResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/items/{id}/movements [get]
func (h *InventoryHandler) Movements(c *fiber.Ctx) error {
	movs, err := h.ledger.ListMovements(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	out := make([]dto.MovementResponse, 0, len(movs))
	for _, m := range movs {
		out = append(out, toMovementResponse(m))
	}
	return c.JSON(out)
}

// RecordMovement godoc
// @Summary      Registrar movimiento sobre un lote
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                     true  "ID del lote"
// @Param        body  body  dto.RecordMovementRequest  true  "direction, quantity, reference_kind"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.InsufficientStockResponse
// @Router       /api/inventory/items/{id}/movements [post]
func (h *InventoryHandler) RecordMovement(c *fiber.Ctx) error {
	var in dto.RecordMovementRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	mov, err := h.ledger.RecordMovement(c.UserContext(), c.Params("id"),
		entity.Direction(in.Direction), in.Quantity,
		entity.Reference{ID: in.ReferenceID, Kind: in.ReferenceKind, Note: in.Note})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toMovementResponse(mov))
}

// Verify godoc
// @Summary      Verificar saldo contra movimientos
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del lote"
// @Success      200  {object}  dto.LedgerCheckResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/items/{id}/verify [get]
func (h *InventoryHandler) Verify(c *fiber.Ctx) error {
	check, err := h.ledger.VerifyLedger(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.LedgerCheckResponse{
		ItemID:     check.ItemID,
		Cached:     check.Cached,
		Computed:   check.Computed,
		Drift:      check.Drift,
		Movements:  check.Movements,
		Consistent: check.Consistent,
	})
}

// Delete godoc
// @Summary      Eliminar lote (corrección administrativa)
// @Tags         inventory
// @Security     Bearer
// @Param        id   path  string  true  "ID del lote"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/items/{id} [delete]
func (h *InventoryHandler) Delete(c *fiber.Ctx) error {
	if err := h.ledger.DeleteItem(c.UserContext(), c.Params("id")); err != nil {
		return writeError(c, h.log, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// parseProductType acepta alias; un valor no reconocido pasa tal cual y lo rechaza la validación.
func parseProductType(s string) entity.ProductType {
	if s == "" {
		return ""
	}
	if pt, ok := entity.ParseProductType(s); ok {
		return pt
	}
	return entity.ProductType(s)
}

func toItemResponse(it *entity.InventoryItem) dto.ItemResponse {
	return dto.ItemResponse{
		ID:          it.ID,
		ProductType: it.ProductType.String(),
		Subtype:     it.Subtype,
		Quantity:    it.Quantity,
		Unit:        it.ProductType.Unit(),
		Status:      it.Status(),
		Origin: dto.OriginResponse{
			ProductionGroupID: it.Origin.ProductionGroupID,
			BatchID:           it.Origin.BatchID,
			CageID:            it.Origin.CageID,
			CreationDate:      it.Origin.CreationDate,
		},
		ExpirationDate: it.ExpirationDate,
		CreatedAt:      it.CreatedAt,
		UpdatedAt:      it.UpdatedAt,
	}
}

func toMovementResponse(m *entity.Movement) dto.MovementResponse {
	return dto.MovementResponse{
		ID:            m.ID,
		ItemID:        m.ItemID,
		Direction:     string(m.Direction),
		Quantity:      m.Quantity,
		ReferenceKind: m.Reference.Kind,
		ReferenceID:   m.Reference.ID,
		Note:          m.Reference.Note,
		Timestamp:     m.Timestamp,
	}
}
