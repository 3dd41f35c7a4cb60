package http

import (
	"net/url"

	"github.com/gofiber/fiber/v2"

	appanalytics "github.com/jhoicas/granja-api/internal/application/analytics"
	"github.com/jhoicas/granja-api/internal/application/inventory"
	"github.com/jhoicas/granja-api/internal/application/traceability"
	"github.com/jhoicas/granja-api/internal/application/usecase"
	"github.com/jhoicas/granja-api/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Ledger      *inventory.LedgerUseCase
	Allocation  *inventory.AllocationUseCase
	LossHistory *traceability.LossHistoryUseCase
	ProductUC   *usecase.ProductUseCase
	Dashboard   *appanalytics.DashboardUseCase
	JWTSecret   string
	JWTIssuer   string
	Log         *logger.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	log = log.Named("http")

	// Rutas protegidas (requieren Bearer Token)
	protected := app.Group("/api", AuthMiddleware(deps.JWTSecret, deps.JWTIssuer))
	writers := RequireRole(RoleAdmin, RoleGalpon)
	sellers := RequireRole(RoleAdmin, RoleGalpon, RoleVentas)
	admins := RequireRole(RoleAdmin)

	// Inventario (ledger)
	inv := protected.Group("/inventory")
	inventoryHandler := NewInventoryHandler(deps.Ledger, log)
	inv.Get("/items", inventoryHandler.List)
	inv.Post("/items", writers, inventoryHandler.AddInventory)
	inv.Get("/items/:id", inventoryHandler.GetByID)
	inv.Delete("/items/:id", admins, inventoryHandler.Delete)
	inv.Get("/items/:id/movements", inventoryHandler.Movements)
	inv.Post("/items/:id/movements", writers, inventoryHandler.RecordMovement)
	inv.Get("/items/:id/verify", inventoryHandler.Verify)

	// Asignación FIFO
	allocationHandler := NewAllocationHandler(deps.Allocation, deps.LossHistory, log)
	inv.Post("/allocations", sellers, allocationHandler.Allocate)

	// Catálogo
	products := protected.Group("/products")
	productHandler := NewProductHandler(deps.ProductUC, log)
	products.Get("/", productHandler.List)
	products.Get("/:name", productHandler.GetByName)
	products.Put("/:name", admins, productHandler.Upsert)

	// Reportes
	reports := protected.Group("/reports", admins)
	reportHandler := NewReportHandler(deps.LossHistory, log)
	reports.Get("/losses", reportHandler.Losses)
	reports.Get("/losses/export", reportHandler.ExportLosses)

	// Dashboard
	dashboardHandler := NewDashboardHandler(deps.Dashboard, log)
	protected.Get("/dashboard/summary", dashboardHandler.GetSummary)
}

// decodeParam parámetro de ruta sin escapes (los nombres de producto llevan espacios y acentos).
func decodeParam(c *fiber.Ctx, name string) string {
	raw := c.Params(name)
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}
