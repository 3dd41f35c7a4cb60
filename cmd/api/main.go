// @title        Granja API
// @version      1.0
// @description  Inventario de almacén de la granja: ledger de lotes, asignación FIFO con fichas técnicas y trazabilidad de pérdidas.
// @BasePath     /
// @securityDefinitions.apikey  Bearer
// @in                          header
// @name                        Authorization
// @description                 Bearer <token>
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	_ "github.com/jhoicas/granja-api/docs"
	appanalytics "github.com/jhoicas/granja-api/internal/application/analytics"
	"github.com/jhoicas/granja-api/internal/application/inventory"
	"github.com/jhoicas/granja-api/internal/application/traceability"
	"github.com/jhoicas/granja-api/internal/application/usecase"
	"github.com/jhoicas/granja-api/internal/domain/matching"
	"github.com/jhoicas/granja-api/internal/domain/repository"
	"github.com/jhoicas/granja-api/internal/infrastructure/memory"
	"github.com/jhoicas/granja-api/internal/infrastructure/metrics"
	"github.com/jhoicas/granja-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/granja-api/internal/interfaces/http"
	"github.com/jhoicas/granja-api/pkg/config"
	"github.com/jhoicas/granja-api/pkg/logger"
)

// storage puertos que necesita la aplicación, resueltos según STORAGE_DRIVER.
type storage struct {
	txRunner   inventory.TxRunner
	items      repository.InventoryItemRepository
	movements  repository.MovementRepository
	catalog    repository.ProductCatalog
	directory  repository.GroupDirectory
	production repository.ProductionRecordRepository
	mortality  repository.MortalityRecordRepository
	close      func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("storage", cfg.DB.Driver).
		Msg("iniciando aplicación")

	ctx := context.Background()
	store, err := openStorage(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar almacenamiento")
	}
	defer store.close()

	var matcher matching.Matcher = matching.NewFuzzyMatcher()
	if cfg.Allocation.StrictMatching {
		matcher = matching.ExactMatcher{}
	}

	var (
		recorder inventory.Recorder
		prom     *metrics.Recorder
	)
	if cfg.Metrics.Enabled {
		prom = metrics.NewRecorder()
		recorder = prom
	}

	ledgerUC := inventory.NewLedgerUseCase(store.txRunner, store.items, store.movements, log)
	allocationUC := inventory.NewAllocationUseCase(store.txRunner, store.catalog, matcher,
		inventory.AllocationOptions{
			MaxRetries: cfg.Allocation.MaxRetries,
			TxTimeout:  cfg.Allocation.TxTimeout,
		}, recorder, log)
	lossHistoryUC := traceability.NewLossHistoryUseCase(
		store.production, store.mortality, store.movements, store.directory, log)
	productUC := usecase.NewProductUseCase(store.catalog)
	dashboardUC := appanalytics.NewDashboardUseCase(store.items, lossHistoryUC)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Granja API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name, "storage": cfg.DB.Driver})
	})
	if prom != nil {
		app.Get("/metrics", adaptor.HTTPHandler(prom.Handler()))
	}

	httpRouter.Router(app, httpRouter.RouterDeps{
		Ledger:      ledgerUC,
		Allocation:  allocationUC,
		LossHistory: lossHistoryUC,
		ProductUC:   productUC,
		Dashboard:   dashboardUC,
		JWTSecret:   cfg.JWT.Secret,
		JWTIssuer:   cfg.JWT.Issuer,
		Log:         log,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}

func openStorage(ctx context.Context, cfg *config.Config, log *logger.Logger) (*storage, error) {
	if cfg.DB.Driver == config.StorageDriverMemory {
		log.Warn().Msg("almacenamiento en memoria: los datos se pierden al reiniciar")
		s := memory.NewStore()
		return &storage{
			txRunner:   s,
			items:      s.Items(),
			movements:  s.Movements(),
			catalog:    s.Catalog(),
			directory:  s.Directory(),
			production: s.ProductionRecords(),
			mortality:  s.MortalityRecords(),
			close:      func() {},
		}, nil
	}

	if cfg.DB.AutoMigrate {
		if err := postgres.Migrate(ctx, cfg.DB.ConnectionString()); err != nil {
			return nil, err
		}
		log.Info().Msg("migraciones aplicadas")
	}
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	farm := postgres.NewFarmRepository(pool)
	return &storage{
		txRunner:   postgres.NewTxRunner(pool),
		items:      postgres.NewInventoryItemRepository(pool),
		movements:  postgres.NewMovementRepository(pool),
		catalog:    postgres.NewProductRepository(pool),
		directory:  farm,
		production: farm,
		mortality:  farm,
		close:      pool.Close,
	}, nil
}
