package inventory

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/granja-api/internal/domain"
	"github.com/jhoicas/granja-api/internal/domain/entity"
	"github.com/jhoicas/granja-api/internal/domain/matching"
	"github.com/jhoicas/granja-api/internal/domain/repository"
	"github.com/jhoicas/granja-api/pkg/logger"
)

// Resultados de una asignación (etiqueta de métricas).
const (
	OutcomeAllocated         = "allocated"
	OutcomeSimulated         = "simulated"
	OutcomeInsufficientStock = "insufficient_stock"
	OutcomeInvalid           = "invalid"
	OutcomeError             = "error"
)

const retryBackoff = 50 * time.Millisecond

// AllocationRequest pedido de asignación FIFO.
// Con BillOfMaterials el producto es derivado y se asigna a través de sus ingredientes.
type AllocationRequest struct {
	ProductType     entity.ProductType
	ProductName     string
	Quantity        decimal.Decimal
	Context         string // ej. "venda", se guarda como nota del movimiento
	BillOfMaterials []entity.BOMLine
	// RecordMovements nil = true. Con false solo se simula: se devuelve el plan y el ledger no cambia.
	RecordMovements *bool
	ReferenceKind   string // por defecto entity.RefSale
	ReferenceID     string
}

func (r AllocationRequest) recordMovements() bool {
	return r.RecordMovements == nil || *r.RecordMovements
}

// AllocationOptions parámetros del motor.
type AllocationOptions struct {
	MaxRetries int           // intentos totales ante conflictos transitorios (deadlock/serialización)
	TxTimeout  time.Duration // 0 = sin límite propio, solo el del ctx
}

// AllocationUseCase motor de asignación FIFO con recursión por ficha técnica.
// Todo el árbol se planifica primero y se registra después en la misma transacción:
// si cualquier ingrediente falla no queda ningún movimiento.
type AllocationUseCase struct {
	txRunner TxRunner
	catalog  repository.ProductCatalog
	matcher  matching.Matcher
	opts     AllocationOptions
	recorder Recorder
	log      *logger.Logger
	now      func() time.Time
}

// NewAllocationUseCase construye el motor. catalog, recorder y log pueden ser nil.
func NewAllocationUseCase(
	txRunner TxRunner,
	catalog repository.ProductCatalog,
	matcher matching.Matcher,
	opts AllocationOptions,
	recorder Recorder,
	log *logger.Logger,
) *AllocationUseCase {
	if matcher == nil {
		matcher = matching.NewFuzzyMatcher()
	}
	if opts.MaxRetries < 1 {
		opts.MaxRetries = 1
	}
	if log == nil {
		log = logger.Nop()
	}
	return &AllocationUseCase{
		txRunner: txRunner,
		catalog:  catalog,
		matcher:  matcher,
		opts:     opts,
		recorder: recorder,
		log:      log.Named("allocation"),
		now:      time.Now,
	}
}

// Allocate descuenta request.Quantity de los lotes que coinciden, del más antiguo al más nuevo.
// Un InsufficientStockError de cualquier nivel de la receta se devuelve sin cambios.
func (uc *AllocationUseCase) Allocate(ctx context.Context, req AllocationRequest) ([]entity.AllocationResult, error) {
	start := time.Now()
	results, err := uc.allocate(ctx, req)
	uc.observe(req, results, err, time.Since(start))
	return results, err
}

// AllocateProduct resuelve el producto en el catálogo: si es derivado usa su ficha técnica.
// Un nombre desconocido con tipo explícito se asigna como materia prima.
func (uc *AllocationUseCase) AllocateProduct(ctx context.Context, req AllocationRequest) ([]entity.AllocationResult, error) {
	if len(req.BillOfMaterials) == 0 && uc.catalog != nil && strings.TrimSpace(req.ProductName) != "" {
		product, err := uc.catalog.GetByName(ctx, req.ProductName)
		switch {
		case err == nil:
			if product.IsDerived() {
				req.BillOfMaterials = product.BillOfMaterials
				req.ProductName = product.Name
			} else if !req.ProductType.Valid() {
				return nil, domain.NewValidationError("product_type",
					"requerido para productos con stock físico")
			}
		case errors.Is(err, domain.ErrNotFound):
			if !req.ProductType.Valid() {
				return nil, err
			}
		default:
			return nil, err
		}
	}
	return uc.Allocate(ctx, req)
}

func (uc *AllocationUseCase) allocate(ctx context.Context, req AllocationRequest) ([]entity.AllocationResult, error) {
	req.ProductName = strings.TrimSpace(req.ProductName)
	if err := validateAllocation(req); err != nil {
		return nil, err
	}
	ref, err := normalizeReference(entity.Reference{ID: req.ReferenceID, Kind: req.ReferenceKind}, entity.RefSale)
	if err != nil {
		return nil, err
	}
	req.ReferenceKind, req.ReferenceID = ref.Kind, ref.ID

	if uc.opts.TxTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, uc.opts.TxTimeout)
		defer cancel()
	}

	var results []entity.AllocationResult
	for attempt := 1; attempt <= uc.opts.MaxRetries; attempt++ {
		results, err = uc.allocateOnce(ctx, req)
		if err == nil || !errors.Is(err, domain.ErrConflict) || attempt == uc.opts.MaxRetries {
			break
		}
		uc.log.Warn().Err(err).
			Int("attempt", attempt).
			Str("product", req.ProductName).
			Msg("conflicto transitorio en asignación, reintentando")
		if werr := wait(ctx, time.Duration(attempt)*retryBackoff); werr != nil {
			return nil, werr
		}
	}
	if err != nil {
		return nil, err
	}
	return results, nil
}

// allocateOnce un intento completo: planificar todo el árbol y, si procede, registrar las salidas.
func (uc *AllocationUseCase) allocateOnce(ctx context.Context, req AllocationRequest) ([]entity.AllocationResult, error) {
	var results []entity.AllocationResult
	err := uc.txRunner.Run(ctx, func(items repository.InventoryItemRepository, movements repository.MovementRepository) error {
		plan := newAllocationPlan(items, uc.catalog, uc.matcher)
		if err := plan.node(ctx, req.ProductType, req.ProductName, req.Quantity, req.Context,
			req.BillOfMaterials, 0, nil); err != nil {
			return err
		}

		if req.recordMovements() {
			now := uc.now()
			for _, t := range plan.takes {
				ref := entity.Reference{ID: req.ReferenceID, Kind: req.ReferenceKind, Note: t.context}
				if _, err := applyMovement(ctx, items, movements, t.item, entity.DirectionExit, t.quantity, ref, now); err != nil {
					return err
				}
			}
		}
		results = plan.results
		return nil
	})
	if err != nil {
		return nil, err
	}
	if results == nil {
		results = []entity.AllocationResult{}
	}
	return results, nil
}

func validateAllocation(req AllocationRequest) error {
	if req.ProductName == "" {
		return domain.NewValidationError("product_name", "requerido")
	}
	if err := validateQuantity(req.Quantity); err != nil {
		return err
	}
	if len(req.BillOfMaterials) == 0 {
		if !req.ProductType.Valid() {
			return domain.NewValidationError("product_type", "tipo de producto inválido")
		}
		return nil
	}
	for _, line := range req.BillOfMaterials {
		if err := line.Validate(); err != nil {
			return domain.NewValidationError("bill_of_materials", err.Error())
		}
	}
	return nil
}

func (uc *AllocationUseCase) observe(req AllocationRequest, results []entity.AllocationResult, err error, elapsed time.Duration) {
	outcome := OutcomeAllocated
	switch {
	case err == nil && !req.recordMovements():
		outcome = OutcomeSimulated
	case errors.Is(err, domain.ErrInsufficientStock):
		outcome = OutcomeInsufficientStock
	case errors.Is(err, domain.ErrInvalidInput):
		outcome = OutcomeInvalid
	case err != nil:
		outcome = OutcomeError
	}

	if uc.recorder != nil {
		label := string(req.ProductType)
		if len(req.BillOfMaterials) > 0 {
			label = "derived"
		}
		qty, _ := entity.TotalTaken(results).Float64()
		uc.recorder.ObserveAllocation(label, outcome, qty, elapsed.Seconds())
	}

	switch outcome {
	case OutcomeAllocated, OutcomeSimulated:
		uc.log.Info().
			Str("product", req.ProductName).
			Str("quantity", req.Quantity.String()).
			Str("outcome", outcome).
			Int("batches", len(results)).
			Dur("elapsed", elapsed).
			Msg("asignación FIFO completada")
	case OutcomeInsufficientStock, OutcomeInvalid:
		uc.log.Warn().Err(err).Str("product", req.ProductName).Str("outcome", outcome).Msg("asignación rechazada")
	default:
		uc.log.Error().Err(err).Str("product", req.ProductName).Msg("asignación fallida")
	}
}

func wait(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
