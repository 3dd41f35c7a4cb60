// Package traceability reconstruye el origen de lo asignado y el historial de pérdidas.
//
// El historial de pérdidas es una proyección: se calcula en cada consulta a partir de tres
// fuentes independientes y nunca se persiste.
package traceability

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/granja-api/internal/domain/entity"
	"github.com/jhoicas/granja-api/internal/domain/repository"
	"github.com/jhoicas/granja-api/pkg/logger"
)

// LossHistoryUseCase une producción perdida, mortalidad y salidas de almacén por pérdida.
//
// Fuentes (read-only, en paralelo):
//  1. ProductionRecordRepository.ListLosses → source Production
//  2. MortalityRecordRepository.List        → source Field
//  3. MovementRepository.ListLossExits      → source Warehouse
type LossHistoryUseCase struct {
	production repository.ProductionRecordRepository
	mortality  repository.MortalityRecordRepository
	movements  repository.MovementRepository
	directory  repository.GroupDirectory
	log        *logger.Logger
}

// NewLossHistoryUseCase construye el caso de uso. directory puede ser nil (se muestran ids crudos).
func NewLossHistoryUseCase(
	production repository.ProductionRecordRepository,
	mortality repository.MortalityRecordRepository,
	movements repository.MovementRepository,
	directory repository.GroupDirectory,
	log *logger.Logger,
) *LossHistoryUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &LossHistoryUseCase{
		production: production,
		mortality:  mortality,
		movements:  movements,
		directory:  directory,
		log:        log.Named("loss_history"),
	}
}

// BuildLossHistory historial completo, más reciente primero.
func (uc *LossHistoryUseCase) BuildLossHistory(ctx context.Context) ([]entity.LossEvent, error) {
	return uc.BuildLossHistoryRange(ctx, nil, nil)
}

// BuildLossHistoryRange igual que BuildLossHistory acotado a [from, to]; extremos nil no acotan.
func (uc *LossHistoryUseCase) BuildLossHistoryRange(ctx context.Context, from, to *time.Time) ([]entity.LossEvent, error) {
	if from != nil && to != nil && to.Before(*from) {
		from, to = to, from
	}

	var (
		production []*entity.ProductionRecord
		mortality  []*entity.MortalityRecord
		exits      []*repository.MovementDetail
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		production, err = uc.production.ListLosses(gctx, from, to)
		if err != nil {
			return fmt.Errorf("historial de pérdidas: producción: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		mortality, err = uc.mortality.List(gctx, from, to)
		if err != nil {
			return fmt.Errorf("historial de pérdidas: mortalidad: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		exits, err = uc.movements.ListLossExits(gctx, from, to)
		if err != nil {
			return fmt.Errorf("historial de pérdidas: almacén: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	origins := newOriginResolver(uc.directory)
	events := make([]entity.LossEvent, 0, len(production)+len(mortality)+len(exits))

	for _, rec := range production {
		dest, ok := entity.LossDestination(rec.Destination)
		if !ok {
			continue
		}
		origin, err := origins.describe(ctx, rec.GroupID, rec.CageID)
		if err != nil {
			return nil, err
		}
		reason := rec.Note
		if reason == "" {
			reason = dest
		}
		events = append(events, entity.LossEvent{
			Date:     rec.Date,
			Category: dest,
			Origin:   origin,
			Quantity: rec.Quantity,
			Reason:   reason,
			Source:   entity.LossSourceProduction,
		})
	}

	for _, rec := range mortality {
		origin, err := origins.describe(ctx, rec.GroupID, rec.CageID)
		if err != nil {
			return nil, err
		}
		events = append(events, entity.LossEvent{
			Date:     rec.Date,
			Category: entity.CategoryMortality,
			Origin:   origin,
			Quantity: rec.Quantity,
			Reason:   rec.Cause,
			Source:   entity.LossSourceField,
		})
	}

	for _, d := range exits {
		// Las ventas nunca se reclasifican como pérdida.
		if d.Movement.Direction != entity.DirectionExit || !entity.IsLossKind(d.Movement.Reference.Kind) {
			continue
		}
		origin, err := origins.describe(ctx, d.Item.Origin.ProductionGroupID, d.Item.Origin.CageID)
		if err != nil {
			return nil, err
		}
		reason := d.Movement.Reference.Note
		if reason == "" {
			reason = d.Item.Subtype
		}
		events = append(events, entity.LossEvent{
			Date:     d.Movement.Timestamp,
			Category: d.Movement.Reference.Kind,
			Origin:   origin,
			Quantity: d.Movement.Quantity,
			Reason:   reason,
			Source:   entity.LossSourceWarehouse,
		})
	}

	SortLossEvents(events)
	uc.log.Debug().
		Int("production", len(production)).
		Int("mortality", len(mortality)).
		Int("warehouse", len(exits)).
		Msg("historial de pérdidas calculado")
	return events, nil
}

// SortLossEvents más reciente primero; empates por fuente y luego por origen.
func SortLossEvents(events []entity.LossEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.After(b.Date)
		}
		if a.Source != b.Source {
			return a.Source < b.Source
		}
		return a.Origin < b.Origin
	})
}
