package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/granja-api/internal/domain"
	"github.com/jhoicas/granja-api/internal/domain/entity"
	"github.com/jhoicas/granja-api/internal/domain/repository"
)

var (
	_ repository.GroupDirectory             = (*FarmRepo)(nil)
	_ repository.ProductionRecordRepository = (*FarmRepo)(nil)
	_ repository.MortalityRecordRepository  = (*FarmRepo)(nil)
)

// FarmRepo lectura de las tablas del módulo de granja (grupos, jaulas, producción, mortalidad).
type FarmRepo struct {
	q Querier
}

// NewFarmRepository construye el adaptador. Pasar pool o tx (Querier).
func NewFarmRepository(q Querier) *FarmRepo {
	return &FarmRepo{q: q}
}

// ResolveGroupOrigin nombre visible del grupo y de sus jaulas.
func (r *FarmRepo) ResolveGroupOrigin(ctx context.Context, groupID string) (*entity.GroupOrigin, error) {
	g := entity.GroupOrigin{GroupID: groupID, CageNames: map[string]string{}}
	err := r.q.QueryRow(ctx,
		`SELECT aviary_id, display_name FROM production_groups WHERE id = $1`, groupID,
	).Scan(&g.AviaryID, &g.DisplayName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("grupo", groupID)
		}
		return nil, fmt.Errorf("resolve group: %w", err)
	}

	rows, err := r.q.Query(ctx, `SELECT id, name FROM cages WHERE group_id = $1`, groupID)
	if err != nil {
		return nil, fmt.Errorf("list cages: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("scan cage: %w", err)
		}
		g.CageNames[id] = name
	}
	return &g, rows.Err()
}

// ListLosses registros de producción con destino pérdida o autoconsumo.
func (r *FarmRepo) ListLosses(ctx context.Context, from, to *time.Time) ([]*entity.ProductionRecord, error) {
	query := `
		SELECT id, group_id, cage_id, product_type, quantity, destination, recorded_at, note
		FROM production_records
		WHERE lower(btrim(destination)) = ANY($1)`
	args := []any{entity.LossDestinationValues()}
	query, args = dateRange(query, "recorded_at", args, from, to)
	query += " ORDER BY recorded_at DESC"

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list production losses: %w", err)
	}
	defer rows.Close()
	list := []*entity.ProductionRecord{}
	for rows.Next() {
		var (
			rec         entity.ProductionRecord
			productType string
		)
		if err := rows.Scan(&rec.ID, &rec.GroupID, &rec.CageID, &productType, &rec.Quantity,
			&rec.Destination, &rec.Date, &rec.Note); err != nil {
			return nil, fmt.Errorf("scan production record: %w", err)
		}
		// El colaborador guarda el tipo con su vocabulario; se traduce una sola vez aquí.
		if pt, ok := entity.ParseProductType(productType); ok {
			rec.ProductType = pt
		} else {
			rec.ProductType = entity.ProductType(strings.ToLower(productType))
		}
		list = append(list, &rec)
	}
	return list, rows.Err()
}

// List registros de mortalidad en el rango.
func (r *FarmRepo) List(ctx context.Context, from, to *time.Time) ([]*entity.MortalityRecord, error) {
	query := `SELECT id, group_id, cage_id, quantity, cause, recorded_at FROM mortality_records WHERE TRUE`
	query, args := dateRange(query, "recorded_at", nil, from, to)
	query += " ORDER BY recorded_at DESC"

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list mortality: %w", err)
	}
	defer rows.Close()
	list := []*entity.MortalityRecord{}
	for rows.Next() {
		var rec entity.MortalityRecord
		if err := rows.Scan(&rec.ID, &rec.GroupID, &rec.CageID, &rec.Quantity, &rec.Cause, &rec.Date); err != nil {
			return nil, fmt.Errorf("scan mortality record: %w", err)
		}
		list = append(list, &rec)
	}
	return list, rows.Err()
}

func dateRange(query, column string, args []any, from, to *time.Time) (string, []any) {
	if from != nil {
		args = append(args, *from)
		query += fmt.Sprintf(" AND %s >= $%d", column, len(args))
	}
	if to != nil {
		args = append(args, *to)
		query += fmt.Sprintf(" AND %s <= $%d", column, len(args))
	}
	return query, args
}
