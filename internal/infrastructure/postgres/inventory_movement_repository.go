package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/granja-api/internal/domain/entity"
	"github.com/jhoicas/granja-api/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

const movementColumns = `m.id, m.item_id, m.direction, m.quantity, m.reference_id, m.reference_kind, m.note, m.created_at`

// MovementRepo movimientos append-only sobre PostgreSQL (usable con pool o tx).
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

// movementDest destinos de Scan para movementColumns; la dirección se convierte al final.
type movementDest struct {
	m         entity.Movement
	direction string
}

func (d *movementDest) targets() []any {
	return []any{
		&d.m.ID, &d.m.ItemID, &d.direction, &d.m.Quantity,
		&d.m.Reference.ID, &d.m.Reference.Kind, &d.m.Reference.Note, &d.m.Timestamp,
	}
}

func (d *movementDest) movement() entity.Movement {
	d.m.Direction = entity.Direction(d.direction)
	return d.m
}

// Create persiste un movimiento.
func (r *MovementRepo) Create(ctx context.Context, m *entity.Movement) error {
	query := `
		INSERT INTO inventory_movements (id, item_id, direction, quantity, reference_id, reference_kind, note, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.Exec(ctx, query,
		m.ID, m.ItemID, string(m.Direction), m.Quantity,
		m.Reference.ID, m.Reference.Kind, m.Reference.Note, m.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("create movement: %w", err)
	}
	return nil
}

// ListByItem movimientos del lote en orden de registro.
func (r *MovementRepo) ListByItem(ctx context.Context, itemID string) ([]*entity.Movement, error) {
	list := []*entity.Movement{}
	if !isUUID(itemID) {
		return list, nil
	}
	rows, err := r.q.Query(ctx,
		`SELECT `+movementColumns+` FROM inventory_movements m WHERE m.item_id = $1 ORDER BY m.seq`, itemID)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var d movementDest
		if err := rows.Scan(d.targets()...); err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		m := d.movement()
		list = append(list, &m)
	}
	return list, rows.Err()
}

// ListLossExits salidas con referencia de pérdida junto al lote afectado, más recientes primero.
func (r *MovementRepo) ListLossExits(ctx context.Context, from, to *time.Time) ([]*repository.MovementDetail, error) {
	query := `
		SELECT ` + movementColumns + `, ` + prefixed("i", itemColumns) + `
		FROM inventory_movements m
		JOIN inventory_items i ON i.id = m.item_id
		WHERE m.direction = 'exit' AND m.reference_kind = ANY($1)`
	query, args := dateRange(query, "m.created_at", []any{entity.LossKinds()}, from, to)
	query += " ORDER BY m.created_at DESC, m.seq DESC"

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list loss exits: %w", err)
	}
	defer rows.Close()

	list := []*repository.MovementDetail{}
	for rows.Next() {
		var (
			d           movementDest
			it          entity.InventoryItem
			productType string
		)
		targets := append(d.targets(), itemTargets(&it, &productType)...)
		if err := rows.Scan(targets...); err != nil {
			return nil, fmt.Errorf("scan loss exit: %w", err)
		}
		it.ProductType = entity.ProductType(productType)
		list = append(list, &repository.MovementDetail{Movement: d.movement(), Item: it})
	}
	return list, rows.Err()
}

// DeleteByItem elimina los movimientos del lote (solo corrección administrativa).
func (r *MovementRepo) DeleteByItem(ctx context.Context, itemID string) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM inventory_movements WHERE item_id = $1`, itemID); err != nil {
		return fmt.Errorf("delete movements: %w", err)
	}
	return nil
}
