package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/granja-api/internal/domain"
	"github.com/jhoicas/granja-api/internal/domain/entity"
	"github.com/jhoicas/granja-api/internal/domain/repository"
)

var _ repository.InventoryItemRepository = (*InventoryItemRepo)(nil)

const itemColumns = `id, product_type, subtype, quantity, production_group_id, batch_id, cage_id,
	origin_created_at, expiration_date, created_at, updated_at`

// InventoryItemRepo implementación sobre PostgreSQL (usable con pool o tx).
type InventoryItemRepo struct {
	q Querier
}

// NewInventoryItemRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInventoryItemRepository(q Querier) *InventoryItemRepo {
	return &InventoryItemRepo{q: q}
}

// itemTargets destinos de Scan en el orden de itemColumns.
func itemTargets(it *entity.InventoryItem, productType *string) []any {
	return []any{
		&it.ID, productType, &it.Subtype, &it.Quantity,
		&it.Origin.ProductionGroupID, &it.Origin.BatchID, &it.Origin.CageID,
		&it.Origin.CreationDate, &it.ExpirationDate, &it.CreatedAt, &it.UpdatedAt,
	}
}

// scanItem única traducción fila -> entidad para inventory_items.
func scanItem(row pgx.Row) (*entity.InventoryItem, error) {
	var (
		it          entity.InventoryItem
		productType string
	)
	if err := row.Scan(itemTargets(&it, &productType)...); err != nil {
		return nil, err
	}
	it.ProductType = entity.ProductType(productType)
	return &it, nil
}

func collectItems(rows pgx.Rows) ([]*entity.InventoryItem, error) {
	defer rows.Close()
	list := []*entity.InventoryItem{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		list = append(list, it)
	}
	return list, rows.Err()
}

// Create inserta un lote.
func (r *InventoryItemRepo) Create(ctx context.Context, it *entity.InventoryItem) error {
	query := `
		INSERT INTO inventory_items (` + itemColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(ctx, query,
		it.ID, string(it.ProductType), it.Subtype, it.Quantity,
		it.Origin.ProductionGroupID, it.Origin.BatchID, it.Origin.CageID,
		it.Origin.CreationDate, it.ExpirationDate, it.CreatedAt, it.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("lote %q ya existe: %w", it.ID, domain.ErrConflict)
		}
		return fmt.Errorf("create item: %w", err)
	}
	return nil
}

// GetByID obtiene un lote por id.
func (r *InventoryItemRepo) GetByID(ctx context.Context, id string) (*entity.InventoryItem, error) {
	return r.get(ctx, `SELECT `+itemColumns+` FROM inventory_items WHERE id = $1`, id)
}

// GetForUpdate obtiene el lote y bloquea la fila (SELECT FOR UPDATE).
func (r *InventoryItemRepo) GetForUpdate(ctx context.Context, id string) (*entity.InventoryItem, error) {
	return r.get(ctx, `SELECT `+itemColumns+` FROM inventory_items WHERE id = $1 FOR UPDATE`, id)
}

func (r *InventoryItemRepo) get(ctx context.Context, query, id string) (*entity.InventoryItem, error) {
	if !isUUID(id) {
		return nil, domain.NewNotFoundError("lote", id)
	}
	it, err := scanItem(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("lote", id)
		}
		return nil, fmt.Errorf("get item: %w", err)
	}
	return it, nil
}

// List lotes filtrados; con FIFO ordena por fecha de origen, si no por fecha de alta.
func (r *InventoryItemRepo) List(ctx context.Context, f entity.ItemFilter) ([]*entity.InventoryItem, error) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.ProductType != "" {
		add("product_type = $%d", string(f.ProductType))
	}
	if f.GroupID != "" {
		add("production_group_id = $%d", f.GroupID)
	}
	if f.Subtype != "" {
		add("subtype = $%d", f.Subtype)
	}
	switch f.Status {
	case entity.ItemStatusInStock:
		conds = append(conds, "quantity > 0")
	case entity.ItemStatusSoldOut:
		conds = append(conds, "quantity = 0")
	}

	query := `SELECT ` + itemColumns + ` FROM inventory_items`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	if f.FIFO {
		query += " ORDER BY origin_created_at ASC, id ASC"
	} else {
		query += " ORDER BY created_at ASC, id ASC"
	}
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return collectItems(rows)
}

// ListAvailableForUpdate bloquea en orden FIFO (origin_created_at, id) los lotes con saldo del tipo.
func (r *InventoryItemRepo) ListAvailableForUpdate(ctx context.Context, productType entity.ProductType) ([]*entity.InventoryItem, error) {
	query := `
		SELECT ` + itemColumns + `
		FROM inventory_items
		WHERE product_type = $1 AND quantity > 0
		ORDER BY origin_created_at ASC, id ASC
		FOR UPDATE`
	rows, err := r.q.Query(ctx, query, string(productType))
	if err != nil {
		return nil, fmt.Errorf("list available for update: %w", err)
	}
	return collectItems(rows)
}

// UpdateQuantity reemplaza el saldo cacheado (el CHECK quantity >= 0 de la tabla lo respalda).
func (r *InventoryItemRepo) UpdateQuantity(ctx context.Context, id string, quantity decimal.Decimal, at time.Time) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE inventory_items SET quantity = $2, updated_at = $3 WHERE id = $1`,
		id, quantity, at)
	if err != nil {
		return fmt.Errorf("update item quantity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFoundError("lote", id)
	}
	return nil
}

// Delete elimina el lote; sus movimientos deben borrarse antes (FK).
func (r *InventoryItemRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM inventory_items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFoundError("lote", id)
	}
	return nil
}
