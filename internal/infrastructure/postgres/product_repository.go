package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/granja-api/internal/domain"
	"github.com/jhoicas/granja-api/internal/domain/entity"
	"github.com/jhoicas/granja-api/internal/domain/repository"
)

var _ repository.ProductCatalog = (*ProductRepo)(nil)

// ProductRepo catálogo de productos y fichas técnicas sobre PostgreSQL.
type ProductRepo struct {
	db Beginner
}

// NewProductRepository construye el adaptador. Pasar pool o tx.
func NewProductRepository(db Beginner) *ProductRepo {
	return &ProductRepo{db: db}
}

// GetByName busca por nombre sin distinguir mayúsculas e incluye la ficha técnica.
func (r *ProductRepo) GetByName(ctx context.Context, name string) (*entity.Product, error) {
	var p entity.Product
	err := r.db.QueryRow(ctx, `
		SELECT id, name, tracks_physical_stock, created_at, updated_at
		FROM products WHERE lower(name) = lower($1)`, name,
	).Scan(&p.ID, &p.Name, &p.TracksPhysicalStock, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("producto", name)
		}
		return nil, fmt.Errorf("get product: %w", err)
	}

	lines, err := r.bomLines(ctx, `WHERE product_id = $1`, p.ID)
	if err != nil {
		return nil, err
	}
	p.BillOfMaterials = lines[p.ID]
	return &p, nil
}

// List productos por nombre, con sus fichas técnicas.
func (r *ProductRepo) List(ctx context.Context) ([]*entity.Product, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, tracks_physical_stock, created_at, updated_at
		FROM products ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()
	list := []*entity.Product{}
	for rows.Next() {
		var p entity.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.TracksPhysicalStock, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		list = append(list, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	lines, err := r.bomLines(ctx, "")
	if err != nil {
		return nil, err
	}
	for _, p := range list {
		p.BillOfMaterials = lines[p.ID]
	}
	return list, nil
}

// Upsert crea o reemplaza el producto (por nombre) y su ficha técnica en una transacción.
func (r *ProductRepo) Upsert(ctx context.Context, p *entity.Product) error {
	if err := p.Validate(); err != nil {
		return domain.NewValidationError("product", err.Error())
	}
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	now := time.Now()

	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO products (id, name, tracks_physical_stock, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $4)
			ON CONFLICT (lower(name)) DO UPDATE
			SET name = EXCLUDED.name,
			    tracks_physical_stock = EXCLUDED.tracks_physical_stock,
			    updated_at = EXCLUDED.updated_at
			RETURNING id, created_at, updated_at`,
			p.ID, p.Name, p.TracksPhysicalStock, now,
		).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			return fmt.Errorf("upsert product: %w", err)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM product_bom_lines WHERE product_id = $1`, p.ID); err != nil {
			return fmt.Errorf("clear bom: %w", err)
		}
		for i, l := range p.BillOfMaterials {
			_, err := tx.Exec(ctx, `
				INSERT INTO product_bom_lines (product_id, position, raw_material_name, stock_type, quantity_per_unit)
				VALUES ($1, $2, $3, $4, $5)`,
				p.ID, i, l.RawMaterialName, string(l.StockType), l.QuantityPerUnit)
			if err != nil {
				return fmt.Errorf("insert bom line %d: %w", i+1, err)
			}
		}
		return nil
	})
}

// bomLines líneas de ficha técnica agrupadas por producto, en orden.
func (r *ProductRepo) bomLines(ctx context.Context, where string, args ...any) (map[string][]entity.BOMLine, error) {
	rows, err := r.db.Query(ctx, `
		SELECT product_id, raw_material_name, stock_type, quantity_per_unit
		FROM product_bom_lines `+where+`
		ORDER BY product_id, position`, args...)
	if err != nil {
		return nil, fmt.Errorf("list bom lines: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]entity.BOMLine)
	for rows.Next() {
		var (
			productID string
			stockType string
			l         entity.BOMLine
		)
		if err := rows.Scan(&productID, &l.RawMaterialName, &stockType, &l.QuantityPerUnit); err != nil {
			return nil, fmt.Errorf("scan bom line: %w", err)
		}
		l.StockType = entity.ProductType(stockType)
		out[productID] = append(out[productID], l)
	}
	return out, rows.Err()
}
