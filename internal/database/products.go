package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const listProductsByOutlet = `
SELECT id, name, price, cost_price, category, is_active, outlet_id
FROM products
WHERE outlet_id = $1
ORDER BY category, name
`

// ListProductsByOutlet returns the full catalog for an outlet, active
// and inactive rows alike; callers filter for order entry.
func (q *Queries) ListProductsByOutlet(ctx context.Context, outletID string) ([]Product, error) {
	rows, err := q.db.Query(ctx, listProductsByOutlet, outletID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.CostPrice, &p.Category, &p.IsActive, &p.OutletID); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

const getProduct = `
SELECT id, name, price, cost_price, category, is_active, outlet_id
FROM products
WHERE id = $1 AND outlet_id = $2
`

type GetProductParams struct {
	ID       string
	OutletID string
}

func (q *Queries) GetProduct(ctx context.Context, arg GetProductParams) (Product, error) {
	row := q.db.QueryRow(ctx, getProduct, arg.ID, arg.OutletID)
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.Price, &p.CostPrice, &p.Category, &p.IsActive, &p.OutletID)
	return p, err
}

const createProduct = `
INSERT INTO products (id, name, price, cost_price, category, is_active, outlet_id)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, name, price, cost_price, category, is_active, outlet_id
`

type CreateProductParams struct {
	ID        string
	Name      string
	Price     pgtype.Numeric
	CostPrice pgtype.Numeric
	Category  string
	IsActive  bool
	OutletID  string
}

func (q *Queries) CreateProduct(ctx context.Context, arg CreateProductParams) (Product, error) {
	row := q.db.QueryRow(ctx, createProduct,
		arg.ID, arg.Name, arg.Price, arg.CostPrice, arg.Category, arg.IsActive, arg.OutletID)
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.Price, &p.CostPrice, &p.Category, &p.IsActive, &p.OutletID)
	return p, err
}

const updateProduct = `
UPDATE products
SET name = $1, price = $2, cost_price = $3, category = $4, is_active = $5
WHERE id = $6 AND outlet_id = $7
RETURNING id, name, price, cost_price, category, is_active, outlet_id
`

type UpdateProductParams struct {
	Name      string
	Price     pgtype.Numeric
	CostPrice pgtype.Numeric
	Category  string
	IsActive  bool
	ID        string
	OutletID  string
}

func (q *Queries) UpdateProduct(ctx context.Context, arg UpdateProductParams) (Product, error) {
	row := q.db.QueryRow(ctx, updateProduct,
		arg.Name, arg.Price, arg.CostPrice, arg.Category, arg.IsActive, arg.ID, arg.OutletID)
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.Price, &p.CostPrice, &p.Category, &p.IsActive, &p.OutletID)
	return p, err
}
