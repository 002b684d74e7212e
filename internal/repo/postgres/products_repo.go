package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/geocoder89/storehub/internal/domain/product"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// every product read joins the owner summary
const productSelect = `SELECT p.id, p.name, p.description, p.price::float8, p.stock, p.category, p.image_url,
	p.status, p.user_id, p.created_at, p.updated_at,
	u.id, u.first_name, u.last_name
	FROM products p
	JOIN users u ON u.id = p.user_id`

type ProductsRepo struct {
	pool *pgxpool.Pool
	obs  DBObserver
}

func NewProductsRepo(pool *pgxpool.Pool, obs DBObserver) *ProductsRepo {
	return &ProductsRepo{pool: pool, obs: observerOrNoop(obs)}
}

func productDest(p *product.Product) []any {
	return []any{
		&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.Category, &p.ImageURL,
		&p.Status, &p.UserID, &p.CreatedAt, &p.UpdatedAt,
		&p.Owner.ID, &p.Owner.FirstName, &p.Owner.LastName,
	}
}

func (r *ProductsRepo) Create(ctx context.Context, in product.NewProduct) (product.Product, error) {
	var id int64
	err := r.obs.ObserveDB("products.create", func() error {
		return r.pool.QueryRow(ctx,
			`INSERT INTO products (name, description, price, stock, category, image_url, status, user_id)
			VALUES ($1, $2, $3, $4, $5, $6, 'active', $7)
			RETURNING id`,
			in.Name, in.Description, in.Price, in.Stock, in.Category, in.ImageURL, in.UserID,
		).Scan(&id)
	})
	if err != nil {
		return product.Product{}, classify(err)
	}

	return r.GetByID(ctx, id, product.StatusActive)
}

// GetByID returns the product only when it is in the given status.
func (r *ProductsRepo) GetByID(ctx context.Context, id int64, status product.Status) (product.Product, error) {
	var p product.Product
	err := r.obs.ObserveDB("products.get_by_id", func() error {
		return r.pool.QueryRow(ctx, productSelect+` WHERE p.id = $1 AND p.status = $2`, id, string(status)).
			Scan(productDest(&p)...)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return product.Product{}, product.ErrNotFound
		}
		return product.Product{}, classify(err)
	}
	return p, nil
}

func (r *ProductsRepo) List(ctx context.Context, filter product.ListFilter) ([]product.Product, int, error) {
	status := filter.Status
	if status == "" {
		status = product.StatusActive
	}

	conds := []string{"p.status = $1"}
	args := []any{string(status)}
	argsPosition := 2

	if filter.Category != nil {
		conds = append(conds, fmt.Sprintf("p.category = $%d", argsPosition))
		args = append(args, *filter.Category)
		argsPosition++
	}

	if filter.Search != nil {
		conds = append(conds, fmt.Sprintf("p.name ILIKE $%d", argsPosition))
		args = append(args, "%"+escapeLike(*filter.Search)+"%")
		argsPosition++
	}

	where := " WHERE " + strings.Join(conds, " AND ")

	query := strings.Replace(productSelect, "u.last_name", "u.last_name, COUNT(*) OVER() AS total", 1) + where +
		fmt.Sprintf(" ORDER BY p.created_at DESC, p.id DESC LIMIT $%d OFFSET $%d", argsPosition, argsPosition+1)
	pageArgs := append(append([]any{}, args...), filter.Limit, filter.Offset)

	output := make([]product.Product, 0, filter.Limit)
	total := 0

	err := r.obs.ObserveDB("products.list", func() error {
		rows, err := r.pool.Query(ctx, query, pageArgs...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var p product.Product
			var t int
			if err := rows.Scan(append(productDest(&p), &t)...); err != nil {
				return err
			}
			total = t
			output = append(output, p)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, 0, classify(err)
	}

	if len(output) == 0 && filter.Offset > 0 {
		err = r.obs.ObserveDB("products.count", func() error {
			return r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM products p`+where, args...).Scan(&total)
		})
		if err != nil {
			return nil, 0, classify(err)
		}
	}

	return output, total, nil
}

func (r *ProductsRepo) Update(ctx context.Context, id int64, req product.UpdateRequest) (product.Product, error) {
	var sets []string
	args := []any{id}

	add := func(column string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if req.Name != nil {
		add("name", *req.Name)
	}
	if req.Description != nil {
		add("description", *req.Description)
	}
	if req.Price != nil {
		add("price", *req.Price)
	}
	if req.Stock != nil {
		add("stock", *req.Stock)
	}
	if req.Category != nil {
		add("category", *req.Category)
	}
	if req.ImageURL != nil {
		add("image_url", *req.ImageURL)
	}
	sets = append(sets, "updated_at = NOW()")

	var updated int64
	err := r.obs.ObserveDB("products.update", func() error {
		return r.pool.QueryRow(ctx,
			`UPDATE products SET `+strings.Join(sets, ", ")+` WHERE id = $1 AND status = 'active' RETURNING id`,
			args...,
		).Scan(&updated)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return product.Product{}, product.ErrNotFound
		}
		return product.Product{}, classify(err)
	}

	return r.GetByID(ctx, updated, product.StatusActive)
}

func (r *ProductsRepo) Deactivate(ctx context.Context, id int64) error {
	var affected int64
	err := r.obs.ObserveDB("products.deactivate", func() error {
		tag, err := r.pool.Exec(ctx,
			`UPDATE products SET status = 'deactivated', updated_at = NOW() WHERE id = $1 AND status = 'active'`, id)
		affected = tag.RowsAffected()
		return err
	})
	if err != nil {
		return classify(err)
	}

	// if no rows were changed it was missing or already gone
	if affected == 0 {
		return product.ErrNotFound
	}
	return nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
