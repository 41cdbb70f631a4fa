package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/susatyo441/food-app/pkg/model"
)

type PostRepository interface {
	// GetWithVariants loads the post together with all its variants.
	// Visibility/report checks are left to the caller.
	GetWithVariants(ctx context.Context, id int) (model.Post, error)
	// AdjustStock changes a variant's stock by delta with a floor-at-zero
	// guarantee. Returns model.ErrInsufficientStock if the adjustment
	// would drive the stock negative.
	AdjustStock(ctx context.Context, variantID, delta int) error
}

type PostDatabase struct {
	DB *sql.DB
}

func (pd *PostDatabase) GetWithVariants(ctx context.Context, id int) (model.Post, error) {
	q := `
		select id, user_id, title, body, status, is_reported, created_at
		from posts
		where id = $1
	`

	var p model.Post
	err := pd.DB.QueryRowContext(ctx, q, id).
		Scan(&p.ID, &p.UserID, &p.Title, &p.Body, &p.Status, &p.Reported, &p.CreatedAt)
	if err != nil {
		return model.Post{}, fmt.Errorf("can't query post: %w", mapError(err))
	}

	q = `
		select id, post_id, name, stock, available_at, expired_at, created_at
		from variants
		where post_id = $1
		order by id
	`

	rows, err := pd.DB.QueryContext(ctx, q, id)
	if err != nil {
		return model.Post{}, fmt.Errorf("can't query variants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var v model.Variant
		if err := rows.Scan(&v.ID, &v.PostID, &v.Name, &v.Stock, &v.AvailableAt, &v.ExpiredAt, &v.CreatedAt); err != nil {
			return model.Post{}, fmt.Errorf("can't scan variant: %w", err)
		}

		p.Variants = append(p.Variants, v)
	}

	if err := rows.Err(); err != nil {
		return model.Post{}, fmt.Errorf("error iterating over variants: %w", err)
	}

	return p, nil
}

func (pd *PostDatabase) AdjustStock(ctx context.Context, variantID, delta int) error {
	ok, err := adjustStock(ctx, pd.DB, variantID, delta)
	if err != nil {
		return err
	}
	if !ok {
		return model.ErrInsufficientStock
	}
	return nil
}

// adjustStock is the atomic read-modify-write on a variant's stock. The
// floor check lives in the WHERE clause so concurrent decrements can never
// oversell: the losing update simply affects zero rows.
func adjustStock(ctx context.Context, q querier, variantID, delta int) (bool, error) {
	const query = `
		update variants
		set stock = stock + $1
		where id = $2
		  and stock + $1 >= 0
	`

	res, err := q.ExecContext(ctx, query, delta, variantID)
	if err != nil {
		return false, fmt.Errorf("can't update variant stock: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("can't get affected rows: %w", err)
	}

	return affected == 1, nil
}
