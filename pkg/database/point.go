package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/susatyo441/food-app/pkg/model"
)

type PointRepository interface {
	Get(ctx context.Context, userID int) (model.PointBalance, error)
	// Add changes the balance by delta, rejecting with
	// model.ErrInsufficientPoints if it would go negative.
	Add(ctx context.Context, userID, delta int) (model.PointBalance, error)
}

type PointDatabase struct {
	DB *sql.DB
}

func (pd *PointDatabase) Get(ctx context.Context, userID int) (model.PointBalance, error) {
	const q = `
		select user_id, points, updated_at
		from points
		where user_id = $1
	`

	var b model.PointBalance
	if err := pd.DB.QueryRowContext(ctx, q, userID).Scan(&b.UserID, &b.Points, &b.UpdatedAt); err != nil {
		if mapError(err) == ErrNotFound {
			return model.PointBalance{}, model.ErrPointsNotFound
		}
		return model.PointBalance{}, fmt.Errorf("can't query points: %w", err)
	}

	return b, nil
}

func (pd *PointDatabase) Add(ctx context.Context, userID, delta int) (model.PointBalance, error) {
	if err := addPoints(ctx, pd.DB, userID, delta); err != nil {
		return model.PointBalance{}, err
	}

	return pd.Get(ctx, userID)
}

// addPoints is the atomic balance adjustment with the floor check in the
// WHERE clause. A zero-row update is disambiguated by re-reading: missing
// row vs a debit that would go negative.
func addPoints(ctx context.Context, q querier, userID, delta int) error {
	const query = `
		update points
		set points = points + $1, updated_at = now()
		where user_id = $2
		  and points + $1 >= 0
	`

	res, err := q.ExecContext(ctx, query, delta, userID)
	if err != nil {
		return fmt.Errorf("can't update points: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("can't get affected rows: %w", err)
	}
	if affected == 1 {
		return nil
	}

	var exists bool
	if err := q.QueryRowContext(ctx, `select exists (select 1 from points where user_id = $1)`, userID).Scan(&exists); err != nil {
		return fmt.Errorf("can't check point balance: %w", err)
	}

	if exists {
		return model.ErrInsufficientPoints
	}
	return model.ErrPointsNotFound
}
