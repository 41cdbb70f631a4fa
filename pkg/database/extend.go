package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/susatyo441/food-app/pkg/model"
)

type ExtendRepository interface {
	// CountValid counts grants that still raise the user's quota,
	// i.e. those with expired_at > now.
	CountValid(ctx context.Context, userID int, now time.Time) (int, error)
	// Purchase debits the grant's cost from the user's point balance and
	// inserts the grant in one transaction.
	Purchase(ctx context.Context, grant model.ExtendGrant) (model.ExtendGrant, error)
}

type ExtendDatabase struct {
	DB *sql.DB
}

func (ed *ExtendDatabase) CountValid(ctx context.Context, userID int, now time.Time) (int, error) {
	const q = `
		select count(*)
		from extends
		where user_id = $1
		  and expired_at > $2
	`

	var count int
	if err := ed.DB.QueryRowContext(ctx, q, userID, now).Scan(&count); err != nil {
		return 0, fmt.Errorf("can't count extends: %w", err)
	}

	return count, nil
}

func (ed *ExtendDatabase) Purchase(ctx context.Context, grant model.ExtendGrant) (model.ExtendGrant, error) {
	created := grant

	err := WithTx(ctx, ed.DB, func(tx *sql.Tx) error {
		if err := addPoints(ctx, tx, grant.UserID, -grant.Amount); err != nil {
			return err
		}

		const insert = `
			insert into extends (user_id, amount, expired_at, created_at)
			values ($1, $2, $3, $4)
			returning id
		`

		err := tx.QueryRowContext(ctx, insert, grant.UserID, grant.Amount, grant.ExpiredAt, grant.CreatedAt).
			Scan(&created.ID)
		if err != nil {
			return fmt.Errorf("can't insert extend: %w", err)
		}

		return nil
	})
	if err != nil {
		return model.ExtendGrant{}, err
	}

	return created, nil
}
