package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/susatyo441/food-app/pkg/model"
)

// lockClassReservation namespaces the advisory locks taken per recipient
// so they can't collide with other lock users on the same database.
const lockClassReservation = 441

type ReservationRepository interface {
	// Create persists the reservation and decrements the targeted variant
	// stocks as one atomic unit. The ongoing and quota checks are repeated
	// inside the transaction, serialized per recipient, so two concurrent
	// attempts by the same user can't both slip through.
	Create(ctx context.Context, res model.Reservation, maxPerDay int, dayStart, dayEnd time.Time) (model.Reservation, error)
	Get(ctx context.Context, id int) (model.Reservation, error)
	// Ongoing reports whether the recipient has a reservation that is
	// neither picked up nor past its deadline.
	Ongoing(ctx context.Context, recipientID int, now time.Time) (bool, error)
	CountCreatedBetween(ctx context.Context, recipientID int, from, to time.Time) (int, error)
	// Confirm marks the reservation picked up and awards points to both
	// parties in the same transaction.
	Confirm(ctx context.Context, res model.Reservation, review int, comment string, now time.Time) error
	// Cancel deletes the reservation and restores the reserved stock in
	// the same transaction.
	Cancel(ctx context.Context, res model.Reservation, now time.Time) error
	ListByUser(ctx context.Context, userID int, role string) ([]model.Reservation, error)
	// ReviewsByDonor lists confirmed reservations carrying a review for
	// the donor; rating 0 means all ratings.
	ReviewsByDonor(ctx context.Context, donorID, rating int) ([]model.Reservation, error)
	ReviewCountsByRating(ctx context.Context, donorID int) (map[int]int, error)
	// ExpiredUnreclaimed lists reservations whose deadline passed without
	// pickup or cancellation. Their stock stays decremented; this is an
	// audit surface, nothing mutates it automatically.
	ExpiredUnreclaimed(ctx context.Context, now time.Time, limit int) ([]model.Reservation, error)
}

type ReservationDatabase struct {
	DB *sql.DB
}

func (rd *ReservationDatabase) Create(ctx context.Context, res model.Reservation, maxPerDay int, dayStart, dayEnd time.Time) (model.Reservation, error) {
	created := res
	created.CreatedAt = res.ConfirmedAt

	err := WithTx(ctx, rd.DB, func(tx *sql.Tx) error {
		// serialize check-and-insert per recipient
		if _, err := tx.ExecContext(ctx, `select pg_advisory_xact_lock($1, $2)`, lockClassReservation, res.RecipientID); err != nil {
			return fmt.Errorf("can't lock recipient: %w", err)
		}

		ongoing, err := ongoingExists(ctx, tx, res.RecipientID, res.ConfirmedAt)
		if err != nil {
			return err
		}
		if ongoing {
			return model.ErrOngoingExists
		}

		used, err := countCreatedBetween(ctx, tx, res.RecipientID, dayStart, dayEnd)
		if err != nil {
			return err
		}
		if used >= maxPerDay {
			return model.ErrQuotaExceeded
		}

		const insert = `
			insert into transactions (post_id, user_donor_id, user_recipient_id, max_pickup_at, confirmed_at, code, created_at)
			values ($1, $2, $3, $4, $5, $6, $7)
			returning id
		`

		err = tx.QueryRowContext(ctx, insert,
			res.PostID, res.DonorID, res.RecipientID,
			res.MaxPickupAt, res.ConfirmedAt, res.Code, created.CreatedAt,
		).Scan(&created.ID)
		if err != nil {
			return fmt.Errorf("can't insert reservation: %w", err)
		}

		const insertItem = `
			insert into transaction_items (transaction_id, variant_id, name, quantity)
			values ($1, $2, $3, $4)
		`

		for _, it := range res.Items {
			if _, err := tx.ExecContext(ctx, insertItem, created.ID, it.VariantID, it.Name, it.Quantity); err != nil {
				return fmt.Errorf("can't insert reservation item: %w", err)
			}

			ok, err := adjustStock(ctx, tx, it.VariantID, -it.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				// lost a stock race; roll the whole reservation back
				return fmt.Errorf("variant %d: %w", it.VariantID, model.ErrInsufficientStock)
			}
		}

		return nil
	})
	if err != nil {
		return model.Reservation{}, err
	}

	return created, nil
}

func (rd *ReservationDatabase) Get(ctx context.Context, id int) (model.Reservation, error) {
	const q = `
		select t.id, t.post_id, p.title, t.user_donor_id, t.user_recipient_id,
		       t.review, t.comment, t.max_pickup_at, t.confirmed_at, t.picked_up_at, t.code, t.created_at
		from transactions t
		join posts p on p.id = t.post_id
		where t.id = $1
	`

	var r model.Reservation
	err := rd.DB.QueryRowContext(ctx, q, id).Scan(
		&r.ID, &r.PostID, &r.PostTitle, &r.DonorID, &r.RecipientID,
		&r.Review, &r.Comment, &r.MaxPickupAt, &r.ConfirmedAt, &r.PickedUpAt, &r.Code, &r.CreatedAt,
	)
	if err != nil {
		return model.Reservation{}, fmt.Errorf("can't query reservation: %w", mapError(err))
	}

	if r.Items, err = rd.items(ctx, r.ID); err != nil {
		return model.Reservation{}, err
	}

	return r, nil
}

func (rd *ReservationDatabase) Ongoing(ctx context.Context, recipientID int, now time.Time) (bool, error) {
	return ongoingExists(ctx, rd.DB, recipientID, now)
}

func (rd *ReservationDatabase) CountCreatedBetween(ctx context.Context, recipientID int, from, to time.Time) (int, error) {
	return countCreatedBetween(ctx, rd.DB, recipientID, from, to)
}

func (rd *ReservationDatabase) Confirm(ctx context.Context, res model.Reservation, review int, comment string, now time.Time) error {
	return WithTx(ctx, rd.DB, func(tx *sql.Tx) error {
		const q = `
			update transactions
			set picked_up_at = $1, review = $2, comment = $3
			where id = $4
			  and picked_up_at is null
			  and max_pickup_at > $1
		`

		result, err := tx.ExecContext(ctx, q, now, review, comment, res.ID)
		if err != nil {
			return fmt.Errorf("can't update reservation: %w", err)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("can't get affected rows: %w", err)
		}
		if affected != 1 {
			return rd.classifyGuardMiss(ctx, tx, res.ID, now)
		}

		if err := addPoints(ctx, tx, res.DonorID, review); err != nil {
			return fmt.Errorf("can't award donor points: %w", err)
		}
		if err := addPoints(ctx, tx, res.RecipientID, model.RecipientConfirmPoints); err != nil {
			return fmt.Errorf("can't award recipient points: %w", err)
		}

		return nil
	})
}

func (rd *ReservationDatabase) Cancel(ctx context.Context, res model.Reservation, now time.Time) error {
	return WithTx(ctx, rd.DB, func(tx *sql.Tx) error {
		// the guard re-checks ongoing under the transaction; transaction_items
		// go away via the FK cascade
		const q = `
			delete from transactions
			where id = $1
			  and picked_up_at is null
			  and max_pickup_at > $2
		`

		result, err := tx.ExecContext(ctx, q, res.ID, now)
		if err != nil {
			return fmt.Errorf("can't delete reservation: %w", err)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("can't get affected rows: %w", err)
		}
		if affected != 1 {
			return model.ErrNotOngoing
		}

		for _, it := range res.Items {
			// tolerate variants deleted since the reservation was made
			if _, err := adjustStock(ctx, tx, it.VariantID, it.Quantity); err != nil {
				return err
			}
		}

		return nil
	})
}

func (rd *ReservationDatabase) ListByUser(ctx context.Context, userID int, role string) ([]model.Reservation, error) {
	q := `
		select t.id, t.post_id, p.title, t.user_donor_id, t.user_recipient_id,
		       t.review, t.comment, t.max_pickup_at, t.confirmed_at, t.picked_up_at, t.code, t.created_at
		from transactions t
		join posts p on p.id = t.post_id
		where %s
		order by t.created_at desc
	`

	switch role {
	case "donor":
		q = fmt.Sprintf(q, "t.user_donor_id = $1")
	case "recipient":
		q = fmt.Sprintf(q, "t.user_recipient_id = $1")
	default:
		q = fmt.Sprintf(q, "(t.user_donor_id = $1 or t.user_recipient_id = $1)")
	}

	return rd.queryReservations(ctx, q, userID)
}

func (rd *ReservationDatabase) ReviewsByDonor(ctx context.Context, donorID, rating int) ([]model.Reservation, error) {
	const q = `
		select t.id, t.post_id, p.title, t.user_donor_id, t.user_recipient_id,
		       t.review, t.comment, t.max_pickup_at, t.confirmed_at, t.picked_up_at, t.code, t.created_at
		from transactions t
		join posts p on p.id = t.post_id
		where t.user_donor_id = $1
		  and t.review is not null
		  and ($2 = 0 or t.review = $2)
		order by t.created_at desc
	`

	return rd.queryReservations(ctx, q, donorID, rating)
}

func (rd *ReservationDatabase) ReviewCountsByRating(ctx context.Context, donorID int) (map[int]int, error) {
	const q = `
		select review, count(*)
		from transactions
		where user_donor_id = $1
		  and review is not null
		group by review
	`

	rows, err := rd.DB.QueryContext(ctx, q, donorID)
	if err != nil {
		return nil, fmt.Errorf("can't query review counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[int]int, 5)
	for rows.Next() {
		var rating, count int
		if err := rows.Scan(&rating, &count); err != nil {
			return nil, fmt.Errorf("can't scan review count: %w", err)
		}

		counts[rating] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over review counts: %w", err)
	}

	return counts, nil
}

func (rd *ReservationDatabase) ExpiredUnreclaimed(ctx context.Context, now time.Time, limit int) ([]model.Reservation, error) {
	const q = `
		select t.id, t.post_id, p.title, t.user_donor_id, t.user_recipient_id,
		       t.review, t.comment, t.max_pickup_at, t.confirmed_at, t.picked_up_at, t.code, t.created_at
		from transactions t
		join posts p on p.id = t.post_id
		where t.picked_up_at is null
		  and t.max_pickup_at <= $1
		order by t.max_pickup_at
		limit $2
	`

	return rd.queryReservations(ctx, q, now, limit)
}

func (rd *ReservationDatabase) queryReservations(ctx context.Context, q string, args ...any) ([]model.Reservation, error) {
	rows, err := rd.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("can't query reservations: %w", err)
	}
	defer rows.Close()

	var rs []model.Reservation
	for rows.Next() {
		var r model.Reservation
		err := rows.Scan(
			&r.ID, &r.PostID, &r.PostTitle, &r.DonorID, &r.RecipientID,
			&r.Review, &r.Comment, &r.MaxPickupAt, &r.ConfirmedAt, &r.PickedUpAt, &r.Code, &r.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("can't scan reservation: %w", err)
		}

		rs = append(rs, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over reservations: %w", err)
	}

	for i := range rs {
		if rs[i].Items, err = rd.items(ctx, rs[i].ID); err != nil {
			return nil, err
		}
	}

	return rs, nil
}

func (rd *ReservationDatabase) items(ctx context.Context, reservationID int) ([]model.ReservationItem, error) {
	const q = `
		select variant_id, name, quantity
		from transaction_items
		where transaction_id = $1
		order by id
	`

	rows, err := rd.DB.QueryContext(ctx, q, reservationID)
	if err != nil {
		return nil, fmt.Errorf("can't query reservation items: %w", err)
	}
	defer rows.Close()

	var items []model.ReservationItem
	for rows.Next() {
		var it model.ReservationItem
		if err := rows.Scan(&it.VariantID, &it.Name, &it.Quantity); err != nil {
			return nil, fmt.Errorf("can't scan reservation item: %w", err)
		}

		items = append(items, it)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over reservation items: %w", err)
	}

	return items, nil
}

// classifyGuardMiss re-reads the row to tell why the guarded confirm update
// matched nothing.
func (rd *ReservationDatabase) classifyGuardMiss(ctx context.Context, q querier, id int, now time.Time) error {
	const query = `
		select picked_up_at, max_pickup_at
		from transactions
		where id = $1
	`

	var (
		pickedUp sql.NullTime
		deadline time.Time
	)
	if err := q.QueryRowContext(ctx, query, id).Scan(&pickedUp, &deadline); err != nil {
		return fmt.Errorf("can't re-read reservation: %w", mapError(err))
	}

	if pickedUp.Valid {
		return model.ErrAlreadyPickedUp
	}
	if !deadline.After(now) {
		return model.ErrPickupExpired
	}

	return model.ErrNotOngoing
}

func ongoingExists(ctx context.Context, q querier, recipientID int, now time.Time) (bool, error) {
	const query = `
		select exists (
			select 1
			from transactions
			where user_recipient_id = $1
			  and picked_up_at is null
			  and max_pickup_at > $2
		)
	`

	var exists bool
	if err := q.QueryRowContext(ctx, query, recipientID, now).Scan(&exists); err != nil {
		return false, fmt.Errorf("can't check ongoing reservation: %w", err)
	}

	return exists, nil
}

func countCreatedBetween(ctx context.Context, q querier, recipientID int, from, to time.Time) (int, error) {
	const query = `
		select count(*)
		from transactions
		where user_recipient_id = $1
		  and created_at >= $2
		  and created_at < $3
	`

	var count int
	if err := q.QueryRowContext(ctx, query, recipientID, from, to).Scan(&count); err != nil {
		return 0, fmt.Errorf("can't count reservations: %w", err)
	}

	return count, nil
}
