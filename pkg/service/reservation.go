package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/susatyo441/food-app/pkg/database"
	"github.com/susatyo441/food-app/pkg/model"
	"github.com/susatyo441/food-app/pkg/quota"
)

var (
	ErrInvalidItems  = errors.New("item list is empty or contains non-positive quantities")
	ErrInvalidReview = errors.New("review must be between 1 and 5")
)

type ReserveItem struct {
	VariantID int `json:"variant_id"`
	Quantity  int `json:"quantity"`
}

type Reservation interface {
	Reserve(ctx context.Context, postID, recipientID int, items []ReserveItem) (model.Reservation, error)
	Confirm(ctx context.Context, reservationID, recipientID, review int, comment string) (model.Reservation, error)
	Cancel(ctx context.Context, reservationID, recipientID int) error
	Quota(ctx context.Context, userID int) (quota.Quota, error)
	ListByUser(ctx context.Context, userID int, role string) ([]model.Reservation, error)
	Abandoned(ctx context.Context, limit int) ([]model.Reservation, error)
}

// Notifier is fire-and-forget: implementations log their own failures and
// must never make the caller's operation fail.
type Notifier interface {
	Notify(ctx context.Context, userID int, title, body string, meta map[string]string)
}

// ReservationGeneric holds the reservation lifecycle core. Wrappers in
// reservation_*.go add limiting and logging around it.
type ReservationGeneric struct {
	Posts        database.PostRepository
	Reservations database.ReservationRepository
	Quotas       *quota.Calculator
	Notifier     Notifier

	PickupWindow time.Duration
	Clock        func() time.Time
}

// Reserve validates and creates a reservation against one or more variants
// of the post. Validation order is fixed: ongoing check, post lookup,
// ownership, then per item variant membership, expiry and stock, then the
// deadline, then quota. All checks run before any write; the atomic commit
// in the repository re-checks what concurrent requests could invalidate.
func (rg *ReservationGeneric) Reserve(ctx context.Context, postID, recipientID int, items []ReserveItem) (model.Reservation, error) {
	now := rg.now()

	if len(items) == 0 {
		return model.Reservation{}, ErrInvalidItems
	}
	for _, it := range items {
		if it.Quantity < 1 {
			return model.Reservation{}, fmt.Errorf("variant %d: %w", it.VariantID, ErrInvalidItems)
		}
	}

	ongoing, err := rg.Reservations.Ongoing(ctx, recipientID, now)
	if err != nil {
		return model.Reservation{}, fmt.Errorf("can't check ongoing reservation: %w", err)
	}
	if ongoing {
		return model.Reservation{}, model.ErrOngoingExists
	}

	post, err := rg.Posts.GetWithVariants(ctx, postID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return model.Reservation{}, model.ErrPostNotFound
		}
		return model.Reservation{}, fmt.Errorf("can't load post: %w", err)
	}
	if !post.Reservable() {
		return model.Reservation{}, model.ErrPostNotFound
	}

	if post.UserID == recipientID {
		return model.Reservation{}, model.ErrOwnPost
	}

	resolved := make([]model.Variant, 0, len(items))
	resItems := make([]model.ReservationItem, 0, len(items))

	for _, it := range items {
		v := post.Variant(it.VariantID)
		if v == nil {
			return model.Reservation{}, fmt.Errorf("variant %d: %w", it.VariantID, model.ErrVariantNotInPost)
		}
		if v.Expired(now) {
			return model.Reservation{}, fmt.Errorf("variant %d: %w", it.VariantID, model.ErrVariantExpired)
		}
		if it.Quantity > v.Stock {
			return model.Reservation{}, fmt.Errorf("variant %d: %w", it.VariantID, model.ErrInsufficientStock)
		}

		resolved = append(resolved, *v)
		resItems = append(resItems, model.ReservationItem{VariantID: v.ID, Name: v.Name, Quantity: it.Quantity})
	}

	deadline := model.PickupDeadline(now, rg.pickupWindow(), resolved)

	q, err := rg.Quotas.Daily(ctx, recipientID, now)
	if err != nil {
		return model.Reservation{}, fmt.Errorf("can't compute quota: %w", err)
	}
	if q.Exhausted() {
		return model.Reservation{}, model.ErrQuotaExceeded
	}

	res := model.Reservation{
		PostID:      post.ID,
		PostTitle:   post.Title,
		DonorID:     post.UserID,
		RecipientID: recipientID,
		Items:       resItems,
		MaxPickupAt: deadline,
		ConfirmedAt: now,
		Code:        model.NewPickupCode(),
	}

	dayStart, dayEnd := rg.Quotas.DayBounds(now)

	created, err := rg.Reservations.Create(ctx, res, q.Max, dayStart, dayEnd)
	if err != nil {
		return model.Reservation{}, err
	}
	created.PostTitle = post.Title

	// strictly after commit; a failed notification never rolls anything back
	rg.Notifier.Notify(ctx, post.UserID,
		"New recipient for your donation",
		fmt.Sprintf("A recipient will pick up %s: %s.", post.Title, created.ItemSummary()),
		map[string]string{
			"reservation_id": strconv.Itoa(created.ID),
			"pickup_code":    created.Code,
			"type":           "donation",
		},
	)

	return created, nil
}

// Confirm marks the reservation picked up, records the review and awards
// points: the review value to the donor, a flat amount to the recipient.
func (rg *ReservationGeneric) Confirm(ctx context.Context, reservationID, recipientID, review int, comment string) (model.Reservation, error) {
	now := rg.now()

	if review < 1 || review > 5 {
		return model.Reservation{}, ErrInvalidReview
	}

	res, err := rg.Reservations.Get(ctx, reservationID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return model.Reservation{}, model.ErrReservationNotFound
		}
		return model.Reservation{}, fmt.Errorf("can't load reservation: %w", err)
	}

	if res.PickedUpAt.Valid {
		return model.Reservation{}, model.ErrAlreadyPickedUp
	}
	if now.After(res.MaxPickupAt) {
		return model.Reservation{}, model.ErrPickupExpired
	}
	if res.RecipientID != recipientID {
		return model.Reservation{}, model.ErrNotRecipient
	}

	if err := rg.Reservations.Confirm(ctx, res, review, comment, now); err != nil {
		return model.Reservation{}, err
	}

	res.PickedUpAt = toNullTime(now)
	res.Review.Int64, res.Review.Valid = int64(review), true
	res.Comment.String, res.Comment.Valid = comment, true

	meta := map[string]string{
		"reservation_id": strconv.Itoa(res.ID),
		"type":           "donation",
	}

	rg.Notifier.Notify(ctx, res.DonorID,
		"Your donation has been picked up",
		fmt.Sprintf("%q has been picked up. Review: %d/5. You earned %d points.", res.PostTitle, review, review),
		meta,
	)
	rg.Notifier.Notify(ctx, res.RecipientID,
		"Pickup confirmed",
		fmt.Sprintf("You confirmed the pickup of %q and earned %d points.", res.PostTitle, model.RecipientConfirmPoints),
		meta,
	)

	return res, nil
}

// Cancel removes an ongoing reservation and returns the reserved stock to
// its variants. Free and unconditional while ongoing: no fee was charged
// at reservation time.
func (rg *ReservationGeneric) Cancel(ctx context.Context, reservationID, recipientID int) error {
	now := rg.now()

	res, err := rg.Reservations.Get(ctx, reservationID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return model.ErrReservationNotFound
		}
		return fmt.Errorf("can't load reservation: %w", err)
	}

	if res.RecipientID != recipientID {
		return model.ErrNotRecipient
	}
	if !res.OngoingAt(now) {
		return model.ErrNotOngoing
	}

	if err := rg.Reservations.Cancel(ctx, res, now); err != nil {
		return err
	}

	rg.Notifier.Notify(ctx, res.DonorID,
		"Reservation cancelled",
		fmt.Sprintf("The reservation for %q has been cancelled by the recipient.", res.PostTitle),
		map[string]string{
			"reservation_id": strconv.Itoa(res.ID),
			"type":           "donation",
		},
	)

	return nil
}

func (rg *ReservationGeneric) Quota(ctx context.Context, userID int) (quota.Quota, error) {
	return rg.Quotas.Daily(ctx, userID, rg.now())
}

func (rg *ReservationGeneric) ListByUser(ctx context.Context, userID int, role string) ([]model.Reservation, error) {
	return rg.Reservations.ListByUser(ctx, userID, role)
}

func (rg *ReservationGeneric) Abandoned(ctx context.Context, limit int) ([]model.Reservation, error) {
	if limit < 1 {
		limit = 100
	}
	return rg.Reservations.ExpiredUnreclaimed(ctx, rg.now(), limit)
}

func (rg *ReservationGeneric) now() time.Time {
	if rg.Clock != nil {
		return rg.Clock()
	}
	return time.Now()
}

func (rg *ReservationGeneric) pickupWindow() time.Duration {
	if rg.PickupWindow > 0 {
		return rg.PickupWindow
	}
	return model.DefaultPickupWindow
}

func toNullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: true}
}
