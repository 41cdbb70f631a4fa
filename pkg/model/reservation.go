package model

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	// DefaultPickupWindow is how long the recipient has to pick up the
	// donation, counted from the moment the reservation is created. A
	// variant expiring sooner tightens the deadline.
	DefaultPickupWindow = 2 * time.Hour

	PickupCodeLen = 8
)

var (
	ErrReservationNotFound = errors.New("reservation not found")
	ErrOngoingExists       = errors.New("user already has an ongoing reservation")
	ErrQuotaExceeded       = errors.New("daily pickup quota reached")
	ErrAlreadyPickedUp     = errors.New("reservation has already been picked up")
	ErrPickupExpired       = errors.New("pickup deadline has passed")
	ErrNotOngoing          = errors.New("reservation is not ongoing")
	ErrNotRecipient        = errors.New("only the recipient can perform this action")
)

type ReservationStatus string

const (
	StatusOngoing  ReservationStatus = "ongoing"
	StatusPickedUp ReservationStatus = "picked_up"
	StatusExpired  ReservationStatus = "expired"
)

// Completed reports whether the status is terminal for quota and
// single-ongoing checks. Expired reservations are completed by inaction:
// nothing in the system transitions them, the classification is derived
// on read.
func (s ReservationStatus) Completed() bool {
	return s != StatusOngoing
}

type ReservationItem struct {
	VariantID int    `json:"variant_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
}

type Reservation struct {
	Base
	PostID      int               `json:"post_id"`
	PostTitle   string            `json:"post_title,omitempty"`
	DonorID     int               `json:"user_donor_id"`
	RecipientID int               `json:"user_recipient_id"`
	Items       []ReservationItem `json:"items"`
	Review      sql.NullInt64     `json:"-"`
	Comment     sql.NullString    `json:"-"`
	MaxPickupAt time.Time         `json:"max_pickup_at"`
	ConfirmedAt time.Time         `json:"confirmed_at"`
	PickedUpAt  sql.NullTime      `json:"-"`
	Code        string            `json:"code,omitempty"`
}

// StatusAt derives the reservation state from the two timestamp fields so
// the picked_up_at/max_pickup_at check is not scattered across callers.
func (r *Reservation) StatusAt(now time.Time) ReservationStatus {
	switch {
	case r.PickedUpAt.Valid:
		return StatusPickedUp
	case now.After(r.MaxPickupAt):
		return StatusExpired
	default:
		return StatusOngoing
	}
}

func (r *Reservation) OngoingAt(now time.Time) bool {
	return r.StatusAt(now) == StatusOngoing
}

// ItemSummary renders the reserved breakdown as "Name - qty, Name - qty"
// for donor-facing notifications.
func (r *Reservation) ItemSummary() string {
	parts := make([]string, 0, len(r.Items))
	for _, it := range r.Items {
		parts = append(parts, fmt.Sprintf("%s - %d", it.Name, it.Quantity))
	}
	return strings.Join(parts, ", ")
}

// PickupDeadline computes the reservation deadline: for each variant the
// candidate is its expiry if that comes before now+window, else now+window;
// the earliest candidate wins.
func PickupDeadline(now time.Time, window time.Duration, variants []Variant) time.Time {
	deadline := now.Add(window)
	for _, v := range variants {
		if v.ExpiredAt.Valid && v.ExpiredAt.Time.Before(deadline) {
			deadline = v.ExpiredAt.Time
		}
	}
	return deadline
}

// NewPickupCode generates the code the recipient presents at handoff.
func NewPickupCode() string {
	return randAlphaNum(PickupCodeLen)
}
