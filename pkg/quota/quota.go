// Package quota computes a user's daily pickup allowance: a base number of
// pickups plus one per valid extend grant, minus the reservations already
// created today. It is purely derived state and is evaluated fresh on every
// call so concurrent reservations never see stale numbers.
package quota

import (
	"context"
	"fmt"
	"time"
)

// BaseQuota is the number of pickups a user gets per day without any
// extend grants.
const BaseQuota = 3

type ReservationCounter interface {
	CountCreatedBetween(ctx context.Context, recipientID int, from, to time.Time) (int, error)
}

type ExtendCounter interface {
	CountValid(ctx context.Context, userID int, now time.Time) (int, error)
}

type Quota struct {
	Max       int `json:"max"`
	Used      int `json:"used"`
	Remaining int `json:"remaining"` // may be zero or negative, both mean exhausted
}

// Exhausted reports whether the next reservation should be rejected.
func (q Quota) Exhausted() bool {
	return q.Remaining <= 0
}

type Calculator struct {
	Reservations ReservationCounter
	Extends      ExtendCounter

	Base     int            // defaults to BaseQuota when zero
	Location *time.Location // day boundary location, defaults to time.UTC
}

func (c *Calculator) Daily(ctx context.Context, userID int, now time.Time) (Quota, error) {
	valid, err := c.Extends.CountValid(ctx, userID, now)
	if err != nil {
		return Quota{}, fmt.Errorf("can't count valid extends: %w", err)
	}

	start, end := c.DayBounds(now)

	used, err := c.Reservations.CountCreatedBetween(ctx, userID, start, end)
	if err != nil {
		return Quota{}, fmt.Errorf("can't count today's reservations: %w", err)
	}

	max := c.base() + valid

	return Quota{Max: max, Used: used, Remaining: max - used}, nil
}

// DayBounds returns the [start, end) of the calendar day containing now in
// the calculator's location. The same bounds must be reused for any
// commit-time re-count so the check and the count can never disagree.
func (c *Calculator) DayBounds(now time.Time) (start, end time.Time) {
	local := now.In(c.location())
	y, m, d := local.Date()

	start = time.Date(y, m, d, 0, 0, 0, 0, c.location())
	return start, start.AddDate(0, 0, 1)
}

func (c *Calculator) base() int {
	if c.Base > 0 {
		return c.Base
	}
	return BaseQuota
}

func (c *Calculator) location() *time.Location {
	if c.Location != nil {
		return c.Location
	}
	return time.UTC
}
