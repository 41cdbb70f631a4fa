package model

import "time"

// DefaultExtendValidity is how long a purchased extend grant raises the
// daily quota. The grant window, not the pickup window.
const DefaultExtendValidity = 7 * 24 * time.Hour

type ExtendGrant struct {
	Base
	UserID    int       `json:"user_id"`
	Amount    int       `json:"amount"` // points spent on the grant
	ExpiredAt time.Time `json:"expired_at"`
}

func (g *ExtendGrant) ValidAt(now time.Time) bool {
	return g.ExpiredAt.After(now)
}
