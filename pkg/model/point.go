package model

import (
	"errors"
	"time"
)

// RecipientConfirmPoints is the flat reward a recipient gets for
// confirming a pickup. The donor gets the review value instead.
const RecipientConfirmPoints = 2

var (
	ErrPointsNotFound     = errors.New("point balance not found")
	ErrInsufficientPoints = errors.New("insufficient points")
)

type PointBalance struct {
	UserID    int       `json:"user_id"`
	Points    int       `json:"points"`
	UpdatedAt time.Time `json:"updated_at"`
}
