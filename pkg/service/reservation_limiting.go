package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/susatyo441/food-app/pkg/model"
)

var ErrTooManyAttempts = errors.New("too many reserve attempts today")

// AttemptLimiter counts reserve attempts; limiter.Limiter is the redis
// implementation.
type AttemptLimiter interface {
	LimitExceeded(ctx context.Context, userID int) (bool, error)
	Increment(ctx context.Context, userID int) (int, error)
}

// ReservationLimiting is a wrapper over Reservation service which throttles
// how many reserve attempts a user can make per day.
//
// If failed to check limits, the behavior depends on FailOpen flag. If set,
// current request is allowed. Otherwise, an error will be returned.
type ReservationLimiting struct {
	Reservation

	Limiter  AttemptLimiter
	FailOpen bool
}

func (rl *ReservationLimiting) Reserve(ctx context.Context, postID, recipientID int, items []ReserveItem) (model.Reservation, error) {
	exceeded, err := rl.Limiter.LimitExceeded(ctx, recipientID)
	if err != nil {
		if !rl.FailOpen {
			return model.Reservation{}, fmt.Errorf("can't check if limit exceeded: %w", err)
		}

		slog.Error("can't check if limit exceeded", slog.Any("error", err))
	}

	if exceeded {
		return model.Reservation{}, ErrTooManyAttempts
	}

	// every attempt counts, failed ones included
	if _, err := rl.Limiter.Increment(ctx, recipientID); err != nil {
		slog.Error("can't increment user's attempts", slog.Any("error", err))
	}

	return rl.Reservation.Reserve(ctx, postID, recipientID, items)
}
