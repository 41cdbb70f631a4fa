package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/susatyo441/food-app/pkg/model"
)

type ReservationLogging struct {
	Reservation
}

func (rl *ReservationLogging) Reserve(ctx context.Context, postID, recipientID int, items []ReserveItem) (res model.Reservation, err error) {
	defer func(t0 time.Time) {
		log := slog.With(
			slog.Int("post_id", postID),
			slog.Int("recipient_id", recipientID),
			slog.Int("items", len(items)),
			slog.String("delay", time.Since(t0).String()),
		)

		if err != nil {
			log.Error("failed to reserve", slog.Any("error", err))
		} else {
			log.Debug("reservation created", slog.Int("reservation_id", res.ID))
		}
	}(time.Now())

	return rl.Reservation.Reserve(ctx, postID, recipientID, items)
}

func (rl *ReservationLogging) Confirm(ctx context.Context, reservationID, recipientID, review int, comment string) (res model.Reservation, err error) {
	defer func(t0 time.Time) {
		log := slog.With(
			slog.Int("reservation_id", reservationID),
			slog.Int("recipient_id", recipientID),
			slog.Int("review", review),
			slog.String("delay", time.Since(t0).String()),
		)

		if err != nil {
			log.Error("failed to confirm pickup", slog.Any("error", err))
		} else {
			log.Debug("pickup confirmed")
		}
	}(time.Now())

	return rl.Reservation.Confirm(ctx, reservationID, recipientID, review, comment)
}

func (rl *ReservationLogging) Cancel(ctx context.Context, reservationID, recipientID int) (err error) {
	defer func(t0 time.Time) {
		log := slog.With(
			slog.Int("reservation_id", reservationID),
			slog.Int("recipient_id", recipientID),
			slog.String("delay", time.Since(t0).String()),
		)

		if err != nil {
			log.Error("failed to cancel reservation", slog.Any("error", err))
		} else {
			log.Debug("reservation cancelled")
		}
	}(time.Now())

	return rl.Reservation.Cancel(ctx, reservationID, recipientID)
}
