package service

import (
	"context"
	"fmt"
	"math"

	"github.com/susatyo441/food-app/pkg/database"
	"github.com/susatyo441/food-app/pkg/model"
)

type Review interface {
	// Summary folds the donor's confirmed-reservation ratings into an
	// average and a per-rating histogram.
	Summary(ctx context.Context, donorID int) (ReviewSummary, error)
	// List returns the donor's reviewed reservations, optionally filtered
	// to a single rating (0 keeps all).
	List(ctx context.Context, donorID, rating int) ([]model.Reservation, error)
}

type ReviewSummary struct {
	Average float64     `json:"average"` // arithmetic mean rounded to one decimal
	Total   int         `json:"total"`
	Counts  map[int]int `json:"counts"` // rating value 1..5 -> count
}

type ReviewGeneric struct {
	Reservations database.ReservationRepository
}

func (rg *ReviewGeneric) Summary(ctx context.Context, donorID int) (ReviewSummary, error) {
	counts, err := rg.Reservations.ReviewCountsByRating(ctx, donorID)
	if err != nil {
		return ReviewSummary{}, fmt.Errorf("can't load review counts: %w", err)
	}

	s := ReviewSummary{Counts: make(map[int]int, 5)}

	sum := 0
	for rating := 1; rating <= 5; rating++ {
		c := counts[rating]
		s.Counts[rating] = c
		s.Total += c
		sum += rating * c
	}

	if s.Total > 0 {
		s.Average = math.Round(float64(sum)/float64(s.Total)*10) / 10
	}

	return s, nil
}

func (rg *ReviewGeneric) List(ctx context.Context, donorID, rating int) ([]model.Reservation, error) {
	return rg.Reservations.ReviewsByDonor(ctx, donorID, rating)
}
