package server

import (
	"net/http"
	"time"

	"github.com/susatyo441/food-app/pkg/server/handler"
	"github.com/susatyo441/food-app/pkg/server/middleware"
	"github.com/susatyo441/food-app/pkg/service"
)

const (
	readTimeout  = 5 * time.Second
	writeTimeout = 5 * time.Second
)

func New(addr string, reservationSvc service.Reservation, reviewSvc service.Review, extendSvc service.Extend) (*http.Server, error) {
	mux := http.NewServeMux()

	mux.Handle("/reservations", handler.ReservationList(reservationSvc))
	mux.Handle("/reservations/create", handler.ReservationCreate(reservationSvc))
	mux.Handle("/reservations/confirm", handler.ReservationConfirm(reservationSvc))
	mux.Handle("/reservations/cancel", handler.ReservationCancel(reservationSvc))
	mux.Handle("/reservations/abandoned", handler.ReservationAbandoned(reservationSvc))
	mux.Handle("/quota", handler.QuotaGet(reservationSvc))
	mux.Handle("/reviews", handler.ReviewList(reviewSvc))
	mux.Handle("/reviews/summary", handler.ReviewSummary(reviewSvc))
	mux.Handle("/extends", handler.ExtendPurchase(extendSvc))

	chain := middleware.Chain{
		middleware.Log,
		middleware.Recovery,
	}

	return &http.Server{
		Addr:         addr,
		Handler:      chain.Then(mux),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}, nil
}
