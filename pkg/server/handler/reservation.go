package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/susatyo441/food-app/pkg/model"
	"github.com/susatyo441/food-app/pkg/service"
)

type reservationView struct {
	ID          int                     `json:"id"`
	PostID      int                     `json:"post_id"`
	PostTitle   string                  `json:"post_title"`
	DonorID     int                     `json:"user_donor_id"`
	RecipientID int                     `json:"user_recipient_id"`
	Items       []model.ReservationItem `json:"items"`
	Status      model.ReservationStatus `json:"status"`
	Review      *int                    `json:"review"`
	Comment     *string                 `json:"comment"`
	MaxPickupAt time.Time               `json:"max_pickup_at"`
	ConfirmedAt time.Time               `json:"confirmed_at"`
	PickedUpAt  *time.Time              `json:"picked_up_at"`
	Code        string                  `json:"code,omitempty"`
	CreatedAt   time.Time               `json:"created_at"`
}

func newReservationView(r model.Reservation, now time.Time) reservationView {
	v := reservationView{
		ID:          r.ID,
		PostID:      r.PostID,
		PostTitle:   r.PostTitle,
		DonorID:     r.DonorID,
		RecipientID: r.RecipientID,
		Items:       r.Items,
		Status:      r.StatusAt(now),
		MaxPickupAt: r.MaxPickupAt,
		ConfirmedAt: r.ConfirmedAt,
		Code:        r.Code,
		CreatedAt:   r.CreatedAt,
	}

	if r.Review.Valid {
		review := int(r.Review.Int64)
		v.Review = &review
	}
	if r.Comment.Valid {
		comment := r.Comment.String
		v.Comment = &comment
	}
	if r.PickedUpAt.Valid {
		pickedUp := r.PickedUpAt.Time
		v.PickedUpAt = &pickedUp
	}

	return v
}

func ReservationCreate(svc service.Reservation) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "only POST method allowed", http.StatusMethodNotAllowed)
			return
		}

		var req struct {
			PostID int                   `json:"post_id"`
			UserID int                   `json:"user_id"`
			Items  []service.ReserveItem `json:"items"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, fmt.Sprintf("can't decode request: %v", err), http.StatusBadRequest)
			return
		}

		res, err := svc.Reserve(r.Context(), req.PostID, req.UserID, req.Items)
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, newReservationView(res, time.Now()))
	}
}

func ReservationConfirm(svc service.Reservation) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "only POST method allowed", http.StatusMethodNotAllowed)
			return
		}

		var req struct {
			ReservationID int    `json:"reservation_id"`
			UserID        int    `json:"user_id"`
			Review        int    `json:"review"`
			Comment       string `json:"comment"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, fmt.Sprintf("can't decode request: %v", err), http.StatusBadRequest)
			return
		}

		res, err := svc.Confirm(r.Context(), req.ReservationID, req.UserID, req.Review, req.Comment)
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, newReservationView(res, time.Now()))
	}
}

func ReservationCancel(svc service.Reservation) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "only POST method allowed", http.StatusMethodNotAllowed)
			return
		}

		var req struct {
			ReservationID int `json:"reservation_id"`
			UserID        int `json:"user_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, fmt.Sprintf("can't decode request: %v", err), http.StatusBadRequest)
			return
		}

		if err := svc.Cancel(r.Context(), req.ReservationID, req.UserID); err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, map[string]string{"message": "reservation cancelled"})
	}
}

func ReservationList(svc service.Reservation) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "only GET method allowed", http.StatusMethodNotAllowed)
			return
		}

		userID, err := queryInt(r, "user_id")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		rs, err := svc.ListByUser(r.Context(), userID, r.URL.Query().Get("role"))
		if err != nil {
			writeError(w, err)
			return
		}

		now := time.Now()
		views := make([]reservationView, 0, len(rs))
		for _, res := range rs {
			views = append(views, newReservationView(res, now))
		}

		writeJSON(w, views)
	}
}

func ReservationAbandoned(svc service.Reservation) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "only GET method allowed", http.StatusMethodNotAllowed)
			return
		}

		limit := 0
		if r.URL.Query().Get("limit") != "" {
			var err error
			if limit, err = queryInt(r, "limit"); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
		}

		rs, err := svc.Abandoned(r.Context(), limit)
		if err != nil {
			writeError(w, err)
			return
		}

		now := time.Now()
		views := make([]reservationView, 0, len(rs))
		for _, res := range rs {
			views = append(views, newReservationView(res, now))
		}

		writeJSON(w, views)
	}
}

func QuotaGet(svc service.Reservation) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "only GET method allowed", http.StatusMethodNotAllowed)
			return
		}

		userID, err := queryInt(r, "user_id")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		q, err := svc.Quota(r.Context(), userID)
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, q)
	}
}
