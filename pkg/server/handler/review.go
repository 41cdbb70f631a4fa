package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/susatyo441/food-app/pkg/service"
)

func ReviewSummary(svc service.Review) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "only GET method allowed", http.StatusMethodNotAllowed)
			return
		}

		donorID, err := queryInt(r, "user_id")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		s, err := svc.Summary(r.Context(), donorID)
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, s)
	}
}

func ReviewList(svc service.Review) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "only GET method allowed", http.StatusMethodNotAllowed)
			return
		}

		donorID, err := queryInt(r, "user_id")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		rating := 0
		if r.URL.Query().Get("rating") != "" {
			if rating, err = queryInt(r, "rating"); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
		}

		rs, err := svc.List(r.Context(), donorID, rating)
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

func ExtendPurchase(svc service.Extend) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "only POST method allowed", http.StatusMethodNotAllowed)
			return
		}

		var req struct {
			UserID int `json:"user_id"`
			Amount int `json:"amount"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, fmt.Sprintf("can't decode request: %v", err), http.StatusBadRequest)
			return
		}

		grant, err := svc.Purchase(r.Context(), req.UserID, req.Amount)
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, grant)
	}
}
