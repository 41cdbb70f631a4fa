package model

import "database/sql"

type Notification struct {
	Base
	UserID        int               `json:"user_id"`
	Title         string            `json:"title"`
	Body          string            `json:"body"`
	ReservationID sql.NullInt64     `json:"reservation_id,omitempty"`
	IsRead        bool              `json:"is_read"`
	Meta          map[string]string `json:"meta,omitempty"`
}
