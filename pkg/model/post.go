package model

import (
	"database/sql"
	"errors"
	"time"
)

const (
	PostStatusVisible = "visible"
	PostStatusHidden  = "hidden"
)

var (
	ErrPostNotFound      = errors.New("post not found")
	ErrOwnPost           = errors.New("cannot reserve your own post")
	ErrVariantNotInPost  = errors.New("variant does not belong to the post")
	ErrVariantExpired    = errors.New("variant has expired")
	ErrInsufficientStock = errors.New("requested quantity exceeds available stock")
)

type Post struct {
	Base
	UserID   int       `json:"user_id"`
	Title    string    `json:"title"`
	Body     string    `json:"body"` // address text + geocoordinate string
	Status   string    `json:"status"`
	Reported bool      `json:"-"`
	Variants []Variant `json:"variants,omitempty"`
}

// Reservable reports whether new reservations may be made against the post.
func (p *Post) Reservable() bool {
	return p.Status == PostStatusVisible && !p.Reported
}

// Variant returns the post's variant with the given id, or nil if the id
// belongs to another post.
func (p *Post) Variant(id int) *Variant {
	for i := range p.Variants {
		if p.Variants[i].ID == id {
			return &p.Variants[i]
		}
	}
	return nil
}

type Variant struct {
	Base
	PostID      int          `json:"post_id"`
	Name        string       `json:"name"`
	Stock       int          `json:"stock"`
	AvailableAt sql.NullTime `json:"-"`
	ExpiredAt   sql.NullTime `json:"-"`
}

func (v *Variant) Expired(now time.Time) bool {
	return v.ExpiredAt.Valid && v.ExpiredAt.Time.Before(now)
}
