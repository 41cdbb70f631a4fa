// Package notify delivers user-facing notifications on a best-effort
// basis: the notification row is the contract, push delivery is somebody
// else's problem. Failures are logged and swallowed so a notification can
// never roll back the state change it reports on.
package notify

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/susatyo441/food-app/pkg/model"
)

type Store interface {
	Add(context.Context, ...model.Notification) error
}

type Sender struct {
	Store Store

	Clock func() time.Time
}

// Notify persists a notification for the user. It intentionally returns
// nothing: callers fire and forget.
func (s *Sender) Notify(ctx context.Context, userID int, title, body string, meta map[string]string) {
	n := model.Notification{
		Base:   model.Base{CreatedAt: s.now()},
		UserID: userID,
		Title:  title,
		Body:   body,
		Meta:   meta,
	}

	if id, ok := meta["reservation_id"]; ok {
		if v, err := strconv.Atoi(id); err == nil {
			n.ReservationID.Int64 = int64(v)
			n.ReservationID.Valid = true
		}
	}

	if err := s.Store.Add(ctx, n); err != nil {
		slog.Error("can't store notification",
			slog.Int("user_id", userID),
			slog.String("title", title),
			slog.Any("error", err),
		)
		return
	}

	slog.Debug("notification stored",
		slog.Int("user_id", userID),
		slog.String("title", title),
	)
}

func (s *Sender) now() time.Time {
	if s.Clock != nil {
		return s.Clock()
	}
	return time.Now()
}
