package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/susatyo441/food-app/pkg/model"
)

type NotificationRepository interface {
	Add(context.Context, ...model.Notification) error
}

type NotificationDatabase struct {
	DB *sql.DB
}

func (nd *NotificationDatabase) Add(ctx context.Context, ns ...model.Notification) error {
	if len(ns) == 0 {
		return nil
	}

	q := buildNotificationInsert(len(ns))

	args := make([]any, 0, len(ns)*6)
	for _, n := range ns {
		var meta []byte
		if len(n.Meta) > 0 {
			var err error
			if meta, err = json.Marshal(n.Meta); err != nil {
				return fmt.Errorf("can't marshal notification meta: %w", err)
			}
		}

		args = append(args, n.UserID, n.Title, n.Body, n.ReservationID, meta, n.CreatedAt)
	}

	res, err := nd.DB.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("can't insert notifications: %w", err)
	}

	if affected, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("can't get affected rows: %w", err)
	} else if int(affected) != len(ns) {
		return fmt.Errorf("expected %d records to be inserted, got %d", len(ns), affected)
	}

	return nil
}

func buildNotificationInsert(rows int) string {
	sb := strings.Builder{}
	sb.WriteString("insert into notifications (user_id, title, body, reservation_id, metadata, created_at) values ")

	phs := make([]string, 0, rows)

	for i := 0; i < rows; i++ {
		phs = append(phs, fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d)", i*6+1, i*6+2, i*6+3, i*6+4, i*6+5, i*6+6))
	}

	sb.WriteString(strings.Join(phs, ","))
	return sb.String()
}
