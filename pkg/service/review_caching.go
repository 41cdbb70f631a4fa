package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const summaryKeyPrefix = "reviews:"

// ReviewCaching is a read-through cache in front of the review summary.
// The summary is pure read-side state, so serving it a little stale is
// fine; quota and reservation state are never cached. Redis errors fall
// back to the underlying service.
type ReviewCaching struct {
	Review

	Redis *redis.Client
	TTL   time.Duration
}

func (rc *ReviewCaching) Summary(ctx context.Context, donorID int) (ReviewSummary, error) {
	key := summaryCacheKey(donorID)

	val, err := rc.Redis.Get(ctx, key).Bytes()
	switch {
	case err == redis.Nil:
		// fall through to the slow path
	case err != nil:
		slog.Error("can't get review summary from redis", slog.Any("error", err))

	default:
		var s ReviewSummary
		if err := json.Unmarshal(val, &s); err != nil {
			slog.Error("can't parse cached review summary", slog.Any("error", err))
			break
		}

		return s, nil
	}

	s, err := rc.Review.Summary(ctx, donorID)
	if err != nil {
		return ReviewSummary{}, err
	}

	encoded, err := json.Marshal(s)
	if err != nil {
		slog.Error("can't encode review summary for cache", slog.Any("error", err))
		return s, nil
	}

	if err := rc.Redis.Set(ctx, key, encoded, rc.TTL).Err(); err != nil {
		slog.Error("can't set review summary in redis", slog.Any("error", err))
	}

	return s, nil
}

func summaryCacheKey(donorID int) string {
	return summaryKeyPrefix + strconv.Itoa(donorID)
}
