package limiter

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "limiter:"

const redisTimeout = 300 * time.Millisecond

// Limiter counts reserve attempts per user per calendar day. The day is
// computed in Location so it rolls over together with the quota day.
type Limiter struct {
	Redis    *redis.Client
	Limit    int
	Location *time.Location
}

func (l *Limiter) Increment(ctx context.Context, userID int) (int, error) {
	key := l.userCounterKey(userID)

	var cancel context.CancelFunc
	ctx, cancel = context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	val, err := l.Redis.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("can't increment user's counter: %w", err)
	}

	if val == 1 {
		if err := l.Redis.Expire(ctx, key, 24*time.Hour).Err(); err != nil {
			return 0, fmt.Errorf("can't set counter expiration: %w", err)
		}
	}

	return int(val), nil
}

func (l *Limiter) LimitExceeded(ctx context.Context, userID int) (bool, error) {
	var cancel context.CancelFunc
	ctx, cancel = context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	c, err := l.Redis.Get(ctx, l.userCounterKey(userID)).Int()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}

		return false, err
	}

	return c >= l.Limit, nil
}

// userCounterKey builds the key holding the user's attempt count for the
// current day: user id concatenated to the local date.
func (l *Limiter) userCounterKey(userID int) string {
	loc := l.Location
	if loc == nil {
		loc = time.UTC
	}

	day := time.Now().In(loc).Format(time.DateOnly)
	return cacheKeyPrefix + strconv.Itoa(userID) + ":" + day
}
