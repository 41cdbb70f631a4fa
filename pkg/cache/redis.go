package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

func NewRedis(addr, user, password string) (*redis.Client, func() error, error) {
	if !strings.Contains(addr, ":") {
		addr = addr + ":6379"
	}

	opts := &redis.Options{
		Addr:     addr,
		Username: user,
		Password: password,
	}

	r := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := r.Ping(ctx).Err(); err != nil {
		_ = r.Close()
		return nil, nil, fmt.Errorf("can't ping redis: %w", err)
	}

	return r, r.Close, nil
}
