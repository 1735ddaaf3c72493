// Package cache opens the Redis client used for the token revocation list.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Options selects the Redis instance and logical database.
type Options struct {
	Addr     string
	Password string
	DB       int
}

// New opens a Redis client and verifies connectivity. Revocation checks
// fail closed, so an unreachable Redis must surface at startup rather than
// as a wall of 403s.
func New(ctx context.Context, opts Options) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("cache: ping %s: %w", opts.Addr, err)
	}

	return client, nil
}
