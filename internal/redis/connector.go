package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/pinmap/internal/logger"
	"github.com/MrSnakeDoc/pinmap/internal/utils"
)

// ErrDisabled is returned by New when no address is configured.
var ErrDisabled = errors.New("redis disabled: no address configured")

// ConnectOptions defines Redis connection and retry behavior.
type ConnectOptions struct {
	Addr         string        // Redis address (ex: "localhost:6379"), empty disables Redis
	User         string        // Optional username
	Password     string        // Optional password
	RedisDB      int           // Redis DB number
	DialTimeout  time.Duration // Redis dial timeout
	ReadTimeout  time.Duration // Redis read timeout
	WriteTimeout time.Duration // Redis write timeout
	PoolSize     int           // Redis connection pool size

	Retry utils.Backoff
}

// New creates a Redis client and waits until it answers PING.
// Returns ErrDisabled when opts.Addr is empty, so callers can run without a cache.
func New(ctx context.Context, opts ConnectOptions, log logger.Logger) (*redis.Client, error) {
	if opts.Addr == "" {
		return nil, ErrDisabled
	}

	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Username:     opts.User,
		Password:     opts.Password,
		DB:           opts.RedisDB,
		DialTimeout:  opts.DialTimeout,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
		PoolSize:     opts.PoolSize,
	})

	ping := func(ctx context.Context) error { return client.Ping(ctx).Err() }
	if err := utils.WaitFor(ctx, "redis", opts.Addr, opts.Retry, log, ping); err != nil {
		utils.Close(client)
		return nil, err
	}
	return client, nil
}
