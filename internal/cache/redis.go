package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"idportal/internal/middleware"

	"github.com/redis/go-redis/v9"
)

const dialTimeout = 5 * time.Second

// Dial connects to Redis at target, which is either a redis:// URL or a bare
// host:port. The returned client counts failed commands in RedisErrors.
func Dial(ctx context.Context, target string) (*redis.Client, error) {
	opts, err := clientOptions(target)
	if err != nil {
		return nil, err
	}

	rdb := redis.NewClient(opts)
	rdb.AddHook(errorCounter{})

	ctx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis %s: %w", opts.Addr, err)
	}
	return rdb, nil
}

func clientOptions(target string) (*redis.Options, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return nil, errors.New("redis address is empty")
	}
	if !strings.Contains(target, "://") {
		return &redis.Options{Addr: target}, nil
	}
	opts, err := redis.ParseURL(target)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	return opts, nil
}

// errorCounter increments RedisErrors for every failed command. A miss
// (redis.Nil) is not a failure.
type errorCounter struct{}

func (errorCounter) DialHook(next redis.DialHook) redis.DialHook { return next }

func (errorCounter) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		err := next(ctx, cmd)
		countFailure(cmd.Name(), err)
		return err
	}
}

func (errorCounter) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		err := next(ctx, cmds)
		countFailure("pipeline", err)
		return err
	}
}

func countFailure(command string, err error) {
	if err == nil || errors.Is(err, redis.Nil) {
		return
	}
	middleware.RedisErrors.WithLabelValues(command).Inc()
}
