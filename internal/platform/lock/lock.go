// Package lock serializes work per key across processes.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fatflowers/patron/pkg/config"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var ErrTimeout = errors.New("lock wait timed out")

// Locker acquires a named lock. The returned func releases it.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// Noop grants every lock immediately. Used when no Redis is configured.
type Noop struct{}

func (Noop) Lock(context.Context, string) (func(), error) { return func() {}, nil }

type redisClient interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

// releaseScript deletes the key only if this holder still owns it.
const releaseScript = `if redis.call("get", KEYS[1]) == ARGV[1] then return redis.call("del", KEYS[1]) else return 0 end`

type Redis struct {
	client redisClient
	ttl    time.Duration
	wait   time.Duration
	retry  time.Duration
	log    *zap.SugaredLogger
}

func NewRedis(client redisClient, ttl, wait time.Duration, log *zap.SugaredLogger) *Redis {
	return &Redis{client: client, ttl: ttl, wait: wait, retry: 50 * time.Millisecond, log: log}
}

func (r *Redis) Lock(ctx context.Context, key string) (func(), error) {
	key = "patron:lock:" + key
	token := uuid.NewString()
	deadline := time.Now().Add(r.wait)
	for {
		ok, err := r.client.SetNX(ctx, key, token, r.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire lock %s: %w", key, err)
		}
		if ok {
			break
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("%w: %s", ErrTimeout, key)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(r.retry):
		}
	}
	return func() {
		// The caller's ctx may already be cancelled.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := r.client.Eval(releaseCtx, releaseScript, []string{key}, token).Err(); err != nil {
			r.log.Warnw("lock_release_failed", "key", key, "error", err)
		}
	}, nil
}

func New(lc fx.Lifecycle, cfg *config.Config, log *zap.SugaredLogger) Locker {
	if cfg.Redis.Addr == "" {
		log.Infow("redis addr is empty; using in-process no-op locks")
		return Noop{}
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := client.Ping(ctx).Err(); err != nil {
				log.Warnw("redis ping failed", "addr", cfg.Redis.Addr, "error", err)
			}
			return nil
		},
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})
	return NewRedis(client, cfg.Redis.LockTTL, cfg.Redis.LockWait, log)
}

var Module = fx.Options(
	fx.Provide(New),
)
