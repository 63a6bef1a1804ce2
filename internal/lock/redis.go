package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"medstock/m/domain"
	"medstock/m/internal/config"
)

const (
	redisLockTTL   = 30 * time.Second
	redisRetryWait = 50 * time.Millisecond
	redisRetries   = 40
)

// Redis shares locks between instances. Keys are prefixed with
// "medstock:lock:".
type Redis struct {
	locker *redislock.Client
	logger *logrus.Logger
}

func NewRedis(client redis.UniversalClient, logger *logrus.Logger) *Redis {
	return &Redis{locker: redislock.New(client), logger: logger}
}

func (r *Redis) Lock(ctx context.Context, keys ...string) (func(), error) {
	keys = sortedUnique(keys)
	held := make([]*redislock.Lock, 0, len(keys))
	releaseAll := func() {
		// Release must outlive a cancelled request context.
		rctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		for i := len(held) - 1; i >= 0; i-- {
			if err := held[i].Release(rctx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
				config.LogError(r.logger, "lock", "Redis.Lock", "release", held[i].Key(), err)
			}
		}
	}
	opts := &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(redisRetryWait), redisRetries),
	}
	for _, key := range keys {
		l, err := r.locker.Obtain(ctx, "medstock:lock:"+key, redisLockTTL, opts)
		if err != nil {
			releaseAll()
			err = obtainError(key, err)
			if !errors.Is(err, domain.ErrConcurrencyConflict) {
				config.LogError(r.logger, "lock", "Redis.Lock", "obtain", key, err)
			}
			return nil, err
		}
		held = append(held, l)
	}
	return releaseAll, nil
}

// obtainError maps a failed Obtain. Running out of retries means another
// instance holds the key; anything else is a Redis failure.
func obtainError(key string, err error) error {
	if errors.Is(err, redislock.ErrNotObtained) {
		return fmt.Errorf("lock %s: %w", key, domain.ErrConcurrencyConflict)
	}
	return &domain.StorageError{Op: "obtain lock " + key, Err: err}
}
