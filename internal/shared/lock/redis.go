package lock

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jirafa27/DocumentSearcher/internal/shared/apperr"
	"github.com/jirafa27/DocumentSearcher/internal/shared/telemetry"
)

const (
	defaultRedisTTL   = 2 * time.Minute
	defaultRedisRetry = 50 * time.Millisecond
	redisReleaseWait  = 3 * time.Second
)

// Only the holder of the token may release or extend.
var (
	releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

	extendScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0`)
)

// Redis is a lock shared by every instance pointed at the same server. A
// held lock is refreshed until released, so the TTL only matters when the
// holder dies.
type Redis struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
	retry  time.Duration
}

// NewRedis builds a Redis locker. A non-positive ttl uses the default.
func NewRedis(client redis.UniversalClient, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = defaultRedisTTL
	}
	return &Redis{client: client, prefix: "docsearch:lock:", ttl: ttl, retry: defaultRedisRetry}
}

func (r *Redis) Lock(ctx context.Context, key string) (Unlock, error) {
	redisKey := r.prefix + key
	token := uuid.NewString()

	for {
		ok, err := r.client.SetNX(ctx, redisKey, token, r.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, apperr.Storage("lock.acquire", err)
		}
		if ok {
			break
		}
		timer := time.NewTimer(r.retry)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		r.keepAlive(redisKey, token, stop)
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			wg.Wait()
			releaseCtx, cancel := context.WithTimeout(context.Background(), redisReleaseWait)
			defer cancel()
			if err := releaseScript.Run(releaseCtx, r.client, []string{redisKey}, token).Err(); err != nil {
				telemetry.Error("lock.release_failed", map[string]any{
					"key":   key,
					"error": err,
				})
			}
		})
	}, nil
}

func (r *Redis) keepAlive(redisKey, token string, stop <-chan struct{}) {
	ticker := time.NewTicker(r.ttl / 3)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), redisReleaseWait)
			n, err := extendScript.Run(ctx, r.client, []string{redisKey}, token, r.ttl.Milliseconds()).Int()
			cancel()
			if err != nil {
				telemetry.Warn("lock.extend_failed", map[string]any{"key": redisKey, "error": err})
				continue
			}
			if n == 0 {
				telemetry.Error("lock.lost", map[string]any{"key": redisKey})
				return
			}
		}
	}
}

var _ Locker = (*Redis)(nil)
