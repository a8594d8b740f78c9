// README: Per-ride lock backed by Redis SET NX with a TTL.
package lock

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix  = "ridepool:lock:"
	maxBackoff = 500 * time.Millisecond
)

// releaseScript deletes the key only if it still holds our token, so an
// expired lock taken over by another holder is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("DEL", KEYS[1])
end
return 0`)

// Redis is a lock shared by every API instance. The TTL bounds how long a
// crashed holder can block a ride.
type Redis struct {
	client   *redis.Client
	ttl      time.Duration
	attempts int
	backoff  time.Duration
}

func NewRedis(client *redis.Client, ttl time.Duration, attempts int) *Redis {
	if attempts < 1 {
		attempts = 1
	}
	return &Redis{client: client, ttl: ttl, attempts: attempts, backoff: 20 * time.Millisecond}
}

// Lock tries SET NX up to the configured number of attempts with doubling
// backoff and returns ErrLocked if the key stays taken.
func (r *Redis) Lock(ctx context.Context, key string) (func(), error) {
	k := keyPrefix + key
	token := uuid.NewString()
	wait := r.backoff
	for attempt := 1; ; attempt++ {
		ok, err := r.client.SetNX(ctx, k, token, r.ttl).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			return func() {
				ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
				defer cancel()
				_ = releaseScript.Run(ctx, r.client, []string{k}, token).Err()
			}, nil
		}
		if attempt >= r.attempts {
			return nil, ErrLocked
		}
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		wait *= 2
		if wait > maxBackoff {
			wait = maxBackoff
		}
	}
}
