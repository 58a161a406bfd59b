// Package lock provides the distributed settlement sweep lock.
package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cristianortiz/auctionEase/internal/auction/domain"
	sharedredis "github.com/cristianortiz/auctionEase/internal/shared/redis"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// unlockLua deletes the key only while it still holds the caller's token, so
// a holder whose TTL ran out cannot release a newer holder's lock.
const unlockLua = `
if redis.call('GET', KEYS[1]) == ARGV[1] then
    return redis.call('DEL', KEYS[1])
end
return 0
`

// Locker implements domain.SweepLocker with redis SET NX and a TTL.
type Locker struct {
	rdb      *redis.Client
	unlockSc *redis.Script
}

var _ domain.SweepLocker = (*Locker)(nil)

func NewLocker(c *sharedredis.Client) *Locker {
	return &Locker{
		rdb:      c.Underlying(),
		unlockSc: redis.NewScript(unlockLua),
	}
}

func lockKey(key string) string {
	return "auction:lock:" + key
}

// Acquire takes the lock for key. The returned release func may be called
// more than once. It returns domain.ErrLockHeld when someone else holds key.
func (l *Locker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	token := uuid.NewString()
	lk := lockKey(key)

	ok, err := l.rdb.SetNX(ctx, lk, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: acquire lock %s: %w", key, err)
	}
	if !ok {
		return nil, domain.ErrLockHeld
	}

	var once sync.Once
	release := func() {
		once.Do(func() {
			// the caller's context may already be cancelled
			unlockCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = l.unlockSc.Run(unlockCtx, l.rdb, []string{lk}, token).Err()
		})
	}
	return release, nil
}
