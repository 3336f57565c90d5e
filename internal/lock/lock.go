// Package lock provides keyed mutual exclusion for read-check-write sequences such as
// check-in and leave approval.
package lock

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrBusy is returned when the key could not be acquired within the wait budget.
var ErrBusy = errors.New("lock: busy")

type Locker interface {
	// Lock blocks until key is held, the wait budget runs out (ErrBusy) or ctx ends.
	// The returned func releases the key and is safe to call once.
	Lock(ctx context.Context, key string) (func(), error)
}

func AttendanceKey(userID, date string) string {
	return "attendance:" + userID + ":" + date
}

func LeaveKey(id string) string {
	return "leave:" + id
}

// Local is an in-process keyed mutex. Slots are reference counted and dropped once
// no goroutine holds or waits on them.
type Local struct {
	wait  time.Duration
	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	ch   chan struct{}
	refs int
}

func NewLocal(wait time.Duration) *Local {
	return &Local{wait: wait, slots: make(map[string]*slot)}
}

func (l *Local) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	sl, ok := l.slots[key]
	if !ok {
		sl = &slot{ch: make(chan struct{}, 1)}
		l.slots[key] = sl
	}
	sl.refs++
	l.mu.Unlock()

	var timeout <-chan time.Time
	if l.wait > 0 {
		timer := time.NewTimer(l.wait)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case sl.ch <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-sl.ch
				l.release(key, sl)
			})
		}, nil
	case <-timeout:
		l.release(key, sl)
		return nil, ErrBusy
	case <-ctx.Done():
		l.release(key, sl)
		return nil, ctx.Err()
	}
}

func (l *Local) release(key string, sl *slot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	sl.refs--
	if sl.refs == 0 {
		delete(l.slots, key)
	}
}

const redisKeyPrefix = "hrdesk:lock:"

var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis holds keys with SET NX PX so every instance sharing the Redis server agrees on
// ownership. The TTL bounds how long a crashed holder can block others.
type Redis struct {
	client redis.UniversalClient
	ttl    time.Duration
	wait   time.Duration
	poll   time.Duration
}

func NewRedis(client redis.UniversalClient, ttl, wait time.Duration) *Redis {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &Redis{client: client, ttl: ttl, wait: wait, poll: 25 * time.Millisecond}
}

func (r *Redis) Lock(ctx context.Context, key string) (func(), error) {
	redisKey := redisKeyPrefix + key
	token := uuid.NewString()
	deadline := time.Now().Add(r.wait)
	for {
		ok, err := r.client.SetNX(ctx, redisKey, token, r.ttl).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			var once sync.Once
			return func() {
				once.Do(func() {
					// the request context may already be cancelled
					unlockCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
					defer cancel()
					_ = unlockScript.Run(unlockCtx, r.client, []string{redisKey}, token).Err()
				})
			}, nil
		}
		if !time.Now().Before(deadline) {
			return nil, ErrBusy
		}
		select {
		case <-time.After(r.poll):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}
