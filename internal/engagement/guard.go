package engagement

import (
	"context"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"
)

// Guard admits one in-flight action per key. Acquire reports false when the key is taken;
// otherwise the returned release must be called once the action finishes.
type Guard interface {
	Acquire(ctx context.Context, key string) (release func(), ok bool, err error)
}

// MemoryGuard is a process-local Guard
type MemoryGuard struct {
	mu   sync.Mutex
	busy map[string]struct{}
}

func NewMemoryGuard() *MemoryGuard {
	return &MemoryGuard{busy: make(map[string]struct{})}
}

func (g *MemoryGuard) Acquire(_ context.Context, key string) (func(), bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, taken := g.busy[key]; taken {
		return nil, false, nil
	}
	g.busy[key] = struct{}{}
	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.busy, key)
			g.mu.Unlock()
		})
	}, true, nil
}

// releaseScript deletes the lock only if it still holds our token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisGuard shares in-flight state between replicas. The TTL bounds how long a crashed
// holder can block the key.
type RedisGuard struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisGuard(rdb *redis.Client, ttl time.Duration) *RedisGuard {
	return &RedisGuard{rdb: rdb, ttl: ttl}
}

func (g *RedisGuard) Acquire(ctx context.Context, key string) (func(), bool, error) {
	k := "inflight:" + key
	token := ulid.Make().String()
	ok, err := g.rdb.SetNX(ctx, k, token, g.ttl).Result()
	if err != nil || !ok {
		return nil, false, err
	}
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = releaseScript.Run(ctx, g.rdb, []string{k}, token).Err()
	}, true, nil
}
