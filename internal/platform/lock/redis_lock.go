// Package lock provides the single-runner locks used by scheduled jobs.
package lock

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNotHeld is returned by a release whose lock expired or was taken over.
var ErrNotHeld = errors.New("lock not held")

// releaseScript deletes the key only while it still carries the caller's token.
const releaseScript = `if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0`

// RedisLocker implements a lease lock with SET NX PX and a token-checked release.
type RedisLocker struct {
	client   *redis.Client
	prefix   string
	newToken func() (string, error)
}

// NewRedisLocker creates a RedisLocker. Keys are stored as "<prefix>:<key>".
func NewRedisLocker(client *redis.Client, prefix string) *RedisLocker {
	if prefix == "" {
		prefix = "lock"
	}
	return &RedisLocker{client: client, prefix: prefix, newToken: randomToken}
}

func (l *RedisLocker) lockKey(key string) string {
	return fmt.Sprintf("%s:%s", l.prefix, key)
}

// TryLock acquires key for ttl without waiting.
func (l *RedisLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, bool, error) {
	token, err := l.newToken()
	if err != nil {
		return nil, false, fmt.Errorf("generate lock token: %w", err)
	}

	k := l.lockKey(key)
	ok, err := l.client.SetNX(ctx, k, token, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("acquire %s: %w", k, err)
	}
	if !ok {
		return nil, false, nil
	}

	release := func(ctx context.Context) error {
		n, err := l.client.Eval(ctx, releaseScript, []string{k}, token).Int64()
		if err != nil {
			return fmt.Errorf("release %s: %w", k, err)
		}
		if n == 0 {
			return fmt.Errorf("release %s: %w", k, ErrNotHeld)
		}
		return nil
	}
	return release, true, nil
}

func randomToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
