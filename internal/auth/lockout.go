package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// LockoutStore counts failed logins per key and reports active lockouts.
type LockoutStore interface {
	LockedUntil(ctx context.Context, key string, now time.Time) (time.Time, bool, error)
	RecordFailure(ctx context.Context, key string, now time.Time) error
	Clear(ctx context.Context, key string) error
}

// NoopLockout never locks anyone out. Used when redis is not configured.
type NoopLockout struct{}

func (NoopLockout) LockedUntil(context.Context, string, time.Time) (time.Time, bool, error) {
	return time.Time{}, false, nil
}
func (NoopLockout) RecordFailure(context.Context, string, time.Time) error { return nil }
func (NoopLockout) Clear(context.Context, string) error                    { return nil }

// ConnectRedis accepts either a redis:// URL or a bare host:port.
func ConnectRedis(ctx context.Context, redisURL string) (*redis.Client, error) {
	var client *redis.Client
	if strings.HasPrefix(redisURL, "redis://") || strings.HasPrefix(redisURL, "rediss://") {
		opt, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		client = redis.NewClient(opt)
	} else {
		client = redis.NewClient(&redis.Options{Addr: redisURL})
	}
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// RedisLockout keeps failure counters in redis hashes under auth:lockout:<key>.
type RedisLockout struct {
	client    *redis.Client
	threshold int
	window    time.Duration
}

func NewRedisLockout(client *redis.Client, threshold int, window time.Duration) *RedisLockout {
	return &RedisLockout{client: client, threshold: threshold, window: window}
}

func (s *RedisLockout) LockedUntil(ctx context.Context, key string, now time.Time) (time.Time, bool, error) {
	raw, err := s.client.HGet(ctx, lockoutKey(key), "locked_until").Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	unix, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || unix <= 0 {
		return time.Time{}, false, nil
	}
	until := time.Unix(unix, 0).UTC()
	return until, now.Before(until), nil
}

func (s *RedisLockout) RecordFailure(ctx context.Context, key string, now time.Time) error {
	redisKey := lockoutKey(key)

	count, err := s.client.HIncrBy(ctx, redisKey, "failed_count", 1).Result()
	if err != nil {
		return err
	}

	if int(count) < s.threshold {
		return s.client.Expire(ctx, redisKey, s.window).Err()
	}

	_, err = s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, redisKey, "locked_until", now.Add(s.window).Unix(), "failed_count", 0)
		p.Expire(ctx, redisKey, s.window)
		return nil
	})
	return err
}

func (s *RedisLockout) Clear(ctx context.Context, key string) error {
	return s.client.Del(ctx, lockoutKey(key)).Err()
}

func lockoutKey(key string) string {
	return "auth:lockout:" + key
}

// MemoryLockout is an in-process LockoutStore.
type MemoryLockout struct {
	mu        sync.Mutex
	threshold int
	window    time.Duration
	failures  map[string]int
	locked    map[string]time.Time
}

func NewMemoryLockout(threshold int, window time.Duration) *MemoryLockout {
	return &MemoryLockout{
		threshold: threshold,
		window:    window,
		failures:  make(map[string]int),
		locked:    make(map[string]time.Time),
	}
}

func (s *MemoryLockout) LockedUntil(_ context.Context, key string, now time.Time) (time.Time, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	until, ok := s.locked[key]
	if !ok {
		return time.Time{}, false, nil
	}
	return until, now.Before(until), nil
}

func (s *MemoryLockout) RecordFailure(_ context.Context, key string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[key]++
	if s.failures[key] >= s.threshold {
		s.locked[key] = now.Add(s.window)
		s.failures[key] = 0
	}
	return nil
}

func (s *MemoryLockout) Clear(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.failures, key)
	delete(s.locked, key)
	return nil
}
