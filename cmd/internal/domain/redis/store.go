package redis

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const (
	defaultMaxRetries = 10
	defaultBackoff    = 5 * time.Millisecond
	maxBackoff        = 250 * time.Millisecond
)

// Store keeps each durable key as a plain string value under prefix.
type Store struct {
	client     *goredis.Client
	prefix     string
	maxRetries int
	backoff    time.Duration
}

func NewStore(client *goredis.Client, prefix string) *Store {
	if client == nil {
		panic("redis: client required")
	}
	return &Store{client: client, prefix: prefix, maxRetries: defaultMaxRetries, backoff: defaultBackoff}
}

// Connect builds a client for addr and verifies it answers PING.
func Connect(ctx context.Context, addr, password string) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: ping %s: %w", addr, err)
	}
	return client, nil
}

func (s *Store) key(name string) string {
	return s.prefix + name
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis: get %s: %w", key, err)
	}
	return data, true, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis: set %s: %w", key, err)
	}
	return nil
}

// Update runs fn under WATCH on every key and commits its result with
// MULTI/EXEC. A concurrent write to a watched key restarts the attempt.
func (s *Store) Update(ctx context.Context, keys []string, fn func(map[string][]byte) (map[string][]byte, error)) error {
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = s.key(k)
	}

	txf := func(tx *goredis.Tx) error {
		values, err := tx.MGet(ctx, full...).Result()
		if err != nil {
			return fmt.Errorf("redis: read %v: %w", keys, err)
		}

		current := make(map[string][]byte, len(keys))
		for i, v := range values {
			if str, ok := v.(string); ok {
				current[keys[i]] = []byte(str)
			}
		}

		next, err := fn(current)
		if err != nil {
			return err
		}
		if len(next) == 0 {
			return nil
		}

		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			for k, v := range next {
				pipe.Set(ctx, s.key(k), v, 0)
			}
			return nil
		})
		return err
	}

	for attempt := 0; attempt < s.maxRetries; attempt++ {
		if attempt > 0 {
			if err := s.wait(ctx, attempt); err != nil {
				return err
			}
		}
		err := s.client.Watch(ctx, txf, full...)
		if errors.Is(err, goredis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("redis: update %v: gave up after %d attempts", keys, s.maxRetries)
}

// wait sleeps before a retry: exponential backoff capped at maxBackoff,
// randomized over its upper half.
func (s *Store) wait(ctx context.Context, attempt int) error {
	delay := s.backoff << (attempt - 1)
	if delay <= 0 || delay > maxBackoff {
		delay = maxBackoff
	}
	delay = delay/2 + rand.N(delay/2+1)

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
