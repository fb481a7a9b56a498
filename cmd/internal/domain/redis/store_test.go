package redis

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewStore(client, "cityhospital:"), mr
}

func TestGetSet(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	_, found, err := store.Get(ctx, "patients")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.Set(ctx, "patients", []byte(`[]`)))
	value, found, err := store.Get(ctx, "patients")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `[]`, string(value))

	raw, err := mr.Get("cityhospital:patients")
	require.NoError(t, err)
	assert.Equal(t, `[]`, raw)
}

func TestUpdate(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, "a", []byte("1")))

	err := store.Update(ctx, []string{"a", "b"}, func(current map[string][]byte) (map[string][]byte, error) {
		assert.Equal(t, "1", string(current["a"]))
		assert.NotContains(t, current, "b")
		return map[string][]byte{"a": []byte("2"), "b": []byte("3")}, nil
	})
	require.NoError(t, err)

	b, found, err := store.Get(ctx, "b")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "3", string(b))
}

func TestUpdateAbortsOnError(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, "a", []byte("1")))

	boom := errors.New("boom")
	err := store.Update(ctx, []string{"a"}, func(map[string][]byte) (map[string][]byte, error) {
		return map[string][]byte{"a": []byte("x")}, boom
	})
	require.ErrorIs(t, err, boom)

	a, _, err := store.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "1", string(a))
}

func increment(current map[string][]byte) (map[string][]byte, error) {
	n := 0
	if raw, ok := current["counter"]; ok {
		var err error
		if n, err = strconv.Atoi(string(raw)); err != nil {
			return nil, err
		}
	}
	return map[string][]byte{"counter": []byte(strconv.Itoa(n + 1))}, nil
}

func TestUpdateRetriesAfterConcurrentWrite(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()
	other := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = other.Close() })
	require.NoError(t, store.Set(ctx, "counter", []byte("1")))

	calls := 0
	err := store.Update(ctx, []string{"counter"}, func(current map[string][]byte) (map[string][]byte, error) {
		calls++
		if calls == 1 {
			require.NoError(t, other.Set(ctx, "cityhospital:counter", "10", 0).Err())
		}
		return increment(current)
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)

	value, _, err := store.Get(ctx, "counter")
	require.NoError(t, err)
	assert.Equal(t, "11", string(value))
}

func TestUpdateGivesUpAfterMaxRetries(t *testing.T) {
	store, mr := newTestStore(t)
	store.maxRetries = 3
	store.backoff = time.Millisecond
	ctx := context.Background()
	other := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = other.Close() })

	calls := 0
	err := store.Update(ctx, []string{"counter"}, func(current map[string][]byte) (map[string][]byte, error) {
		calls++
		require.NoError(t, other.Set(ctx, "cityhospital:counter", strconv.Itoa(calls), 0).Err())
		return increment(current)
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gave up after 3 attempts")
	assert.Equal(t, 3, calls)
}

func TestUpdateStopsWaitingWhenCancelled(t *testing.T) {
	store, mr := newTestStore(t)
	store.backoff = time.Hour
	other := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = other.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	err := store.Update(ctx, []string{"counter"}, func(current map[string][]byte) (map[string][]byte, error) {
		require.NoError(t, other.Set(context.Background(), "cityhospital:counter", "1", 0).Err())
		cancel()
		return increment(current)
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConcurrentWritersAreSerialized(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	const writers, rounds = 4, 10
	stores := make([]*Store, writers)
	for i := range stores {
		client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = client.Close() })
		stores[i] = NewStore(client, "cityhospital:")
	}

	var wg sync.WaitGroup
	errs := make(chan error, writers*rounds)
	for _, store := range stores {
		wg.Add(1)
		go func(store *Store) {
			defer wg.Done()
			for j := 0; j < rounds; j++ {
				errs <- store.Update(ctx, []string{"counter"}, increment)
			}
		}(store)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	value, _, err := stores[0].Get(ctx, "counter")
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(writers*rounds), string(value))
}
