package service

import (
	"cityhospital/cmd/internal/domain/entity"
	"cityhospital/cmd/internal/utils/validators"
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// memStore is an in-memory DurableStore that counts writes.
type memStore struct {
	mu     sync.Mutex
	data   map[string][]byte
	writes int
}

func newMemStore() *memStore {
	return &memStore{data: map[string][]byte{}}
}

func (m *memStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memStore) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	m.writes++
	return nil
}

func (m *memStore) Update(_ context.Context, keys []string, fn func(map[string][]byte) (map[string][]byte, error)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	current := map[string][]byte{}
	for _, k := range keys {
		if v, ok := m.data[k]; ok {
			current[k] = v
		}
	}
	next, err := fn(current)
	if err != nil {
		return err
	}
	for k, v := range next {
		m.data[k] = v
		m.writes++
	}
	return nil
}

func (m *memStore) put(t *testing.T, key string, v any) {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	m.data[key] = raw
}

func (m *memStore) inbox(t *testing.T) entity.Inbox {
	t.Helper()
	inbox := entity.Inbox{}
	if raw, ok := m.data[KeyNotifications]; ok {
		require.NoError(t, json.Unmarshal(raw, &inbox))
	}
	return inbox
}

var fixedNow = time.Date(2023, time.June, 14, 9, 0, 0, 0, time.UTC)

type fixture struct {
	store   *memStore
	records *DefaultRecordRepository
	relay   *DefaultNotificationRelay
	appts   *DefaultAppointmentService
	queries *DefaultQueryService
}

// newFixture seeds the store with the given collections (nil keeps the
// defaults) and loads a repository over it.
func newFixture(t *testing.T, appts []*entity.Appointment, requests []*entity.AppointmentRequest, patients []*entity.Patient) *fixture {
	t.Helper()
	store := newMemStore()
	if appts != nil {
		store.put(t, KeyAppointments, appts)
	}
	if requests != nil {
		store.put(t, KeyAppointmentRequests, requests)
	}
	if patients != nil {
		store.put(t, KeyPatients, patients)
	}

	records := NewRecordRepository(store)
	require.NoError(t, records.Load(context.Background()))

	relay := NewNotificationRelay(store, records, nil)
	relay.Now = func() time.Time { return fixedNow }

	svc := NewAppointmentService(records, validators.New(), nil, "Dr. Myoui")
	svc.Now = func() time.Time { return fixedNow }

	queries := NewQueryService(records)
	queries.Now = func() time.Time { return fixedNow }

	return &fixture{store: store, records: records, relay: relay, appts: svc, queries: queries}
}
