package service

import (
	"context"
	"encoding/json"
	"fmt"
)

// Keys of the persisted layout.
const (
	KeyAppointments        = "appointments"
	KeyAppointmentRequests = "appointmentRequests"
	KeyPatients            = "patients"
	KeyNotifications       = "patientNotifications"
	KeyNotificationCursors = "notificationCursors"
)

// DurableStore is a JSON key/value persistence layer.
//
// Update reads the given keys and writes back whatever fn returns as one
// atomic unit. Keys missing from the store are missing from the map handed
// to fn. When fn returns an error nothing is written and that error is
// returned unchanged. fn may be invoked more than once if the backend
// retries on contention.
type DurableStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Update(ctx context.Context, keys []string, fn func(map[string][]byte) (map[string][]byte, error)) error
}

// Record is anything stored in an id-addressed collection.
type Record interface {
	RecordID() string
}

// decodeCollection decodes the collection stored under key, falling back to
// seed when the store has no entry. The boolean reports whether seed was used.
func decodeCollection[T any](key string, raw []byte, found bool, seed func() []T) ([]T, bool, error) {
	if !found {
		if seed == nil {
			return []T{}, true, nil
		}
		return seed(), true, nil
	}
	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false, fmt.Errorf("decode %s: %w", key, err)
	}
	if items == nil {
		items = []T{}
	}
	return items, false, nil
}

func decodeMap[M ~map[K]V, K comparable, V any](key string, raw []byte, found bool) (M, error) {
	out := M{}
	if !found {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	if len(out) == 0 {
		out = M{}
	}
	return out, nil
}

func encode(key string, v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", key, err)
	}
	return raw, nil
}

// findIndex is a linear scan; collections hold tens of records.
func findIndex[T Record](items []T, id string) int {
	for i, item := range items {
		if item.RecordID() == id {
			return i
		}
	}
	return -1
}
