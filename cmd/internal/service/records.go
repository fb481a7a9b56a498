package service

import (
	"cityhospital/cmd/internal/domain/entity"
	"context"
	"fmt"
	"sync"
)

var recordKeys = []string{KeyAppointments, KeyAppointmentRequests, KeyPatients}

// RecordSet is one consistent view of every record collection. Inbox is
// only populated inside Mutate.
type RecordSet struct {
	Appointments []*entity.Appointment
	Requests     []*entity.AppointmentRequest
	Patients     []*entity.Patient
	Inbox        entity.Inbox
}

type RecordRepository interface {
	Mutate(ctx context.Context, fn func(set *RecordSet) error) error
	Snapshot() *RecordSet
	FindAppointment(id string) (entity.Appointment, bool)
	FindRequest(id string) (entity.AppointmentRequest, bool)
	FindPatient(id string) (entity.Patient, bool)
}

// DefaultRecordRepository caches the record collections in memory and
// flushes every collection back to the store after each mutation.
type DefaultRecordRepository struct {
	mu    sync.Mutex
	store DurableStore
	cache *RecordSet
}

func NewRecordRepository(store DurableStore) *DefaultRecordRepository {
	return &DefaultRecordRepository{store: store, cache: &RecordSet{}}
}

// Load hydrates the cache. Collections missing from the store are seeded
// with the default records and written back.
func (r *DefaultRecordRepository) Load(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var loaded *RecordSet
	err := r.store.Update(ctx, recordKeys, func(current map[string][]byte) (map[string][]byte, error) {
		set, seeded, err := decodeRecordSet(current)
		if err != nil {
			return nil, err
		}
		loaded = set

		writes := make(map[string][]byte, len(seeded))
		for _, key := range seeded {
			raw, err := encodeKey(set, key)
			if err != nil {
				return nil, err
			}
			writes[key] = raw
		}
		return writes, nil
	})
	if err != nil {
		return err
	}

	r.cache = loaded
	return nil
}

// Reset overwrites every collection with the default records and clears
// all notification inboxes.
func (r *DefaultRecordRepository) Reset(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	set := &RecordSet{
		Appointments: defaultAppointments(),
		Requests:     defaultRequests(),
		Patients:     defaultPatients(),
		Inbox:        entity.Inbox{},
	}
	keys := append(append([]string{}, recordKeys...), KeyNotifications, KeyNotificationCursors)
	err := r.store.Update(ctx, keys, func(map[string][]byte) (map[string][]byte, error) {
		writes, err := encodeRecordSet(set)
		if err != nil {
			return nil, err
		}
		writes[KeyNotificationCursors] = []byte("{}")
		return writes, nil
	})
	if err != nil {
		return err
	}

	set.Inbox = nil
	r.cache = set
	return nil
}

// Mutate runs fn against freshly read collections and the notification
// inbox, then writes all of them back in a single store update. If fn
// returns an error nothing is written and the cache is left untouched.
func (r *DefaultRecordRepository) Mutate(ctx context.Context, fn func(set *RecordSet) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	keys := append(append([]string{}, recordKeys...), KeyNotifications)

	var committed *RecordSet
	err := r.store.Update(ctx, keys, func(current map[string][]byte) (map[string][]byte, error) {
		set, _, err := decodeRecordSet(current)
		if err != nil {
			return nil, err
		}
		raw, found := current[KeyNotifications]
		set.Inbox, err = decodeInbox(raw, found)
		if err != nil {
			return nil, err
		}

		if err := fn(set); err != nil {
			return nil, err
		}

		committed = set
		return encodeRecordSet(set)
	})
	if err != nil {
		return err
	}

	committed.Inbox = nil
	r.cache = committed
	return nil
}

// Snapshot returns a copy of the cached collections.
func (r *DefaultRecordRepository) Snapshot() *RecordSet {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cache.clone()
}

func (r *DefaultRecordRepository) FindAppointment(id string) (entity.Appointment, bool) {
	set := r.Snapshot()
	if i := findIndex(set.Appointments, id); i >= 0 {
		return *set.Appointments[i], true
	}
	return entity.Appointment{}, false
}

func (r *DefaultRecordRepository) FindRequest(id string) (entity.AppointmentRequest, bool) {
	set := r.Snapshot()
	if i := findIndex(set.Requests, id); i >= 0 {
		return *set.Requests[i], true
	}
	return entity.AppointmentRequest{}, false
}

func (r *DefaultRecordRepository) FindPatient(id string) (entity.Patient, bool) {
	set := r.Snapshot()
	if i := findIndex(set.Patients, id); i >= 0 {
		return *set.Patients[i], true
	}
	return entity.Patient{}, false
}

func (s *RecordSet) clone() *RecordSet {
	out := &RecordSet{
		Appointments: make([]*entity.Appointment, len(s.Appointments)),
		Requests:     make([]*entity.AppointmentRequest, len(s.Requests)),
		Patients:     make([]*entity.Patient, len(s.Patients)),
	}
	for i, a := range s.Appointments {
		c := *a
		out.Appointments[i] = &c
	}
	for i, q := range s.Requests {
		c := *q
		out.Requests[i] = &c
	}
	for i, p := range s.Patients {
		c := *p
		out.Patients[i] = &c
	}
	return out
}

// decodeRecordSet also reports which keys fell back to their seed.
func decodeRecordSet(current map[string][]byte) (*RecordSet, []string, error) {
	var (
		set    RecordSet
		seeded []string
		used   bool
		err    error
	)

	raw, found := current[KeyAppointments]
	if set.Appointments, used, err = decodeCollection(KeyAppointments, raw, found, defaultAppointments); err != nil {
		return nil, nil, err
	} else if used {
		seeded = append(seeded, KeyAppointments)
	}

	raw, found = current[KeyAppointmentRequests]
	if set.Requests, used, err = decodeCollection(KeyAppointmentRequests, raw, found, defaultRequests); err != nil {
		return nil, nil, err
	} else if used {
		seeded = append(seeded, KeyAppointmentRequests)
	}

	raw, found = current[KeyPatients]
	if set.Patients, used, err = decodeCollection(KeyPatients, raw, found, defaultPatients); err != nil {
		return nil, nil, err
	} else if used {
		seeded = append(seeded, KeyPatients)
	}

	if err := checkRecordSet(&set); err != nil {
		return nil, nil, err
	}
	return &set, seeded, nil
}

// checkRecordSet rejects stored records whose enumerated fields hold a value
// outside their set.
func checkRecordSet(set *RecordSet) error {
	for _, appt := range set.Appointments {
		if appt == nil {
			return fmt.Errorf("decode %s: null appointment", KeyAppointments)
		}
		if !appt.Status.Valid() {
			return fmt.Errorf("decode %s: appointment %s has unknown status %q", KeyAppointments, appt.ID, appt.Status)
		}
	}
	for _, req := range set.Requests {
		if req == nil {
			return fmt.Errorf("decode %s: null request", KeyAppointmentRequests)
		}
		if !req.Type.Valid() {
			return fmt.Errorf("decode %s: request %s has unknown type %q", KeyAppointmentRequests, req.ID, req.Type)
		}
		if !req.Status.Valid() {
			return fmt.Errorf("decode %s: request %s has unknown status %q", KeyAppointmentRequests, req.ID, req.Status)
		}
	}
	for _, p := range set.Patients {
		if p == nil {
			return fmt.Errorf("decode %s: null patient", KeyPatients)
		}
	}
	return nil
}

// decodeInbox decodes the notification inbox and rejects unknown types.
func decodeInbox(raw []byte, found bool) (entity.Inbox, error) {
	inbox, err := decodeMap[entity.Inbox](KeyNotifications, raw, found)
	if err != nil {
		return nil, err
	}
	for key, queue := range inbox {
		for _, item := range queue {
			if item == nil || !item.Type.Valid() {
				return nil, fmt.Errorf("decode %s: inbox %s holds a notification of unknown type", KeyNotifications, key)
			}
		}
	}
	return inbox, nil
}

func encodeRecordSet(set *RecordSet) (map[string][]byte, error) {
	keys := recordKeys
	if set.Inbox != nil {
		keys = append(append([]string{}, recordKeys...), KeyNotifications)
	}
	out := make(map[string][]byte, len(keys))
	for _, key := range keys {
		raw, err := encodeKey(set, key)
		if err != nil {
			return nil, err
		}
		out[key] = raw
	}
	return out, nil
}

func encodeKey(set *RecordSet, key string) ([]byte, error) {
	switch key {
	case KeyAppointments:
		return encode(key, set.Appointments)
	case KeyAppointmentRequests:
		return encode(key, set.Requests)
	case KeyPatients:
		return encode(key, set.Patients)
	default:
		return encode(key, set.Inbox)
	}
}
