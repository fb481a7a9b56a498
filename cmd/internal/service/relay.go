package service

import (
	"cityhospital/cmd/internal/domain/entity"
	"cityhospital/cmd/internal/metrics"
	"cityhospital/cmd/internal/utils"
	"context"
	"errors"
	"sync"
	"time"

	"github.com/labstack/gommon/log"
)

var (
	ErrEmptyMessage = errors.New("relay: message is required")
	ErrUnknownType  = errors.New("relay: unknown notification type")
)

// DefaultNotificationRelay delivers staff messages to per-patient inboxes
// kept under a single store key.
type DefaultNotificationRelay struct {
	mu      sync.Mutex
	store   DurableStore
	records RecordRepository
	Metrics *metrics.PortalMetrics
	Now     func() time.Time
}

func NewNotificationRelay(store DurableStore, records RecordRepository, m *metrics.PortalMetrics) *DefaultNotificationRelay {
	return &DefaultNotificationRelay{store: store, records: records, Metrics: m, Now: time.Now}
}

// ResolveKey maps a display name or patient id to the inbox key.
func (n *DefaultNotificationRelay) ResolveKey(key string) string {
	if n.records == nil {
		return key
	}
	return ResolvePatientKey(key, "", n.records.Snapshot().Patients)
}

func (n *DefaultNotificationRelay) Send(ctx context.Context, patientKey, message string, typ entity.NotificationType) (*entity.Notification, error) {
	if message == "" {
		return nil, ErrEmptyMessage
	}
	if typ == "" {
		typ = entity.NotificationInfo
	}
	if !typ.Valid() {
		return nil, ErrUnknownType
	}
	key := n.ResolveKey(patientKey)

	n.mu.Lock()
	defer n.mu.Unlock()

	var sent *entity.Notification
	err := n.updateInbox(ctx, func(inbox entity.Inbox, _ entity.ReadCursors) (bool, error) {
		sent = appendNotification(inbox, key, message, typ, n.Now())
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	n.Metrics.ObserveNotification(string(typ))
	log.Infof("notification sent to patient %s: %s", key, message)
	c := *sent
	return &c, nil
}

// PollUnread returns the unread notifications in insertion order and marks
// the patient's whole queue as read.
func (n *DefaultNotificationRelay) PollUnread(ctx context.Context, patientKey string) ([]*entity.Notification, error) {
	key := n.ResolveKey(patientKey)

	n.mu.Lock()
	defer n.mu.Unlock()

	var unread []*entity.Notification
	err := n.updateInbox(ctx, func(inbox entity.Inbox, _ entity.ReadCursors) (bool, error) {
		unread = unread[:0]
		for _, item := range inbox[key] {
			if !item.Read {
				c := *item
				unread = append(unread, &c)
			}
		}
		if len(unread) == 0 {
			return false, nil
		}
		for _, item := range inbox[key] {
			item.Read = true
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	n.Metrics.ObserveDelivered(len(unread))
	return unread, nil
}

// PollUnreadFor returns the notifications consumer has not seen yet without
// touching the shared read flags. Each consumer keeps its own cursor.
func (n *DefaultNotificationRelay) PollUnreadFor(ctx context.Context, patientKey, consumer string) ([]*entity.Notification, error) {
	if consumer == "" {
		return n.PollUnread(ctx, patientKey)
	}
	key := n.ResolveKey(patientKey)

	n.mu.Lock()
	defer n.mu.Unlock()

	var fresh []*entity.Notification
	err := n.updateInbox(ctx, func(inbox entity.Inbox, cursors entity.ReadCursors) (bool, error) {
		fresh = fresh[:0]
		seen := cursors[key][consumer]
		for _, item := range inbox[key] {
			if item.ID > seen {
				c := *item
				fresh = append(fresh, &c)
			}
		}
		if len(fresh) == 0 {
			return false, nil
		}
		if cursors[key] == nil {
			cursors[key] = map[string]int64{}
		}
		cursors[key][consumer] = fresh[len(fresh)-1].ID
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	n.Metrics.ObserveDelivered(len(fresh))
	return fresh, nil
}

// List returns the patient's full queue, read or not.
func (n *DefaultNotificationRelay) List(ctx context.Context, patientKey string) ([]*entity.Notification, error) {
	raw, found, err := n.store.Get(ctx, KeyNotifications)
	if err != nil {
		return nil, err
	}
	inbox, err := decodeInbox(raw, found)
	if err != nil {
		return nil, err
	}

	queue := inbox[n.ResolveKey(patientKey)]
	out := make([]*entity.Notification, len(queue))
	for i, item := range queue {
		c := *item
		out[i] = &c
	}
	return out, nil
}

func (n *DefaultNotificationRelay) UnreadCount(ctx context.Context, patientKey string) (int, error) {
	queue, err := n.List(ctx, patientKey)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, item := range queue {
		if !item.Read {
			count++
		}
	}
	return count, nil
}

// updateInbox writes the inbox and cursors back only when fn reports a change.
func (n *DefaultNotificationRelay) updateInbox(ctx context.Context, fn func(entity.Inbox, entity.ReadCursors) (bool, error)) error {
	keys := []string{KeyNotifications, KeyNotificationCursors}
	return n.store.Update(ctx, keys, func(current map[string][]byte) (map[string][]byte, error) {
		raw, found := current[KeyNotifications]
		inbox, err := decodeInbox(raw, found)
		if err != nil {
			return nil, err
		}
		raw, found = current[KeyNotificationCursors]
		cursors, err := decodeMap[entity.ReadCursors](KeyNotificationCursors, raw, found)
		if err != nil {
			return nil, err
		}

		changed, err := fn(inbox, cursors)
		if err != nil || !changed {
			return nil, err
		}

		inboxRaw, err := encode(KeyNotifications, inbox)
		if err != nil {
			return nil, err
		}
		cursorsRaw, err := encode(KeyNotificationCursors, cursors)
		if err != nil {
			return nil, err
		}
		return map[string][]byte{KeyNotifications: inboxRaw, KeyNotificationCursors: cursorsRaw}, nil
	})
}

// appendNotification adds an unread entry to key's queue. Ids are Unix
// milliseconds, bumped when needed so they stay strictly increasing.
func appendNotification(inbox entity.Inbox, key, message string, typ entity.NotificationType, now time.Time) *entity.Notification {
	id := now.UnixMilli()
	if queue := inbox[key]; len(queue) > 0 {
		if last := queue[len(queue)-1].ID; last >= id {
			id = last + 1
		}
	}

	item := &entity.Notification{
		ID:        id,
		Message:   message,
		Type:      typ,
		Timestamp: utils.FormatTimestamp(now),
		Read:      false,
	}
	inbox[key] = append(inbox[key], item)
	return item
}

// ResolvePatientKey picks the inbox key for a patient: an explicit patient
// id, else the id of the single patient record carrying that display name,
// else the display name itself. Two unrecorded patients sharing a name
// share an inbox.
func ResolvePatientKey(name, patientID string, patients []*entity.Patient) string {
	if patientID != "" {
		return patientID
	}

	var match *entity.Patient
	for _, p := range patients {
		if p.PatientID != "" && p.PatientID == name {
			return name
		}
		if p.Name == name {
			if match != nil {
				return name
			}
			match = p
		}
	}
	if match != nil && match.PatientID != "" {
		return match.PatientID
	}
	return name
}
