package entity

type NotificationType string

const (
	NotificationInfo         NotificationType = "info"
	NotificationSuccess      NotificationType = "success"
	NotificationAppointment  NotificationType = "appointment"
	NotificationCancellation NotificationType = "cancellation"
	NotificationConfirmation NotificationType = "confirmation"
)

func (t NotificationType) Valid() bool {
	switch t {
	case NotificationInfo, NotificationSuccess, NotificationAppointment, NotificationCancellation, NotificationConfirmation:
		return true
	}
	return false
}

type Notification struct {
	ID        int64            `json:"id"`
	Message   string           `json:"message"`
	Type      NotificationType `json:"type"`
	Timestamp string           `json:"timestamp"` // RFC3339
	Read      bool             `json:"read"`
}

// Inbox maps a patient key to its insertion-ordered queue.
type Inbox map[string][]*Notification

// ReadCursors maps a patient key to the last notification id each consumer has seen.
type ReadCursors map[string]map[string]int64
