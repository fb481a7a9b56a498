package entity

type AppointmentStatus string

const (
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusPending   AppointmentStatus = "pending"
	StatusCancelled AppointmentStatus = "cancelled"
)

func (s AppointmentStatus) Valid() bool {
	switch s {
	case StatusConfirmed, StatusPending, StatusCancelled:
		return true
	}
	return false
}

// Appointment is stored as an element of the "appointments" collection.
// Records are never removed, only flagged through Status.
type Appointment struct {
	ID                 string            `json:"id"`
	Patient            string            `json:"patient"`
	PatientID          string            `json:"patientId,omitempty"`
	Doctor             string            `json:"doctor,omitempty"`
	Department         string            `json:"department,omitempty"`
	Time               string            `json:"time"`
	Date               string            `json:"date"` // 2006-01-02
	Status             AppointmentStatus `json:"status"`
	Reason             string            `json:"reason,omitempty"`
	CancellationReason string            `json:"cancellationReason,omitempty"`
	RescheduleReason   string            `json:"rescheduleReason,omitempty"`
	Notes              string            `json:"notes,omitempty"`
}

func (a Appointment) RecordID() string {
	return a.ID
}
