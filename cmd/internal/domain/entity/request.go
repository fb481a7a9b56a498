package entity

type RequestType string

const (
	RequestNewPatient      RequestType = "New Patient"
	RequestExistingPatient RequestType = "Existing Patient"
)

func (t RequestType) Valid() bool {
	switch t {
	case RequestNewPatient, RequestExistingPatient:
		return true
	}
	return false
}

type RequestStatus string

const (
	RequestUrgent RequestStatus = "urgent"
	RequestNew    RequestStatus = "new"
)

func (s RequestStatus) Valid() bool {
	switch s {
	case RequestUrgent, RequestNew:
		return true
	}
	return false
}

// AppointmentRequest is a patient-initiated proposal. It is removed from
// its collection once approved or declined.
type AppointmentRequest struct {
	ID        string        `json:"id"`
	Patient   string        `json:"patient"`
	PatientID string        `json:"patientId,omitempty"`
	Date      string        `json:"date"` // free text, e.g. "Tomorrow, 10:00 AM"
	Reason    string        `json:"reason"`
	Type      RequestType   `json:"type"`
	Status    RequestStatus `json:"status"`
}

func (r AppointmentRequest) RecordID() string {
	return r.ID
}
