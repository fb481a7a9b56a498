package entity

type Patient struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	PatientID       string `json:"patientId"`
	Age             int    `json:"age"`
	LastVisit       string `json:"lastVisit"`
	Conditions      string `json:"conditions"`
	Medications     string `json:"medications"`
	NextAppointment string `json:"nextAppointment"`
}

func (p Patient) RecordID() string {
	return p.ID
}
