package service

import "cityhospital/cmd/internal/domain/entity"

func defaultAppointments() []*entity.Appointment {
	appt := func(id, patient, clock, date, reason string) *entity.Appointment {
		return &entity.Appointment{
			ID:         id,
			Patient:    patient,
			Doctor:     "Dr. Myoui",
			Department: "Cardiology",
			Time:       clock,
			Date:       date,
			Reason:     reason,
			Status:     entity.StatusConfirmed,
		}
	}
	return []*entity.Appointment{
		appt("1001", "Chou Tzuyu", "10:00 AM", "2023-06-14", "Follow-up consultation"),
		appt("1002", "Son Chaeyoung", "11:30 AM", "2023-06-13", "New patient - Heart palpitations"),
		appt("1003", "Minatozaki Sana", "2:15 PM", "2023-06-15", "ECG results review"),
		appt("1004", "Minatozaki Sana", "9:00 AM", "2023-06-15", "Consultation"),
		appt("1005", "Park Jihyo", "11:00 AM", "2023-06-15", "Checkup"),
		appt("1006", "Im Nayeon", "1:00 PM", "2023-06-13", "Chest pain evaluation"),
		appt("1007", "Kim Dahyun", "2:00 PM", "2023-06-14", "Medication follow-up"),
	}
}

func defaultRequests() []*entity.AppointmentRequest {
	return []*entity.AppointmentRequest{
		{ID: "2001", Patient: "Im Nayeon", Date: "Tomorrow, 10:00 AM", Reason: "Chest pain and shortness of breath", Type: entity.RequestNewPatient, Status: entity.RequestUrgent},
		{ID: "2002", Patient: "Park Jihyo", Date: "June 20, 2:30 PM", Reason: "Routine cardiac checkup", Type: entity.RequestExistingPatient, Status: entity.RequestNew},
		{ID: "2003", Patient: "Kim Dahyun", Date: "June 18, 4:00 PM", Reason: "Follow-up on medication", Type: entity.RequestExistingPatient, Status: entity.RequestNew},
	}
}

func defaultPatients() []*entity.Patient {
	return []*entity.Patient{
		{ID: "3001", Name: "Chou Tzuyu", PatientID: "P12345", Age: 28, LastVisit: "June 10, 2023", Conditions: "Hypertension, Coronary Artery Disease", Medications: "Lisinopril 10mg, Atorvastatin 20mg, Aspirin 81mg", NextAppointment: "June 14, 2023 at 8:00 AM"},
		{ID: "3002", Name: "Son Chaeyoung", PatientID: "P12346", Age: 25, LastVisit: "June 5, 2023", Conditions: "Heart Palpitations, Mitral Valve Prolapse", Medications: "Metoprolol 25mg, Magnesium Supplement", NextAppointment: "June 13, 2023 at 11:30 AM"},
		{ID: "3003", Name: "Minatozaki Sana", PatientID: "P12347", Age: 30, LastVisit: "June 8, 2023", Conditions: "Arrhythmia, High Cholesterol", Medications: "Amiodarone 200mg, Rosuvastatin 10mg", NextAppointment: "June 15, 2023 at 2:15 PM"},
	}
}
