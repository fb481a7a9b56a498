package service

import (
	"cityhospital/cmd/internal/domain/entity"
	"cityhospital/cmd/internal/utils"
	"cityhospital/cmd/internal/utils/apierror"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	FilterAll              = "all"
	FilterNewPatients      = "new-patients"
	FilterExistingPatients = "existing-patients"
	FilterUrgent           = "urgent"
)

type AppointmentStats struct {
	Total     int `json:"total"`
	Confirmed int `json:"confirmed"`
	Pending   int `json:"pending"`
	Cancelled int `json:"cancelled"`
}

type DailySchedule struct {
	Date         string                `json:"date"`
	Stats        AppointmentStats      `json:"stats"`
	Appointments []*entity.Appointment `json:"appointments"`
}

type DoctorDashboard struct {
	Date            string `json:"date"`
	TodayConfirmed  int    `json:"today_confirmed"`
	PendingRequests int    `json:"pending_requests"`
	TodaySummary    string `json:"today_summary"`
	PendingSummary  string `json:"pending_requests_summary"`
}

// DefaultQueryService answers the read-only views of the admin and doctor
// pages from the repository cache.
type DefaultQueryService struct {
	Records RecordRepository
	Now     func() time.Time
}

func NewQueryService(records RecordRepository) *DefaultQueryService {
	return &DefaultQueryService{Records: records, Now: time.Now}
}

func (q *DefaultQueryService) DailyAppointments(date string) (*DailySchedule, apierror.ErrorResponse) {
	if date == "" {
		date = q.today()
	}
	if _, err := time.Parse(utils.DateLayout, date); err != nil {
		return nil, apierror.NewSimple(http.StatusBadRequest, "Could not understand date format, expected YYYY-MM-DD")
	}

	schedule := &DailySchedule{Date: date, Appointments: []*entity.Appointment{}}
	for _, appt := range q.Records.Snapshot().Appointments {
		if appt.Date != date {
			continue
		}
		schedule.Appointments = append(schedule.Appointments, appt)
		schedule.Stats.Total++
		switch appt.Status {
		case entity.StatusConfirmed:
			schedule.Stats.Confirmed++
		case entity.StatusPending:
			schedule.Stats.Pending++
		case entity.StatusCancelled:
			schedule.Stats.Cancelled++
		}
	}
	return schedule, nil
}

func (q *DefaultQueryService) DoctorDashboard() *DoctorDashboard {
	set := q.Records.Snapshot()
	today := q.today()

	confirmed := 0
	for _, appt := range set.Appointments {
		if appt.Date == today && appt.Status == entity.StatusConfirmed {
			confirmed++
		}
	}
	return &DoctorDashboard{
		Date:            today,
		TodayConfirmed:  confirmed,
		PendingRequests: len(set.Requests),
		TodaySummary:    fmt.Sprintf("You have %d appointments scheduled for today", confirmed),
		PendingSummary:  fmt.Sprintf("%d appointment requests awaiting your approval", len(set.Requests)),
	}
}

func (q *DefaultQueryService) Requests(filter string) ([]*entity.AppointmentRequest, apierror.ErrorResponse) {
	var keep func(*entity.AppointmentRequest) bool
	switch strings.ToLower(strings.TrimSpace(filter)) {
	case "", FilterAll:
		keep = func(*entity.AppointmentRequest) bool { return true }
	case FilterNewPatients:
		keep = func(r *entity.AppointmentRequest) bool { return r.Type == entity.RequestNewPatient }
	case FilterExistingPatients:
		keep = func(r *entity.AppointmentRequest) bool { return r.Type == entity.RequestExistingPatient }
	case FilterUrgent:
		keep = func(r *entity.AppointmentRequest) bool { return r.Status == entity.RequestUrgent }
	default:
		return nil, apierror.NewSimple(http.StatusBadRequest, fmt.Sprintf("Unknown filter: %s", filter))
	}

	out := []*entity.AppointmentRequest{}
	for _, r := range q.Records.Snapshot().Requests {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (q *DefaultQueryService) Appointment(id string) (*entity.Appointment, apierror.ErrorResponse) {
	appt, ok := q.Records.FindAppointment(id)
	if !ok {
		return nil, apierror.NewNotFoundError("appointment", id)
	}
	return &appt, nil
}

func (q *DefaultQueryService) Request(id string) (*entity.AppointmentRequest, apierror.ErrorResponse) {
	req, ok := q.Records.FindRequest(id)
	if !ok {
		return nil, apierror.NewNotFoundError("request", id)
	}
	return &req, nil
}

// Patient looks a patient up by record id ("3001") or patient id ("P12345").
func (q *DefaultQueryService) Patient(id string) (*entity.Patient, apierror.ErrorResponse) {
	if p, ok := q.Records.FindPatient(id); ok {
		return &p, nil
	}
	for _, p := range q.Records.Snapshot().Patients {
		if p.PatientID == id {
			return p, nil
		}
	}
	return nil, apierror.NewNotFoundError("patient", id)
}

// SearchPatients matches term against name, patient id and conditions,
// ignoring case. An empty term returns every patient.
func (q *DefaultQueryService) SearchPatients(term string) []*entity.Patient {
	patients := q.Records.Snapshot().Patients
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return patients
	}

	out := []*entity.Patient{}
	for _, p := range patients {
		if strings.Contains(strings.ToLower(p.Name), term) ||
			strings.Contains(strings.ToLower(p.PatientID), term) ||
			strings.Contains(strings.ToLower(p.Conditions), term) {
			out = append(out, p)
		}
	}
	return out
}

var exportHeader = []string{"id", "time", "patient", "doctor", "department", "status", "reason"}

// ExportAppointments writes the day's appointments as CSV.
func (q *DefaultQueryService) ExportAppointments(date string, w io.Writer) apierror.ErrorResponse {
	schedule, apierr := q.DailyAppointments(date)
	if apierr != nil {
		return apierr
	}

	cw := csv.NewWriter(w)
	_ = cw.Write(exportHeader)
	for _, appt := range schedule.Appointments {
		_ = cw.Write([]string{appt.ID, appt.Time, appt.Patient, appt.Doctor, appt.Department, string(appt.Status), appt.Reason})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return apierror.InternalServerError
	}
	return nil
}

func (q *DefaultQueryService) today() string {
	now := time.Now
	if q.Now != nil {
		now = q.Now
	}
	return now().Format(utils.DateLayout)
}
