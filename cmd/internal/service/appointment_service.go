package service

import (
	"cityhospital/cmd/internal/domain/entity"
	"cityhospital/cmd/internal/metrics"
	"cityhospital/cmd/internal/utils"
	"cityhospital/cmd/internal/utils/apierror"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/gommon/log"
)

const (
	noReasonText    = "No reason provided"
	firstSequenceID = 1000
)

type CancelForm struct {
	Reason string `json:"reason" validate:"max=500"`
}

type RescheduleForm struct {
	Date   string `json:"date" validate:"required,isodate"`
	Time   string `json:"time" validate:"required,clock"`
	Reason string `json:"reason" validate:"max=500"`
}

type ApproveForm struct {
	Notes string `json:"notes" validate:"max=1000"`
}

// LifecycleResult is the record a transition produced and the notification
// it sent, if any.
type LifecycleResult struct {
	Appointment  *entity.Appointment        `json:"appointment,omitempty"`
	Request      *entity.AppointmentRequest `json:"request,omitempty"`
	Notification *entity.Notification       `json:"notification,omitempty"`
}

type DefaultAppointmentService struct {
	Records    RecordRepository
	Validate   *validator.Validate
	Metrics    *metrics.PortalMetrics
	DoctorName string
	// Department is used for approved appointments when the doctor has no
	// earlier appointment to copy it from.
	Department string
	Now        func() time.Time
}

func NewAppointmentService(records RecordRepository, validate *validator.Validate, m *metrics.PortalMetrics, doctorName string) *DefaultAppointmentService {
	return &DefaultAppointmentService{
		Records:    records,
		Validate:   validate,
		Metrics:    m,
		DoctorName: doctorName,
		Now:        time.Now,
	}
}

// Cancel flags the appointment cancelled and tells the patient why.
func (a *DefaultAppointmentService) Cancel(ctx context.Context, id string, form *CancelForm) (*LifecycleResult, apierror.ErrorResponse) {
	if id == "" {
		return nil, apierror.NewMissingParamError("id")
	}
	utils.Sanitize(form)
	if err := a.Validate.Struct(form); err != nil {
		return nil, apierror.FromValidationError(err)
	}

	var result *LifecycleResult
	err := a.Records.Mutate(ctx, func(set *RecordSet) error {
		appt, err := findAppointment(set, id)
		if err != nil {
			return err
		}

		slot := fmt.Sprintf("%s on %s", appt.Time, appt.Date)
		appt.Status = entity.StatusCancelled
		appt.CancellationReason = form.Reason

		msg := fmt.Sprintf("Your appointment with %s scheduled for %s has been cancelled. Reason: %s",
			a.doctorFor(appt), slot, reasonOrDefault(form.Reason))
		sent := appendNotification(set.Inbox, ResolvePatientKey(appt.Patient, appt.PatientID, set.Patients), msg, entity.NotificationCancellation, a.now())

		result = &LifecycleResult{Appointment: copyAppointment(appt), Notification: copyNotification(sent)}
		return nil
	})
	return a.finish("cancel", id, result, err)
}

// Reschedule moves the appointment to a new slot. The status is unchanged.
func (a *DefaultAppointmentService) Reschedule(ctx context.Context, id string, form *RescheduleForm) (*LifecycleResult, apierror.ErrorResponse) {
	if id == "" {
		return nil, apierror.NewMissingParamError("id")
	}
	utils.Sanitize(form)
	if err := a.Validate.Struct(form); err != nil {
		return nil, apierror.FromValidationError(err)
	}

	var result *LifecycleResult
	err := a.Records.Mutate(ctx, func(set *RecordSet) error {
		appt, err := findAppointment(set, id)
		if err != nil {
			return err
		}

		oldDate, oldTime := appt.Date, appt.Time
		newTime := utils.ClockWithSeconds(form.Time)
		appt.Date = form.Date
		appt.Time = newTime
		appt.RescheduleReason = form.Reason

		msg := fmt.Sprintf("Your appointment with %s has been rescheduled from %s on %s to %s on %s. Reason: %s",
			a.doctorFor(appt), oldTime, oldDate, newTime, utils.FormatShortDate(form.Date), reasonOrDefault(form.Reason))
		sent := appendNotification(set.Inbox, ResolvePatientKey(appt.Patient, appt.PatientID, set.Patients), msg, entity.NotificationAppointment, a.now())

		result = &LifecycleResult{Appointment: copyAppointment(appt), Notification: copyNotification(sent)}
		return nil
	})
	return a.finish("reschedule", id, result, err)
}

// ApproveRequest turns a pending request into a confirmed appointment and
// removes the request.
func (a *DefaultAppointmentService) ApproveRequest(ctx context.Context, id string, form *ApproveForm) (*LifecycleResult, apierror.ErrorResponse) {
	if id == "" {
		return nil, apierror.NewMissingParamError("id")
	}
	utils.Sanitize(form)
	if err := a.Validate.Struct(form); err != nil {
		return nil, apierror.FromValidationError(err)
	}

	var result *LifecycleResult
	err := a.Records.Mutate(ctx, func(set *RecordSet) error {
		idx := findIndex(set.Requests, id)
		if idx < 0 {
			return apierror.NewNotFoundError("request", id)
		}
		req := set.Requests[idx]

		now := a.now()
		date, clock := utils.ParsePreferredSlot(req.Date, now)
		appt := &entity.Appointment{
			ID:         nextAppointmentID(set.Appointments),
			Patient:    req.Patient,
			PatientID:  req.PatientID,
			Doctor:     a.DoctorName,
			Department: a.departmentOf(set.Appointments, a.DoctorName),
			Time:       clock,
			Date:       date,
			Status:     entity.StatusConfirmed,
			Reason:     req.Reason,
			Notes:      form.Notes,
		}
		set.Appointments = append(set.Appointments, appt)
		set.Requests = append(set.Requests[:idx], set.Requests[idx+1:]...)

		msg := fmt.Sprintf("Your appointment request with %s has been approved. Scheduled for %s on %s.",
			a.doctorFor(appt), appt.Time, appt.Date)
		sent := appendNotification(set.Inbox, ResolvePatientKey(req.Patient, req.PatientID, set.Patients), msg, entity.NotificationConfirmation, now)

		removed := *req
		result = &LifecycleResult{Appointment: copyAppointment(appt), Request: &removed, Notification: copyNotification(sent)}
		return nil
	})
	return a.finish("approve", id, result, err)
}

// DeclineRequest removes the request. The patient is not notified.
func (a *DefaultAppointmentService) DeclineRequest(ctx context.Context, id string) (*LifecycleResult, apierror.ErrorResponse) {
	if id == "" {
		return nil, apierror.NewMissingParamError("id")
	}

	var result *LifecycleResult
	err := a.Records.Mutate(ctx, func(set *RecordSet) error {
		idx := findIndex(set.Requests, id)
		if idx < 0 {
			return apierror.NewNotFoundError("request", id)
		}
		removed := *set.Requests[idx]
		set.Requests = append(set.Requests[:idx], set.Requests[idx+1:]...)
		result = &LifecycleResult{Request: &removed}
		return nil
	})
	return a.finish("decline", id, result, err)
}

func (a *DefaultAppointmentService) finish(op, id string, result *LifecycleResult, err error) (*LifecycleResult, apierror.ErrorResponse) {
	if err == nil {
		a.Metrics.ObserveTransition(op, "ok")
		if result.Notification != nil {
			a.Metrics.ObserveNotification(string(result.Notification.Type))
		}
		log.Infof("%s %s succeeded", op, id)
		return result, nil
	}

	var apierr apierror.ErrorResponse
	if errors.As(err, &apierr) {
		outcome := "rejected"
		switch {
		case apierror.IsNotFound(apierr):
			outcome = "not_found"
		case apierr.Code() == http.StatusConflict:
			outcome = "conflict"
		}
		a.Metrics.ObserveTransition(op, outcome)
		return nil, apierr
	}

	a.Metrics.ObserveTransition(op, "error")
	log.Errorf("failed to %s %s: %v", op, id, err)
	return nil, apierror.InternalServerError
}

func (a *DefaultAppointmentService) doctorFor(appt *entity.Appointment) string {
	if appt.Doctor != "" {
		return appt.Doctor
	}
	return a.DoctorName
}

// departmentOf takes the department from the doctor's latest appointment
// that names one.
func (a *DefaultAppointmentService) departmentOf(appts []*entity.Appointment, doctor string) string {
	for i := len(appts) - 1; i >= 0; i-- {
		if appts[i].Doctor == doctor && appts[i].Department != "" {
			return appts[i].Department
		}
	}
	return a.Department
}

func (a *DefaultAppointmentService) now() time.Time {
	if a.Now == nil {
		return time.Now()
	}
	return a.Now()
}

// findAppointment returns the appointment if it can still transition.
func findAppointment(set *RecordSet, id string) (*entity.Appointment, error) {
	idx := findIndex(set.Appointments, id)
	if idx < 0 {
		return nil, apierror.NewNotFoundError("appointment", id)
	}
	appt := set.Appointments[idx]
	if appt.Status == entity.StatusCancelled {
		return nil, apierror.AlreadyCancelled
	}
	return appt, nil
}

// nextAppointmentID is one past the highest numeric id in use. Appointments
// are never deleted, so ids are never reissued.
func nextAppointmentID(appts []*entity.Appointment) string {
	highest := firstSequenceID
	for _, appt := range appts {
		if n, err := strconv.Atoi(appt.ID); err == nil && n > highest {
			highest = n
		}
	}
	return strconv.Itoa(highest + 1)
}

func reasonOrDefault(reason string) string {
	if reason == "" {
		return noReasonText
	}
	return reason
}

func copyAppointment(appt *entity.Appointment) *entity.Appointment {
	c := *appt
	return &c
}

func copyNotification(n *entity.Notification) *entity.Notification {
	c := *n
	return &c
}
