package routes

import (
	"cityhospital/cmd/internal/domain/entity"
	"cityhospital/cmd/internal/service"
	"cityhospital/cmd/internal/utils/apierror"
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

type LifecycleService interface {
	Cancel(ctx context.Context, id string, form *service.CancelForm) (*service.LifecycleResult, apierror.ErrorResponse)
	Reschedule(ctx context.Context, id string, form *service.RescheduleForm) (*service.LifecycleResult, apierror.ErrorResponse)
	ApproveRequest(ctx context.Context, id string, form *service.ApproveForm) (*service.LifecycleResult, apierror.ErrorResponse)
	DeclineRequest(ctx context.Context, id string) (*service.LifecycleResult, apierror.ErrorResponse)
}

type QueryService interface {
	DailyAppointments(date string) (*service.DailySchedule, apierror.ErrorResponse)
	DoctorDashboard() *service.DoctorDashboard
	Requests(filter string) ([]*entity.AppointmentRequest, apierror.ErrorResponse)
	SearchPatients(term string) []*entity.Patient
	Appointment(id string) (*entity.Appointment, apierror.ErrorResponse)
	Request(id string) (*entity.AppointmentRequest, apierror.ErrorResponse)
	Patient(id string) (*entity.Patient, apierror.ErrorResponse)
}

type DefaultDoctorRoute struct {
	Lifecycle LifecycleService
	Queries   QueryService
}

func NewDoctorDefault(lifecycle LifecycleService, queries QueryService) *DefaultDoctorRoute {
	return &DefaultDoctorRoute{Lifecycle: lifecycle, Queries: queries}
}

func (d *DefaultDoctorRoute) GetDashboard(c echo.Context) error {
	return c.JSON(http.StatusOK, d.Queries.DoctorDashboard())
}

func (d *DefaultDoctorRoute) GetRequests(c echo.Context) error {
	reqs, apierr := d.Queries.Requests(c.QueryParam("filter"))
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	resp := echo.Map{"requests": reqs}
	return c.JSON(http.StatusOK, &resp)
}

func (d *DefaultDoctorRoute) GetRequest(c echo.Context) error {
	req, apierr := d.Queries.Request(pathID(c))
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, req)
}

func (d *DefaultDoctorRoute) GetPatient(c echo.Context) error {
	patient, apierr := d.Queries.Patient(pathID(c))
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, patient)
}

func (d *DefaultDoctorRoute) GetPatients(c echo.Context) error {
	patients := d.Queries.SearchPatients(c.QueryParam("q"))
	resp := echo.Map{"patients": patients}
	return c.JSON(http.StatusOK, &resp)
}

func (d *DefaultDoctorRoute) CancelAppointment(c echo.Context) error {
	var form service.CancelForm
	if err := c.Bind(&form); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedBodyError)
	}

	res, apierr := d.Lifecycle.Cancel(c.Request().Context(), pathID(c), &form)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, res)
}

func (d *DefaultDoctorRoute) RescheduleAppointment(c echo.Context) error {
	var form service.RescheduleForm
	if err := c.Bind(&form); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedBodyError)
	}

	res, apierr := d.Lifecycle.Reschedule(c.Request().Context(), pathID(c), &form)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, res)
}

func (d *DefaultDoctorRoute) ApproveRequest(c echo.Context) error {
	var form service.ApproveForm
	if err := c.Bind(&form); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedBodyError)
	}

	res, apierr := d.Lifecycle.ApproveRequest(c.Request().Context(), pathID(c), &form)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusCreated, res)
}

func (d *DefaultDoctorRoute) DeclineRequest(c echo.Context) error {
	res, apierr := d.Lifecycle.DeclineRequest(c.Request().Context(), pathID(c))
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, res)
}

func pathID(c echo.Context) string {
	return strings.TrimSpace(c.Param("id"))
}
