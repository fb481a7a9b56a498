package routes

import (
	"cityhospital/cmd/internal/utils/apierror"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
)

type ExportService interface {
	ExportAppointments(date string, w io.Writer) apierror.ErrorResponse
}

type DefaultAdminRoute struct {
	Queries QueryService
	Export  ExportService
}

func NewAdminDefault(queries QueryService, export ExportService) *DefaultAdminRoute {
	return &DefaultAdminRoute{Queries: queries, Export: export}
}

// GetAppointments lists one day's appointments ("date" defaults to today).
func (a *DefaultAdminRoute) GetAppointments(c echo.Context) error {
	schedule, apierr := a.Queries.DailyAppointments(c.QueryParam("date"))
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, schedule)
}

func (a *DefaultAdminRoute) GetAppointment(c echo.Context) error {
	appt, apierr := a.Queries.Appointment(pathID(c))
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, appt)
}

func (a *DefaultAdminRoute) ExportAppointments(c echo.Context) error {
	date := c.QueryParam("date")
	if date == "" {
		return c.JSON(http.StatusBadRequest, apierror.NewMissingParamError("date"))
	}

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/csv")
	res.Header().Set(echo.HeaderContentDisposition, `attachment; filename="appointments-`+date+`.csv"`)

	if apierr := a.Export.ExportAppointments(date, &headerDeferredWriter{c: c}); apierr != nil {
		res.Header().Del(echo.HeaderContentType)
		res.Header().Del(echo.HeaderContentDisposition)
		return c.JSON(apierr.Code(), apierr)
	}
	if !res.Committed {
		res.WriteHeader(http.StatusOK)
	}
	return nil
}

// headerDeferredWriter commits the 200 status on the first write so an
// error before any output can still become a JSON response.
type headerDeferredWriter struct {
	c echo.Context
}

func (w *headerDeferredWriter) Write(p []byte) (int, error) {
	res := w.c.Response()
	if !res.Committed {
		res.WriteHeader(http.StatusOK)
	}
	return res.Write(p)
}
