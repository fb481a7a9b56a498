package routes

import (
	"cityhospital/cmd/internal/domain/entity"
	"cityhospital/cmd/internal/utils"
	"cityhospital/cmd/internal/utils/apierror"
	"context"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

type NotificationRelay interface {
	Send(ctx context.Context, patientKey, message string, typ entity.NotificationType) (*entity.Notification, error)
	PollUnread(ctx context.Context, patientKey string) ([]*entity.Notification, error)
	PollUnreadFor(ctx context.Context, patientKey, consumer string) ([]*entity.Notification, error)
	List(ctx context.Context, patientKey string) ([]*entity.Notification, error)
	UnreadCount(ctx context.Context, patientKey string) (int, error)
}

type SendNotificationRequest struct {
	Message string `json:"message" validate:"required,max=1000"`
	Type    string `json:"type" validate:"omitempty,oneof=info success appointment cancellation confirmation"`
}

type DefaultPatientRoute struct {
	Relay    NotificationRelay
	Validate *validator.Validate
}

func NewPatientDefault(relay NotificationRelay, validate *validator.Validate) *DefaultPatientRoute {
	return &DefaultPatientRoute{Relay: relay, Validate: validate}
}

// GetNotifications returns the whole inbox without marking anything read.
func (p *DefaultPatientRoute) GetNotifications(c echo.Context) error {
	key := strings.TrimSpace(c.Param("key"))
	if key == "" {
		return c.JSON(http.StatusBadRequest, apierror.NewMissingParamError("key"))
	}

	ctx := c.Request().Context()
	all, err := p.Relay.List(ctx, key)
	if err != nil {
		log.Errorf("failed to list notifications for %s: %v", key, err)
		return c.JSON(http.StatusInternalServerError, apierror.InternalServerError)
	}
	unread, err := p.Relay.UnreadCount(ctx, key)
	if err != nil {
		log.Errorf("failed to count notifications for %s: %v", key, err)
		return c.JSON(http.StatusInternalServerError, apierror.InternalServerError)
	}

	resp := echo.Map{"notifications": all, "unread": unread}
	return c.JSON(http.StatusOK, &resp)
}

// PollNotifications drains unread notifications. With ?consumer= only that
// consumer's cursor advances.
func (p *DefaultPatientRoute) PollNotifications(c echo.Context) error {
	key := strings.TrimSpace(c.Param("key"))
	if key == "" {
		return c.JSON(http.StatusBadRequest, apierror.NewMissingParamError("key"))
	}

	unread, err := p.Relay.PollUnreadFor(c.Request().Context(), key, strings.TrimSpace(c.QueryParam("consumer")))
	if err != nil {
		log.Errorf("failed to poll notifications for %s: %v", key, err)
		return c.JSON(http.StatusInternalServerError, apierror.InternalServerError)
	}
	if unread == nil {
		unread = []*entity.Notification{}
	}

	resp := echo.Map{"notifications": unread, "count": len(unread)}
	return c.JSON(http.StatusOK, &resp)
}

// SendNotification lets staff post a free-form message to a patient.
func (p *DefaultPatientRoute) SendNotification(c echo.Context) error {
	key := strings.TrimSpace(c.Param("key"))
	if key == "" {
		return c.JSON(http.StatusBadRequest, apierror.NewMissingParamError("key"))
	}

	var req SendNotificationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedBodyError)
	}
	utils.Sanitize(&req)
	if err := p.Validate.Struct(&req); err != nil {
		apierr := apierror.FromValidationError(err)
		return c.JSON(apierr.Code(), apierr)
	}

	sent, err := p.Relay.Send(c.Request().Context(), key, req.Message, entity.NotificationType(req.Type))
	if err != nil {
		log.Errorf("failed to send notification to %s: %v", key, err)
		return c.JSON(http.StatusInternalServerError, apierror.InternalServerError)
	}
	return c.JSON(http.StatusCreated, sent)
}
