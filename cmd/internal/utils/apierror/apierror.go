package apierror

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrorResponse is what services hand back to routes. A nil ErrorResponse
// means success.
type ErrorResponse interface {
	error
	Code() int
}

type SimpleError struct {
	Status  int    `json:"code"`
	Message string `json:"message"`
}

func (e *SimpleError) Error() string {
	return e.Message
}

func (e *SimpleError) Code() int {
	return e.Status
}

// ValidationError lists every request field that failed validation.
type ValidationError struct {
	SimpleError
	Fields []FieldError `json:"fields"`
}

type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

func NewSimple(code int, message string) *SimpleError {
	return &SimpleError{Status: code, Message: message}
}

func NewMissingParamError(name string) *SimpleError {
	return NewSimple(http.StatusBadRequest, fmt.Sprintf("Missing parameter: %s", name))
}

func NewNotFoundError(kind, id string) *SimpleError {
	return NewSimple(http.StatusNotFound, fmt.Sprintf("%s %s not found", kind, id))
}

var (
	InternalServerError = NewSimple(http.StatusInternalServerError, "Internal server error")
	MalformedBodyError  = NewSimple(http.StatusBadRequest, "Malformed request body")
	AlreadyCancelled    = NewSimple(http.StatusConflict, "Appointment is already cancelled")
)

// FromValidationError converts validator output into a 422 response.
// Anything that is not a validator error becomes a malformed body error.
func FromValidationError(err error) ErrorResponse {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return MalformedBodyError
	}

	fields := make([]FieldError, len(verrs))
	names := make([]string, len(verrs))
	for i, fe := range verrs {
		fields[i] = FieldError{Field: fe.Field(), Rule: fe.Tag()}
		names[i] = fe.Field()
	}
	return &ValidationError{
		SimpleError: SimpleError{
			Status:  http.StatusUnprocessableEntity,
			Message: "Invalid fields: " + strings.Join(names, ", "),
		},
		Fields: fields,
	}
}

// IsNotFound reports whether err is a soft not-found outcome.
func IsNotFound(err error) bool {
	var resp ErrorResponse
	return errors.As(err, &resp) && resp.Code() == http.StatusNotFound
}
