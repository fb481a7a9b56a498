package validators

import (
	"cityhospital/cmd/internal/utils"
	"time"

	"github.com/go-playground/validator/v10"
)

// IsISODate accepts dates in the 2006-01-02 form.
func IsISODate(fl validator.FieldLevel) bool {
	_, err := time.Parse("2006-01-02", fl.Field().String())
	return err == nil
}

// IsClock accepts 24h "HH:MM" times as produced by a time input, and
// display times such as "2:30 PM".
func IsClock(fl validator.FieldLevel) bool {
	return utils.IsClock(fl.Field().String())
}

// New returns a validator with the custom tags registered.
func New() *validator.Validate {
	validate := validator.New()
	_ = validate.RegisterValidation("isodate", IsISODate)
	_ = validate.RegisterValidation("clock", IsClock)
	return validate
}
