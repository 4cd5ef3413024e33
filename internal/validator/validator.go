package validator

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	v := validator.New()
	v.RegisterValidation("password_strength", validatePasswordStrength)
	v.RegisterValidation("clock_12h", validateClock12h)
	return &Validator{validate: v}
}

func (v *Validator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}

var (
	hasUpper   = regexp.MustCompile(`[A-Z]`)
	hasDigit   = regexp.MustCompile(`\d`)
	hasSpecial = regexp.MustCompile(`[@$!%*?&#]`)

	clock12h = regexp.MustCompile(`^(1[0-2]|[1-9]):[0-5][0-9] (AM|PM)$`)
)

// validatePasswordStrength enforces the signup policy: at least 8 characters
// with an uppercase letter, a digit, and a special character.
func validatePasswordStrength(fl validator.FieldLevel) bool {
	password := fl.Field().String()
	if len(password) < 8 {
		return false
	}
	return hasUpper.MatchString(password) &&
		hasDigit.MatchString(password) &&
		hasSpecial.MatchString(password)
}

// validateClock12h accepts a 12-hour wall-clock string such as "8:30 AM".
func validateClock12h(fl validator.FieldLevel) bool {
	return clock12h.MatchString(fl.Field().String())
}
