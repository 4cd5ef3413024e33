package validator_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/KrPrince19/CareNest/internal/validator"
)

type passwordForm struct {
	Password string `validate:"required,password_strength"`
}

type clockForm struct {
	Time string `validate:"required,clock_12h"`
}

func TestPasswordStrength(t *testing.T) {
	v := validator.New()

	valid := []string{"Secret123!", "Aaaa1@aa", "P4ssw#rdddd"}
	for _, password := range valid {
		assert.NoError(t, v.Validate(passwordForm{Password: password}), password)
	}

	invalid := []string{
		"alllower1!",  // no uppercase
		"NoDigits!!",  // no digit
		"NoSpecial11", // no special character
		"Aa1!",        // too short
	}
	for _, password := range invalid {
		assert.Error(t, v.Validate(passwordForm{Password: password}), password)
	}
}

func TestClock12h(t *testing.T) {
	v := validator.New()

	for _, in := range []string{"8:30 AM", "12:00 PM", "11:59 PM", "1:05 AM"} {
		assert.NoError(t, v.Validate(clockForm{Time: in}), in)
	}
	for _, in := range []string{"08:30", "13:00 PM", "8:30am", "8:61 AM", ""} {
		assert.Error(t, v.Validate(clockForm{Time: in}), in)
	}
}
