package cv

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
)

// MinimumAge is the age, in calendar years, a candidate must reach before a
// CV may be sent.
const MinimumAge = 13

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidationError is a local precondition failure. It is never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// Validate checks the fields RT-CV refuses to work without.
func Validate(c CV) error {
	return validateAt(c, time.Now())
}

func validateAt(c CV, now time.Time) error {
	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			if fieldErrs[0].Field() == "ReferenceNumber" {
				return &ValidationError{Field: "referenceNumber", Reason: "referenceNumber is required"}
			}
			return &ValidationError{Field: fieldErrs[0].Field(), Reason: fieldErrs[0].Error()}
		}
		return &ValidationError{Reason: err.Error()}
	}

	if c.PersonalDetails == nil || c.PersonalDetails.DateOfBirth == nil {
		return nil
	}
	// Only the year is compared, a candidate turning 13 later this year passes.
	if now.Year()-c.PersonalDetails.DateOfBirth.Year() < MinimumAge {
		return &ValidationError{Field: "personalDetails.dob", Reason: "you must be at least 13 years old to work"}
	}
	return nil
}
