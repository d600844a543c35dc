package validator

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"slotboard/pkg/model"
	"slotboard/pkg/timezone"

	"github.com/go-playground/validator/v10"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

type BookingValidator struct {
	validate *validator.Validate
}

func NewBookingValidator() *BookingValidator {
	return &BookingValidator{
		validate: validator.New(),
	}
}

// ValidateCreate checks the request and returns start and end parsed from
// RFC 3339 and normalized to UTC. Offsets in the input are honored during
// parsing and then discarded: storage and comparisons are UTC only.
func (v *BookingValidator) ValidateCreate(req *model.BookingCreate) (time.Time, time.Time, error) {
	var zero time.Time

	if err := v.validate.Struct(req); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return zero, zero, v.translateValidationErrors(validationErrs)
		}
		return zero, zero, err
	}

	start, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		return zero, zero, ValidationErrors{
			ValidationError{
				Field:   "StartTime",
				Message: "start_time must be a valid RFC 3339 timestamp",
			},
		}
	}

	end, err := time.Parse(time.RFC3339, req.EndTime)
	if err != nil {
		return zero, zero, ValidationErrors{
			ValidationError{
				Field:   "EndTime",
				Message: "end_time must be a valid RFC 3339 timestamp",
			},
		}
	}

	start = start.UTC()
	end = end.UTC()

	if !end.After(start) {
		return zero, zero, ValidationErrors{
			ValidationError{
				Field:   "EndTime",
				Message: "end_time must be after start_time",
			},
		}
	}

	// Creation-time check only. Bookings that have since started stay
	// listable and deletable.
	if start.Before(time.Now().UTC()) {
		return zero, zero, ValidationErrors{
			ValidationError{
				Field:   "StartTime",
				Message: "start_time cannot be in the past",
			},
		}
	}

	if err := timezone.Validate(req.UserTimezone); err != nil {
		return zero, zero, ValidationErrors{
			ValidationError{
				Field:   "UserTimezone",
				Message: err.Error(),
			},
		}
	}

	return start, end, nil
}

func (v *BookingValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
