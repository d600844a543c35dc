package validator

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

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

// UserValidator checks registration and login input. Password policy knobs
// come from configuration.
type UserValidator struct {
	validate          *validator.Validate
	passwordMinLength int
	requireMixed      bool
}

func NewUserValidator(passwordMinLength int, requireMixed bool) *UserValidator {
	return &UserValidator{
		validate:          validator.New(),
		passwordMinLength: passwordMinLength,
		requireMixed:      requireMixed,
	}
}

// ValidateRegister expects the request to be sanitized already: the username
// length check runs against the normalized form.
func (v *UserValidator) ValidateRegister(req *model.RegisterRequest) error {
	if err := v.validate.Struct(req); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}

	if err := v.checkPasswordPolicy(req.Password); err != nil {
		return err
	}

	if err := timezone.Validate(req.Timezone); err != nil {
		return ValidationErrors{
			ValidationError{
				Field:   "Timezone",
				Message: err.Error(),
			},
		}
	}

	return nil
}

func (v *UserValidator) ValidateLogin(req *model.LoginRequest) error {
	if err := v.validate.Struct(req); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}

	return nil
}

func (v *UserValidator) ValidateTimezone(tz string) error {
	if err := timezone.Validate(tz); err != nil {
		return ValidationErrors{
			ValidationError{
				Field:   "Timezone",
				Message: err.Error(),
			},
		}
	}

	return nil
}

// checkPasswordPolicy never includes the password value in its errors.
func (v *UserValidator) checkPasswordPolicy(password string) error {
	if utf8.RuneCountInString(password) < v.passwordMinLength {
		return ValidationErrors{
			ValidationError{
				Field:   "Password",
				Message: fmt.Sprintf("password must be at least %d characters", v.passwordMinLength),
			},
		}
	}

	if v.requireMixed {
		var hasUpper, hasLower, hasDigit bool
		for _, r := range password {
			switch {
			case unicode.IsUpper(r):
				hasUpper = true
			case unicode.IsLower(r):
				hasLower = true
			case unicode.IsDigit(r):
				hasDigit = true
			}
		}
		if !hasUpper || !hasLower || !hasDigit {
			return ValidationErrors{
				ValidationError{
					Field:   "Password",
					Message: "password must contain upper and lower case letters and a digit",
				},
			}
		}
	}

	return nil
}

func (v *UserValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s characters", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s characters", err.Field(), err.Param())
		case "oneof":
			message = fmt.Sprintf("%s must be one of: %s", err.Field(), err.Param())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
