package usecase

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/xavierca1/edconsult-leads/internal/entity"
)

var (
	emailPattern     = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern     = regexp.MustCompile(`^\+?\d{1,16}$`)
	phoneSeparators  = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "")
	requiredFieldSet = []string{"name", "email", "phone", "countryOfInterest", "programType"}
	programTypes     = []entity.ProgramType{
		entity.ProgramBachelor,
		entity.ProgramMasters,
		entity.ProgramPhD,
		entity.ProgramLanguage,
		entity.ProgramFoundation,
		entity.ProgramNonDegree,
	}
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	mustRegister(v, "leademail", func(fl validator.FieldLevel) bool {
		return IsValidEmail(fl.Field().String())
	})
	mustRegister(v, "leadphone", func(fl validator.FieldLevel) bool {
		return IsValidPhone(fl.Field().String())
	})
	mustRegister(v, "programtype", func(fl validator.FieldLevel) bool {
		return isProgramType(fl.Field().String())
	})
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(err)
	}
}

func IsValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// IsValidPhone accepts an optional leading + and up to 16 digits once
// spaces, hyphens and parentheses are removed.
func IsValidPhone(phone string) bool {
	return phonePattern.MatchString(phoneSeparators.Replace(phone))
}

func isProgramType(s string) bool {
	for _, p := range programTypes {
		if string(p) == s {
			return true
		}
	}
	return false
}

// ValidateCaptureLeadInput reports a missing required field before any
// format problem, so a half-filled form always gets the same message.
func ValidateCaptureLeadInput(input CaptureLeadInput) []ValidationError {
	err := validate.Struct(input)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []ValidationError{{Field: "payload", Message: err.Error()}}
	}

	var out []ValidationError
	for _, fe := range fieldErrs {
		if fe.Tag() == "required" {
			return []ValidationError{{
				Field:   fe.Field(),
				Message: "Please fill in all required fields: " + strings.Join(requiredFieldSet, ", "),
			}}
		}
		out = append(out, ValidationError{Field: fe.Field(), Message: formatMessage(fe)})
	}
	return out
}

func formatMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "leademail":
		return "Please provide a valid email address"
	case "leadphone":
		return "Please provide a valid phone number"
	case "programtype":
		names := make([]string, len(programTypes))
		for i, p := range programTypes {
			names[i] = string(p)
		}
		return "programType must be one of: " + strings.Join(names, ", ")
	case "max":
		return fmt.Sprintf("%s must not exceed %s characters", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}

func validationMessage(errs []ValidationError) string {
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, e.Message)
	}
	return strings.Join(msgs, "; ")
}
