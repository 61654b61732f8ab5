package service

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"prizewheel/models"
)

var (
	emailPattern       = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9._%+-]*@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	nationalIDPattern  = regexp.MustCompile(`^\d{10}$`)
	phonePattern       = regexp.MustCompile(`^09\d{8}$`)
	displayNamePattern = regexp.MustCompile(`^\p{L}{2,}(\s+\p{L}{2,})+$`)
)

// RegistrationRequest carries the fields captured at registration
type RegistrationRequest struct {
	Email       string `json:"email" validate:"required,participant_email"`
	DisplayName string `json:"display_name" validate:"required,display_name"`
	NationalID  string `json:"national_id" validate:"required,national_id"`
	Phone       string `json:"phone" validate:"required,mobile_phone"`
}

// Normalize trims every field and normalizes the email into an identity
func (r RegistrationRequest) Normalize() RegistrationRequest {
	return RegistrationRequest{
		Email:       models.NormalizeIdentity(r.Email),
		DisplayName: strings.Join(strings.Fields(r.DisplayName), " "),
		NationalID:  strings.TrimSpace(r.NationalID),
		Phone:       strings.TrimSpace(r.Phone),
	}
}

// Profile converts a normalized request into the stored profile
func (r RegistrationRequest) Profile() *models.Profile {
	return &models.Profile{
		Identity:    r.Email,
		DisplayName: r.DisplayName,
		NationalID:  r.NationalID,
		Phone:       r.Phone,
	}
}

var messages = map[string]string{
	"required":          "is required",
	"participant_email": "must be an email whose local part starts with a letter",
	"display_name":      "must contain at least two names of two or more letters",
	"national_id":       "must be exactly 10 digits",
	"mobile_phone":      "must be 10 digits starting with 09",
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return field.Name
			}
			return name
		})
		registerPattern(validate, "participant_email", emailPattern)
		registerPattern(validate, "display_name", displayNamePattern)
		registerPattern(validate, "national_id", nationalIDPattern)
		registerPattern(validate, "mobile_phone", phonePattern)
	})
	return validate
}

func registerPattern(v *validator.Validate, tag string, pattern *regexp.Regexp) {
	// Registration only fails for empty tags or nil functions
	_ = v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		return pattern.MatchString(fl.Field().String())
	})
}

// ValidateRegistration checks every field of a normalized request and reports all failures
func ValidateRegistration(req RegistrationRequest) error {
	err := getValidator().Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	result := make(ValidationErrors, 0, len(fieldErrs))
	for _, fieldErr := range fieldErrs {
		message, ok := messages[fieldErr.Tag()]
		if !ok {
			message = "is invalid"
		}
		result = append(result, &ValidationError{Field: fieldErr.Field(), Message: message})
	}
	return result
}
