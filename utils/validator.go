package utils

import (
	"errors"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	phoneRegex   = regexp.MustCompile(`^\+?[0-9]{8,15}$`)
	otpCodeRegex = regexp.MustCompile(`^[0-9]{6}$`)
)

// RegisterCustomValidations registers custom validation rules
func RegisterCustomValidations(v *validator.Validate) {
	v.RegisterValidation("phonenumber", validatePhoneNumber)
	v.RegisterValidation("otpcode", validateOtpCode)
}

// validatePhoneNumber checks an E.164-style number (8-15 digits, optional +)
func validatePhoneNumber(fl validator.FieldLevel) bool {
	return phoneRegex.MatchString(fl.Field().String())
}

// validateOtpCode checks a 6-digit numeric code
func validateOtpCode(fl validator.FieldLevel) bool {
	return otpCodeRegex.MatchString(fl.Field().String())
}

// ValidPhoneNumber is the same minimum-length check applied before any
// delivery attempt, for callers outside gin binding.
func ValidPhoneNumber(phone string) bool {
	return phoneRegex.MatchString(phone)
}

func ValidOtpCode(code string) bool {
	return otpCodeRegex.MatchString(code)
}

func TranslateValidationError(err error) string {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		var messages []string
		for _, fe := range ve {
			field := fe.Field()
			switch fe.Tag() {
			case "required":
				messages = append(messages, field+" is required")
			case "email":
				messages = append(messages, "invalid email format")
			case "min":
				messages = append(messages, field+" must be at least "+fe.Param()+" characters")
			case "max":
				messages = append(messages, field+" must be at most "+fe.Param()+" characters")
			case "numeric":
				messages = append(messages, field+" must contain only numbers")
			case "url":
				messages = append(messages, field+" must be a valid URL")
			case "phonenumber":
				messages = append(messages, field+" must be a valid phone number (e.g., +971500000000)")
			case "otpcode":
				messages = append(messages, field+" must be a 6-digit code")
			case "oneof":
				messages = append(messages, field+" must be one of: "+fe.Param())
			default:
				messages = append(messages, field+" is invalid")
			}
		}
		return strings.Join(messages, ", ")
	}
	return err.Error()
}
