package utils

import (
	"crypto/rand"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

func GenerateOTP(length int) (string, error) {
	const digits = "0123456789"
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}

	otp := make([]byte, length)
	for i, b := range bytes {
		otp[i] = digits[int(b)%len(digits)]
	}
	return string(otp), nil
}

// MaskPhone hides all but the last 4 digits for display/logging.
func MaskPhone(phone string) string {
	if len(phone) <= 4 {
		return phone
	}
	return strings.Repeat("*", len(phone)-4) + phone[len(phone)-4:]
}

var titleCaser = cases.Title(language.English)

// StepLabel turns a step tag like "license_front" into "License Front".
func StepLabel(step string) string {
	return titleCaser.String(strings.ReplaceAll(step, "_", " "))
}
