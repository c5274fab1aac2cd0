package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateOTP(t *testing.T) {
	for i := 0; i < 20; i++ {
		otp, err := GenerateOTP(6)
		require.NoError(t, err)
		assert.Len(t, otp, 6)
		assert.Regexp(t, `^[0-9]{6}$`, otp)
	}
}

func TestMaskPhone(t *testing.T) {
	assert.Equal(t, "*********0001", MaskPhone("+971500000001"))
	assert.Equal(t, "1234", MaskPhone("1234"))
	assert.Equal(t, "", MaskPhone(""))
}

func TestStepLabel(t *testing.T) {
	assert.Equal(t, "License Front", StepLabel("license_front"))
	assert.Equal(t, "Selfie", StepLabel("selfie"))
	assert.Equal(t, "Phone", StepLabel("phone"))
}

func TestValidPhoneNumber(t *testing.T) {
	valid := []string{"+971500000001", "971500000001", "12345678"}
	for _, phone := range valid {
		assert.True(t, ValidPhoneNumber(phone), phone)
	}

	invalid := []string{"", "1234567", "+12 34 56 78", "abc12345678", "+1234567890123456"}
	for _, phone := range invalid {
		assert.False(t, ValidPhoneNumber(phone), phone)
	}
}

func TestValidOtpCode(t *testing.T) {
	assert.True(t, ValidOtpCode("012345"))
	assert.False(t, ValidOtpCode("12345"))
	assert.False(t, ValidOtpCode("1234567"))
	assert.False(t, ValidOtpCode("12a456"))
	assert.False(t, ValidOtpCode(""))
}
