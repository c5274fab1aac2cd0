package utils

import (
	"errors"
	"strings"

	"github.com/jackc/pgconn"
	"gorm.io/gorm"
)

// TranslateDBError turns database errors into human-readable messages
func TranslateDBError(err error) string {
	if err == nil {
		return ""
	}

	// PostgreSQL-specific errors
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // Unique violation
			msg := "Duplicate value, please use another"
			if strings.Contains(pgErr.Message, "partner_profiles_email_key") {
				msg = "Email already exists"
			} else if strings.Contains(pgErr.Message, "partner_profiles_phone_key") {
				msg = "Phone number already exists"
			}
			return msg

		case "23503":
			return "This record is referenced by another table"

		case "23502":
			return "Some required fields are missing"

		case "22P02":
			return "Invalid data format"

		case "42703":
			return "Column not found in database"
		}

		return "A database error occurred"
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "Record not found"
	}

	lowerErr := strings.ToLower(err.Error())
	if strings.Contains(lowerErr, "context deadline exceeded") {
		return "Request timeout"
	}
	if strings.Contains(lowerErr, "context canceled") {
		return "Request was cancelled"
	}

	return err.Error()
}
