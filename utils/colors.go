package utils

import (
	"fmt"
	"net/http"
)

const (
	Reset  = "\033[0m"
	Red    = "\033[31m"
	Green  = "\033[32m"
	Yellow = "\033[33m"
	Cyan   = "\033[36m"
)

func ColorText(text, color string) string {
	return color + text + Reset
}

// ColorStatus renders an HTTP status code with a color matching its class.
func ColorStatus(statusCode int) string {
	var color string
	switch {
	case statusCode >= 200 && statusCode < 300:
		color = Green
	case statusCode >= 400 && statusCode < 500:
		color = Yellow
	case statusCode >= 500:
		color = Red
	default:
		color = Reset
	}
	return fmt.Sprintf("%s%d %s%s", color, statusCode, http.StatusText(statusCode), Reset)
}
