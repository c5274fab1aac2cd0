package utils

import (
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"
)

func PrintLogInfo(username *string, statusCode int, functionName string, err *error) {
	var logColor string

	switch statusCode {
	case http.StatusOK, http.StatusCreated, http.StatusAccepted:
		logColor = Green
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound, http.StatusConflict, http.StatusUnprocessableEntity, http.StatusTooManyRequests:
		logColor = Yellow
	case http.StatusInternalServerError, http.StatusNotImplemented, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		logColor = Red
	default:
		logColor = Reset
	}

	user := "Unknown"
	if username != nil {
		user = *username
	}

	msg := fmt.Sprintf("User: %s | Status: %s | Function: %s", user, ColorStatus(statusCode), functionName)
	if err != nil && *err != nil {
		msg = fmt.Sprintf("%s | Error: %v", msg, *err)
		log.Error().Msg(msg)
	} else {
		log.Info().Msg(msg)
	}
	fmt.Printf("%s%s%s\n", logColor, msg, Reset)
}
