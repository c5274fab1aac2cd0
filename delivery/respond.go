package delivery

import (
	"net/http"

	"yayago/domain"
	"yayago/utils"

	"github.com/gin-gonic/gin"
)

func statusForKind(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindUnsupportedMediaType:
		return http.StatusUnsupportedMediaType
	case domain.KindPayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	case domain.KindInvalidPhoneFormat, domain.KindIncompleteEvidence,
		domain.KindInvalidCodeFormat, domain.KindInvalidStep,
		domain.KindAccountNotEnabled, domain.KindSubmissionRejected:
		return http.StatusUnprocessableEntity
	case domain.KindChallengeMismatch:
		return http.StatusUnauthorized
	case domain.KindChallengeExpired:
		return http.StatusGone
	case domain.KindResendLimit:
		return http.StatusTooManyRequests
	case domain.KindDuplicateSubmission, domain.KindOperationInFlight, domain.KindAlreadyVerified:
		return http.StatusConflict
	case domain.KindChallengeDeliveryFailed, domain.KindNetworkFailure:
		return http.StatusBadGateway
	case domain.KindCapabilityUnavailable:
		return http.StatusServiceUnavailable
	case domain.KindSessionNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// respondFlowError maps a workflow error onto the teacher envelope. The
// retryable flag is taken from the error kind, never guessed from text.
func respondFlowError(c *gin.Context, user *string, functionName string, err error) {
	kind := domain.KindOf(err)
	status := statusForKind(kind)

	message := err.Error()
	if kind == "" {
		message = utils.TranslateDBError(err)
	}

	utils.PrintLogInfo(user, status, functionName, &err)
	c.JSON(status, gin.H{
		"success":   false,
		"message":   message,
		"error":     string(kind),
		"retryable": domain.IsRetryable(err),
	})
}
