package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies workflow failures. Retryability is part of the
// kind so handlers never have to infer it from message text.
type ErrorKind string

const (
	KindUnsupportedMediaType    ErrorKind = "unsupported_media_type"
	KindPayloadTooLarge         ErrorKind = "payload_too_large"
	KindInvalidPhoneFormat      ErrorKind = "invalid_phone_format"
	KindChallengeDeliveryFailed ErrorKind = "challenge_delivery_failed"
	KindChallengeMismatch       ErrorKind = "challenge_mismatch"
	KindChallengeExpired        ErrorKind = "challenge_expired"
	KindResendLimit             ErrorKind = "resend_limit"
	KindIncompleteEvidence      ErrorKind = "incomplete_evidence"
	KindDuplicateSubmission     ErrorKind = "duplicate_submission"
	KindSubmissionRejected      ErrorKind = "submission_rejected"
	KindCapabilityUnavailable   ErrorKind = "capability_unavailable"
	KindNetworkFailure          ErrorKind = "network_failure"
	KindSessionNotFound         ErrorKind = "session_not_found"
	KindInvalidStep             ErrorKind = "invalid_step"
	KindInvalidCodeFormat       ErrorKind = "invalid_code_format"
	KindAlreadyVerified         ErrorKind = "already_verified"
	KindAccountNotEnabled       ErrorKind = "account_not_enabled"
	KindOperationInFlight       ErrorKind = "operation_in_flight"
)

type FlowError struct {
	Kind      ErrorKind
	Message   string
	Retryable bool
	Err       error
}

func (e *FlowError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *FlowError) Unwrap() error { return e.Err }

var (
	ErrUnsupportedMediaType = &FlowError{Kind: KindUnsupportedMediaType, Message: "unsupported media type, an image is required"}
	ErrPayloadTooLarge      = &FlowError{Kind: KindPayloadTooLarge, Message: "image exceeds the maximum allowed size"}
	ErrInvalidPhoneFormat   = &FlowError{Kind: KindInvalidPhoneFormat, Message: "invalid phone number format"}
	ErrChallengeMismatch    = &FlowError{Kind: KindChallengeMismatch, Message: "incorrect verification code", Retryable: true}
	ErrChallengeExpired     = &FlowError{Kind: KindChallengeExpired, Message: "verification code expired, request a new one", Retryable: true}
	ErrResendLimit          = &FlowError{Kind: KindResendLimit, Message: "too many codes requested, try again later"}
	ErrIncompleteEvidence   = &FlowError{Kind: KindIncompleteEvidence, Message: "one or more verification steps are incomplete"}
	ErrDuplicateSubmission  = &FlowError{Kind: KindDuplicateSubmission, Message: "a submission is already in progress"}
	ErrSessionNotFound      = &FlowError{Kind: KindSessionNotFound, Message: "no open verification session"}
	ErrInvalidStep          = &FlowError{Kind: KindInvalidStep, Message: "step not valid for this operation"}
	ErrInvalidCodeFormat    = &FlowError{Kind: KindInvalidCodeFormat, Message: "verification code must be 6 digits", Retryable: true}
	ErrReviewPending        = &FlowError{Kind: KindDuplicateSubmission, Message: "verification is already under review"}
	ErrAlreadyVerified      = &FlowError{Kind: KindAlreadyVerified, Message: "identity is already verified"}
	ErrAccountNotEnabled    = &FlowError{Kind: KindAccountNotEnabled, Message: "payout account is not fully enabled"}
	ErrOperationInFlight    = &FlowError{Kind: KindOperationInFlight, Message: "operation already in flight"}
)

func DeliveryFailedError(err error) *FlowError {
	return &FlowError{Kind: KindChallengeDeliveryFailed, Message: "failed to deliver verification code", Retryable: true, Err: err}
}

func SubmissionRejectedError(reason string) *FlowError {
	return &FlowError{Kind: KindSubmissionRejected, Message: reason, Retryable: true}
}

// CapabilityUnavailableError is terminal: retrying cannot succeed, so it
// must never be presented with a retry affordance.
func CapabilityUnavailableError(err error) *FlowError {
	return &FlowError{Kind: KindCapabilityUnavailable, Message: "payout accounts are not available in your region", Err: err}
}

func NetworkFailureError(err error) *FlowError {
	return &FlowError{Kind: KindNetworkFailure, Message: "network failure, please try again", Retryable: true, Err: err}
}

// KindOf returns the FlowError kind, or empty string for foreign errors.
func KindOf(err error) ErrorKind {
	var fe *FlowError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}

func IsRetryable(err error) bool {
	var fe *FlowError
	if errors.As(err, &fe) {
		return fe.Retryable
	}
	return false
}
