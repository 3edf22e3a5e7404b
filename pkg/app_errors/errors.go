package apperrors

import (
	"errors"
	"net/http"
)

// Kind 錯誤分類，handler 依此決定 HTTP 狀態碼
type Kind string

const (
	KindNotFound          Kind = "not_found"
	KindUnauthenticated   Kind = "unauthenticated"
	KindUnauthorized      Kind = "unauthorized"
	KindConflict          Kind = "conflict"
	KindResourceExhausted Kind = "resource_exhausted"
	KindInvalidArgument   Kind = "invalid_argument"
	KindTooManyRequests   Kind = "too_many_requests"
	KindInternal          Kind = "internal"
)

// AppError is a sentinel carrying a stable Kind. Compare with errors.Is.
type AppError struct {
	Kind    Kind
	Message string
}

func (e *AppError) Error() string {
	return e.Message
}

func newError(kind Kind, msg string) *AppError {
	return &AppError{Kind: kind, Message: msg}
}

var (
	ErrEventNotFound        = newError(KindNotFound, "event not found")
	ErrUserNotFound         = newError(KindNotFound, "user not found")
	ErrRegistrationNotFound = newError(KindNotFound, "registration not found")

	ErrUnauthenticated    = newError(KindUnauthenticated, "invalid or expired token")
	ErrInvalidCredentials = newError(KindUnauthenticated, "invalid email or password")
	ErrForbidden          = newError(KindUnauthorized, "admin access required")

	ErrAlreadyRegistered          = newError(KindConflict, "already registered for this event")
	ErrEmailTaken                 = newError(KindConflict, "email already registered")
	ErrEventHasRegistrations      = newError(KindConflict, "event has registrations and cannot be deleted")
	ErrCapacityBelowRegistrations = newError(KindConflict, "max_participants is below the number of completed registrations")

	ErrEventFull = newError(KindResourceExhausted, "event is at maximum capacity")

	ErrAmountMismatch       = newError(KindInvalidArgument, "payment amount does not match event price")
	ErrInvalidPaymentStatus = newError(KindInvalidArgument, "invalid payment status")
	ErrInvalidInput         = newError(KindInvalidArgument, "invalid input")

	ErrRetryExhausted = newError(KindTooManyRequests, "registration is busy, try again")
	ErrRateLimited    = newError(KindTooManyRequests, "rate limit exceeded")

	ErrTicketCodeExhausted = newError(KindInternal, "could not allocate a unique ticket code")
	ErrInternalServerError = newError(KindInternal, "internal server error")
)

// KindOf returns the Kind of the first AppError in err's chain, KindInternal otherwise.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// Invalid builds an InvalidArgument error with a field specific message.
// errors.Is(err, ErrInvalidInput) holds for the result.
func Invalid(msg string) error {
	return &invalidError{msg: msg}
}

type invalidError struct {
	msg string
}

func (e *invalidError) Error() string { return e.msg }

func (e *invalidError) Unwrap() error { return ErrInvalidInput }

// HTTPStatus 依錯誤分類對應 HTTP 狀態碼
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindUnauthorized, KindResourceExhausted:
		return http.StatusForbidden
	case KindConflict:
		return http.StatusConflict
	case KindInvalidArgument:
		return http.StatusBadRequest
	case KindTooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage is the message safe to return to a client. Internal errors are masked.
func PublicMessage(err error) string {
	if KindOf(err) == KindInternal {
		return ErrInternalServerError.Message
	}
	return err.Error()
}
