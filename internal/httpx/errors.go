package httpx

import (
	"errors"
	"fmt"
	"net/http"

	"go_domainbot/internal/apierr"
)

// Business error codes
const (
	CodeSuccess = 0

	// Authentication/Authorization errors (1000-1099)
	CodeUnauthorized = 1001 // Not logged in / token or init data missing
	CodeInvalidToken = 1002
	CodeTokenExpired = 1003
	CodeForbidden    = 1004

	// Parameter errors (2000-2099)
	CodeParamMissing = 2001
	CodeParamInvalid = 2002
	CodeParamIllegal = 2003

	// Resource/Business errors (3000-3999)
	CodeNotFound            = 3001
	CodeAlreadyExists       = 3002
	CodeStateConflict       = 3003
	CodeInsufficientBalance = 3004
	CodeTLDBlocked          = 3005
	CodeDomainUnavailable   = 3006
	CodeDuplicateDomain     = 3007

	// System errors (5000-5999)
	CodeInternalError = 5001
	CodeDatabaseError = 5002
	CodeExternalError = 5003
	CodeRateLimited   = 5004
)

// AppError represents an application error with HTTP status and business code
type AppError struct {
	HTTPStatus int
	Code       int
	Message    string // user-facing
	Err        error  // logged only
	Data       interface{}
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("code=%d, message=%s, err=%v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("code=%d, message=%s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// WithData adds additional data to the error
func (e *AppError) WithData(data interface{}) *AppError {
	e.Data = data
	return e
}

// NewAppError creates a new AppError
func NewAppError(httpStatus, code int, message string, err error) *AppError {
	return &AppError{
		HTTPStatus: httpStatus,
		Code:       code,
		Message:    message,
		Err:        err,
	}
}

func newDefault(httpStatus, code int, message, fallback string, err error) *AppError {
	if message == "" {
		message = fallback
	}
	return NewAppError(httpStatus, code, message, err)
}

func ErrUnauthorized(message string) *AppError {
	return newDefault(http.StatusUnauthorized, CodeUnauthorized, message, "unauthorized", nil)
}

func ErrInvalidToken(message string) *AppError {
	return newDefault(http.StatusUnauthorized, CodeInvalidToken, message, "invalid token", nil)
}

func ErrTokenExpired(message string) *AppError {
	return newDefault(http.StatusUnauthorized, CodeTokenExpired, message, "token expired", nil)
}

func ErrForbidden(message string) *AppError {
	return newDefault(http.StatusForbidden, CodeForbidden, message, "forbidden", nil)
}

func ErrParamMissing(message string) *AppError {
	return newDefault(http.StatusBadRequest, CodeParamMissing, message, "parameter missing", nil)
}

func ErrParamInvalid(message string) *AppError {
	return newDefault(http.StatusBadRequest, CodeParamInvalid, message, "parameter format error", nil)
}

func ErrParamIllegal(message string) *AppError {
	return newDefault(http.StatusBadRequest, CodeParamIllegal, message, "parameter value illegal", nil)
}

func ErrNotFound(message string) *AppError {
	return newDefault(http.StatusNotFound, CodeNotFound, message, "resource not found", nil)
}

func ErrAlreadyExists(message string) *AppError {
	return newDefault(http.StatusConflict, CodeAlreadyExists, message, "resource already exists", nil)
}

func ErrStateConflict(message string) *AppError {
	return newDefault(http.StatusConflict, CodeStateConflict, message, "current state does not allow operation", nil)
}

// ErrInsufficientBalance creates a 402 wallet balance error
func ErrInsufficientBalance(message string) *AppError {
	return newDefault(http.StatusPaymentRequired, CodeInsufficientBalance, message, "insufficient balance", nil)
}

// ErrTLDBlocked creates a 422 error for TLDs that cannot be registered
func ErrTLDBlocked(message string) *AppError {
	return newDefault(http.StatusUnprocessableEntity, CodeTLDBlocked, message, "tld cannot be registered", nil)
}

func ErrDomainUnavailable(message string) *AppError {
	return newDefault(http.StatusConflict, CodeDomainUnavailable, message, "domain is not available", nil)
}

func ErrDuplicateDomain(message string) *AppError {
	return newDefault(http.StatusConflict, CodeDuplicateDomain, message, "domain already registered", nil)
}

func ErrInternalError(message string, err error) *AppError {
	return newDefault(http.StatusInternalServerError, CodeInternalError, message, "internal error", err)
}

func ErrDatabaseError(message string, err error) *AppError {
	return newDefault(http.StatusInternalServerError, CodeDatabaseError, message, "database error", err)
}

func ErrExternalError(message string, err error) *AppError {
	return newDefault(http.StatusBadGateway, CodeExternalError, message, "external dependency failure", err)
}

func ErrRateLimited(message string, err error) *AppError {
	return newDefault(http.StatusServiceUnavailable, CodeRateLimited, message, "upstream rate limited", err)
}

// FromProvider maps a typed provider error to an AppError.
// Returns nil when err is not an *apierr.Error.
func FromProvider(err error) *AppError {
	var pe *apierr.Error
	if !errors.As(err, &pe) {
		return nil
	}
	switch pe.Kind {
	case apierr.KindConflict:
		return ErrDuplicateDomain(pe.Message)
	case apierr.KindNotFound:
		return NewAppError(http.StatusNotFound, CodeNotFound, pe.Service+": resource not found", err)
	case apierr.KindRateLimited:
		return ErrRateLimited(pe.Service+" rate limited", err)
	default:
		return ErrExternalError(pe.Service+" request failed", err)
	}
}
