package apierr

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Kind classifies a provider failure
type Kind string

const (
	KindAuth        Kind = "auth"
	KindNotFound    Kind = "not_found"
	KindConflict    Kind = "conflict"
	KindRateLimited Kind = "rate_limited"
	KindUnavailable Kind = "unavailable"
	KindUnknown     Kind = "unknown"
)

// Error is a typed failure returned by an upstream provider client
type Error struct {
	Service    string // openprovider, cloudflare, blockbee, whm
	Op         string
	Kind       Kind
	StatusCode int
	Code       int // provider-specific code, 0 if none
	Message    string
	Err        error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s %s: %s", e.Service, e.Op, e.Kind)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (http %d)", e.StatusCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error by Kind, so errors.Is(err, &Error{Kind: KindConflict}) works
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Service == "" || t.Service == e.Service)
}

// New creates a typed error
func New(service, op string, kind Kind, message string) *Error {
	return &Error{Service: service, Op: op, Kind: kind, Message: message}
}

// FromStatus builds an error from a non-success HTTP response
func FromStatus(service, op string, status int, message string) *Error {
	return &Error{
		Service:    service,
		Op:         op,
		Kind:       KindForStatus(status),
		StatusCode: status,
		Message:    message,
	}
}

// FromTransport wraps a network-level failure (timeout, refused, DNS)
func FromTransport(service, op string, err error) *Error {
	kind := KindUnavailable
	if errors.Is(err, context.Canceled) {
		kind = KindUnknown
	}
	return &Error{Service: service, Op: op, Kind: kind, Err: err}
}

// KindForStatus maps an HTTP status to a failure kind
func KindForStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return KindAuth
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusConflict:
		return KindConflict
	case status == http.StatusTooManyRequests:
		return KindRateLimited
	case status == http.StatusRequestTimeout || status >= 500:
		return KindUnavailable
	default:
		return KindUnknown
	}
}

// KindOf returns the kind of err, or KindUnknown when err carries none
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func IsAuth(err error) bool        { return err != nil && KindOf(err) == KindAuth }
func IsNotFound(err error) bool    { return err != nil && KindOf(err) == KindNotFound }
func IsConflict(err error) bool    { return err != nil && KindOf(err) == KindConflict }
func IsUnavailable(err error) bool { return err != nil && KindOf(err) == KindUnavailable }

// IsTimeout reports whether err is a network timeout
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
