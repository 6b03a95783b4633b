package common

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"go_domainbot/internal/auth"
	"go_domainbot/internal/dns"
	"go_domainbot/internal/httpx"
	"go_domainbot/internal/registration"
	"go_domainbot/internal/repository"
	"go_domainbot/internal/trustee"
	"go_domainbot/internal/wallet"
)

// Fail maps service errors to the response envelope. Unknown errors fall
// through to httpx.FailAny.
func Fail(c *gin.Context, err error) {
	var blocked *trustee.BlockedError
	switch {
	case errors.As(err, &blocked):
		httpx.FailErr(c, httpx.ErrTLDBlocked(blocked.Error()).WithData(gin.H{
			"tld":     blocked.TLD,
			"country": blocked.Country,
			"reasons": blocked.Reasons,
		}))
	case errors.Is(err, registration.ErrInvalidDomain),
		errors.Is(err, registration.ErrUnsupportedTLD),
		errors.Is(err, registration.ErrInvalidNameservers),
		errors.Is(err, registration.ErrRequirements),
		errors.Is(err, dns.ErrInvalidRecord),
		errors.Is(err, wallet.ErrInvalidAmount),
		errors.Is(err, wallet.ErrBelowMinimum):
		httpx.FailErr(c, httpx.ErrParamIllegal(err.Error()))
	case errors.Is(err, registration.ErrNotAvailable):
		httpx.FailErr(c, httpx.ErrDomainUnavailable(err.Error()))
	case errors.Is(err, registration.ErrAlreadyRegistered):
		httpx.FailErr(c, httpx.ErrAlreadyExists(err.Error()))
	case errors.Is(err, wallet.ErrInsufficientBalance):
		httpx.FailErr(c, httpx.ErrInsufficientBalance(err.Error()))
	case errors.Is(err, registration.ErrNotOwner),
		errors.Is(err, repository.ErrNotFound),
		errors.Is(err, registration.ErrUnknownOrder),
		errors.Is(err, wallet.ErrUnknownReference):
		httpx.FailErr(c, httpx.ErrNotFound(""))
	case errors.Is(err, dns.ErrNoZone):
		httpx.FailErr(c, httpx.ErrStateConflict(err.Error()))
	case errors.Is(err, repository.ErrOrderStateChanged),
		errors.Is(err, repository.ErrTransactionFinalized):
		httpx.FailErr(c, httpx.ErrStateConflict(""))
	case errors.Is(err, repository.ErrDuplicate):
		httpx.FailErr(c, httpx.ErrAlreadyExists(""))
	case errors.Is(err, auth.ErrInitData):
		httpx.FailErr(c, httpx.ErrUnauthorized(err.Error()))
	default:
		httpx.FailAny(c, err)
	}
}

// IntParam parses a positive integer path parameter
func IntParam(c *gin.Context, name string) (int, bool) {
	v, err := strconv.Atoi(c.Param(name))
	if err != nil || v <= 0 {
		httpx.FailErr(c, httpx.ErrParamInvalid("invalid "+name))
		return 0, false
	}
	return v, true
}
