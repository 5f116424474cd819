// Package adapter is the service adapter of the CLI: it turns domain calls
// into remote calls and every outcome into a tagged Result. Nothing in here
// panics or hands raw transport errors to the caller.
package adapter

import (
	"errors"

	"github.com/dmitrijs2005/tradehub/internal/common"
)

// Status tags the outcome of a remote operation.
type Status int

const (
	Success Status = iota
	NotFound
	// Denied covers both missing authentication and missing permission.
	Denied
	Invalid
	// Transient failures may succeed when retried by the user.
	Transient
)

func (s Status) String() string {
	switch s {
	case Success:
		return "success"
	case NotFound:
		return "not found"
	case Denied:
		return "denied"
	case Invalid:
		return "invalid"
	case Transient:
		return "transient failure"
	default:
		return "unknown"
	}
}

// Result is what every adapter operation reports. Err is nil on success.
type Result struct {
	Status Status
	Err    error
}

var ok = Result{Status: Success}

func (r Result) OK() bool { return r.Status == Success }

// Message is a human readable description, empty on success.
func (r Result) Message() string {
	if r.OK() {
		return ""
	}
	if r.Err == nil {
		return r.Status.String()
	}
	return r.Err.Error()
}

// Classify maps an error returned by the client onto a Status.
func Classify(err error) Status {
	switch {
	case err == nil:
		return Success
	case errors.Is(err, common.ErrorNotFound):
		return NotFound
	case errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrPermissionDenied),
		errors.Is(err, common.ErrRefreshTokenExpired),
		errors.Is(err, common.ErrTokenExpired),
		errors.Is(err, common.ErrInvalidToken):
		return Denied
	case errors.Is(err, common.ErrorInvalidArgument),
		errors.Is(err, common.ErrorAlreadyExists):
		return Invalid
	default:
		// client.ErrUnavailable, cancelled or timed out calls and
		// internal server errors.
		return Transient
	}
}

func resultOf(err error) Result {
	return Result{Status: Classify(err), Err: err}
}
