// Package apperr holds the error taxonomy returned by the queue core.
// Transport code maps Kind to a response status; the core never renders messages itself.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindConflict
	KindForbidden
	KindInvalidInput
	KindTransient
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindForbidden:
		return "forbidden"
	case KindInvalidInput:
		return "invalid_input"
	case KindTransient:
		return "transient"
	default:
		return "unknown"
	}
}

type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error by Kind and Msg so sentinel values work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Msg == t.Msg
}

func NotFound(msg string) *Error     { return &Error{Kind: KindNotFound, Msg: msg} }
func Conflict(msg string) *Error     { return &Error{Kind: KindConflict, Msg: msg} }
func Forbidden(msg string) *Error    { return &Error{Kind: KindForbidden, Msg: msg} }
func InvalidInput(msg string) *Error { return &Error{Kind: KindInvalidInput, Msg: msg} }

// Transient wraps a store failure; callers may retry.
func Transient(msg string, err error) *Error {
	return &Error{Kind: KindTransient, Msg: msg, Err: err}
}

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Message returns the client-facing message of err.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Msg
	}
	return err.Error()
}

// Domain sentinels.
var (
	ErrProviderNotFound  = NotFound("provider not found")
	ErrTokenNotFound     = NotFound("token not found")
	ErrSwapNotFound      = NotFound("swap request not found")
	ErrNoActiveToken     = NotFound("no active token in queue today")
	ErrNoServingToken    = NotFound("no token is being served")
	ErrTargetNotWaiting  = NotFound("target token is not waiting")
	ErrNoPendingSwap     = NotFound("no pending swap request")
	ErrNotOperator       = Forbidden("not an operator of this provider")
	ErrNotSwapReceiver   = Forbidden("only the receiving client can answer this swap")
	ErrSelfSwap          = Conflict("cannot swap with your own token")
	ErrSwapLimit         = Conflict("outgoing swap request limit reached")
	ErrDuplicateSwap     = Conflict("identical swap request already pending")
	ErrSwapProcessed     = Conflict("swap request already processed")
	ErrSwapExpired       = Conflict("swap request expired")
	ErrSwapNotEligible   = Conflict("tokens no longer eligible for swap")
	ErrProviderClosed    = Conflict("provider is closed")
	ErrQuotaFull         = Conflict("daily quota reached")
	ErrTokenFinished     = Conflict("token already finished")
	ErrNumberCollision   = Conflict("token number collision, retry")
	ErrInvalidTarget     = InvalidInput("target_token must be a positive number")
	ErrInvalidDuration   = InvalidInput("consultation_minutes must be positive")
	ErrMissingProviderID = InvalidInput("provider id is required")
)
