package errors

import (
	"errors"
	"fmt"
)

// Code identifies the failure class to the API layer. Codes are stable wire
// values; messages are free text.
type Code string

const (
	CodeInvalidArgument    Code = "INVALID_ARGUMENT"
	CodeSelfTarget         Code = "SELF_TARGET"
	CodeAlreadyLiked       Code = "ALREADY_LIKED"
	CodeInsufficientLikes  Code = "INSUFFICIENT_LIKES"
	CodeDailyLimitReached  Code = "DAILY_LIMIT_REACHED"
	CodeInsufficientCredit Code = "INSUFFICIENT_CREDITS"
	CodeNoRewindAvailable  Code = "NO_REWIND_AVAILABLE"
	CodeRewindExpired      Code = "REWIND_EXPIRED"
	CodePremiumRequired    Code = "PREMIUM_REQUIRED"
	CodeBlocked            Code = "BLOCKED"
	CodeNotFound           Code = "NOT_FOUND"
	CodeInternal           Code = "INTERNAL"
)

// AppError carries a code plus an optional wrapped cause.
type AppError struct {
	Code    Code
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Cause }

// Is matches two AppErrors by code, so services can compare against the
// sentinel constructors below with errors.Is.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

func New(code Code, message string) error {
	return &AppError{Code: code, Message: message}
}

func Wrap(code Code, message string, cause error) error {
	return &AppError{Code: code, Message: message, Cause: cause}
}

// CodeOf extracts the code from any error in the chain, or CodeInternal.
func CodeOf(err error) Code {
	var e *AppError
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// Domain sentinels. Compare with errors.Is.
var (
	ErrSelfTarget        = New(CodeSelfTarget, "cannot act on yourself")
	ErrAlreadyLiked      = New(CodeAlreadyLiked, "already liked this profile")
	ErrInsufficientLikes = New(CodeInsufficientLikes, "no superlikes available")
	ErrDailyLimitReached = New(CodeDailyLimitReached, "daily like limit reached")
	ErrInsufficientCredits = New(CodeInsufficientCredit, "insufficient credits")
	ErrNoRewindAvailable   = New(CodeNoRewindAvailable, "nothing to rewind")
	ErrRewindExpired       = New(CodeRewindExpired, "last pass is too old to rewind")
	ErrPremiumRequired     = New(CodePremiumRequired, "premium subscription required")
	ErrBlocked             = New(CodeBlocked, "pair is blocked")
)

func InvalidArgument(msg string) error {
	return New(CodeInvalidArgument, msg)
}

func NotFound(msg string) error {
	return New(CodeNotFound, msg)
}

func Internal(msg string, cause error) error {
	return Wrap(CodeInternal, msg, cause)
}
