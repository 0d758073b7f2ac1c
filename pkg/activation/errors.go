package activation

import (
	"code.mfactor.org/golang/internal/utils"
)

// errorFlag is a private error type that allows declaring error constants.
type errorFlag string

const (
	// All package errors are wrapping Error
	Error = errorFlag("activation: error")

	// ErrProtocolViolation flags structural issues in the handshake,
	// a message out of state order, a bad server signature, an unknown session.
	ErrProtocolViolation = errorFlag("activation: protocol violation")

	// ErrInvalidOtp flags a ceremony OTP that did not match.
	// The server collaborator counts these against maxFailedAttempts.
	ErrInvalidOtp = errorFlag("activation: invalid otp")

	// ErrNotFound flags a missing activation record.
	ErrNotFound = errorFlag("activation: not found")

	noError = errorFlag("")
)

// Error implements the error interface.
func (self errorFlag) Error() string {
	return string(self)
}

func (self errorFlag) Unwrap() error {
	if Error == self || noError == self {
		return nil
	} else {
		return Error
	}
}

// newError returns a utils.TracedErr{} that contains file & line of where it was called.
func newError(msg string, args ...any) error {
	return utils.NewError(1, Error, msg, args...)
}

// newFlagError returns a utils.TracedErr{} wrapping flag.
func newFlagError(flag error, msg string, args ...any) error {
	return utils.NewError(1, flag, msg, args...)
}

// wrapError returns a utils.TracedErr{} that contains file & line of where it was called.
func wrapError(cause error, msg string, args ...any) error {
	return utils.WrapError(cause, 1, Error, msg, args...)
}

// wrapFlagError returns a utils.TracedErr{} wrapping both flag and cause.
func wrapFlagError(cause error, flag error, msg string, args ...any) error {
	return utils.WrapError(cause, 1, flag, msg, args...)
}
