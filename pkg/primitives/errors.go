package primitives

import (
	"code.mfactor.org/golang/internal/utils"
)

// errorFlag is a private error type that allows declaring error constants.
type errorFlag string

const (
	// All package errors are wrapping Error
	Error = errorFlag("primitives: error")

	// ErrInvalidInput flags arguments of wrong length or format.
	ErrInvalidInput = errorFlag("primitives: invalid input")

	// ErrInvalidKey flags key material rejected by a primitive.
	ErrInvalidKey = errorFlag("primitives: invalid key")

	// ErrCryptoFailure flags failures reported by the underlying provider.
	// Callers shall surface it as a plain verification failure, the cause is deliberately not detailed.
	ErrCryptoFailure = errorFlag("primitives: crypto failure")

	// ErrRngExhaustion flags a random source that keeps returning unusable output.
	ErrRngExhaustion = errorFlag("primitives: rng exhaustion")

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
