package utils

import (
	"fmt"
	"path"
	"runtime"
)

// TracedErr is an error type that records where the error was raised.
// Errors raised by MFactor code base functions are TracedErr instances; the
// plain JSON and CBOR serializers of internal/transport return library errors as is.
//
// Each package may define a private flag error type and a set of **constants** errors having such types.
// Those flags can be assigned to returned TracedErr to simplify error checking using golang errors.Is.
type TracedErr struct {
	// Flag allows grouping related errors.
	Flag error

	// Cause is the error that caused the TracedErr{}.
	Cause error

	// Msg describes what happened.
	Msg string

	// Filename is the source file that contains the code that emitted the error.
	Filename string

	// Line is the location in the source file of the code that emitted the error.
	Line int
}

// Error implements the error interface.
func (self TracedErr) Error() string {
	return fmt.Sprintf("%s: %s\n  file: %s line: %d\n%v", path.Dir(self.Filename), self.Msg, self.Filename, self.Line, self.Cause)
}

// Unwrap returns a slice that contains the causes of the TracedErr.
func (self TracedErr) Unwrap() []error {
	rv := make([]error, 0, 2)
	if nil != self.Flag {
		rv = append(rv, self.Flag)
	}
	if nil != self.Cause {
		rv = append(rv, self.Cause)
	}
	return rv
}

// NewError returns a TracedErr{} that contains file & line of where it was called.
//
// skip allows controlling Caller frame resolution, if you are calling NewError directly set skip to 0,
// if you are calling NewError from an intermediary newError function set skip to 1...
func NewError(skip int, flag error, msg string, args ...any) error {
	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}
	err := TracedErr{Flag: flag, Msg: msg}
	addCallerFileLine(skip, &err)
	return err
}

// WrapError returns a TracedErr{} that contains file & line of where it was called.
// If cause is nil, WrapError returns nil.
//
// skip allows controlling Caller frame resolution, if you are calling WrapError directly set skip to 0,
// if you are calling WrapError from an intermediary wrapError function set skip to 1...
func WrapError(cause error, skip int, flag error, msg string, args ...any) error {
	if nil == cause {
		return nil
	}
	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}
	err := TracedErr{Flag: flag, Cause: cause, Msg: msg}
	addCallerFileLine(skip, &err)
	return err
}

func addCallerFileLine(skip int, err *TracedErr) {
	_, filename, line, ok := runtime.Caller(2 + skip)
	dirname, filename := path.Split(filename)
	if ok {
		err.Filename = path.Join(path.Base(dirname), filename)
		err.Line = line
	}
}
