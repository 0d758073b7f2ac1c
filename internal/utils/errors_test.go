package utils

import (
	"errors"
	"io"
	"testing"
)

func TestErrorNew(t *testing.T) {
	err := newError("reached limit temperature %d", 123)
	t.Logf("err -> %v", err)
	if !errors.Is(err, Error) {
		t.Error("Oops, err is not utils.Error")
	}
	_, ok := err.(TracedErr)
	if !ok {
		t.Error("Oops, can not cast err to TracedErr")
	}
}

func TestErrorWrap(t *testing.T) {
	err := wrapError(io.EOF, "io operation failed unexpectedly")
	t.Logf("err -> %v", err)
	if !errors.Is(err, Error) {
		t.Error("Oops, err is not utils.Error")
	}
	if !errors.Is(err, io.EOF) {
		t.Error("Oops, err is not an io.EOF")
	}
	_, ok := err.(TracedErr)
	if !ok {
		t.Error("Oops, can not cast err to TracedErr")
	}
}

func TestErrorWrapNil(t *testing.T) {
	err := wrapError(nil, "shall stay nil")
	if nil != err {
		t.Errorf("Oops, wrapping nil returned %v", err)
	}
}
