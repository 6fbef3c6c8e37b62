// Package status defines the numeric error codes returned by the write and
// match-expression parsers, and the error type that carries them.
package status

import (
	"errors"
	"fmt"
)

// Code is a numeric database error code.
type Code int32

const (
	OK                        Code = 0
	InternalError             Code = 1
	BadValue                  Code = 2
	NoSuchKey                 Code = 4
	FailedToParse             Code = 9
	Unauthorized              Code = 13
	TypeMismatch              Code = 14
	ProtocolError             Code = 17
	InvalidBSON               Code = 22
	MaxTimeMSExpired          Code = 50
	InvalidNamespace          Code = 73
	DocumentValidationFailure Code = 121
	InvalidLength             Code = 342
	BSONObjectTooLarge        Code = 10334
	IDLDuplicateField         Code = 40413
	IDLMissingField           Code = 40414
	IDLUnknownField           Code = 40415
)

var codeNames = map[Code]string{
	OK:                        "OK",
	InternalError:             "InternalError",
	BadValue:                  "BadValue",
	NoSuchKey:                 "NoSuchKey",
	FailedToParse:             "FailedToParse",
	Unauthorized:              "Unauthorized",
	TypeMismatch:              "TypeMismatch",
	ProtocolError:             "ProtocolError",
	InvalidBSON:               "InvalidBSON",
	MaxTimeMSExpired:          "MaxTimeMSExpired",
	InvalidNamespace:          "InvalidNamespace",
	DocumentValidationFailure: "DocumentValidationFailure",
	InvalidLength:             "InvalidLength",
	BSONObjectTooLarge:        "BSONObjectTooLarge",
	IDLDuplicateField:         "Location40413",
	IDLMissingField:           "Location40414",
	IDLUnknownField:           "Location40415",
}

func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Location%d", int32(c))
}

// Error is an error tagged with a Code.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is a *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code && (t.Message == "" || t.Message == e.Message)
}

// New returns an *Error with the given code and message.
func New(code Code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

// Newf returns an *Error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap tags err with code. The message is taken from msg.
func Wrap(code Code, err error, msg string) *Error {
	return &Error{Code: code, Message: msg, Err: err}
}

// Wrapf is Wrap with a formatted message.
func Wrapf(code Code, err error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Err: err}
}

// CodeOf returns the code carried by err, OK for nil and BadValue for errors
// without a code.
func CodeOf(err error) Code {
	if err == nil {
		return OK
	}
	var se *Error
	if errors.As(err, &se) {
		return se.Code
	}
	return BadValue
}

// IsCode reports whether err carries code.
func IsCode(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}

// Reason returns the message of the outermost *Error in err's chain, or
// err.Error() when there is none.
func Reason(err error) string {
	var se *Error
	if errors.As(err, &se) {
		if se.Err != nil {
			return se.Message + ": " + reasonOf(se.Err)
		}
		return se.Message
	}
	return err.Error()
}

func reasonOf(err error) string {
	var se *Error
	if errors.As(err, &se) {
		return Reason(se)
	}
	return err.Error()
}

// Message returns the message of the outermost *Error in err's chain without
// the wrapped causes.
func Message(err error) string {
	var se *Error
	if errors.As(err, &se) {
		return se.Message
	}
	return err.Error()
}
