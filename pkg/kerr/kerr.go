package kerr

import (
	"errors"
	"fmt"
)

// Kind classifies an error raised by the SDK core
type Kind string

const (
	KindConfig               Kind = "config"
	KindDecode               Kind = "decode"
	KindSerialization        Kind = "serialization"
	KindCrypto               Kind = "crypto"
	KindHTTP                 Kind = "http"
	KindServerKeyRotation    Kind = "server_key_rotation"
	KindInvalidClientVersion Kind = "invalid_client_version"
	KindBindingConflict      Kind = "binding_conflict"
	KindRecordData           Kind = "record_data"
	KindNotation             Kind = "notation"
	KindFile                 Kind = "file"
)

// Error is the error type raised by SDK components. It carries the kind,
// the component that raised it, and an optional wrapped cause so callers
// can walk the chain with errors.Is / errors.As.
type Error struct {
	Kind      Kind
	Component string
	Message   string
	Err       error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Component, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Component, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an error with no underlying cause
func New(kind Kind, component, format string, args ...interface{}) *Error {
	return &Error{
		Kind:      kind,
		Component: component,
		Message:   fmt.Sprintf(format, args...),
	}
}

// Wrap attaches kind and component context to an underlying error
func Wrap(kind Kind, component string, err error, format string, args ...interface{}) *Error {
	return &Error{
		Kind:      kind,
		Component: component,
		Message:   fmt.Sprintf(format, args...),
		Err:       err,
	}
}

// IsKind reports whether any error in the chain has the given kind
func IsKind(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// KindOf returns the kind of the first SDK error in the chain, or the
// empty string when the chain contains no SDK error
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
