// Package errors provides the router's error handling.
//
// It re-exports github.com/cockroachdb/errors for stack traces, wrapping
// and hints, and layers the spec's error taxonomy (TransportError,
// AuthenticationError, X11SessionError, EngineSessionError, SystemError,
// IoError) on top as small typed wrappers so request handlers can recover
// the category with errors.As and translate it to a client-visible code.
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping.
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
)

// User-facing messages and details.
var (
	WithHint    = crdb.WithHint
	WithHintf   = crdb.WithHintf
	WithDetail  = crdb.WithDetail
	WithDetailf = crdb.WithDetailf
)

// Error inspection.
var (
	Is     = crdb.Is
	As     = crdb.As
	Unwrap = crdb.Unwrap
)

// category is the taxonomy member implemented by every typed error below.
type category struct {
	kind string
	err  error
}

func (c *category) Error() string { return c.kind + ": " + c.err.Error() }
func (c *category) Unwrap() error { return c.err }
func (c *category) Cause() error  { return c.err }

// TransportErr wraps a socket bind/connect/send/recv failure.
type TransportErr struct{ *category }

// AuthenticationErr wraps a credentials, PAM, or insecure-file failure.
type AuthenticationErr struct{ *category }

// X11SessionErr wraps an Xorg/WM spawn or lifecycle failure.
type X11SessionErr struct{ *category }

// EngineSessionErr wraps an engine spawn, readiness, or routing failure.
type EngineSessionErr struct{ *category }

// SystemErr wraps a filesystem, permissions, or numeric-parse failure.
type SystemErr struct{ *category }

// IoErr wraps a filesystem I/O failure.
type IoErr struct{ *category }

// Transport builds a TransportErr wrapping err with msg context.
func Transport(err error, msg string) error {
	return &TransportErr{&category{"transport", Wrap(err, msg)}}
}

// Authentication builds an AuthenticationErr wrapping err with msg context.
func Authentication(err error, msg string) error {
	return &AuthenticationErr{&category{"authentication", Wrap(err, msg)}}
}

// X11Session builds an X11SessionErr wrapping err with msg context.
func X11Session(err error, msg string) error {
	return &X11SessionErr{&category{"x11_session", Wrap(err, msg)}}
}

// EngineSession builds an EngineSessionErr wrapping err with msg context.
func EngineSession(err error, msg string) error {
	return &EngineSessionErr{&category{"engine_session", Wrap(err, msg)}}
}

// System builds a SystemErr wrapping err with msg context.
func System(err error, msg string) error {
	return &SystemErr{&category{"system", Wrap(err, msg)}}
}

// Io builds an IoErr wrapping err with msg context.
func Io(err error, msg string) error {
	return &IoErr{&category{"io", Wrap(err, msg)}}
}
