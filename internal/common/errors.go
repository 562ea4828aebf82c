// Package common defines the error taxonomy shared by the server layers.
// Core code returns *Error values tagged with a Kind; the transport edge is
// the only place that turns a Kind into a status code. Callers should use
// errors.Is / errors.As (or KindOf) to inspect them.
package common

import (
	"errors"
	"fmt"
)

// Kind is the closed set of failure classes surfaced by core operations.
type Kind int

const (
	KindInternal Kind = iota
	KindConflict
	KindUnauthorized
	KindBadRequest
	KindNotFound
	KindUpstream
)

func (k Kind) String() string {
	switch k {
	case KindConflict:
		return "conflict"
	case KindUnauthorized:
		return "unauthorized"
	case KindBadRequest:
		return "bad request"
	case KindNotFound:
		return "not found"
	case KindUpstream:
		return "upstream error"
	default:
		return "internal error"
	}
}

// Error is a tagged error. Message is safe to show to the caller, Err is the
// underlying cause and is never exposed by the edge.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error by Kind and Message, so sentinel values declared
// with New can be compared with errors.Is even after wrapping.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Kind == t.Kind && e.Message == t.Message
}

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

func Conflict(msg string) *Error     { return New(KindConflict, msg) }
func Unauthorized(msg string) *Error { return New(KindUnauthorized, msg) }
func BadRequest(msg string) *Error   { return New(KindBadRequest, msg) }

func Internal(err error) *Error { return Wrap(KindInternal, "internal error", err) }

func Upstream(msg string, err error) *Error { return Wrap(KindUpstream, msg, err) }

// KindOf reports the Kind of err. Untagged errors are KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// MessageOf returns the caller-safe message of err.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return KindInternal.String()
}

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")
	ErrEmailTaken = errors.New("email already exists")

	// Token verification errors.
	ErrTokenExpired   = errors.New("token expired")
	ErrInvalidToken   = errors.New("invalid token")
	ErrTokenMalformed = errors.New("malformed token")

	// Password digest that cannot be parsed.
	ErrMalformedHash = errors.New("malformed password hash")
)
