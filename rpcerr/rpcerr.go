// Package rpcerr defines the three kinds of failure a JSON-RPC call can end in.
//
//	KindConfig    - the client was misused or not configured; no I/O happened.
//	KindTransport - the call did not complete at the protocol layer
//	                (connection refused, 404, proxy error page, ...).
//	KindServer    - the remote procedure ran and reported a JSON-RPC error.
//
// All three share one concrete type, *Error, discriminated by its Kind field.
// Callers switch on Kind (or use IsKind) instead of inspecting messages.
package rpcerr

import (
	"errors"

	"jsonrpc-client/message"
)

// Kind discriminates *Error values.
type Kind int

const (
	KindConfig Kind = iota + 1
	KindTransport
	KindServer
)

func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "JsonRpcConfigError"
	case KindTransport:
		return "JsonRpcTransportError"
	case KindServer:
		return "JsonRpcServerError"
	default:
		return "JsonRpcUnknownError"
	}
}

// Error is the only error type the client rejects futures with (besides raw
// transport errors when raw results are requested).
type Error struct {
	Kind    Kind
	Message string

	// Object and Data are only set for KindServer.
	Object *message.ErrorObject
	Data   any

	cause error
}

func (e *Error) Error() string {
	return e.Kind.String() + ": " + e.Message
}

// Unwrap exposes the Go error that caused a transport failure, if any.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is matches any *Error of the same kind, so errors.Is(err, &Error{Kind: KindServer}) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

// Config builds a KindConfig error.
func Config(msg string) *Error {
	return &Error{Kind: KindConfig, Message: msg}
}

// Transport builds a KindTransport error. cause may be nil.
func Transport(msg string, cause error) *Error {
	return &Error{Kind: KindTransport, Message: msg, cause: cause}
}

// Server builds a KindServer error from the response's error member.
// A nil object still yields a usable error with an empty message.
func Server(obj *message.ErrorObject) *Error {
	e := &Error{Kind: KindServer, Object: obj}
	if obj != nil {
		e.Message = obj.Message
		e.Data = obj.Data
	}
	return e
}

// KindOf returns the kind of the first *Error in err's chain, or 0.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// IsKind reports whether err carries an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
