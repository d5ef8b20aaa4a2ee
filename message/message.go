// Package message defines the JSON-RPC 2.0 objects exchanged between client and server.
//
// Request is the "envelope" for every call. It gets serialized by the codec layer
// and sent as the body of an HTTP POST. Response is what a conformant server answers.
package message

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Version is the only protocol version this package speaks.
const Version = "2.0"

// Standard JSON-RPC 2.0 error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
	CodeServerError    = -32000 // start of the implementation-defined range
)

// Request carries a single JSON-RPC call.
//
//   - ID is allocated by the client and is unique per process (or per id space, see idgen).
//   - Params is passed through untouched; the codec decides how it looks on the wire.
type Request struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int64  `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
}

// NewRequest builds a 2.0 envelope.
func NewRequest(id int64, method string, params any) *Request {
	return &Request{
		JSONRPC: Version,
		ID:      id,
		Method:  method,
		Params:  params,
	}
}

// ErrorObject is the "error" member of a response.
type ErrorObject struct {
	Code    int    `json:"code,omitempty"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// UnmarshalJSON accepts the object form and a bare string, which some servers
// send in place of the object. Any other JSON value becomes the message as text.
func (e *ErrorObject) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var msg string
		if err := json.Unmarshal(data, &msg); err != nil {
			return err
		}
		*e = ErrorObject{Message: msg}
		return nil
	}
	if len(data) > 0 && data[0] != '{' {
		if !json.Valid(data) {
			return fmt.Errorf("invalid error member: %s", data)
		}
		*e = ErrorObject{Message: string(data)}
		return nil
	}

	type plain ErrorObject
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*e = ErrorObject(p)
	return nil
}

func (e *ErrorObject) String() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("code=%d message=%q", e.Code, e.Message)
}

// Response is a decoded JSON-RPC response.
//
// HasResult reports whether the "result" member was present at all, so that a
// legitimate null, 0 or false result is not confused with a missing one.
type Response struct {
	JSONRPC   string          `json:"jsonrpc"`
	ID        any             `json:"id,omitempty"`
	Result    json.RawMessage `json:"result,omitempty"`
	Error     *ErrorObject    `json:"error,omitempty"`
	HasResult bool            `json:"-"`
}

// UnmarshalJSON records member presence in addition to the usual decoding.
func (r *Response) UnmarshalJSON(data []byte) error {
	var members map[string]json.RawMessage
	if err := json.Unmarshal(data, &members); err != nil {
		return err
	}

	var out Response
	if raw, ok := members["jsonrpc"]; ok {
		// a non-string version is simply not "2.0"
		_ = json.Unmarshal(raw, &out.JSONRPC)
	}
	if raw, ok := members["id"]; ok {
		if err := json.Unmarshal(raw, &out.ID); err != nil {
			return fmt.Errorf("invalid id: %w", err)
		}
	}
	if raw, ok := members["result"]; ok {
		out.Result = raw
		out.HasResult = true
	}
	if raw, ok := members["error"]; ok && !bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		out.Error = &ErrorObject{}
		if err := json.Unmarshal(raw, out.Error); err != nil {
			return fmt.Errorf("invalid error member: %w", err)
		}
	}

	*r = out
	return nil
}

// Succeeded reports whether the response carries a result. A result wins over
// an error member sent alongside it.
func (r *Response) Succeeded() bool {
	return r.HasResult
}
