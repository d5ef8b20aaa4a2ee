package client

import (
	"encoding/json"
	"fmt"
	"net/http"

	"jsonrpc-client/message"
	"jsonrpc-client/rpcerr"
)

// Outcome is the result of classifying one HTTP exchange: either Result is
// set (success, possibly the JSON literal null) or Err is.
type Outcome struct {
	Result json.RawMessage
	Err    *rpcerr.Error
}

// Classify decides what an HTTP exchange means for a JSON-RPC call.
//
// There are three situations:
//  1. The call succeeded.
//  2. The call reached the server and the server returned a JSON-RPC error.
//  3. The call did not reach the server (or reached something that is not a JSON-RPC server).
//
// 2 is a KindServer error, 3 a KindTransport error. Servers may use either
// 200 or 500 for situation 2, so a 500 is resolved by looking for a JSON-RPC
// envelope in the body. A proxy that echoes such a body is misclassified as 2.
//
// status 0 means no response was received.
func Classify(status int, body []byte, url string) Outcome {
	if status >= http.StatusOK && status < http.StatusMultipleChoices {
		return classifySuccess(body, url)
	}

	switch status {
	case 0:
		return Outcome{Err: connectionRefused(url, nil)}

	case http.StatusNotFound:
		return Outcome{Err: rpcerr.Transport(fmt.Sprintf("404 not found at %s", url), nil)}

	case http.StatusInternalServerError:
		if resp, err := decodeResponse(body); err == nil && resp.JSONRPC == message.Version {
			return Outcome{Err: serverError(resp, url)}
		}
		return Outcome{Err: rpcerr.Transport(fmt.Sprintf("500 internal server error at %s: %s", url, body), nil)}

	default:
		return Outcome{Err: rpcerr.Transport(fmt.Sprintf("Unknown error. HTTP status: %d, data: %s", status, body), nil)}
	}
}

func classifySuccess(body []byte, url string) Outcome {
	resp, err := decodeResponse(body)
	if err != nil {
		return Outcome{Err: rpcerr.Transport(fmt.Sprintf("Invalid JSON-RPC response from %s: %s", url, body), err)}
	}
	if resp.Succeeded() {
		return Outcome{Result: resp.Result}
	}
	if resp.JSONRPC == "" && resp.Error == nil {
		// valid JSON, but nothing that looks like a JSON-RPC response
		return Outcome{Err: rpcerr.Transport(fmt.Sprintf("Invalid JSON-RPC response from %s: %s", url, body), nil)}
	}
	return Outcome{Err: serverError(resp, url)}
}

// decodeResponse decodes body as a JSON-RPC response. A body that claims
// version 2.0 but has members that do not decode still counts as one: its
// error is the raw text of the "error" member.
func decodeResponse(body []byte) (*message.Response, error) {
	var resp message.Response
	err := json.Unmarshal(body, &resp)
	if err == nil {
		return &resp, nil
	}

	var members map[string]json.RawMessage
	if json.Unmarshal(body, &members) != nil {
		return nil, err
	}
	var version string
	if json.Unmarshal(members["jsonrpc"], &version) != nil || version != message.Version {
		return nil, err
	}

	out := &message.Response{JSONRPC: version}
	if raw, ok := members["result"]; ok {
		out.Result, out.HasResult = raw, true
	}
	text := members["error"]
	if len(text) == 0 {
		text = body
	}
	out.Error = &message.ErrorObject{Message: string(text)}
	return out, nil
}

// serverError builds a KindServer error; a response with neither result nor
// error still gets a message so callers are not left with an empty string.
func serverError(resp *message.Response, url string) *rpcerr.Error {
	if resp.Error == nil {
		return rpcerr.Server(&message.ErrorObject{
			Code:    message.CodeInternalError,
			Message: fmt.Sprintf("JSON-RPC response from %s carries no result", url),
		})
	}
	return rpcerr.Server(resp.Error)
}

func connectionRefused(url string, cause error) *rpcerr.Error {
	return rpcerr.Transport("Connection refused at "+url, cause)
}
