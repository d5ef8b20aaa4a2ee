// Package server is a small JSON-RPC 2.0 over HTTP endpoint.
//
// It exists so the client can be exercised against a real HTTP server in tests
// and local demos. Services are registered by reflection, the same way net/rpc does:
//
//	svr := server.NewServer(logger)
//	svr.Register(&Arith{})            // exposes "Arith.Add", "Arith.Multiply", ...
//	http.Handle("/rpc", svr)
//
// Request processing:
//
//	POST body → decode envelope → "Service.Method" lookup → decode params → reflect.Call → encode result
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"go.uber.org/zap"

	"jsonrpc-client/message"
)

// Error lets a method choose the JSON-RPC error code and data it fails with.
// Any other error is reported as CodeServerError.
type Error struct {
	Code    int
	Message string
	Data    any
}

func (e *Error) Error() string {
	return e.Message
}

type request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

type response struct {
	JSONRPC string               `json:"jsonrpc"`
	ID      json.RawMessage      `json:"id"`
	Result  json.RawMessage      `json:"result,omitempty"`
	Error   *message.ErrorObject `json:"error,omitempty"`
}

// Server implements http.Handler.
type Server struct {
	mu          sync.RWMutex
	serviceMap  map[string]*service // "Arith" → *service
	errorStatus int                 // HTTP status used for JSON-RPC errors
	logger      *zap.Logger
}

// NewServer creates a server that answers JSON-RPC errors with HTTP 200.
func NewServer(logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		serviceMap:  make(map[string]*service),
		errorStatus: http.StatusOK,
		logger:      logger,
	}
}

// Register exposes rcvr's suitable methods as "<TypeName>.<Method>".
func (svr *Server) Register(rcvr any) error {
	svc, err := newService(rcvr)
	if err != nil {
		return err
	}
	svr.mu.Lock()
	defer svr.mu.Unlock()
	svr.serviceMap[svc.name] = svc
	return nil
}

// SetErrorStatus sets the HTTP status sent with JSON-RPC errors. Servers in
// the wild use either 200 or 500.
func (svr *Server) SetErrorStatus(status int) {
	svr.mu.Lock()
	defer svr.mu.Unlock()
	svr.errorStatus = status
}

func (svr *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "JSON-RPC requires POST method", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	var req request
	if err := json.Unmarshal(body, &req); err != nil {
		svr.writeError(w, nil, &message.ErrorObject{Code: message.CodeParseError, Message: "parse error"})
		return
	}
	if req.JSONRPC != message.Version || req.Method == "" {
		svr.writeError(w, req.ID, &message.ErrorObject{Code: message.CodeInvalidRequest, Message: "invalid request"})
		return
	}

	result, rpcErr := svr.invoke(req.Method, req.Params)

	// notifications get no response body
	if len(req.ID) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if rpcErr != nil {
		svr.logger.Info("jsonrpc method failed",
			zap.String("method", req.Method), zap.Int("code", rpcErr.Code), zap.String("message", rpcErr.Message))
		svr.writeError(w, req.ID, rpcErr)
		return
	}
	data, err := json.Marshal(result)
	if err != nil {
		svr.writeError(w, req.ID, &message.ErrorObject{Code: message.CodeInternalError, Message: "cannot encode result"})
		return
	}
	svr.write(w, http.StatusOK, response{JSONRPC: message.Version, ID: req.ID, Result: data})
}

// invoke parses "Service.Method", finds it, decodes params into a fresh args
// value and calls it.
func (svr *Server) invoke(serviceMethod string, params json.RawMessage) (any, *message.ErrorObject) {
	notFound := &message.ErrorObject{Code: message.CodeMethodNotFound, Message: "method not found: " + serviceMethod}

	split := strings.Split(serviceMethod, ".")
	if len(split) != 2 {
		return nil, notFound
	}

	svr.mu.RLock()
	svc := svr.serviceMap[split[0]]
	svr.mu.RUnlock()
	if svc == nil {
		return nil, notFound
	}
	m := svc.methods[split[1]]
	if m == nil {
		return nil, notFound
	}

	var argv reflect.Value
	if m.takesParams() {
		argv = reflect.New(m.args)
		if err := decodeParams(params, argv.Interface()); err != nil {
			return nil, &message.ErrorObject{Code: message.CodeInvalidParams, Message: "invalid params: " + err.Error()}
		}
	} else if !noParams(params) {
		return nil, &message.ErrorObject{Code: message.CodeInvalidParams, Message: "invalid params: " + serviceMethod + " takes none"}
	}

	result, err := svc.call(m, argv)
	if err != nil {
		var e *Error
		if errors.As(err, &e) {
			return nil, &message.ErrorObject{Code: e.Code, Message: e.Message, Data: e.Data}
		}
		return nil, &message.ErrorObject{Code: message.CodeServerError, Message: err.Error()}
	}
	return result, nil
}

// noParams reports whether params is absent, null, [] or {}.
func noParams(params json.RawMessage) bool {
	switch strings.Join(strings.Fields(string(params)), "") {
	case "", "null", "[]", "{}":
		return true
	}
	return false
}

// decodeParams accepts params as the args value itself, or as a one-element
// positional array wrapping it.
func decodeParams(params json.RawMessage, v any) error {
	if len(params) == 0 || string(params) == "null" {
		return nil
	}
	err := json.Unmarshal(params, v)
	if err == nil {
		return nil
	}
	var positional []json.RawMessage
	if json.Unmarshal(params, &positional) == nil && len(positional) == 1 {
		return json.Unmarshal(positional[0], v)
	}
	return err
}

func (svr *Server) writeError(w http.ResponseWriter, id json.RawMessage, obj *message.ErrorObject) {
	if len(id) == 0 {
		id = json.RawMessage("null")
	}
	svr.mu.RLock()
	status := svr.errorStatus
	svr.mu.RUnlock()
	svr.write(w, status, response{JSONRPC: message.Version, ID: id, Error: obj})
}

func (svr *Server) write(w http.ResponseWriter, status int, resp response) {
	data, err := json.Marshal(resp)
	if err != nil {
		svr.logger.Error("failed to encode jsonrpc response", zap.Error(err))
		http.Error(w, fmt.Sprintf("encode response: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}
