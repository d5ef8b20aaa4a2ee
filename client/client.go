// Package client dispatches JSON-RPC 2.0 calls over HTTP to named servers.
//
// A call goes through these steps:
//
//	Call ─► registry lookup ─► id allocation ─► envelope ─► middleware chain ─► Transport.Post
//	     ◄─ Future settles  ◄─ Classify(status, body) ◄──────────────────────────────┘
//
// Configuration problems, including params that cannot be encoded, reject the
// Future immediately, without any I/O.
// Everything after that runs in its own goroutine, so Call never blocks.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"strings"
	"sync"

	"jsonrpc-client/codec"
	"jsonrpc-client/idgen"
	"jsonrpc-client/message"
	"jsonrpc-client/middleware"
	"jsonrpc-client/registry"
	"jsonrpc-client/rpcerr"
	"jsonrpc-client/transport"
)

type Client struct {
	registry  *registry.Registry
	transport transport.Transport
	codec     codec.Codec
	ids       idgen.Generator // request ids, owned by this client unless shared explicitly

	mu          sync.RWMutex
	middlewares []middleware.Middleware
	handler     middleware.HandlerFunc // middleware(middleware(...(post)))
}

// NewClient creates a client that looks servers up in reg and sends with t.
// A nil t means an HTTPTransport on http.DefaultClient.
func NewClient(reg *registry.Registry, t transport.Transport) *Client {
	if t == nil {
		t = transport.NewHTTPTransport(nil)
	}
	c := &Client{
		registry:  reg,
		transport: t,
		codec:     codec.Default,
		ids:       idgen.NewCounter(),
	}
	c.handler = c.post
	return c
}

// Use registers a middleware. Middlewares run in the order they are added,
// the first one outermost.
func (c *Client) Use(mw middleware.Middleware) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.middlewares = append(c.middlewares, mw)
	c.handler = middleware.Chain(c.middlewares...)(c.post)
}

// SetIDGenerator replaces the request id source, e.g. with an idgen.RedisCounter.
// Call it before traffic starts.
func (c *Client) SetIDGenerator(g idgen.Generator) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ids = g
}

// Call invokes method on the "main" server.
func (c *Client) Call(ctx context.Context, method string, params any) *Future {
	return c.CallServer(ctx, registry.DefaultServerName, method, params)
}

// CallServer invokes method on the named server.
func (c *Client) CallServer(ctx context.Context, server, method string, params any) *Future {
	if c.registry.IsEmpty() {
		return rejected(rpcerr.Config("Please configure the jsonrpc client first."))
	}

	ep, ok := c.registry.FindByName(server)
	if !ok {
		return rejected(rpcerr.Config(`Server "` + server + `" has not been configured.`))
	}

	// unencodable params are a config error: rejected here, before any id is taken
	encoded, err := c.codec.Encode(params)
	if err != nil {
		return rejected(rpcerr.Config(fmt.Sprintf("Cannot encode params for %q: %v", method, err)))
	}

	raw := c.registry.ReturnRaw()

	c.mu.RLock()
	handler, ids := c.handler, c.ids
	c.mu.RUnlock()

	f := newFuture()
	go c.dispatch(ctx, f, handler, ids, ep, method, json.RawMessage(encoded), raw)
	return f
}

// Invoke is the blocking form of CallServer: it waits for the result and
// decodes it into reply (which may be nil to discard it).
func (c *Client) Invoke(ctx context.Context, server, method string, params, reply any) error {
	r, err := c.CallServer(ctx, server, method, params).Await(ctx)
	if err != nil {
		return err
	}
	if reply == nil {
		return nil
	}
	return r.Decode(reply)
}

func (c *Client) dispatch(ctx context.Context, f *Future, handler middleware.HandlerFunc, ids idgen.Generator,
	ep registry.Endpoint, method string, params json.RawMessage, raw bool) {
	id, err := ids.Next(ctx)
	if err != nil {
		f.settle(nil, rpcerr.Transport(fmt.Sprintf("allocate request id for %s: %v", ep.URL, err), err))
		return
	}

	call := message.NewRequest(id, method, params)
	body, err := c.codec.Encode(call)
	if err != nil {
		f.settle(nil, rpcerr.Config(fmt.Sprintf("Cannot encode request for %q: %v", method, err)))
		return
	}

	resp, err := handler(ctx, &middleware.Request{
		Server:  ep.Name,
		URL:     ep.URL,
		Headers: c.headers(ep),
		Call:    call,
		Body:    body,
	})

	if raw {
		// caller interprets the exchange itself
		if err != nil {
			f.settle(nil, err)
			return
		}
		f.settle(&Reply{HTTP: resp, codec: c.codec}, nil)
		return
	}

	if err != nil {
		if rpcerr.KindOf(err) != 0 {
			f.settle(nil, err)
			return
		}
		f.settle(nil, connectionRefused(ep.URL, err))
		return
	}
	if resp == nil {
		f.settle(nil, connectionRefused(ep.URL, nil))
		return
	}

	out := Classify(resp.Status, resp.Body, ep.URL)
	if out.Err != nil {
		f.settle(nil, out.Err)
		return
	}
	f.settle(&Reply{Result: out.Result, codec: c.codec}, nil)
}

// headers merges the endpoint's headers with the codec's Content-Type, which
// always wins regardless of how the endpoint spelled the key.
func (c *Client) headers(ep registry.Endpoint) map[string]string {
	h := make(map[string]string, len(ep.Headers)+1)
	maps.Copy(h, ep.Headers)
	for k := range h {
		if strings.EqualFold(k, "Content-Type") {
			delete(h, k)
		}
	}
	h["Content-Type"] = c.codec.ContentType()
	return h
}

func (c *Client) post(ctx context.Context, req *middleware.Request) (*transport.Response, error) {
	return c.transport.Post(ctx, req.URL, req.Headers, req.Body)
}
