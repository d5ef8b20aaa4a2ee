package client

import (
	"context"
	"encoding/json"
	"sync"

	"jsonrpc-client/codec"
	"jsonrpc-client/transport"
)

// Reply is the value a Future resolves with.
//
//   - Classified calls set Result to the raw "result" member.
//   - Raw calls (returnHttpPromise) set only HTTP.
type Reply struct {
	Result json.RawMessage
	HTTP   *transport.Response

	codec codec.Codec
}

// Decode unmarshals the result (or, for raw replies, the HTTP body) into v.
func (r *Reply) Decode(v any) error {
	cdc := r.codec
	if cdc == nil {
		cdc = codec.Default
	}
	if r.HTTP != nil && r.Result == nil {
		return cdc.Decode(r.HTTP.Body, v)
	}
	return cdc.Decode(r.Result, v)
}

// Future settles exactly once with a reply or an error.
type Future struct {
	done  chan struct{}
	once  sync.Once
	reply *Reply
	err   error
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

func rejected(err error) *Future {
	f := newFuture()
	f.settle(nil, err)
	return f
}

func (f *Future) settle(reply *Reply, err error) {
	f.once.Do(func() {
		f.reply = reply
		f.err = err
		close(f.done)
	})
}

// Done is closed once the future has settled.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Await waits for the future to settle or for ctx to be done.
// Giving up on ctx does not stop the call itself.
func (f *Future) Await(ctx context.Context) (*Reply, error) {
	select {
	case <-f.done:
		return f.reply, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Result blocks until the future settles.
func (f *Future) Result() (*Reply, error) {
	<-f.done
	return f.reply, f.err
}
