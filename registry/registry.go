// Package registry holds the set of named JSON-RPC servers a client may call.
//
// A Registry starts empty and is filled by Configure. Each Configure option is
// checked against a fixed allow-list of keys:
//
//	url                - shorthand: a single server named "main"
//	servers            - the full list of named servers, each with optional headers
//	returnHttpPromise  - hand back raw HTTP outcomes instead of unwrapped results
//
// The registry is read on every call and written only during (re)configuration,
// so it is guarded by a RWMutex.
package registry

import (
	"maps"
	"sync"
)

// DefaultServerName is the name given to the endpoint configured through the url shorthand,
// and the server a call targets when none is named.
const DefaultServerName = "main"

// Endpoint is one addressable backend server.
type Endpoint struct {
	Name    string            `json:"name" yaml:"name"`
	URL     string            `json:"url" yaml:"url"`
	Headers map[string]string `json:"headers,omitempty" yaml:"headers"`
}

func (ep Endpoint) clone() Endpoint {
	out := ep
	out.Headers = make(map[string]string, len(ep.Headers))
	maps.Copy(out.Headers, ep.Headers)
	return out
}

// state is everything Configure may change. Options are applied to a copy and
// the copy replaces the live state only when every option succeeded.
type state struct {
	endpoints []Endpoint
	returnRaw bool
}

// Registry is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	state state
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{}
}

// Configure validates and applies opts in order.
// On error nothing is changed and the error is a KindConfig *rpcerr.Error.
func (r *Registry) Configure(opts ...Option) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := state{
		endpoints: r.state.endpoints,
		returnRaw: r.state.returnRaw,
	}
	for _, opt := range opts {
		if err := opt.apply(&next); err != nil {
			return err
		}
	}
	r.state = next
	return nil
}

// FindByName returns the first endpoint whose name matches exactly.
// The returned endpoint is a copy; mutating its headers does not affect the registry.
func (r *Registry) FindByName(name string) (Endpoint, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, ep := range r.state.endpoints {
		if ep.Name == name {
			return ep.clone(), true
		}
	}
	return Endpoint{}, false
}

// IsEmpty reports whether no endpoint has been configured yet.
func (r *Registry) IsEmpty() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.state.endpoints) == 0
}

// ReturnRaw reports whether calls should hand back raw transport outcomes.
func (r *Registry) ReturnRaw() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state.returnRaw
}

// Endpoints returns a copy of the configured endpoints in configuration order.
func (r *Registry) Endpoints() []Endpoint {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Endpoint, 0, len(r.state.endpoints))
	for _, ep := range r.state.endpoints {
		out = append(out, ep.clone())
	}
	return out
}
