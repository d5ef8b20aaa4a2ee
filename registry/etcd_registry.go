// etcd as a shared source of endpoints.
//
// Several client processes can point at the same etcd cluster and pick up the
// same named servers:
//
//	Key:   {prefix}{Name}        e.g. /jsonrpc-client/servers/billing
//	Value: JSON-encoded Endpoint
//
// Publishing uses TTL-based leases: if the publisher goes away, the lease
// expires and the entry is removed, so clients stop routing to it.

package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	clientv3 "go.etcd.io/etcd/client/v3"
)

// DefaultEtcdPrefix is where endpoints live when no prefix is given.
const DefaultEtcdPrefix = "/jsonrpc-client/servers/"

// EtcdSource reads and publishes endpoints in etcd.
type EtcdSource struct {
	client *clientv3.Client // thread-safe, shared across goroutines
	prefix string
}

// NewEtcdSource connects to the given etcd endpoints.
func NewEtcdSource(endpoints []string, prefix string) (*EtcdSource, error) {
	c, err := clientv3.New(clientv3.Config{
		Endpoints: endpoints,
	})
	if err != nil {
		return nil, err
	}
	return NewEtcdSourceFromClient(c, prefix), nil
}

// NewEtcdSourceFromClient wraps an existing etcd client.
func NewEtcdSourceFromClient(c *clientv3.Client, prefix string) *EtcdSource {
	if prefix == "" {
		prefix = DefaultEtcdPrefix
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &EtcdSource{client: c, prefix: prefix}
}

// Close releases the etcd connection.
func (s *EtcdSource) Close() error {
	return s.client.Close()
}

// Register publishes ep with a TTL lease that is kept alive in the background
// until ctx is done.
//
// leaseID stays local to avoid sharing mutable state between concurrent publishers.
func (s *EtcdSource) Register(ctx context.Context, ep Endpoint, ttl int64) error {
	if ep.Name == "" || ep.URL == "" {
		return fmt.Errorf("etcd register: endpoint needs name and url")
	}

	lease, err := s.client.Grant(ctx, ttl)
	if err != nil {
		return err
	}

	val, err := json.Marshal(ep)
	if err != nil {
		return err
	}

	_, err = s.client.Put(ctx, s.prefix+ep.Name, string(val), clientv3.WithLease(lease.ID))
	if err != nil {
		return err
	}

	ch, err := s.client.KeepAlive(ctx, lease.ID)
	if err != nil {
		return err
	}

	// drain so the keepalive channel never fills up
	go func() {
		for range ch {
		}
	}()
	return nil
}

// Deregister removes the named endpoint.
func (s *EtcdSource) Deregister(ctx context.Context, name string) error {
	_, err := s.client.Delete(ctx, s.prefix+name)
	return err
}

// Load returns every endpoint currently stored under the prefix, ordered by key.
// Malformed entries are skipped, and so is any entry whose name was already seen.
func (s *EtcdSource) Load(ctx context.Context) ([]Endpoint, error) {
	resp, err := s.client.Get(ctx, s.prefix, clientv3.WithPrefix(),
		clientv3.WithSort(clientv3.SortByKey, clientv3.SortAscend))
	if err != nil {
		return nil, err
	}

	endpoints := make([]Endpoint, 0, len(resp.Kvs))
	seen := make(map[string]struct{}, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		ep, err := decodeEndpoint(s.prefix, string(kv.Key), kv.Value)
		if err != nil {
			continue
		}
		if _, dup := seen[ep.Name]; dup {
			continue
		}
		seen[ep.Name] = struct{}{}
		endpoints = append(endpoints, ep)
	}
	return endpoints, nil
}

// Sync loads the endpoints and replaces reg's endpoint set with them.
// An empty prefix leaves reg as it was.
func (s *EtcdSource) Sync(ctx context.Context, reg *Registry) error {
	endpoints, err := s.Load(ctx)
	if err != nil {
		return err
	}
	_, err = applyEndpoints(reg, endpoints)
	return err
}

// Follow keeps reg in step with etcd until ctx is done: one Sync, then one
// Configure per change under the prefix. It returns ctx.Err() on shutdown.
func (s *EtcdSource) Follow(ctx context.Context, reg *Registry) error {
	if err := s.Sync(ctx, reg); err != nil {
		return err
	}
	for endpoints := range s.Watch(ctx) {
		if _, err := applyEndpoints(reg, endpoints); err != nil {
			return err
		}
	}
	return ctx.Err()
}

// applyEndpoints replaces reg's servers unless endpoints is empty, in which
// case the current configuration is kept and false is returned.
func applyEndpoints(reg *Registry, endpoints []Endpoint) (bool, error) {
	if len(endpoints) == 0 {
		return false, nil
	}
	if err := reg.Configure(WithServers(endpoints...)); err != nil {
		return false, err
	}
	return true, nil
}

// Watch emits the full endpoint list whenever anything under the prefix changes.
// The channel is closed when ctx is done.
func (s *EtcdSource) Watch(ctx context.Context) <-chan []Endpoint {
	ch := make(chan []Endpoint, 1)

	go func() {
		defer close(ch)
		watchChan := s.client.Watch(ctx, s.prefix, clientv3.WithPrefix())
		for range watchChan {
			// re-fetch the whole list rather than applying individual events
			endpoints, err := s.Load(ctx)
			if err != nil {
				continue
			}
			select {
			case ch <- endpoints:
			case <-ctx.Done():
				return
			}
		}
	}()

	return ch
}

// decodeEndpoint parses a stored value. A missing name falls back to the key suffix.
func decodeEndpoint(prefix, key string, value []byte) (Endpoint, error) {
	var ep Endpoint
	if err := json.Unmarshal(value, &ep); err != nil {
		return Endpoint{}, err
	}
	if ep.Name == "" {
		ep.Name = strings.TrimPrefix(key, prefix)
	}
	if ep.Name == "" || ep.URL == "" {
		return Endpoint{}, fmt.Errorf("endpoint at %s needs name and url", key)
	}
	if ep.Headers == nil {
		ep.Headers = map[string]string{}
	}
	return ep, nil
}
