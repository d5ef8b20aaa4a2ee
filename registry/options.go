package registry

import (
	"fmt"
	"strings"

	"jsonrpc-client/rpcerr"
)

// Allowed configuration keys.
const (
	KeyURL               = "url"
	KeyServers           = "servers"
	KeyReturnHTTPPromise = "returnHttpPromise"
)

var allowedKeys = []string{KeyURL, KeyServers, KeyReturnHTTPPromise}

// Option is one configuration key and its value.
// Use the With* constructors, or ParseOptions for file-based configuration.
type Option struct {
	Key   string
	Value any
}

// WithURL configures a single endpoint named "main" with no headers.
func WithURL(url string) Option {
	return Option{Key: KeyURL, Value: url}
}

// WithServers replaces the endpoint set with servers.
func WithServers(servers ...Endpoint) Option {
	return Option{Key: KeyServers, Value: servers}
}

// WithReturnHTTPPromise makes calls settle with the raw transport outcome.
func WithReturnHTTPPromise(raw bool) Option {
	return Option{Key: KeyReturnHTTPPromise, Value: raw}
}

func invalidKey(key string) error {
	return rpcerr.Config(fmt.Sprintf("Invalid configuration key %q. Allowed keys are: %s",
		key, strings.Join(allowedKeys, ", ")))
}

func (o Option) apply(s *state) error {
	switch o.Key {
	case KeyURL:
		url, ok := o.Value.(string)
		if !ok {
			return rpcerr.Config(`Argument "url" must be a string.`)
		}
		if url == "" {
			return rpcerr.Config(`Argument "url" must not be empty.`)
		}
		s.endpoints = []Endpoint{{
			Name:    DefaultServerName,
			URL:     url,
			Headers: map[string]string{},
		}}
		return nil

	case KeyServers:
		servers, ok := o.Value.([]Endpoint)
		if !ok {
			return rpcerr.Config(`Argument "servers" must be an array.`)
		}
		endpoints, err := validateServers(servers)
		if err != nil {
			return err
		}
		s.endpoints = endpoints
		return nil

	case KeyReturnHTTPPromise:
		raw, ok := o.Value.(bool)
		if !ok {
			return rpcerr.Config(`Argument "returnHttpPromise" must be a boolean.`)
		}
		s.returnRaw = raw
		return nil

	default:
		return invalidKey(o.Key)
	}
}

func validateServers(servers []Endpoint) ([]Endpoint, error) {
	seen := make(map[string]struct{}, len(servers))
	endpoints := make([]Endpoint, 0, len(servers))

	for _, srv := range servers {
		if srv.Name == "" {
			return nil, rpcerr.Config(`Item in "servers" argument must contain "name" field.`)
		}
		if srv.URL == "" {
			return nil, rpcerr.Config(`Item in "servers" argument must contain "url" field.`)
		}
		if _, dup := seen[srv.Name]; dup {
			return nil, rpcerr.Config(fmt.Sprintf(`Server name %q appears more than once in "servers" argument.`, srv.Name))
		}
		seen[srv.Name] = struct{}{}
		endpoints = append(endpoints, srv.clone())
	}
	return endpoints, nil
}
