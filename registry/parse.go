package registry

import (
	"fmt"
	"slices"

	"gopkg.in/yaml.v3"

	"jsonrpc-client/rpcerr"
)

// ParseOptions decodes a YAML (or JSON) configuration mapping into options,
// keeping the order in which keys appear in the document. Unknown keys are
// rejected before any value is looked at.
//
//	url: http://localhost:8080/rpc
//	returnHttpPromise: false
//	servers:
//	  - name: billing
//	    url: http://billing/rpc
//	    headers:
//	      Authorization: Bearer abc
func ParseOptions(data []byte) ([]Option, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse configuration: %w", err)
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return nil, nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, rpcerr.Config("Configuration must be an object.")
	}

	opts := make([]Option, 0, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i].Value, root.Content[i+1]
		if !slices.Contains(allowedKeys, key) {
			return nil, invalidKey(key)
		}

		opt, err := parseOption(key, value)
		if err != nil {
			return nil, err
		}
		opts = append(opts, opt)
	}
	return opts, nil
}

func parseOption(key string, value *yaml.Node) (Option, error) {
	switch key {
	case KeyURL:
		var url string
		if value.Kind != yaml.ScalarNode || value.Decode(&url) != nil {
			return Option{}, rpcerr.Config(`Argument "url" must be a string.`)
		}
		return WithURL(url), nil

	case KeyServers:
		if value.Kind != yaml.SequenceNode {
			return Option{}, rpcerr.Config(`Argument "servers" must be an array.`)
		}
		servers := make([]Endpoint, 0, len(value.Content))
		for _, item := range value.Content {
			var ep Endpoint
			if item.Kind != yaml.MappingNode || item.Decode(&ep) != nil {
				return Option{}, rpcerr.Config(`Item in "servers" argument must be an object.`)
			}
			servers = append(servers, ep)
		}
		return WithServers(servers...), nil

	default:
		var raw bool
		if value.Kind != yaml.ScalarNode || value.Decode(&raw) != nil {
			return Option{}, rpcerr.Config(`Argument "returnHttpPromise" must be a boolean.`)
		}
		return WithReturnHTTPPromise(raw), nil
	}
}
