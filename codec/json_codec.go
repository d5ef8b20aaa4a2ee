package codec

import (
	"encoding/json"
	"errors"
)

// JSONCodec uses Go's standard library encoding/json for serialization.
// JSON-RPC is JSON on the wire, so this is the only codec the client needs.
type JSONCodec struct{}

func (c *JSONCodec) Encode(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (c *JSONCodec) Decode(data []byte, v any) error {
	if len(data) == 0 {
		return errors.New("JSONCodec: empty input")
	}
	return json.Unmarshal(data, v)
}

func (c *JSONCodec) ContentType() string {
	return "application/json"
}
