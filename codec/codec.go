package codec

// Codec turns envelopes into request bodies and response members back into Go values.
type Codec interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte, v any) error
	ContentType() string // value forced into the Content-Type header
}

// Default is the codec used when the client is not given one.
var Default Codec = &JSONCodec{}
