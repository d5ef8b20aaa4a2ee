// Package transport implements the HTTP POST primitive the client sends envelopes over.
//
// A Transport does not interpret bodies. Any HTTP status comes back as a
// *Response; only a failure to get a response at all (connection refused,
// DNS failure, cancelled context) comes back as an error:
//
//	Post ──► server answered 200/404/500/...  ──► (*Response, nil)
//	     └─► no answer                         ──► (nil, err)   → treated as status 0
package transport

import (
	"bytes"
	"context"
	"io"
	"net/http"
)

// Response is the raw outcome of one exchange.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Transport posts a body to a URL with the given headers.
type Transport interface {
	Post(ctx context.Context, url string, headers map[string]string, body []byte) (*Response, error)
}

// HTTPTransport sends requests with an *http.Client.
type HTTPTransport struct {
	client *http.Client
}

// NewHTTPTransport uses c, or http.DefaultClient when c is nil.
// Pass an oauth2 client (oauth2.NewClient) to authenticate every request.
func NewHTTPTransport(c *http.Client) *HTTPTransport {
	if c == nil {
		c = http.DefaultClient
	}
	return &HTTPTransport{client: c}
}

func (t *HTTPTransport) Post(ctx context.Context, url string, headers map[string]string, body []byte) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	return &Response{
		Status: resp.StatusCode,
		Header: resp.Header,
		Body:   data,
	}, nil
}
