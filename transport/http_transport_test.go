package transport

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHTTPTransportPost(t *testing.T) {
	var gotMethod, gotCT, gotToken, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotCT = r.Header.Get("Content-Type")
		gotToken = r.Header.Get("X-Token")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("short and stout"))
	}))
	defer srv.Close()

	tr := NewHTTPTransport(nil)
	resp, err := tr.Post(context.Background(), srv.URL, map[string]string{
		"Content-Type": "application/json",
		"X-Token":      "abc",
	}, []byte(`{"a":1}`))
	if err != nil {
		t.Fatal(err)
	}

	if gotMethod != http.MethodPost {
		t.Fatalf("expect POST, got %s", gotMethod)
	}
	if gotCT != "application/json" || gotToken != "abc" {
		t.Fatalf("headers not sent: content-type=%q token=%q", gotCT, gotToken)
	}
	if gotBody != `{"a":1}` {
		t.Fatalf("expect body to be sent, got %q", gotBody)
	}
	if resp.Status != http.StatusTeapot || string(resp.Body) != "short and stout" {
		t.Fatalf("unexpected response: %d %q", resp.Status, resp.Body)
	}
}

func TestHTTPTransportConnectionRefused(t *testing.T) {
	// grab a free port and close it so nothing listens there
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := l.Addr().String()
	l.Close()

	resp, err := NewHTTPTransport(nil).Post(context.Background(), "http://"+addr+"/rpc", nil, nil)
	if err == nil {
		t.Fatal("expect error when nothing listens")
	}
	if resp != nil {
		t.Fatalf("expect nil response, got %+v", resp)
	}
}

func TestHTTPTransportCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewHTTPTransport(srv.Client()).Post(ctx, srv.URL, nil, nil); err == nil {
		t.Fatal("expect error for cancelled context")
	}
}
