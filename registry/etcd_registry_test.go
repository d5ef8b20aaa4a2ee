package registry

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"
)

func TestDecodeEndpoint(t *testing.T) {
	ep, err := decodeEndpoint(DefaultEtcdPrefix, DefaultEtcdPrefix+"billing", []byte(`{"url":"http://billing/rpc"}`))
	if err != nil {
		t.Fatal(err)
	}
	if ep.Name != "billing" {
		t.Fatalf("expect name from key suffix, got %q", ep.Name)
	}
	if ep.Headers == nil {
		t.Fatal("expect default headers")
	}

	if _, err := decodeEndpoint(DefaultEtcdPrefix, DefaultEtcdPrefix+"x", []byte(`{"name":"x"}`)); err == nil {
		t.Fatal("expect error for missing url")
	}
	if _, err := decodeEndpoint(DefaultEtcdPrefix, DefaultEtcdPrefix+"x", []byte(`not json`)); err == nil {
		t.Fatal("expect error for malformed value")
	}
}

func TestApplyEndpointsKeepsConfigWhenEmpty(t *testing.T) {
	reg := New()
	if err := reg.Configure(WithURL("http://main/rpc")); err != nil {
		t.Fatal(err)
	}

	applied, err := applyEndpoints(reg, nil)
	if err != nil || applied {
		t.Fatalf("expect empty list to be ignored, got applied=%v err=%v", applied, err)
	}
	if ep, ok := reg.FindByName(DefaultServerName); !ok || ep.URL != "http://main/rpc" {
		t.Fatalf("expect main to survive, got %+v", reg.Endpoints())
	}

	applied, err = applyEndpoints(reg, []Endpoint{{Name: "billing", URL: "http://billing/rpc"}})
	if err != nil || !applied {
		t.Fatalf("expect list to be applied, got applied=%v err=%v", applied, err)
	}
	if _, ok := reg.FindByName(DefaultServerName); ok {
		t.Fatal("expect main to be replaced")
	}
	if _, ok := reg.FindByName("billing"); !ok {
		t.Fatal("expect billing")
	}
}

// Needs a running etcd, e.g. JSONRPC_TEST_ETCD=127.0.0.1:2379.
func TestEtcdRegisterLoadSync(t *testing.T) {
	addr := os.Getenv("JSONRPC_TEST_ETCD")
	if addr == "" {
		t.Skip("JSONRPC_TEST_ETCD not set")
	}

	src, err := NewEtcdSource(strings.Split(addr, ","), "/jsonrpc-client-test/servers")
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	a := Endpoint{Name: "a", URL: "http://127.0.0.1:8001/rpc"}
	b := Endpoint{Name: "b", URL: "http://127.0.0.1:8002/rpc", Headers: map[string]string{"X-Env": "test"}}
	if err := src.Register(ctx, a, 10); err != nil {
		t.Fatal(err)
	}
	if err := src.Register(ctx, b, 10); err != nil {
		t.Fatal(err)
	}
	defer src.Deregister(context.Background(), "a")
	defer src.Deregister(context.Background(), "b")

	reg := New()
	if err := src.Sync(ctx, reg); err != nil {
		t.Fatal(err)
	}
	if len(reg.Endpoints()) != 2 {
		t.Fatalf("expect 2 endpoints, got %d", len(reg.Endpoints()))
	}
	if ep, ok := reg.FindByName("b"); !ok || ep.Headers["X-Env"] != "test" {
		t.Fatalf("unexpected endpoint b: %+v", ep)
	}

	if err := src.Deregister(ctx, "a"); err != nil {
		t.Fatal(err)
	}
	time.Sleep(100 * time.Millisecond)

	endpoints, err := src.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(endpoints) != 1 || endpoints[0].Name != "b" {
		t.Fatalf("expect only b after deregister, got %+v", endpoints)
	}

	// Follow picks up endpoints published after it started
	followCtx, stop := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- src.Follow(followCtx, reg) }()

	c := Endpoint{Name: "c", URL: "http://127.0.0.1:8003/rpc"}
	if err := src.Register(ctx, c, 10); err != nil {
		t.Fatal(err)
	}
	defer src.Deregister(context.Background(), "c")

	deadline := time.Now().Add(3 * time.Second)
	for {
		if _, ok := reg.FindByName("c"); ok {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("expect c to be synced, got %+v", reg.Endpoints())
		}
		time.Sleep(20 * time.Millisecond)
	}

	stop()
	if err := <-done; err != context.Canceled {
		t.Fatalf("expect context.Canceled, got %v", err)
	}
}
