package dnsx

import (
	"context"
	"testing"
	"time"
)

func TestLookupLocalhost(t *testing.T) {
	r := New(5 * time.Second)

	ip, err := r.LookupIP(context.Background(), "localhost")
	if err != nil {
		t.Fatalf("LookupIP(localhost) error: %v", err)
	}
	if ip != "127.0.0.1" && ip != "::1" {
		t.Errorf("LookupIP(localhost) = %q", ip)
	}
}

func TestLookupUnknownHost(t *testing.T) {
	r := New(5 * time.Second)

	// el TLD .invalid está reservado y nunca resuelve (RFC 2606)
	if _, err := r.LookupIP(context.Background(), "nonexistent.invalid"); err == nil {
		t.Error("expected error for reserved .invalid name")
	}
}

func TestLookupCanceledContext(t *testing.T) {
	r := New(5 * time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := r.LookupIP(ctx, "example.com"); err == nil {
		t.Error("expected error with canceled context")
	}
}

func TestZeroTimeoutUsesDefault(t *testing.T) {
	r := New(0)
	if r.timeout != defaultTimeout {
		t.Errorf("timeout = %v, want %v", r.timeout, defaultTimeout)
	}
}
