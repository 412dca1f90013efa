package server

import (
	"net/http"
	"testing"
	"time"

	"nexconnect-server/internal/config"
)

func TestNewHTTPServer(t *testing.T) {
	cfg := config.Config{Port: 8080}
	handler := http.NewServeMux()

	srv := NewHTTPServer(cfg, handler)

	if srv.Addr != ":8080" {
		t.Fatalf("Addr = %q, want :8080", srv.Addr)
	}
	if srv.Handler == nil {
		t.Fatalf("Handler is nil")
	}
	if srv.ReadHeaderTimeout != 5*time.Second {
		t.Fatalf("ReadHeaderTimeout = %v, want 5s", srv.ReadHeaderTimeout)
	}
}

func TestShutdown(t *testing.T) {
	srv := NewHTTPServer(config.Config{Port: 0}, http.NewServeMux())
	if err := Shutdown(srv, time.Second); err != nil {
		t.Fatalf("Shutdown on idle server: %v", err)
	}
}
