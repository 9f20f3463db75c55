package net

import (
	"encoding/json"
	"io"
	"log"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"

	server "purrfect-run/server"
)

func newTestHandler() nethttp.Handler {
	cfg := server.DefaultHubConfig()
	cfg.Logger = log.New(io.Discard, "", 0)
	hub := server.NewHubWithConfig(cfg)
	return NewHTTPHandler(hub, HTTPHandlerConfig{Logger: cfg.Logger})
}

func TestHealthEndpoint(t *testing.T) {
	handler := newTestHandler()
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(nethttp.MethodGet, "/health", nil))
	if rec.Code != nethttp.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("health = %d %q", rec.Code, rec.Body.String())
	}
}

func TestJoinEndpoint(t *testing.T) {
	handler := newTestHandler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(nethttp.MethodPost, "/join", nil))
	if rec.Code != nethttp.StatusOK {
		t.Fatalf("join = %d", rec.Code)
	}
	var resp struct {
		Ver   int    `json:"ver"`
		ID    string `json:"id"`
		State struct {
			Active bool `json:"active"`
		} `json:"state"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.ID == "" || resp.Ver != server.ProtocolVersion || resp.State.Active {
		t.Fatalf("join response %+v", resp)
	}
}

func TestJoinEndpointWithID(t *testing.T) {
	handler := newTestHandler()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(nethttp.MethodPost, "/join", strings.NewReader(`{"id":"cat-lover"}`))
	handler.ServeHTTP(rec, req)
	var resp struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.ID != "cat-lover" {
		t.Fatalf("id %q, want cat-lover", resp.ID)
	}
}

func TestJoinEndpointRejections(t *testing.T) {
	handler := newTestHandler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(nethttp.MethodGet, "/join", nil))
	if rec.Code != nethttp.StatusMethodNotAllowed {
		t.Fatalf("GET join = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(nethttp.MethodPost, "/join", strings.NewReader("{broken"))
	handler.ServeHTTP(rec, req)
	if rec.Code != nethttp.StatusBadRequest {
		t.Fatalf("malformed join = %d", rec.Code)
	}
}

func TestDiagnosticsEndpoint(t *testing.T) {
	handler := newTestHandler()
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(nethttp.MethodGet, "/diagnostics", nil))
	if rec.Code != nethttp.StatusOK {
		t.Fatalf("diagnostics = %d", rec.Code)
	}
	var resp struct {
		Status   string `json:"status"`
		TickRate int    `json:"tickRate"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "ok" || resp.TickRate != server.TickRate() {
		t.Fatalf("diagnostics %+v", resp)
	}
}

func TestWebSocketRequiresSessionID(t *testing.T) {
	handler := newTestHandler()
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(nethttp.MethodGet, "/ws", nil))
	if rec.Code != nethttp.StatusBadRequest {
		t.Fatalf("ws without id = %d", rec.Code)
	}
}
