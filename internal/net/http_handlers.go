// Package net wires the hub to HTTP: the join endpoint, diagnostics, and
// the WebSocket upgrade path.
package net

import (
	"encoding/json"
	"io"
	"log"
	nethttp "net/http"
	"time"

	server "purrfect-run/server"
	"purrfect-run/server/internal/net/ws"
)

type HTTPHandlerConfig struct {
	ClientDir string
	Logger    *log.Logger
}

// NewHTTPHandler builds the full HTTP surface around a hub.
func NewHTTPHandler(hub *server.Hub, cfg HTTPHandlerConfig) nethttp.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	mux := nethttp.NewServeMux()

	mux.HandleFunc("/health", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("/diagnostics", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		payload := struct {
			Status     string `json:"status"`
			ServerTime int64  `json:"serverTime"`
			Players    any    `json:"players"`
			TickRate   int    `json:"tickRate"`
			Heartbeat  int64  `json:"heartbeatMillis"`
		}{
			Status:     "ok",
			ServerTime: time.Now().UnixMilli(),
			Players:    hub.DiagnosticsSnapshot(),
			TickRate:   server.TickRate(),
			Heartbeat:  server.HeartbeatInterval().Milliseconds(),
		}
		writeJSON(w, payload)
	})

	mux.HandleFunc("/join", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.Method != nethttp.MethodPost {
			httpError(w, "method not allowed", nethttp.StatusMethodNotAllowed)
			return
		}
		var req struct {
			ID string `json:"id,omitempty"`
		}
		if body, err := io.ReadAll(io.LimitReader(r.Body, 4096)); err == nil && len(body) > 0 {
			if err := json.Unmarshal(body, &req); err != nil {
				httpError(w, "malformed join request", nethttp.StatusBadRequest)
				return
			}
		}
		writeJSON(w, hub.JoinAs(req.ID))
	})

	wsHandler := ws.NewHandler(hub, ws.HandlerConfig{Logger: logger})
	mux.HandleFunc("/ws", wsHandler.Handle)

	if cfg.ClientDir != "" {
		mux.Handle("/", nethttp.FileServer(nethttp.Dir(cfg.ClientDir)))
	}

	return mux
}

func writeJSON(w nethttp.ResponseWriter, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		httpError(w, "failed to encode", nethttp.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

func httpError(w nethttp.ResponseWriter, message string, code int) {
	nethttp.Error(w, message, code)
}
