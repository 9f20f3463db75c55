// Package app wires the process: logging router, hub, persistence store
// factory, and the HTTP server.
package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"

	server "purrfect-run/server"
	servernet "purrfect-run/server/internal/net"
	"purrfect-run/server/internal/state"
	"purrfect-run/server/logging"
	"purrfect-run/server/logging/sinks"
)

type Config struct {
	Addr      string
	ClientDir string
	SaveDir   string
	LogFile   string
	Logger    *log.Logger
}

func Run(ctx context.Context, cfg Config) error {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if v := os.Getenv("SAVE_DIR"); v != "" && cfg.SaveDir == "" {
		cfg.SaveDir = v
	}
	if v := os.Getenv("LOG_FILE"); v != "" && cfg.LogFile == "" {
		cfg.LogFile = v
	}

	logConfig := logging.DefaultConfig()
	namedSinks := []logging.NamedSink{
		{Name: "console", Sink: sinks.NewConsoleSink(os.Stdout, logConfig.Console)},
	}
	if cfg.LogFile != "" {
		file, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer file.Close()
		namedSinks = append(namedSinks, logging.NamedSink{
			Name: "json",
			Sink: sinks.NewJSON(file, logConfig.JSON.FlushInterval),
		})
	}

	router, err := logging.NewRouter(nil, logConfig, namedSinks)
	if err != nil {
		return fmt.Errorf("construct logging router: %w", err)
	}
	defer func() {
		if cerr := router.Close(ctx); cerr != nil {
			logger.Printf("failed to close logging router: %v", cerr)
		}
	}()

	hubCfg := server.DefaultHubConfig()
	hubCfg.Logger = logger
	hubCfg.Publisher = router
	if cfg.SaveDir != "" {
		hubCfg.NewStore = func(sessionID string) state.Store {
			store, err := state.NewFileStore(filepath.Join(cfg.SaveDir, sessionID))
			if err != nil {
				logger.Printf("falling back to memory store for %s: %v", sessionID, err)
				return state.NewMemoryStore()
			}
			return store
		}
	}

	hub := server.NewHubWithConfig(hubCfg)
	stop := make(chan struct{})
	go hub.RunSimulation(stop)
	defer close(stop)

	handler := servernet.NewHTTPHandler(hub, servernet.HTTPHandlerConfig{
		ClientDir: cfg.ClientDir,
		Logger:    logger,
	})

	srv := &http.Server{Addr: cfg.Addr, Handler: handler}
	logger.Printf("server listening on %s", srv.Addr)

	if err := srv.ListenAndServe(); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}
