package main

import (
	"context"
	"log"
	"os"

	"purrfect-run/server/internal/app"
)

func main() {
	cfg := app.Config{}
	if addr := os.Getenv("ADDR"); addr != "" {
		cfg.Addr = addr
	}
	if err := app.Run(context.Background(), cfg); err != nil {
		log.Fatalf("%v", err)
	}
}
