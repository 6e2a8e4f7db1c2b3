// Command server runs the opsboard notification backend: the HTTP API, the
// live feed listener, and the periodic housekeeping scheduler.
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/opsboard/backend/internal/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx); err != nil {
		log.Fatalf("application error: %v", err)
	}
}
