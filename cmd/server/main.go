// Command server runs the task scheduling engine: HTTP API, scheduler
// loop, worker loop and failure detector in one process, shutting down
// cooperatively on SIGINT/SIGTERM.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/shubhanginisharma627/distributedtaskscheduler/internal/app"
	"github.com/shubhanginisharma627/distributedtaskscheduler/internal/config"
)

func main() {
	cfg := config.Load(nil)

	a, err := app.New(cfg)
	if err != nil {
		log.Fatalf("startup failed: %v", err)
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Run(ctx); err != nil {
		log.Fatalf("engine stopped with error: %v", err)
	}
}
