package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/gommon/log"

	"inventory-tracker/internal/interfaces/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.NewApp().RunContext(ctx, os.Args); err != nil {
		stop()
		log.Fatalf("inventory-tracker: %v", err)
	}
}
