package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/pfrederiksen/live-events/internal/cli"
)

func main() {
	os.Exit(run())
}

// run keeps deferred cleanup ahead of os.Exit
func run() int {
	// .env is optional; real environment variables take precedence
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return cli.Execute(ctx)
}
