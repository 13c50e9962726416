package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/haguru/choji/config"
	"github.com/haguru/choji/internal/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// create and initialize the app
	app, err := app.NewApp(ctx, config.CONFIG_PATH)
	if err != nil {
		panic(err)
	}

	// run the app until an interrupt or SIGTERM, then shut down gracefully
	if err := app.Run(ctx); err != nil {
		app.Logger.Error("Service stopped with error", "error", err)
		os.Exit(1)
	}
}
