package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/langowen/currency-rates/deploy/config"
	apiApp "github.com/langowen/currency-rates/internal/api_service/app"
)

func main() {
	cfg := config.NewConfig()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appDone := apiApp.NewApiApp(cfg).Start(ctx)

	<-ctx.Done()
	slog.Info("Gracefully shutting down currency rates api")

	<-appDone
	slog.Info("api service stopped, storages closed")
}
