package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/langowen/currency-rates/deploy/config"
	fetcherApp "github.com/langowen/currency-rates/internal/currency_fetcher/app"
)

func main() {
	cfg := config.NewConfig()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	fetcherApp.Run(ctx, cfg)
}
