// Command rates_cli looks up the bank rates of one currency from a running
// api_service and optionally applies a user edit to them.
//
//	rates_cli -currency usd -mode sale -input "34,5"
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"

	"github.com/langowen/currency-rates/deploy/config"
	"github.com/langowen/currency-rates/internal/entities"
	"github.com/langowen/currency-rates/internal/i18n"
	"github.com/langowen/currency-rates/internal/numfmt"
	"github.com/langowen/currency-rates/internal/rates_client"
)

// ErrLocalRateFixed rejects edits of the local currency, which has no rate to
// convert.
var ErrLocalRateFixed = errors.New("local currency rate cannot be edited")

func main() {
	cfg := config.NewConfig()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, os.Args[1:], os.Stdout); err != nil {
		slog.Error("rates_cli failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, args []string, out io.Writer) error {
	const op = "rates_cli.run"

	fs := flag.NewFlagSet("rates_cli", flag.ContinueOnError)
	fs.SetOutput(out)
	currency := fs.String("currency", "try", "currency label key, code or catalog id")
	mode := fs.String("mode", "sale", "rate to edit: sale or purchase")
	input := fs.String("input", "", "typed value applied to the selected rate, e.g. \"1.234,5\"")
	locale := fs.String("locale", cfg.Client.Locale, "message locale: tr or en")
	if err := fs.Parse(args); err != nil {
		return errors.Wrap(err, op)
	}

	dict, err := i18n.Load(i18n.Locale(*locale))
	if err != nil {
		return errors.Wrapf(err, "%s: %q", op, *locale)
	}
	ctx = i18n.NewContext(ctx, dict)

	item, ok := entities.LookupCurrency(*currency)
	if !ok {
		return errors.Wrapf(entities.ErrUnknownCurrency, "%s: %q", op, *currency)
	}
	if item.IsLocal() && *input != "" {
		return errors.Wrap(ErrLocalRateFixed, op)
	}

	overlay := rates_client.NewOverlay()
	tracker := rates_client.NewTracker(
		rates_client.NewHTTPClient(cfg.Client.APIURL, cfg.Client.Timeout),
		rates_client.WithObserver(overlay.Observe),
		rates_client.WithObserver(func(s rates_client.State) {
			if s.Status == rates_client.StatusLoading {
				slog.Debug(dict.T(i18n.KeyLoading), "currency", *currency)
			}
		}),
	)

	state := tracker.Select(ctx, item.Code)
	if state.Status == rates_client.StatusError {
		fmt.Fprintln(out, dict.T(i18n.KeyRateError))
		return errors.Wrap(state.Err, op)
	}

	switch *mode {
	case rates_client.ModeSale.String():
	case rates_client.ModePurchase.String():
		overlay.ToggleMode()
	default:
		return errors.Errorf("%s: unknown mode %q", op, *mode)
	}

	formatter := numfmt.NewFormatter()
	field := numfmt.NewField(formatter, overlay.Value(), overlay.Set)
	if *input != "" {
		field.Focus()
		field.Input(*input)
		field.Blur()
	}

	return render(ctx, out, item, overlay, formatter)
}

func render(ctx context.Context, out io.Writer, item entities.CurrencyItem, overlay *rates_client.Overlay, formatter numfmt.Formatter) error {
	dict := i18n.MustFromContext(ctx)
	rate := overlay.Rate()

	lines := []string{
		fmt.Sprintf("%s %s", item.Symbol, dict.CurrencyLabel(item.LabelKey)),
		fmt.Sprintf("%s: %s", dict.T(i18n.KeyPurchase), formatter.FormatValue(rate.Purchase)),
		fmt.Sprintf("%s: %s", dict.T(i18n.KeySale), formatter.FormatValue(rate.Sale)),
	}
	if overlay.ShowReset() {
		lines = append(lines, fmt.Sprintf("[%s]", dict.T(i18n.KeyReset)))
	}

	for _, line := range lines {
		if _, err := fmt.Fprintln(out, line); err != nil {
			return errors.Wrap(err, "rates_cli.render")
		}
	}

	return nil
}
