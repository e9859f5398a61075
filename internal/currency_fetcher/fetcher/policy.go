package fetcher

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/langowen/currency-rates/internal/entities"
)

// Bank spread applied around the inverted upstream quote, and the fixed
// precision of the served rates.
const (
	PurchaseSpread       = "0.998"
	SaleSpread           = "1.002"
	RatePrecision  int32 = 4

	inversionPrecision int32 = 16
)

type Policy struct {
	Purchase  decimal.Decimal
	Sale      decimal.Decimal
	Precision int32
	Codes     []entities.CurrencyCode
}

func DefaultPolicy() Policy {
	return Policy{
		Purchase:  decimal.RequireFromString(PurchaseSpread),
		Sale:      decimal.RequireFromString(SaleSpread),
		Precision: RatePrecision,
		Codes:     entities.SupportedCodes,
	}
}

// Quote turns a raw "foreign units per local unit" rate into buy/sell prices
// of one foreign unit. Zero, negative and non-finite rates have no quote.
func (p Policy) Quote(code entities.CurrencyCode, raw float64) (entities.CurrencyRate, bool) {
	if raw <= 0 || math.IsNaN(raw) || math.IsInf(raw, 0) {
		return entities.CurrencyRate{}, false
	}

	inverted := decimal.NewFromInt(1).DivRound(decimal.NewFromFloat(raw), inversionPrecision)

	return entities.CurrencyRate{
		CurrencyCode: code,
		PurchaseRate: inverted.Mul(p.Purchase).StringFixed(p.Precision),
		SaleRate:     inverted.Mul(p.Sale).StringFixed(p.Precision),
	}, true
}

// Build quotes every configured code present in up, omitting the ones without
// a usable rate. It reports false when nothing could be quoted.
func (p Policy) Build(up *entities.UpstreamRates) (*entities.RatesPayload, bool) {
	if up == nil || len(up.Rates) == 0 {
		return nil, false
	}

	currencies := make([]entities.CurrencyRate, 0, len(p.Codes))
	for _, code := range p.Codes {
		raw, ok := up.Rates[code]
		if !ok {
			continue
		}
		if rate, ok := p.Quote(code, raw); ok {
			currencies = append(currencies, rate)
		}
	}

	if len(currencies) == 0 {
		return nil, false
	}

	return &entities.RatesPayload{
		Data: entities.RatesData{Currency: currencies},
		Date: up.Date,
	}, true
}
