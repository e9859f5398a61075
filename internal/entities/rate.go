package entities

import "time"

// ExchangeRate is the buy/sell price of one foreign unit in local currency.
type ExchangeRate struct {
	Purchase float64
	Sale     float64
}

// LocalRate is returned for the local currency: nothing to convert.
var LocalRate = ExchangeRate{Purchase: 0, Sale: 0}

// UpstreamRates is a validated upstream quote, always expressed as foreign
// units per one local unit.
type UpstreamRates struct {
	Source string
	Base   string
	Date   string
	Rates  map[CurrencyCode]float64
}

type CurrencyRate struct {
	CurrencyCode CurrencyCode `json:"CurrencyCode"`
	PurchaseRate string       `json:"PurchaseRate"`
	SaleRate     string       `json:"SaleRate"`
}

type RatesData struct {
	Currency []CurrencyRate `json:"Currency"`
}

// RatesPayload is the body served by GET /api/currency-rates.
type RatesPayload struct {
	Data RatesData `json:"Data"`
	Date string    `json:"Date"`
}

// Find returns the entry for code, if the payload carries one.
func (p *RatesPayload) Find(code CurrencyCode) (CurrencyRate, bool) {
	for _, rate := range p.Data.Currency {
		if rate.CurrencyCode == code {
			return rate, true
		}
	}
	return CurrencyRate{}, false
}

type Snapshot struct {
	CurrencyCode CurrencyCode `json:"currency_code"`
	PurchaseRate string       `json:"purchase_rate"`
	SaleRate     string       `json:"sale_rate"`
	Source       string       `json:"source"`
	UpstreamDate string       `json:"upstream_date"`
	FetchedAt    time.Time    `json:"fetched_at"`
}

func NewSnapshots(payload *RatesPayload, source string, fetchedAt time.Time) []Snapshot {
	snapshots := make([]Snapshot, 0, len(payload.Data.Currency))
	for _, rate := range payload.Data.Currency {
		snapshots = append(snapshots, Snapshot{
			CurrencyCode: rate.CurrencyCode,
			PurchaseRate: rate.PurchaseRate,
			SaleRate:     rate.SaleRate,
			Source:       source,
			UpstreamDate: payload.Date,
			FetchedAt:    fetchedAt,
		})
	}
	return snapshots
}
