package entities

import (
	"strconv"
	"strings"
)

type CurrencyCode string

const (
	USD CurrencyCode = "USD"
	EUR CurrencyCode = "EUR"
	GBP CurrencyCode = "GBP"
)

// SupportedCodes is the fixed set quoted against the local currency, in
// response order.
var SupportedCodes = []CurrencyCode{USD, EUR, GBP}

func ParseCode(s string) (CurrencyCode, error) {
	code := CurrencyCode(strings.ToUpper(strings.TrimSpace(s)))
	for _, c := range SupportedCodes {
		if c == code {
			return c, nil
		}
	}
	return "", ErrUnknownCurrency
}

// LocalCurrencyID identifies the catalog entry for the local currency (TRY).
const LocalCurrencyID = 1

// CurrencyItem is a static catalog entry. Code is nil for the local currency.
type CurrencyItem struct {
	ID       int
	Symbol   string
	LabelKey string
	Code     *CurrencyCode
}

func (c CurrencyItem) IsLocal() bool {
	return c.Code == nil
}

func Catalog() []CurrencyItem {
	usd, eur, gbp := USD, EUR, GBP
	return []CurrencyItem{
		{ID: LocalCurrencyID, Symbol: "₺", LabelKey: "try"},
		{ID: 2, Symbol: "$", LabelKey: "usd", Code: &usd},
		{ID: 3, Symbol: "€", LabelKey: "eur", Code: &eur},
		{ID: 4, Symbol: "£", LabelKey: "gbp", Code: &gbp},
	}
}

// LookupCurrency finds a catalog entry by id, code or label key ("try", "USD", "2").
func LookupCurrency(ref string) (CurrencyItem, bool) {
	ref = strings.TrimSpace(ref)
	for _, item := range Catalog() {
		switch {
		case strings.EqualFold(ref, item.LabelKey):
			return item, true
		case item.Code != nil && strings.EqualFold(ref, string(*item.Code)):
			return item, true
		case ref == strconv.Itoa(item.ID):
			return item, true
		}
	}
	return CurrencyItem{}, false
}

