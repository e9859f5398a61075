// Package i18n holds the static message dictionaries. A Dictionary is built
// once by the caller and passed down explicitly or through a context.
package i18n

import (
	"context"
	"errors"
	"strings"
)

type Locale string

const (
	LocaleTR Locale = "tr"
	LocaleEN Locale = "en"

	DefaultLocale = LocaleTR
)

type Key string

const (
	KeyChangeCurrency Key = "component.currency.change_currency"
	KeyPurchase       Key = "component.currency.purchase"
	KeySale           Key = "component.currency.sale"
	KeyReset          Key = "component.currency.reset"
	KeyLoading        Key = "component.currency.loading"
	KeyRateError      Key = "component.currency.error"
	KeyCurrencyTRY    Key = "component.currency.currencies.try"
	KeyCurrencyUSD    Key = "component.currency.currencies.usd"
	KeyCurrencyEUR    Key = "component.currency.currencies.eur"
	KeyCurrencyGBP    Key = "component.currency.currencies.gbp"
	KeyThemeDefault   Key = "themes.default"
	KeyThemeParasut   Key = "themes.parasut"
	KeyThemeBizmu     Key = "themes.bizmu"
)

var (
	ErrUnknownLocale = errors.New("unknown locale")
	ErrNoDictionary  = errors.New("dictionary is not initialized")
)

type Dictionary struct {
	locale   Locale
	messages map[Key]string
}

var catalogs = map[Locale]map[Key]string{
	LocaleTR: tr,
	LocaleEN: en,
}

func Load(locale Locale) (*Dictionary, error) {
	locale = Locale(strings.ToLower(string(locale)))

	messages, ok := catalogs[locale]
	if !ok {
		return nil, ErrUnknownLocale
	}

	return &Dictionary{locale: locale, messages: messages}, nil
}

func (d *Dictionary) Locale() Locale {
	return d.locale
}

// T returns the message for key, or the key itself when the locale lacks it.
func (d *Dictionary) T(key Key) string {
	if msg, ok := d.messages[key]; ok {
		return msg
	}
	return string(key)
}

// CurrencyLabel resolves a catalog label key such as "usd".
func (d *Dictionary) CurrencyLabel(labelKey string) string {
	return d.T(Key("component.currency.currencies." + labelKey))
}

type ctxKey struct{}

func NewContext(ctx context.Context, d *Dictionary) context.Context {
	return context.WithValue(ctx, ctxKey{}, d)
}

func FromContext(ctx context.Context) (*Dictionary, error) {
	d, ok := ctx.Value(ctxKey{}).(*Dictionary)
	if !ok || d == nil {
		return nil, ErrNoDictionary
	}
	return d, nil
}

// MustFromContext panics when no dictionary was attached to ctx.
func MustFromContext(ctx context.Context) *Dictionary {
	d, err := FromContext(ctx)
	if err != nil {
		panic(err)
	}
	return d
}
