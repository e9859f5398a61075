package i18n

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/langowen/currency-rates/internal/entities"
)

func TestLoad(t *testing.T) {
	d, err := Load("TR")
	require.NoError(t, err)

	assert.Equal(t, LocaleTR, d.Locale())
	assert.Equal(t, "Alış", d.T(KeyPurchase))
	assert.Equal(t, "Satış", d.T(KeySale))

	_, err = Load("de")
	assert.ErrorIs(t, err, ErrUnknownLocale)
}

func TestMissingKeyFallsBackToKey(t *testing.T) {
	d, err := Load(LocaleEN)
	require.NoError(t, err)

	assert.Equal(t, "component.unknown", d.T("component.unknown"))
}

func TestLocalesCoverTheSameKeys(t *testing.T) {
	for key := range tr {
		_, ok := en[key]
		assert.True(t, ok, "en is missing %s", key)
	}
	assert.Len(t, en, len(tr))
}

func TestCatalogLabelsResolve(t *testing.T) {
	d, err := Load(LocaleEN)
	require.NoError(t, err)

	for _, item := range entities.Catalog() {
		label := d.CurrencyLabel(item.LabelKey)
		assert.NotContains(t, label, "component.", "label for %s", item.LabelKey)
	}
	assert.Equal(t, "US Dollar", d.CurrencyLabel("usd"))
}

func TestContextPropagation(t *testing.T) {
	_, err := FromContext(context.Background())
	assert.ErrorIs(t, err, ErrNoDictionary)
	assert.Panics(t, func() { MustFromContext(context.Background()) })

	d, err := Load(DefaultLocale)
	require.NoError(t, err)

	ctx := NewContext(context.Background(), d)
	assert.Same(t, d, MustFromContext(ctx))
}
