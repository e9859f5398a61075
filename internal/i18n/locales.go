package i18n

var tr = map[Key]string{
	KeyChangeCurrency: "Döviz değiştir",
	KeyPurchase:       "Alış",
	KeySale:           "Satış",
	KeyReset:          "Kura geri dön",
	KeyLoading:        "Kur yükleniyor",
	KeyRateError:      "Kur alınamadı",
	KeyCurrencyTRY:    "Türk Lirası",
	KeyCurrencyUSD:    "Amerikan Doları",
	KeyCurrencyEUR:    "Euro",
	KeyCurrencyGBP:    "İngiliz Sterlini",
	KeyThemeDefault:   "Default",
	KeyThemeParasut:   "Paraşüt",
	KeyThemeBizmu:     "Bizmu",
}

var en = map[Key]string{
	KeyChangeCurrency: "Change currency",
	KeyPurchase:       "Purchase",
	KeySale:           "Sale",
	KeyReset:          "Reset to fetched rate",
	KeyLoading:        "Loading rate",
	KeyRateError:      "Could not load rate",
	KeyCurrencyTRY:    "Turkish Lira",
	KeyCurrencyUSD:    "US Dollar",
	KeyCurrencyEUR:    "Euro",
	KeyCurrencyGBP:    "British Pound",
	KeyThemeDefault:   "Default",
	KeyThemeParasut:   "Paraşüt",
	KeyThemeBizmu:     "Bizmu",
}
