package display

import (
	"strconv"

	"PriceTicker/internal/model"
)

var currencySymbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"RUB": "₽",
	"SGD": "S$",
	"AUD": "A$",
	"JPY": "¥",
	"CAD": "C$",
}

// CurrencySymbol returns the display symbol for a fiat code, "$" if unknown.
func CurrencySymbol(quote string) string {
	if s, ok := currencySymbols[quote]; ok {
		return s
	}
	return "$"
}

const maxPriceChars = 11

// FormatPrice trims the verbatim price to fit the price line. Yen prices
// are shown without decimals.
func FormatPrice(quote string, s model.PriceSample) string {
	if quote == "JPY" {
		return strconv.Itoa(int(s.Value()))
	}
	if len(s.Price) > maxPriceChars {
		return s.Price[:maxPriceChars]
	}
	return s.Price
}

// splashNames are the coins with their own splash screen; anything else
// falls back to DOGE.
var splashNames = map[string]string{
	"DOGE": "DOGECOIN",
	"BTC":  "BITCOIN",
	"LTC":  "LITECOIN",
}

func splashName(coin string) string {
	if name, ok := splashNames[coin]; ok {
		return name
	}
	return splashNames["DOGE"]
}
