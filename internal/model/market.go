package model

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// PriceQuery is the pair requested from the price feed. It is replaced
// wholesale on selection change.
type PriceQuery struct {
	Base  string // crypto asset, e.g. "DOGE"
	Quote string // fiat currency, e.g. "USD"
}

// NewPriceQuery normalises both symbols to upper case and validates them.
func NewPriceQuery(base, quote string) (PriceQuery, error) {
	q := PriceQuery{
		Base:  strings.ToUpper(strings.TrimSpace(base)),
		Quote: strings.ToUpper(strings.TrimSpace(quote)),
	}
	if err := ValidSymbol(q.Base); err != nil {
		return PriceQuery{}, fmt.Errorf("base: %w", err)
	}
	if err := ValidSymbol(q.Quote); err != nil {
		return PriceQuery{}, fmt.Errorf("quote: %w", err)
	}
	return q, nil
}

// ValidSymbol checks an already upper-cased asset or currency code.
func ValidSymbol(s string) error {
	if len(s) < 2 || len(s) > 10 {
		return fmt.Errorf("symbol %q must be 2-10 characters", s)
	}
	for _, r := range s {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return fmt.Errorf("symbol %q contains invalid character %q", s, r)
		}
	}
	return nil
}

// Pair returns the feed identifier, base and quote with no separator.
func (q PriceQuery) Pair() string { return q.Base + q.Quote }

func (q PriceQuery) String() string { return q.Base + "/" + q.Quote }

// PriceSample is one successful price reading.
type PriceSample struct {
	Price            string  // verbatim decimal string from the feed
	PercentChange24h float64 // signed fraction, 0.0123 = +1.23%
}

// Value parses Price. Unparsable prices return 0.
func (s PriceSample) Value() float64 {
	v, err := strconv.ParseFloat(s.Price, 64)
	if err != nil || math.IsNaN(v) {
		return 0
	}
	return v
}

// ChangePercent returns the 24h change in percent.
func (s PriceSample) ChangePercent() float64 { return s.PercentChange24h * 100 }

// ChangeDisplay renders the change with two decimals, e.g. "3.21%".
func (s PriceSample) ChangeDisplay() string {
	return fmt.Sprintf("%.2f%%", s.ChangePercent())
}
