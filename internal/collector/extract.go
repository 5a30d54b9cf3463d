package collector

import (
	"bytes"
	"encoding/json"
	"math"
	"regexp"
	"strconv"

	"PriceTicker/internal/model"
)

// feedEntry is one element of the pricefeed array. Other fields are ignored.
type feedEntry struct {
	Price            json.RawMessage `json:"price"`
	PercentChange24h json.RawMessage `json:"percentChange24h"`
}

var jsonNull = []byte("null")

// decimalPattern is plain decimal notation with an optional exponent.
// Inf, NaN, hex floats and padded text are not prices.
var decimalPattern = regexp.MustCompile(`^[+-]?([0-9]+(\.[0-9]*)?|\.[0-9]+)([eE][+-]?[0-9]+)?$`)

// parseDecimal returns the finite value of a decimal string.
func parseDecimal(s string) (float64, bool) {
	if !decimalPattern.MatchString(s) {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Extract turns a pricefeed response body into a validated sample. It is
// the only authority on body validity; every error is a *model.FetchError.
func Extract(raw []byte) (model.PriceSample, error) {
	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return model.PriceSample{}, model.Failf(model.MalformedJSON, "%v", err)
	}
	if len(entries) == 0 || bytes.Equal(bytes.TrimSpace(entries[0]), jsonNull) {
		return model.PriceSample{}, model.Failf(model.NoValidPrice, "empty response")
	}

	var entry feedEntry
	if err := json.Unmarshal(entries[0], &entry); err != nil {
		return model.PriceSample{}, model.Failf(model.MalformedJSON, "%v", err)
	}

	price := scalarText(entry.Price)
	if v, ok := parseDecimal(price); !ok || v <= 0 {
		// Unsupported pairs come back as "0.00" rather than an error.
		return model.PriceSample{}, model.Failf(model.NoValidPrice, "zero or invalid price")
	}

	change := 0.0
	if v, ok := parseDecimal(scalarText(entry.PercentChange24h)); ok {
		change = v
	}

	return model.PriceSample{Price: price, PercentChange24h: change}, nil
}

// scalarText returns the text of a JSON string or number, "" otherwise.
func scalarText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, jsonNull) {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return ""
	}
	return n.String()
}
