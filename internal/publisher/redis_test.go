package publisher

import (
	"encoding/json"
	"testing"
	"time"

	"PriceTicker/internal/model"
)

func TestKey(t *testing.T) {
	if got := Key(model.PriceQuery{Base: "DOGE", Quote: "USD"}); got != "ticker:last:DOGEUSD" {
		t.Errorf("got %q", got)
	}
}

func TestNewUpdate_JSON(t *testing.T) {
	at := time.Unix(1700000000, 0)
	u := NewUpdate(model.PriceQuery{Base: "BTC", Quote: "EUR"}, model.PriceSample{Price: "58123.45", PercentChange24h: -0.015}, at)
	data, err := json.Marshal(u)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"base":"BTC","quote":"EUR","price":"58123.45","percentChange24h":-0.015,"updatedAt":1700000000}`
	if string(data) != want {
		t.Errorf("got %s\nwant %s", data, want)
	}
}

func TestRedisSink_UnreachableDoesNotPanic(t *testing.T) {
	r := NewRedisSink("127.0.0.1:1", "", 0, time.Minute)
	r.Timeout = 200 * time.Millisecond
	defer r.Close()
	r.ShowPrice(model.PriceQuery{Base: "DOGE", Quote: "USD"}, model.PriceSample{Price: "0.1"})
}
