// Package trigger turns external inputs (button, console) into selection
// changes and refresh requests.
package trigger

import (
	"sync"

	"PriceTicker/internal/model"
)

// Selector owns the current pair and notifies subscribers when it changes.
// Button presses cycle through the configured coin and fiat lists.
type Selector struct {
	// notifyMu orders whole selections so subscribers see changes in the
	// same order as current.
	notifyMu  sync.Mutex
	mu        sync.Mutex
	coins     []string
	fiats     []string
	current   model.PriceQuery
	listeners []func(model.PriceQuery)
}

func NewSelector(coins, fiats []string, initial model.PriceQuery) *Selector {
	return &Selector{coins: coins, fiats: fiats, current: initial}
}

// Subscribe registers fn to be called after every selection change.
func (s *Selector) Subscribe(fn func(model.PriceQuery)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *Selector) Current() model.PriceQuery {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Select replaces the pair and notifies subscribers, even when unchanged,
// so a repeated selection still forces a refresh. Subscribers must not
// call back into Select.
func (s *Selector) Select(q model.PriceQuery) {
	s.update(func(model.PriceQuery) model.PriceQuery { return q })
}

// NextCoin advances to the next configured coin.
func (s *Selector) NextCoin() model.PriceQuery {
	return s.update(func(q model.PriceQuery) model.PriceQuery {
		q.Base = next(s.coins, q.Base)
		return q
	})
}

// NextFiat advances to the next configured fiat currency.
func (s *Selector) NextFiat() model.PriceQuery {
	return s.update(func(q model.PriceQuery) model.PriceQuery {
		q.Quote = next(s.fiats, q.Quote)
		return q
	})
}

func (s *Selector) update(change func(model.PriceQuery) model.PriceQuery) model.PriceQuery {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	q := change(s.current)
	s.current = q
	listeners := append([]func(model.PriceQuery){}, s.listeners...)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(q)
	}
	return q
}

func next(list []string, cur string) string {
	if len(list) == 0 {
		return cur
	}
	for i, v := range list {
		if v == cur {
			return list[(i+1)%len(list)]
		}
	}
	return list[0]
}
