// Package display renders presentation events. A Sink may block while it
// draws; events must be applied in the order they were emitted.
package display

import "PriceTicker/internal/model"

// Sink is the semantic drawing surface driven by the orchestrator.
type Sink interface {
	ShowLoading(stage, detail string)
	ShowPrice(q model.PriceQuery, s model.PriceSample)
	ShowError(category, message string)
}

// Dispatch applies one event to s.
func Dispatch(s Sink, ev model.PresentationEvent) {
	switch ev.Kind {
	case model.EventLoading:
		s.ShowLoading(ev.Stage, ev.Detail)
	case model.EventPriceUpdated:
		s.ShowPrice(ev.Query, ev.Sample)
	case model.EventError:
		s.ShowError(ev.Category, ev.Message)
	}
}

// Multi fans every call out to each sink in order.
type Multi []Sink

func (m Multi) ShowLoading(stage, detail string) {
	for _, s := range m {
		s.ShowLoading(stage, detail)
	}
}

func (m Multi) ShowPrice(q model.PriceQuery, sample model.PriceSample) {
	for _, s := range m {
		s.ShowPrice(q, sample)
	}
}

func (m Multi) ShowError(category, message string) {
	for _, s := range m {
		s.ShowError(category, message)
	}
}

// Events adapts a Sink to the orchestrator's event stream.
type Events struct {
	Sink Sink
}

func (e Events) Emit(ev model.PresentationEvent) { Dispatch(e.Sink, ev) }
