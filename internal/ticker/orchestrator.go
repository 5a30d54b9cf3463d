package ticker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"PriceTicker/internal/clock"
	"PriceTicker/internal/collector"
	"PriceTicker/internal/model"
)

const DefaultInterval = 30 * time.Second

// Error titles and messages shown on the display.
const (
	CategoryAPI  = "API Error"
	CategoryJSON = "JSON Error"

	MsgConnectionFailed = "Connection failed!"
	MsgTimeout          = "Timeout"
	MsgPairUnavailable  = "Price pair not available"
	MsgInvalidResponse  = "Invalid response"
)

// Sink consumes presentation events in emission order.
type Sink interface {
	Emit(ev model.PresentationEvent)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ev model.PresentationEvent)

func (f SinkFunc) Emit(ev model.PresentationEvent) { f(ev) }

// Orchestrator runs the price acquisition cycle: it decides when to fetch,
// and maps fetch outcomes onto presentation events.
type Orchestrator struct {
	mu       sync.Mutex
	state    model.CycleState
	interval time.Duration
	fetcher  collector.Fetcher
	sink     Sink

	// in-flight cycle
	cycleStart    uint32
	cycleQuery    model.PriceQuery
	refreshQueued bool
}

// NewOrchestrator creates an orchestrator for the initial query. The first
// cycle is forced so the display is populated at boot.
func NewOrchestrator(fetcher collector.Fetcher, sink Sink, q model.PriceQuery, interval time.Duration) *Orchestrator {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Orchestrator{
		state: model.CycleState{
			Query:         q,
			Phase:         model.PhaseIdle,
			ForceRefresh:  true,
			SplashPending: true,
		},
		interval: interval,
		fetcher:  fetcher,
		sink:     sink,
	}
}

// Tick runs one synchronous cycle when one is due and returns the terminal
// event, or nil when nothing was fetched.
func (o *Orchestrator) Tick(ctx context.Context, now uint32) *model.PresentationEvent {
	q, ok := o.Begin(now)
	if !ok {
		return nil
	}
	sample, err := o.fetcher.FetchPrice(ctx, q, o.Stage)
	ev := o.Complete(sample, err)
	return &ev
}

// Begin starts a cycle when the interval has elapsed or a refresh is
// forced. It returns the query to fetch, or false while a cycle is in
// progress or not yet due.
func (o *Orchestrator) Begin(now uint32) (model.PriceQuery, bool) {
	o.mu.Lock()
	if o.state.Phase == model.PhaseAwaitingFetch {
		o.mu.Unlock()
		return model.PriceQuery{}, false
	}
	if !o.state.ForceRefresh && !clock.Elapsed(now, o.state.LastFetch, o.interval) {
		o.mu.Unlock()
		return model.PriceQuery{}, false
	}

	o.state.Phase = model.PhaseAwaitingFetch
	o.state.ForceRefresh = false
	o.refreshQueued = false
	o.cycleStart = now
	o.cycleQuery = o.state.Query
	q := o.cycleQuery
	splash := o.state.SplashPending
	o.state.SplashPending = false
	o.mu.Unlock()

	if splash {
		o.emit(model.Loading(model.StageSplash, q.Base))
	}
	o.emit(model.Loading("Fetching Price", q.String()))
	return q, true
}

// Stage forwards fetch progress as a loading event.
func (o *Orchestrator) Stage(stage, detail string) {
	o.emit(model.Loading(stage, detail))
}

// Complete ends the cycle started by Begin and emits the terminal event.
func (o *Orchestrator) Complete(sample model.PriceSample, err error) model.PresentationEvent {
	o.mu.Lock()
	q := o.cycleQuery
	o.state.Phase = model.PhaseIdle
	// Failed cycles also wait out the interval. Refresh requests that
	// arrived mid-fetch apply to the next tick.
	o.state.LastFetch = o.cycleStart
	o.state.ForceRefresh = o.refreshQueued
	o.refreshQueued = false

	var ev model.PresentationEvent
	if err == nil {
		if q == o.state.Query {
			s := sample
			o.state.LastKnown = &s
		}
		ev = model.PriceUpdated(q, sample)
	} else {
		ev = model.ErrorOccurred(Describe(err))
	}
	o.mu.Unlock()

	if err != nil {
		log.Error().Err(err).Str("pair", q.Pair()).Msg("fetch failed")
	} else {
		log.Info().Str("pair", q.Pair()).Str("price", sample.Price).Str("change", sample.ChangeDisplay()).Msg("price updated")
	}
	o.emit(ev)
	return ev
}

// OnSelectionChanged replaces the query and forces a fetch on the next
// tick. It never fetches by itself.
func (o *Orchestrator) OnSelectionChanged(q model.PriceQuery) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if q != o.state.Query {
		o.state.LastKnown = nil
	}
	o.state.Query = q
	o.state.SplashPending = true
	o.requestRefresh()
	log.Info().Str("pair", q.Pair()).Msg("selection changed")
}

// ForceRefresh requests a fetch on the next tick without changing the pair.
func (o *Orchestrator) ForceRefresh() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.requestRefresh()
}

func (o *Orchestrator) requestRefresh() {
	if o.state.Phase == model.PhaseAwaitingFetch {
		o.refreshQueued = true
		return
	}
	o.state.ForceRefresh = true
}

// Query returns the current selection.
func (o *Orchestrator) Query() model.PriceQuery {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state.Query
}

// LastKnown returns the last successful sample for the current pair.
func (o *Orchestrator) LastKnown() (model.PriceSample, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state.LastKnown == nil {
		return model.PriceSample{}, false
	}
	return *o.state.LastKnown, true
}

// State returns a copy of the cycle state.
func (o *Orchestrator) State() model.CycleState {
	o.mu.Lock()
	defer o.mu.Unlock()
	st := o.state
	if st.LastKnown != nil {
		s := *st.LastKnown
		st.LastKnown = &s
	}
	return st
}

func (o *Orchestrator) emit(ev model.PresentationEvent) {
	if o.sink != nil {
		o.sink.Emit(ev)
	}
}

// Describe maps a fetch error onto a display category and message. Status
// codes are never shown.
func Describe(err error) (category, message string) {
	var fe *model.FetchError
	if !errors.As(err, &fe) {
		return CategoryAPI, MsgConnectionFailed
	}
	switch fe.Kind {
	case model.Timeout:
		return CategoryAPI, MsgTimeout
	case model.HTTPStatus, model.NoValidPrice:
		return CategoryAPI, MsgPairUnavailable
	case model.MalformedJSON:
		return CategoryJSON, MsgInvalidResponse
	default:
		return CategoryAPI, MsgConnectionFailed
	}
}
