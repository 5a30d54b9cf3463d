package model

// EventKind identifies a presentation event.
type EventKind string

const (
	EventLoading      EventKind = "LOADING"
	EventPriceUpdated EventKind = "PRICE_UPDATED"
	EventError        EventKind = "ERROR"
)

// StageSplash is the loading stage shown when a new pair is selected;
// its detail is the base asset.
const StageSplash = "Splash"

// PresentationEvent describes what the display and LEDs should show next.
// Events are fire-and-forget; the latest one wins.
type PresentationEvent struct {
	Kind EventKind

	// Loading
	Stage  string
	Detail string

	// PriceUpdated
	Query  PriceQuery
	Sample PriceSample

	// ErrorOccurred
	Category string
	Message  string
}

func Loading(stage, detail string) PresentationEvent {
	return PresentationEvent{Kind: EventLoading, Stage: stage, Detail: detail}
}

func PriceUpdated(q PriceQuery, s PriceSample) PresentationEvent {
	return PresentationEvent{Kind: EventPriceUpdated, Query: q, Sample: s}
}

func ErrorOccurred(category, message string) PresentationEvent {
	return PresentationEvent{Kind: EventError, Category: category, Message: message}
}

// Phase is the orchestrator's cycle phase.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseAwaitingFetch
)

func (p Phase) String() string {
	if p == PhaseAwaitingFetch {
		return "AWAITING_FETCH"
	}
	return "IDLE"
}

// CycleState is owned and mutated only by the orchestrator.
type CycleState struct {
	LastFetch     uint32 // monotonic milliseconds at the start of the last completed cycle
	Query         PriceQuery
	Phase         Phase
	ForceRefresh  bool
	SplashPending bool
	LastKnown     *PriceSample
}
