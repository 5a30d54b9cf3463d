package scheduler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"PriceTicker/internal/clock"
	"PriceTicker/internal/collector"
	"PriceTicker/internal/model"
	"PriceTicker/internal/ticker"
)

const DefaultTickInterval = 100 * time.Millisecond

// Housekeeper is polled on every host tick, e.g. a debounced button.
type Housekeeper interface {
	Poll(now uint32)
}

// Scheduler drives the orchestrator from a single loop goroutine and runs
// the cron jobs.
type Scheduler struct {
	Cron         *cron.Cron
	Orchestrator *ticker.Orchestrator
	Fetcher      collector.Fetcher
	Clock        clock.Clock
	TickInterval time.Duration
	Housekeepers []Housekeeper

	started time.Time
}

// NewScheduler creates a new Scheduler.
func NewScheduler(orch *ticker.Orchestrator, fetcher collector.Fetcher, clk clock.Clock, tick time.Duration) *Scheduler {
	if tick <= 0 {
		tick = DefaultTickInterval
	}
	if clk == nil {
		clk = clock.NewMonotonic()
	}
	return &Scheduler{
		Cron:         cron.New(cron.WithSeconds()),
		Orchestrator: orch,
		Fetcher:      fetcher,
		Clock:        clk,
		TickInterval: tick,
		started:      time.Now(),
	}
}

// RegisterAll registers the optional refresh and heartbeat jobs. Empty
// expressions are skipped.
func (s *Scheduler) RegisterAll(refreshCron, heartbeatCron string) error {
	if refreshCron != "" {
		if _, err := s.Cron.AddFunc(refreshCron, s.refreshTask); err != nil {
			return fmt.Errorf("register refresh task: %w", err)
		}
	}
	if heartbeatCron != "" {
		if _, err := s.Cron.AddFunc(heartbeatCron, s.heartbeatTask); err != nil {
			return fmt.Errorf("register heartbeat task: %w", err)
		}
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Info().Int("jobs", len(s.Cron.Entries())).Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Info().Msg("scheduler stopped")
}

func (s *Scheduler) refreshTask() {
	log.Info().Msg("scheduled refresh")
	s.Orchestrator.ForceRefresh()
}

func (s *Scheduler) heartbeatTask() {
	log.Info().Msg(s.Heartbeat(time.Now()))
}

// Heartbeat summarises the current pair, last price and uptime.
func (s *Scheduler) Heartbeat(now time.Time) string {
	q := s.Orchestrator.Query()
	uptime := strings.TrimSpace(humanize.RelTime(s.started, now, "", ""))
	if sample, ok := s.Orchestrator.LastKnown(); ok {
		return fmt.Sprintf("%s at %s (%s), up %s", q, sample.Price, sample.ChangeDisplay(), uptime)
	}
	return fmt.Sprintf("%s no price yet, up %s", q, uptime)
}

// loopEvent carries fetch progress from the fetch goroutine back to the loop.
type loopEvent struct {
	stage  string
	detail string

	done   bool
	sample model.PriceSample
	err    error
}

// Run services housekeepers and fetch cycles until ctx is cancelled. All
// presentation events are emitted from this goroutine, in order.
func (s *Scheduler) Run(ctx context.Context) error {
	t := time.NewTicker(s.TickInterval)
	defer t.Stop()

	events := make(chan loopEvent, 8)
	inFlight := false

	tick := func() {
		now := s.Clock.Millis()
		for _, h := range s.Housekeepers {
			h.Poll(now)
		}
		if inFlight {
			return
		}
		q, ok := s.Orchestrator.Begin(now)
		if !ok {
			return
		}
		inFlight = true
		go s.fetch(ctx, q, events)
	}

	log.Info().Dur("tick", s.TickInterval).Str("source", s.Fetcher.Name()).Msg("ticker loop started")
	tick()
	for {
		select {
		case <-ctx.Done():
			if inFlight {
				s.drain(events)
			}
			log.Info().Msg("ticker loop stopped")
			return nil
		case <-t.C:
			tick()
		case ev := <-events:
			if !ev.done {
				s.Orchestrator.Stage(ev.stage, ev.detail)
				continue
			}
			s.Orchestrator.Complete(ev.sample, ev.err)
			inFlight = false
		}
	}
}

func (s *Scheduler) fetch(ctx context.Context, q model.PriceQuery, events chan<- loopEvent) {
	sample, err := s.Fetcher.FetchPrice(ctx, q, func(stage, detail string) {
		events <- loopEvent{stage: stage, detail: detail}
	})
	events <- loopEvent{done: true, sample: sample, err: err}
}

// drain waits for the in-flight fetch so its goroutine does not leak.
func (s *Scheduler) drain(events <-chan loopEvent) {
	for ev := range events {
		if ev.done {
			return
		}
	}
}
