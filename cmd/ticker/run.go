package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"PriceTicker/internal/clock"
	"PriceTicker/internal/collector"
	"PriceTicker/internal/config"
	"PriceTicker/internal/display"
	"PriceTicker/internal/gpio"
	"PriceTicker/internal/model"
	"PriceTicker/internal/publisher"
	"PriceTicker/internal/recorder"
	"PriceTicker/internal/remote"
	"PriceTicker/internal/scheduler"
	"PriceTicker/internal/ticker"
	"PriceTicker/internal/trigger"
)

func run(parent context.Context, cfg *config.Config) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info().Msg("price ticker starting")

	fetcher, err := newFetcher(cfg)
	if err != nil {
		return err
	}
	log.Info().Str("source", fetcher.Name()).Msg("data source ready")

	store := openStore(cfg.Database.SQLitePath)
	defer store.Close()

	initial, _ := model.NewPriceQuery(cfg.Selection.Base, cfg.Selection.Quote)
	if saved, ok, err := store.LoadSelection(); err != nil {
		log.Warn().Err(err).Msg("load saved selection")
	} else if ok {
		initial = saved
		log.Info().Str("pair", saved.Pair()).Msg("restored selection")
	}

	sinks := display.Multi{display.NewTerminal(os.Stdout)}
	if leds := newLEDs(cfg); leds != nil {
		sinks = append(sinks, leds)
	}
	if cfg.Redis.Addr != "" {
		rs := publisher.NewRedisSink(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, time.Duration(cfg.Redis.TTLSec)*time.Second)
		if err := rs.Ping(ctx); err != nil {
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unreachable, publishing disabled")
			rs.Close()
		} else {
			sinks = append(sinks, rs)
			defer rs.Close()
		}
	}

	interval := time.Duration(cfg.FetchIntervalMS) * time.Millisecond
	orch := ticker.NewOrchestrator(fetcher, display.Events{Sink: sinks}, initial, interval)

	sel := trigger.NewSelector(cfg.Selection.Coins, cfg.Selection.Fiats, initial)
	sel.Subscribe(orch.OnSelectionChanged)
	sel.Subscribe(func(q model.PriceQuery) {
		if err := store.SaveSelection(q); err != nil {
			log.Warn().Err(err).Msg("save selection")
		}
	})

	clk := clock.NewMonotonic()
	sched := scheduler.NewScheduler(orch, fetcher, clk, time.Duration(cfg.TickIntervalMS)*time.Millisecond)
	if cfg.GPIO.ButtonPath != "" {
		pin := gpio.NewSysfsPin(cfg.GPIO.ButtonPath, false)
		sched.Housekeepers = append(sched.Housekeepers, trigger.NewButton(pin,
			func() { sel.NextCoin() },
			func() { sel.NextFiat() },
		))
	}
	if err := sched.RegisterAll(cfg.Schedule.RefreshCron, cfg.Schedule.HeartbeatCron); err != nil {
		return fmt.Errorf("register cron tasks: %w", err)
	}
	sched.Start()
	defer sched.Stop()

	hub := remote.NewHub(sel, cfg.Web.CheckOrigin)
	defer hub.Close()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return sched.Run(gctx) })
	g.Go(func() error {
		if err := remote.Serve(gctx, cfg.Web.Addr, remote.NewRouter(hub, orch)); err != nil {
			return fmt.Errorf("remote control server: %w", err)
		}
		return nil
	})
	if cfg.Telegram.BotToken != "" {
		bot := remote.NewTelegramBot(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Telegram.Proxy)
		bot.Selector = sel
		bot.Status = orch
		bot.Refresh = orch.ForceRefresh
		g.Go(func() error { return bot.StartPolling(gctx) })
	}
	console := &trigger.Console{In: os.Stdin, Selector: sel, Refresh: orch.ForceRefresh}
	g.Go(func() error { return console.Run(gctx) })

	log.Info().Str("pair", initial.String()).Str("web", cfg.Web.Addr).Msg("price ticker running, press Ctrl+C to stop")
	err = g.Wait()
	log.Info().Msg("price ticker stopped")
	return err
}

// fetchOnce runs a single cycle for the configured or given pair and
// renders it to stdout.
func fetchOnce(ctx context.Context, cfg *config.Config, args []string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	q, err := model.NewPriceQuery(cfg.Selection.Base, cfg.Selection.Quote)
	if len(args) == 1 {
		base, quote, found := strings.Cut(args[0], "/")
		if !found {
			return fmt.Errorf("pair must be BASE/QUOTE, got %q", args[0])
		}
		q, err = model.NewPriceQuery(base, quote)
	}
	if err != nil {
		return err
	}

	fetcher, err := newFetcher(cfg)
	if err != nil {
		return err
	}
	orch := ticker.NewOrchestrator(fetcher, display.Events{Sink: display.NewTerminal(os.Stdout)}, q, 0)
	ev := orch.Tick(ctx, 0)
	if ev != nil && ev.Kind == model.EventError {
		return fmt.Errorf("%s: %s", ev.Category, ev.Message)
	}
	return nil
}

func newFetcher(cfg *config.Config) (collector.Fetcher, error) {
	if cfg.DataSource == "mock" {
		return &collector.MockFetcher{Price: "0.12345", Change: 0.0321}, nil
	}
	timeout := time.Duration(cfg.API.RequestTimeoutMS) * time.Millisecond
	dialer, err := collector.NewTLSDialer(cfg.API.Host, cfg.Insecure(), timeout, cfg.API.Proxy)
	if err != nil {
		return nil, fmt.Errorf("init dialer: %w", err)
	}
	return collector.NewGeminiFetcher(cfg.API.Host, cfg.API.Port, timeout, dialer), nil
}

func openStore(path string) recorder.SelectionStore {
	if path == "" {
		return recorder.NewNoopStore()
	}
	s, err := recorder.NewSQLiteStore(path)
	if err != nil {
		log.Warn().Err(err).Msg("init sqlite store failed, using noop")
		return recorder.NewNoopStore()
	}
	return s
}

func newLEDs(cfg *config.Config) *display.LEDs {
	if cfg.GPIO.PosLEDPath == "" && cfg.GPIO.NegLEDPath == "" && cfg.GPIO.InfoLEDPath == "" {
		return nil
	}
	leds := &display.LEDs{}
	if p := cfg.GPIO.PosLEDPath; p != "" {
		leds.Pos = gpio.NewSysfsPin(p, cfg.GPIO.ActiveLow)
	}
	if p := cfg.GPIO.NegLEDPath; p != "" {
		leds.Neg = gpio.NewSysfsPin(p, cfg.GPIO.ActiveLow)
	}
	if p := cfg.GPIO.InfoLEDPath; p != "" {
		leds.Info = gpio.NewSysfsPin(p, cfg.GPIO.ActiveLow)
	}
	return leds
}
