// Package publisher shares the latest price with other local consumers.
package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"

	"PriceTicker/internal/model"
)

const (
	Channel   = "ticker:prices"
	keyPrefix = "ticker:last:"
)

// Update is the payload published for every price update.
type Update struct {
	Base             string  `json:"base"`
	Quote            string  `json:"quote"`
	Price            string  `json:"price"`
	PercentChange24h float64 `json:"percentChange24h"`
	UpdatedAt        int64   `json:"updatedAt"`
}

// Key returns the key holding the latest update for a pair.
func Key(q model.PriceQuery) string { return keyPrefix + q.Pair() }

// NewUpdate builds the payload for a sample.
func NewUpdate(q model.PriceQuery, s model.PriceSample, at time.Time) Update {
	return Update{
		Base:             q.Base,
		Quote:            q.Quote,
		Price:            s.Price,
		PercentChange24h: s.PercentChange24h,
		UpdatedAt:        at.Unix(),
	}
}

// RedisSink stores the last known price per pair (overwritten, never
// appended) and publishes each update. It implements display.Sink.
type RedisSink struct {
	Client  *redis.Client
	TTL     time.Duration
	Timeout time.Duration
}

func NewRedisSink(addr, password string, db int, ttl time.Duration) *RedisSink {
	return &RedisSink{
		Client:  redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db}),
		TTL:     ttl,
		Timeout: 2 * time.Second,
	}
}

// Ping checks connectivity at startup.
func (r *RedisSink) Ping(ctx context.Context) error {
	if err := r.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

func (r *RedisSink) ShowLoading(string, string) {}
func (r *RedisSink) ShowError(string, string)   {}

func (r *RedisSink) ShowPrice(q model.PriceQuery, s model.PriceSample) {
	data, err := json.Marshal(NewUpdate(q, s, time.Now()))
	if err != nil {
		log.Error().Err(err).Msg("marshal price update")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.Timeout)
	defer cancel()

	pipe := r.Client.TxPipeline()
	pipe.Set(ctx, Key(q), data, r.TTL)
	pipe.Publish(ctx, Channel, data)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Warn().Err(err).Str("pair", q.Pair()).Msg("publish price to redis")
	}
}

func (r *RedisSink) Close() error { return r.Client.Close() }
