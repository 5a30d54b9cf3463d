package collector

import (
	"context"

	"PriceTicker/internal/model"
)

// StageFunc receives human-readable progress labels while a fetch runs.
// It is for UI feedback only and may be nil.
type StageFunc func(stage, detail string)

// Fetcher defines the interface for fetching a price sample.
// Every returned error is a *model.FetchError.
type Fetcher interface {
	FetchPrice(ctx context.Context, q model.PriceQuery, onStage StageFunc) (model.PriceSample, error)
	Name() string
}

func (f StageFunc) emit(stage, detail string) {
	if f != nil {
		f(stage, detail)
	}
}
