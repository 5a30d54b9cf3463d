package collector

import (
	"context"
	"sync"

	"PriceTicker/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	mu      sync.Mutex
	Price   string
	Change  float64
	Err     error
	Samples map[string]model.PriceSample // keyed by pair, overrides Price/Change
	Calls   []model.PriceQuery
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchPrice(_ context.Context, q model.PriceQuery, onStage StageFunc) (model.PriceSample, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, q)

	onStage.emit("Connected", "Getting data...")
	if m.Err != nil {
		return model.PriceSample{}, m.Err
	}
	if s, ok := m.Samples[q.Pair()]; ok {
		return s, nil
	}
	if m.Price == "" {
		return model.PriceSample{}, &model.FetchError{Kind: model.HTTPStatus, StatusCode: 404, Detail: "Price pair not available"}
	}
	return model.PriceSample{Price: m.Price, PercentChange24h: m.Change}, nil
}

// CallCount returns how many fetches have been made.
func (m *MockFetcher) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
