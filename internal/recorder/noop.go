package recorder

import "PriceTicker/internal/model"

// NoopStore is a no-op implementation used when SQLite is not configured.
type NoopStore struct{}

func NewNoopStore() *NoopStore { return &NoopStore{} }

func (n *NoopStore) SaveSelection(_ model.PriceQuery) error { return nil }
func (n *NoopStore) LoadSelection() (model.PriceQuery, bool, error) {
	return model.PriceQuery{}, false, nil
}
func (n *NoopStore) Close() error { return nil }
