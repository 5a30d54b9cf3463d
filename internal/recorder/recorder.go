package recorder

import "PriceTicker/internal/model"

// SelectionStore persists the selected pair so a restart resumes it. It
// deliberately keeps no price history.
type SelectionStore interface {
	SaveSelection(q model.PriceQuery) error
	// LoadSelection returns false when nothing has been saved yet.
	LoadSelection() (model.PriceQuery, bool, error)
	Close() error
}
