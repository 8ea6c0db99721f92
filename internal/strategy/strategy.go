// Package strategy defines the signal-generation contract for the
// backtesting engine and ships the reference momentum strategy.
package strategy

import (
	"sort"

	"swingbacktest/internal/domain"
)

// Strategy maps a price series to per-bar signals. Implementations must
// only use information at or before each bar when computing its signal,
// and must not mutate the input slice.
type Strategy interface {
	Name() string

	// MinBars is the minimum series length required before the strategy
	// can emit meaningful signals. Shorter series are not simulated.
	MinBars() int

	// GenerateSignals returns a copy of the series with the ATR and
	// Signal columns populated. The input must be at least MinBars long.
	GenerateSignals(bars []domain.PriceBar) ([]domain.PriceBar, error)
}

// Registry holds named strategies for lookup from the CLI and API.
type Registry struct {
	strategies map[string]Strategy
}

func NewRegistry() *Registry {
	return &Registry{strategies: map[string]Strategy{}}
}

func (r *Registry) Register(s Strategy) {
	r.strategies[s.Name()] = s
}

func (r *Registry) Get(name string) (Strategy, bool) {
	s, ok := r.strategies[name]
	return s, ok
}

func (r *Registry) List() []string {
	names := make([]string, 0, len(r.strategies))
	for name := range r.strategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
