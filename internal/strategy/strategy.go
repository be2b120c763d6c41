// Package strategy provides the strategy registry and the built-in
// entry strategies evaluated by the backtest engine.
package strategy

import (
	"sort"
	"sync"

	"github.com/jeden-/LLM-EA-sub001/internal/errors"
	"github.com/jeden-/LLM-EA-sub001/internal/models"
)

// Strategy maps a bar window (current bar plus history) to an entry
// signal. Implementations must be pure: no I/O, no hidden state, the
// same window and params always yield the same signal.
type Strategy interface {
	// Name is the registry identifier.
	Name() string
	// MinLookback is the number of bars the strategy needs before its
	// first evaluation. The engine starts the simulation at this index.
	MinLookback(p Params) int
	// RequiredColumns lists the indicator columns the strategy reads.
	// The engine validates their presence before the run starts.
	RequiredColumns(p Params) []string
	// Evaluate returns the signal for the last bar of the window.
	Evaluate(window []models.Bar, p Params) models.Signal
}

var (
	mu       sync.RWMutex
	registry = make(map[string]Strategy)
)

// Register adds a strategy to the registry, replacing any previous
// strategy with the same name.
func Register(s Strategy) {
	mu.Lock()
	defer mu.Unlock()
	registry[s.Name()] = s
}

// Get returns the registered strategy with the given name.
func Get(name string) (Strategy, error) {
	mu.RLock()
	defer mu.RUnlock()
	s, ok := registry[name]
	if !ok {
		return nil, errors.NewRunError(errors.CodeUnknownStrategy, "strategy %q is not registered", name)
	}
	return s, nil
}

// Names returns the registered strategy names, sorted.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func none() models.Signal {
	return models.Signal{Action: models.SignalNone}
}
