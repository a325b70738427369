package sim

import (
	"fmt"
	"sort"
	"sync"
)

// Key builds the registry key for an account and pair.
func Key(accountID, pair string) string {
	return accountID + "/" + pair
}

// Registry holds independent engines, one per account and trading pair.
// Engines never share state; the registry only guards its own map.
type Registry struct {
	mu      sync.RWMutex
	engines map[string]*Engine
}

func NewRegistry() *Registry {
	return &Registry{engines: make(map[string]*Engine)}
}

// Add registers e. Registering a second engine for the same account and
// pair is an error.
func (r *Registry) Add(e *Engine) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := e.Key()
	if _, ok := r.engines[k]; ok {
		return fmt.Errorf("registry: bot %q already exists", k)
	}
	r.engines[k] = e
	return nil
}

func (r *Registry) Get(accountID, pair string) (*Engine, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.engines[Key(accountID, pair)]
	return e, ok
}

// Remove stops and forgets the engine, returning false if it was unknown.
func (r *Registry) Remove(accountID, pair string) bool {
	r.mu.Lock()
	e, ok := r.engines[Key(accountID, pair)]
	delete(r.engines, Key(accountID, pair))
	r.mu.Unlock()

	if ok {
		e.Stop()
	}
	return ok
}

// List returns the engines ordered by key.
func (r *Registry) List() []*Engine {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]string, 0, len(r.engines))
	for k := range r.engines {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]*Engine, 0, len(keys))
	for _, k := range keys {
		out = append(out, r.engines[k])
	}
	return out
}

// Statuses returns the status of every engine, ordered by key.
func (r *Registry) Statuses() []Status {
	engines := r.List()
	out := make([]Status, 0, len(engines))
	for _, e := range engines {
		out = append(out, e.Status())
	}
	return out
}
