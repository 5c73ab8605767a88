package locks

import (
	"fmt"
	"sync"

	"pos_system/custom/apperr"
)

// Registry hands out non-blocking per-entity serialization tokens.
// A multi-entity operation acquires every key it touches up front; if
// any key is held by a concurrent operation the whole acquisition
// fails with a conflict and nothing is taken.
type Registry struct {
	mu   sync.Mutex
	held map[string]bool
}

func New() *Registry {
	return &Registry{held: make(map[string]bool)}
}

func (l *Registry) Acquire(keys ...string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, key := range keys {
		if l.held[key] {
			return apperr.Conflict("concurrent operation in progress on %s", key)
		}
	}
	for _, key := range keys {
		l.held[key] = true
	}
	return nil
}

func (l *Registry) Release(keys ...string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, key := range keys {
		delete(l.held, key)
	}
}

func OrderKey(orderID uint) string {
	return fmt.Sprintf("order:%d", orderID)
}

func TableKey(tableID uint) string {
	return fmt.Sprintf("table:%d", tableID)
}
