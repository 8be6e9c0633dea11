package prefs

import (
	"context"
	"sync"
)

// Change is published for every write. Origin identifies the writing client
// so it can skip its own echo.
type Change struct {
	Scope  string `json:"scope"`
	Key    string `json:"key"`
	Value  string `json:"value"`
	Origin string `json:"origin,omitempty"`
}

// Store is a scoped string key/value store with change notifications.
type Store interface {
	Get(ctx context.Context, scope, key string) (string, bool, error)
	Set(ctx context.Context, scope, key, value, origin string) error
	Subscribe(ctx context.Context) (<-chan Change, error)
}

// MemoryStore is a process-local Store.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]map[string]string
	subs   map[chan Change]struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		values: make(map[string]map[string]string),
		subs:   make(map[chan Change]struct{}),
	}
}

func (m *MemoryStore) Get(_ context.Context, scope, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[scope][key]
	return v, ok, nil
}

func (m *MemoryStore) Set(_ context.Context, scope, key, value, origin string) error {
	m.mu.Lock()
	if m.values[scope] == nil {
		m.values[scope] = make(map[string]string)
	}
	m.values[scope][key] = value
	subs := make([]chan Change, 0, len(m.subs))
	for ch := range m.subs {
		subs = append(subs, ch)
	}
	m.mu.Unlock()

	c := Change{Scope: scope, Key: key, Value: value, Origin: origin}
	for _, ch := range subs {
		select {
		case ch <- c:
		default:
			// slow subscriber; last write wins on its next read
		}
	}
	return nil
}

// Subscribe returns a channel that is closed when ctx ends.
func (m *MemoryStore) Subscribe(ctx context.Context) (<-chan Change, error) {
	ch := make(chan Change, 64)
	m.mu.Lock()
	m.subs[ch] = struct{}{}
	m.mu.Unlock()

	go func() {
		<-ctx.Done()
		m.mu.Lock()
		delete(m.subs, ch)
		m.mu.Unlock()
		close(ch)
	}()
	return ch, nil
}
