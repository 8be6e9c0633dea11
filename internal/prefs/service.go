package prefs

import (
	"context"
	"fmt"
)

// Service reads and writes the overlay flags for one scope (an operator).
type Service struct {
	store Store
}

func NewService(s Store) *Service {
	return &Service{store: s}
}

func (s *Service) Store() Store {
	return s.store
}

// Load returns stored flags. With hydrate=false it returns the all-false
// defaults without touching the store, for clients that must render the
// same markup on first paint as the server did.
func (s *Service) Load(ctx context.Context, scope string, hydrate bool) (Overlay, error) {
	var o Overlay
	if !hydrate {
		return o, nil
	}
	for _, key := range OverlayKeys {
		v, ok, err := s.store.Get(ctx, scope, key)
		if err != nil {
			return Overlay{}, fmt.Errorf("get %s: %w", key, err)
		}
		if ok {
			o.assign(key, Decode(v))
		}
	}
	return o, nil
}

// Toggle applies one flag change and persists every key whose value moved.
func (s *Service) Toggle(ctx context.Context, scope, key string, on bool, origin string) (Overlay, error) {
	current, err := s.Load(ctx, scope, true)
	if err != nil {
		return Overlay{}, err
	}
	next := current
	if err := next.Set(key, on); err != nil {
		return Overlay{}, err
	}

	before, after := current.Values(), next.Values()
	for _, k := range OverlayKeys {
		if before[k] == after[k] && k != key {
			continue
		}
		if err := s.store.Set(ctx, scope, k, after[k], origin); err != nil {
			return Overlay{}, fmt.Errorf("set %s: %w", k, err)
		}
	}
	return next, nil
}
