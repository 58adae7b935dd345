// Package payable resolves persisted payable references back to live
// values. Each feature that can be checked out registers a loader for its
// type tag at start-up; the checkout core never imports the feature.
package payable

import (
	"context"
	"fmt"
	"sync"

	"github.com/okalli/checkout-service/internal/domain"
)

// Loader fetches a fresh copy of a payable by id. It must return
// domain.ErrRecordNotFound when no such entity exists.
type Loader func(ctx context.Context, id int64) (domain.Payable, error)

type Registry struct {
	mu      sync.RWMutex
	loaders map[string]Loader
}

func NewRegistry() *Registry {
	return &Registry{
		loaders: make(map[string]Loader),
	}
}

// Register binds a type tag to a loader. Registering the same tag twice is
// a wiring bug and panics.
func (r *Registry) Register(typeTag string, loader Loader) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.loaders[typeTag]; exists {
		panic(fmt.Sprintf("payable: type %q registered twice", typeTag))
	}
	r.loaders[typeTag] = loader
}

// Resolve loads a fresh payable for the given reference. Subjects are
// always re-fetched so precondition checks see current state.
func (r *Registry) Resolve(ctx context.Context, ref domain.PayableRef) (domain.Payable, error) {
	r.mu.RLock()
	loader, ok := r.loaders[ref.Type]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("payable: no loader registered for type %q", ref.Type)
	}

	return loader(ctx, ref.ID)
}
