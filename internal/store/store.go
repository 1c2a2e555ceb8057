// Package store publishes built snapshots and serves lock-free queries
// against the current one. The published reference is swapped atomically:
// a reader always sees either the complete old snapshot or the complete new
// one, never a partial state. A small mutex serializes publishes so epochs
// increase by exactly one per successful build.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/everstacklabs/atlas/internal/catalog"
	"github.com/everstacklabs/atlas/internal/pipeline"
)

// Lookup and selection error values. These are ordinary results: they never
// affect the published snapshot.
var (
	ErrNotFound    = errors.New("not found")
	ErrNoMatch     = errors.New("no model satisfies the selection")
	ErrNoSnapshot  = errors.New("no snapshot published")
	ErrInvalidSpec = errors.New("invalid model spec, want \"provider:model\"")
)

// Store owns the published snapshot and its epoch.
type Store struct {
	mu       sync.Mutex // serializes publishes; reads never take it
	current  atomic.Pointer[catalog.Snapshot]
	lastOpts *pipeline.Options
	now      func() time.Time
}

// New creates an empty store.
func New() *Store {
	return &Store{now: time.Now}
}

// Build runs the pipeline and, on success, publishes the result with the
// next epoch. A failed build returns the error and leaves the current
// snapshot untouched.
func (s *Store) Build(ctx context.Context, opts pipeline.Options) (*catalog.Snapshot, error) {
	snap, err := pipeline.Build(ctx, opts)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	epoch := uint64(1)
	if prev := s.current.Load(); prev != nil {
		epoch = prev.Epoch + 1
	}
	snap.Epoch = epoch
	snap.GeneratedAt = s.now().UTC()
	s.current.Store(snap)
	o := opts
	s.lastOpts = &o
	return snap, nil
}

// Rebuild re-runs Build with the options of the last successful build.
func (s *Store) Rebuild(ctx context.Context) (*catalog.Snapshot, error) {
	s.mu.Lock()
	opts := s.lastOpts
	s.mu.Unlock()
	if opts == nil {
		return nil, fmt.Errorf("rebuild: %w", ErrNoSnapshot)
	}
	return s.Build(ctx, *opts)
}

// Current returns the published snapshot, or nil before the first build.
func (s *Store) Current() *catalog.Snapshot {
	return s.current.Load()
}

// Epoch returns the current epoch, zero before the first publish.
func (s *Store) Epoch() uint64 {
	if snap := s.current.Load(); snap != nil {
		return snap.Epoch
	}
	return 0
}

// GetProvider looks up a provider by id.
func (s *Store) GetProvider(id string) (*catalog.Provider, error) {
	snap := s.current.Load()
	if snap == nil {
		return nil, ErrNoSnapshot
	}
	p, ok := snap.Provider(id)
	if !ok {
		return nil, fmt.Errorf("provider %s: %w", id, ErrNotFound)
	}
	return p, nil
}

// GetModel looks up a model by id or alias.
func (s *Store) GetModel(provider, idOrAlias string) (*catalog.Model, error) {
	snap := s.current.Load()
	if snap == nil {
		return nil, ErrNoSnapshot
	}
	m, ok := snap.Model(provider, idOrAlias)
	if !ok {
		return nil, fmt.Errorf("model %s/%s: %w", provider, idOrAlias, ErrNotFound)
	}
	return m, nil
}

// ListProviders returns the current providers sorted by id.
func (s *Store) ListProviders() []*catalog.Provider {
	snap := s.current.Load()
	if snap == nil {
		return nil
	}
	ids := snap.ProviderIDs()
	out := make([]*catalog.Provider, 0, len(ids))
	for _, id := range ids {
		out = append(out, snap.Providers[id])
	}
	return out
}

// ListModels returns one provider's models sorted by id.
func (s *Store) ListModels(provider string) []*catalog.Model {
	snap := s.current.Load()
	if snap == nil {
		return nil
	}
	return snap.ModelsFor(provider)
}

// ListAllModels returns every model sorted by provider then id.
func (s *Store) ListAllModels() []*catalog.Model {
	snap := s.current.Load()
	if snap == nil {
		return nil
	}
	return snap.AllModels()
}

// IsAllowed re-derives the filter decision for a provider and model id (or
// alias) against the current policy, independent of whether the model is
// present in the index.
func (s *Store) IsAllowed(provider, modelID string) bool {
	snap := s.current.Load()
	if snap == nil {
		return false
	}
	return snap.Policy.Allowed(provider, snap.Resolve(provider, modelID))
}
