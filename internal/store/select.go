package store

import (
	"fmt"
	"sort"
	"strings"

	"github.com/everstacklabs/atlas/internal/catalog"
	"github.com/everstacklabs/atlas/internal/registry"
)

// Selector describes a capability-driven model query.
type Selector struct {
	// Require lists capability predicates every candidate must satisfy,
	// e.g. "chat", "tool_use.parallel".
	Require []string
	// Forbid lists predicates no candidate may satisfy.
	Forbid []string
	// Prefer overrides the snapshot's provider preference order.
	Prefer []string
	// Provider restricts the search to a single provider.
	Provider string
}

// Select returns the first model satisfying the selector, walking providers
// in preference order and model ids in sorted order. Retired models are
// never selected; deprecated models are selected only when no active model
// qualifies. Returns ErrNoMatch when nothing qualifies.
func (s *Store) Select(sel Selector) (catalog.ModelKey, error) {
	snap := s.current.Load()
	if snap == nil {
		return catalog.ModelKey{}, ErrNoSnapshot
	}

	providers := providerOrder(snap, sel)
	now := s.now()

	for _, allowDeprecated := range []bool{false, true} {
		for _, provider := range providers {
			for _, m := range snap.ModelsFor(provider) {
				status := m.EffectiveStatus(now)
				if status == catalog.StatusRetired {
					continue
				}
				if status == catalog.StatusDeprecated && !allowDeprecated {
					continue
				}
				if !satisfies(m, sel) {
					continue
				}
				return catalog.ModelKey{Provider: provider, ID: m.ID}, nil
			}
		}
	}
	return catalog.ModelKey{}, ErrNoMatch
}

func satisfies(m *catalog.Model, sel Selector) bool {
	for _, pred := range sel.Require {
		if !m.Capabilities.Has(pred) {
			return false
		}
	}
	for _, pred := range sel.Forbid {
		if m.Capabilities.Has(pred) {
			return false
		}
	}
	return true
}

// providerOrder resolves the provider walk order: the scoped provider, or
// the preference list followed by the remaining providers sorted.
func providerOrder(snap *catalog.Snapshot, sel Selector) []string {
	if sel.Provider != "" {
		return []string{sel.Provider}
	}
	prefer := sel.Prefer
	if prefer == nil {
		prefer = snap.Prefer
	}
	seen := make(map[string]bool, len(prefer))
	var order []string
	for _, p := range prefer {
		if _, ok := snap.Providers[p]; ok && !seen[p] {
			order = append(order, p)
			seen[p] = true
		}
	}
	var rest []string
	for id := range snap.Providers {
		if !seen[id] {
			rest = append(rest, id)
		}
	}
	sort.Strings(rest)
	return append(order, rest...)
}

// ParseSpec splits a "provider:model" identifier string. The provider part
// must be a canonical registry member.
func ParseSpec(spec string) (catalog.ModelKey, error) {
	provider, model, ok := strings.Cut(spec, ":")
	if !ok || provider == "" || model == "" {
		return catalog.ModelKey{}, fmt.Errorf("%q: %w", spec, ErrInvalidSpec)
	}
	if !registry.IsKnown(provider) {
		return catalog.ModelKey{}, &registry.UnknownProviderError{ID: provider}
	}
	return catalog.ModelKey{Provider: provider, ID: model}, nil
}
