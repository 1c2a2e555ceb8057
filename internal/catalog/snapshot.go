package catalog

import (
	"sort"
	"time"

	"github.com/everstacklabs/atlas/internal/policy"
)

// ModelKey identifies a model (or alias) within a snapshot.
type ModelKey struct {
	Provider string
	ID       string
}

// Snapshot is the complete published catalog state at one epoch. It is
// immutable once published; readers share it without locking and it is only
// ever replaced wholesale.
type Snapshot struct {
	Providers   map[string]*Provider
	Models      map[ModelKey]*Model
	Aliases     map[ModelKey]string // (provider, alias) -> canonical model id
	Policy      *policy.Policy
	Prefer      []string // provider preference order
	GeneratedAt time.Time
	Epoch       uint64
}

// Provider returns the provider by id.
func (s *Snapshot) Provider(id string) (*Provider, bool) {
	p, ok := s.Providers[id]
	return p, ok
}

// Resolve maps a model id or alias to the canonical model id.
func (s *Snapshot) Resolve(provider, idOrAlias string) string {
	if canonical, ok := s.Aliases[ModelKey{provider, idOrAlias}]; ok {
		return canonical
	}
	return idOrAlias
}

// Model returns the model by id or alias.
func (s *Snapshot) Model(provider, idOrAlias string) (*Model, bool) {
	m, ok := s.Models[ModelKey{provider, s.Resolve(provider, idOrAlias)}]
	return m, ok
}

// ProviderIDs returns sorted provider ids.
func (s *Snapshot) ProviderIDs() []string {
	ids := make([]string, 0, len(s.Providers))
	for id := range s.Providers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ModelsFor returns a provider's models sorted by id.
func (s *Snapshot) ModelsFor(provider string) []*Model {
	var models []*Model
	for key, m := range s.Models {
		if key.Provider == provider {
			models = append(models, m)
		}
	}
	sort.Slice(models, func(i, j int) bool { return models[i].ID < models[j].ID })
	return models
}

// AllModels returns every model sorted by provider then id.
func (s *Snapshot) AllModels() []*Model {
	models := make([]*Model, 0, len(s.Models))
	for _, m := range s.Models {
		models = append(models, m)
	}
	sort.Slice(models, func(i, j int) bool {
		if models[i].Provider != models[j].Provider {
			return models[i].Provider < models[j].Provider
		}
		return models[i].ID < models[j].ID
	})
	return models
}
