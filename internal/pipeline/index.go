package pipeline

import (
	"log/slog"

	"github.com/everstacklabs/atlas/internal/catalog"
)

// buildIndexes builds the snapshot lookup maps: the model map over the
// filtered set, the alias map over all models so that an alias of an
// excluded model still resolves to its (excluded) canonical id. Alias
// bindings are deterministic: models arrive in merge order, the first
// binding of an alias wins and collisions with real model ids are skipped.
func buildIndexes(filtered, all []*catalog.Model) (map[catalog.ModelKey]*catalog.Model, map[catalog.ModelKey]string) {
	byKey := make(map[catalog.ModelKey]*catalog.Model, len(filtered))
	for _, m := range filtered {
		byKey[catalog.ModelKey{Provider: m.Provider, ID: m.ID}] = m
	}

	aliases := make(map[catalog.ModelKey]string)
	for _, m := range all {
		for _, alias := range m.Aliases {
			key := catalog.ModelKey{Provider: m.Provider, ID: alias}
			if _, taken := byKey[key]; taken {
				slog.Warn("alias shadows a model id, skipping", "provider", m.Provider, "alias", alias)
				continue
			}
			if prev, taken := aliases[key]; taken && prev != m.ID {
				slog.Warn("alias already bound, keeping first", "provider", m.Provider, "alias", alias, "bound_to", prev)
				continue
			}
			aliases[key] = m.ID
		}
	}
	return byKey, aliases
}
