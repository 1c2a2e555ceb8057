package pipeline

import (
	"fmt"

	"github.com/everstacklabs/atlas/internal/catalog"
	"github.com/everstacklabs/atlas/internal/mergetree"
)

// mergeOptions: pricing component lists merge entry-by-entry on id across
// layers; every other list is replaced wholesale.
var mergeOptions = mergetree.Options{
	ListMergeKeys: map[string]string{"components": "id"},
}

// merged is the output of the merge stage: one combined record per provider
// and per (provider, model id), in first-seen order.
type merged struct {
	providers     map[string]catalog.Record
	providerOrder []string
	models        map[catalog.ModelKey]catalog.Record
	modelOrder    []catalog.ModelKey
}

// mergeLayers folds the layers lowest-precedence-first. Duplicate ids merge
// field-by-field, later layers winning; absent and null fields never clear
// earlier values.
func mergeLayers(layers []layer) (*merged, error) {
	out := &merged{
		providers: make(map[string]catalog.Record),
		models:    make(map[catalog.ModelKey]catalog.Record),
	}
	providerNodes := make(map[string]*mergetree.Node)
	modelNodes := make(map[catalog.ModelKey]*mergetree.Node)

	for _, l := range layers {
		for _, rec := range l.providers {
			id := rec["id"].(string)
			node, err := mergetree.FromValue(rec)
			if err != nil {
				return nil, fmt.Errorf("provider %s (source %s): %w", id, l.origin, err)
			}
			if base, ok := providerNodes[id]; ok {
				providerNodes[id] = mergetree.Merge(base, node, mergeOptions)
			} else {
				providerNodes[id] = node
				out.providerOrder = append(out.providerOrder, id)
			}
		}
		for _, mr := range l.models {
			id, _ := mr.rec["id"].(string)
			key := catalog.ModelKey{Provider: mr.provider, ID: id}
			node, err := mergetree.FromValue(mr.rec)
			if err != nil {
				return nil, fmt.Errorf("model %s/%s (source %s): %w", key.Provider, key.ID, l.origin, err)
			}
			if base, ok := modelNodes[key]; ok {
				modelNodes[key] = mergetree.Merge(base, node, mergeOptions)
			} else {
				modelNodes[key] = node
				out.modelOrder = append(out.modelOrder, key)
			}
		}
	}

	for id, node := range providerNodes {
		rec, err := catalog.CanonicalRecord(node.Value())
		if err != nil {
			return nil, fmt.Errorf("provider %s: %w", id, err)
		}
		out.providers[id] = rec
	}
	for key, node := range modelNodes {
		rec, err := catalog.CanonicalRecord(node.Value())
		if err != nil {
			return nil, fmt.Errorf("model %s/%s: %w", key.Provider, key.ID, err)
		}
		out.models[key] = rec
	}
	return out, nil
}
