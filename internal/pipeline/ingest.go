package pipeline

import (
	"context"
	"fmt"
	"sort"

	"github.com/everstacklabs/atlas/internal/catalog"
	"github.com/everstacklabs/atlas/internal/source"
)

// layer is one precedence layer of canonicalized raw records. Layers are
// ordered lowest precedence first.
type layer struct {
	origin    string
	providers []catalog.Record
	models    []modelRecord
}

// modelRecord pairs a raw model record with the provider it was filed
// under. The provider is empty until normalization resolves it for records
// carrying an inline "provider" field.
type modelRecord struct {
	provider string
	rec      catalog.Record
}

// ingest fetches every source in order and canonicalizes record keys
// (symbolic keys become strings). Record contents are untouched.
func ingest(ctx context.Context, sources []source.Source) ([]layer, error) {
	layers := make([]layer, 0, len(sources))
	for _, src := range sources {
		doc, err := src.Fetch(ctx)
		if err != nil {
			return nil, fmt.Errorf("source %s: %w", src.Name(), err)
		}
		l, err := canonicalizeDocument(src.Name(), doc)
		if err != nil {
			return nil, fmt.Errorf("source %s: %w", src.Name(), err)
		}
		layers = append(layers, l)
	}
	return layers, nil
}

func canonicalizeDocument(origin string, doc *source.Document) (layer, error) {
	l := layer{origin: origin}

	for i, raw := range doc.Providers {
		rec, err := catalog.CanonicalRecord(raw)
		if err != nil {
			return layer{}, fmt.Errorf("providers[%d]: %w", i, err)
		}
		l.providers = append(l.providers, rec)
	}

	if doc.Models == nil {
		return l, nil
	}
	cv, err := catalog.CanonicalValue(doc.Models)
	if err != nil {
		return layer{}, fmt.Errorf("models: %w", err)
	}
	switch models := cv.(type) {
	case []any:
		for i, raw := range models {
			rec, ok := raw.(catalog.Record)
			if !ok {
				return layer{}, fmt.Errorf("models[%d]: expected record, got %T", i, raw)
			}
			l.models = append(l.models, modelRecord{rec: rec})
		}
	case catalog.Record:
		// Keyed by provider id; iterate sorted for deterministic layer order.
		providers := make([]string, 0, len(models))
		for provider := range models {
			providers = append(providers, provider)
		}
		sort.Strings(providers)
		for _, provider := range providers {
			list, ok := models[provider].([]any)
			if !ok {
				return layer{}, fmt.Errorf("models.%s: expected list, got %T", provider, models[provider])
			}
			for i, raw := range list {
				rec, ok := raw.(catalog.Record)
				if !ok {
					return layer{}, fmt.Errorf("models.%s[%d]: expected record, got %T", provider, i, raw)
				}
				l.models = append(l.models, modelRecord{provider: provider, rec: rec})
			}
		}
	default:
		return layer{}, fmt.Errorf("models: expected list or provider-keyed map, got %T", cv)
	}
	return l, nil
}
