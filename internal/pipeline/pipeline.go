// Package pipeline assembles a catalog snapshot from layered sources:
// ingest, normalize, validate, merge, enrich, filter, index, viability.
// Every stage is a pure function of the previous stage's output and any
// failure aborts the whole build without touching the published snapshot.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/everstacklabs/atlas/internal/catalog"
	"github.com/everstacklabs/atlas/internal/policy"
	"github.com/everstacklabs/atlas/internal/source"
)

// Options describe one build. Sources are ordered lowest precedence first:
// packaged defaults, then external config overrides, then caller overrides.
type Options struct {
	Sources []source.Source
	Policy  policy.Spec
	Prefer  []string // provider preference order for selection
}

// Build runs the full pipeline once and returns an unpublished snapshot.
// The store stamps the epoch and generation time at publish.
func Build(ctx context.Context, opts Options) (*catalog.Snapshot, error) {
	layers, err := ingest(ctx, opts.Sources)
	if err != nil {
		return nil, &BuildError{Stage: StageIngest, Err: err}
	}
	slog.Debug("ingest complete", "layers", len(layers))

	if err := normalize(layers); err != nil {
		return nil, &BuildError{Stage: StageNormalize, Err: err}
	}

	if err := validateLayers(layers); err != nil {
		return nil, &BuildError{Stage: StageValidate, Err: err}
	}

	m, err := mergeLayers(layers)
	if err != nil {
		return nil, &BuildError{Stage: StageMerge, Err: err}
	}
	if err := validateMerged(m.providers, m.models); err != nil {
		return nil, &BuildError{Stage: StageMerge, Err: err}
	}

	providers, models := enrich(m)

	compiled, err := opts.Policy.Compile()
	if err != nil {
		return nil, &BuildError{Stage: StageFilter, Err: err}
	}
	filtered := make([]*catalog.Model, 0, len(models))
	for _, model := range models {
		if compiled.Allowed(model.Provider, model.ID) {
			filtered = append(filtered, model)
		}
	}
	slog.Debug("filter complete", "kept", len(filtered), "excluded", len(models)-len(filtered))

	byKey, aliases := buildIndexes(filtered, models)

	if len(providers) == 0 {
		return nil, &BuildError{Stage: StageViability, Err: fmt.Errorf("%w: no providers", ErrNotViable)}
	}
	if len(filtered) == 0 {
		return nil, &BuildError{Stage: StageViability, Err: fmt.Errorf("%w: no models after filtering", ErrNotViable)}
	}

	snap := &catalog.Snapshot{
		Providers: providers,
		Models:    byKey,
		Aliases:   aliases,
		Policy:    compiled,
		Prefer:    opts.Prefer,
	}
	slog.Info("pipeline complete", "providers", len(providers), "models", len(filtered))
	return snap, nil
}
