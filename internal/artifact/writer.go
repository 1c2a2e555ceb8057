// Package artifact writes the on-disk representation of a snapshot: a
// manifest plus one YAML file per provider. Output is deterministic — all
// record keys are plain strings so the YAML encoder emits them sorted —
// which keeps catalog diffs reviewable.
package artifact

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/everstacklabs/atlas/internal/catalog"
)

// Manifest indexes an exported snapshot.
type Manifest struct {
	Version     uint64   `yaml:"version"`
	GeneratedAt string   `yaml:"generated_at"`
	Providers   []string `yaml:"providers"`
	Stats       Stats    `yaml:"stats"`
}

// Stats holds aggregate counts.
type Stats struct {
	TotalProviders int `yaml:"total_providers"`
	TotalModels    int `yaml:"total_models"`
}

const manifestHeader = "# Model catalog manifest\n# Auto-generated - do not edit manually\n\n"

// Export writes the snapshot under dir: manifest.yaml plus
// providers/<id>.yaml for every provider.
func Export(snap *catalog.Snapshot, dir string) error {
	providersDir := filepath.Join(dir, "providers")
	if err := os.MkdirAll(providersDir, 0o755); err != nil {
		return fmt.Errorf("creating providers dir: %w", err)
	}

	ids := snap.ProviderIDs()
	totalModels := 0
	for _, id := range ids {
		models := snap.ModelsFor(id)
		totalModels += len(models)
		if err := writeProvider(providersDir, snap.Providers[id], models); err != nil {
			return fmt.Errorf("provider %s: %w", id, err)
		}
	}

	manifest := Manifest{
		Version:     snap.Epoch,
		GeneratedAt: snap.GeneratedAt.UTC().Format(time.RFC3339),
		Providers:   ids,
		Stats: Stats{
			TotalProviders: len(ids),
			TotalModels:    totalModels,
		},
	}
	data, err := yaml.Marshal(&manifest)
	if err != nil {
		return fmt.Errorf("marshaling manifest: %w", err)
	}
	out := manifestHeader + string(data)
	return os.WriteFile(filepath.Join(dir, "manifest.yaml"), []byte(out), 0o644)
}

func writeProvider(dir string, p *catalog.Provider, models []*catalog.Model) error {
	modelRecs := make([]map[string]any, 0, len(models))
	for _, m := range models {
		modelRecs = append(modelRecs, m.Record())
	}
	tree := map[string]any{
		"provider": p.Record(),
		"models":   modelRecs,
	}
	data, err := yaml.Marshal(tree)
	if err != nil {
		return fmt.Errorf("marshaling: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, p.ID+".yaml"), data, 0o644)
}
