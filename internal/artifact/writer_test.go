package artifact

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/everstacklabs/atlas/internal/catalog"
)

func testSnapshot() *catalog.Snapshot {
	in := 2.5
	return &catalog.Snapshot{
		Providers: map[string]*catalog.Provider{
			"openai":    {ID: "openai", DisplayName: "OpenAI"},
			"anthropic": {ID: "anthropic"},
		},
		Models: map[catalog.ModelKey]*catalog.Model{
			{Provider: "openai", ID: "gpt-4o"}: {
				ID:       "gpt-4o",
				Provider: "openai",
				Cost:     &catalog.Cost{Input: &in},
			},
			{Provider: "anthropic", ID: "claude-opus"}: {
				ID:       "claude-opus",
				Provider: "anthropic",
			},
		},
		GeneratedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		Epoch:       7,
	}
}

func TestExport(t *testing.T) {
	dir := t.TempDir()
	if err := Export(testSnapshot(), dir); err != nil {
		t.Fatalf("Export: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "manifest.yaml"))
	if err != nil {
		t.Fatalf("reading manifest: %v", err)
	}
	if !strings.HasPrefix(string(data), "# Model catalog manifest") {
		t.Error("manifest header missing")
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		t.Fatalf("parsing manifest: %v", err)
	}
	if m.Version != 7 {
		t.Errorf("version = %d, want 7", m.Version)
	}
	if m.GeneratedAt != "2026-08-01T12:00:00Z" {
		t.Errorf("generated_at = %q", m.GeneratedAt)
	}
	if len(m.Providers) != 2 || m.Providers[0] != "anthropic" {
		t.Errorf("providers = %v, want sorted", m.Providers)
	}
	if m.Stats.TotalProviders != 2 || m.Stats.TotalModels != 2 {
		t.Errorf("stats = %+v", m.Stats)
	}

	pdata, err := os.ReadFile(filepath.Join(dir, "providers", "openai.yaml"))
	if err != nil {
		t.Fatalf("reading provider file: %v", err)
	}
	var tree struct {
		Provider map[string]any   `yaml:"provider"`
		Models   []map[string]any `yaml:"models"`
	}
	if err := yaml.Unmarshal(pdata, &tree); err != nil {
		t.Fatalf("parsing provider file: %v", err)
	}
	if tree.Provider["display_name"] != "OpenAI" {
		t.Errorf("provider = %v", tree.Provider)
	}
	if len(tree.Models) != 1 || tree.Models[0]["id"] != "gpt-4o" {
		t.Errorf("models = %v", tree.Models)
	}
}

func TestExportDeterministic(t *testing.T) {
	a, b := t.TempDir(), t.TempDir()
	if err := Export(testSnapshot(), a); err != nil {
		t.Fatalf("Export: %v", err)
	}
	if err := Export(testSnapshot(), b); err != nil {
		t.Fatalf("Export: %v", err)
	}

	for _, rel := range []string{
		"manifest.yaml",
		filepath.Join("providers", "openai.yaml"),
		filepath.Join("providers", "anthropic.yaml"),
	} {
		da, err := os.ReadFile(filepath.Join(a, rel))
		if err != nil {
			t.Fatalf("%s: %v", rel, err)
		}
		db, err := os.ReadFile(filepath.Join(b, rel))
		if err != nil {
			t.Fatalf("%s: %v", rel, err)
		}
		if !bytes.Equal(da, db) {
			t.Errorf("%s differs between identical exports", rel)
		}
	}
}
