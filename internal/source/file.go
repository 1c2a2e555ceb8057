package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// File reads a single YAML document with top-level providers/models keys.
type File struct {
	path string
}

// NewFile creates a file source.
func NewFile(path string) *File {
	return &File{path: path}
}

func (f *File) Name() string { return "file:" + f.path }

func (f *File) Fetch(context.Context) (*Document, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", f.path, err)
	}
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", f.path, err)
	}
	return &doc, nil
}

// Dir reads a catalog tree: providers/<id>/provider.yaml plus
// providers/<id>/models/*.yaml, one model per file.
type Dir struct {
	path string
}

// NewDir creates a directory-tree source.
func NewDir(path string) *Dir {
	return &Dir{path: path}
}

func (d *Dir) Name() string { return "dir:" + d.path }

func (d *Dir) Fetch(context.Context) (*Document, error) {
	providersDir := filepath.Join(d.path, "providers")
	entries, err := os.ReadDir(providersDir)
	if err != nil {
		return nil, fmt.Errorf("reading providers dir: %w", err)
	}

	doc := &Document{}
	models := make(map[string]any)

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name := entry.Name()
		providerDir := filepath.Join(providersDir, name)

		rec, err := readYAMLRecord(filepath.Join(providerDir, "provider.yaml"))
		if err != nil {
			return nil, fmt.Errorf("provider %s: %w", name, err)
		}
		doc.Providers = append(doc.Providers, rec)

		modelsDir := filepath.Join(providerDir, "models")
		files, err := os.ReadDir(modelsDir)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reading models dir for %s: %w", name, err)
		}
		var list []any
		for _, f := range files {
			if f.IsDir() || !strings.HasSuffix(f.Name(), ".yaml") {
				continue
			}
			rec, err := readYAMLRecord(filepath.Join(modelsDir, f.Name()))
			if err != nil {
				return nil, fmt.Errorf("model %s/%s: %w", name, f.Name(), err)
			}
			list = append(list, rec)
		}
		if len(list) > 0 {
			models[name] = list
		}
	}

	if len(models) > 0 {
		doc.Models = models
	}
	return doc, nil
}

func readYAMLRecord(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading: %w", err)
	}
	var rec map[string]any
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("parsing: %w", err)
	}
	return rec, nil
}
