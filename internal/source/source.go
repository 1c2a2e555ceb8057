// Package source defines where raw catalog records come from. Each source
// yields one Document of loosely typed provider and model records; the
// pipeline's ingest stage consumes an ordered source list, later sources
// taking precedence over earlier ones.
package source

import "context"

// Document is a source's raw payload. Providers holds raw provider records.
// Models is either a flat list of raw model records (each carrying a
// "provider" field) or a map keyed by provider id; normalization resolves
// the shape.
type Document struct {
	Providers []any `yaml:"providers"`
	Models    any   `yaml:"models"`
}

// Source produces one precedence layer of raw records.
type Source interface {
	// Name identifies the source in logs and errors.
	Name() string
	// Fetch produces the raw document.
	Fetch(ctx context.Context) (*Document, error)
}

// Static is an in-memory source: the packaged-defaults layer and
// caller-supplied override layers are built from it.
type Static struct {
	name string
	doc  Document
}

// NewStatic wraps a document as a source.
func NewStatic(name string, doc Document) *Static {
	return &Static{name: name, doc: doc}
}

func (s *Static) Name() string { return s.name }

func (s *Static) Fetch(context.Context) (*Document, error) {
	doc := s.doc
	return &doc, nil
}
