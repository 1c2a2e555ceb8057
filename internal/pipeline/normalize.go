package pipeline

import (
	"fmt"

	"github.com/everstacklabs/atlas/internal/catalog"
	"github.com/everstacklabs/atlas/internal/registry"
)

// normalize resolves provider identifiers against the closed registry and
// rewrites date fields to ISO-8601, in place. Missing capability fields are
// deliberately left absent for later layers to supply.
func normalize(layers []layer) error {
	for li := range layers {
		l := &layers[li]

		for _, rec := range l.providers {
			id, ok := rec["id"].(string)
			if !ok || id == "" {
				return fmt.Errorf("%s: provider record missing id", l.origin)
			}
			canonical, err := registry.Canonical(id)
			if err != nil {
				return fmt.Errorf("%s: provider: %w", l.origin, err)
			}
			rec["id"] = canonical
		}

		for mi := range l.models {
			mr := &l.models[mi]
			if mr.provider == "" {
				p, _ := mr.rec["provider"].(string)
				if p == "" {
					return fmt.Errorf("%s: model %v has no provider", l.origin, mr.rec["id"])
				}
				mr.provider = p
			}
			canonical, err := registry.Canonical(mr.provider)
			if err != nil {
				return fmt.Errorf("%s: model %v: %w", l.origin, mr.rec["id"], err)
			}
			mr.provider = canonical
			// The provider lives on the record key from here on.
			delete(mr.rec, "provider")

			if err := normalizeDates(mr.rec); err != nil {
				return fmt.Errorf("%s: model %v: %w", l.origin, mr.rec["id"], err)
			}
		}
	}
	return nil
}

func normalizeDates(rec catalog.Record) error {
	if err := normalizeDateField(rec, "release_date"); err != nil {
		return err
	}
	lc, ok := rec["lifecycle"].(catalog.Record)
	if !ok {
		return nil
	}
	for _, field := range []string{"deprecated_at", "retires_at", "retired_at"} {
		if err := normalizeDateField(lc, field); err != nil {
			return fmt.Errorf("lifecycle.%w", err)
		}
	}
	return nil
}

func normalizeDateField(rec catalog.Record, field string) error {
	v, ok := rec[field]
	if !ok || v == nil {
		return nil
	}
	s, ok := v.(string)
	if !ok {
		return fmt.Errorf("%s: expected date string, got %T", field, v)
	}
	norm, err := catalog.NormalizeDate(s)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	rec[field] = norm
	return nil
}
