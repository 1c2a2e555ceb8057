package pipeline

import (
	"fmt"

	"github.com/everstacklabs/atlas/internal/catalog"
)

// Schema engine for raw records. Pre-merge validation is partial-tolerant
// (override layers legitimately carry fragments); after merge the combined
// records are validated again with complete=true so required fields and
// cross-field rules hold on the final shape. Unknown fields are never
// rejected — they ride along in the extra bag.

type fieldKind uint8

const (
	kindString fieldKind = iota
	kindBool
	kindNumber
	kindInt
	kindStringList
	kindMap
	kindMapList
)

func (k fieldKind) String() string {
	switch k {
	case kindString:
		return "string"
	case kindBool:
		return "bool"
	case kindNumber:
		return "number"
	case kindInt:
		return "integer"
	case kindStringList:
		return "string list"
	case kindMap:
		return "map"
	case kindMapList:
		return "list of maps"
	}
	return "unknown"
}

type fieldRule struct {
	name     string
	kind     fieldKind
	required bool
	min      float64
	hasMin   bool
	enum     []string
	sub      *schema // nested schema for kindMap / kindMapList entries
}

type schema struct {
	name  string
	rules []fieldRule
	// extra hook for rules a field table cannot express
	check func(v *validator, record, path string, rec catalog.Record)
}

var componentSchema = &schema{
	name: "pricing component",
	rules: []fieldRule{
		{name: "id", kind: kindString, required: true},
		{name: "kind", kind: kindString, required: true, enum: catalog.ComponentKinds},
		{name: "unit", kind: kindString, required: true, enum: catalog.ComponentUnits},
		{name: "per", kind: kindNumber, min: 1, hasMin: true},
		{name: "rate", kind: kindNumber, min: 0, hasMin: true},
		{name: "meter", kind: kindString},
		{name: "tool", kind: kindString},
		{name: "size", kind: kindString},
		{name: "notes", kind: kindString},
	},
}

var pricingSchema = &schema{
	name: "pricing",
	rules: []fieldRule{
		{name: "currency", kind: kindString},
		{name: "merge", kind: kindString, enum: []string{catalog.MergeByID, catalog.MergeReplace}},
		{name: "components", kind: kindMapList, sub: componentSchema},
	},
	check: checkComponentIDs,
}

// lifecycle.status deliberately has no enum: provider-specific statuses are
// tolerated, only the canonical three drive flag synchronization.
var lifecycleSchema = &schema{
	name: "lifecycle",
	rules: []fieldRule{
		{name: "status", kind: kindString},
		{name: "deprecated_at", kind: kindString},
		{name: "retires_at", kind: kindString},
		{name: "retired_at", kind: kindString},
		{name: "replacement", kind: kindString},
	},
}

var costSchema = &schema{
	name: "cost",
	rules: []fieldRule{
		{name: "input", kind: kindNumber, min: 0, hasMin: true},
		{name: "output", kind: kindNumber, min: 0, hasMin: true},
		{name: "cache_read", kind: kindNumber, min: 0, hasMin: true},
		{name: "cache_write", kind: kindNumber, min: 0, hasMin: true},
		{name: "reasoning", kind: kindNumber, min: 0, hasMin: true},
	},
}

var limitsSchema = &schema{
	name: "limits",
	rules: []fieldRule{
		{name: "context", kind: kindInt, min: 1, hasMin: true},
		{name: "output", kind: kindInt, min: 1, hasMin: true},
	},
}

var modalitiesSchema = &schema{
	name: "modalities",
	rules: []fieldRule{
		{name: "input", kind: kindStringList},
		{name: "output", kind: kindStringList},
	},
}

var capabilitiesSchema = &schema{
	name:  "capabilities",
	check: checkCapabilities,
}

var providerSchema = &schema{
	name: "provider",
	rules: []fieldRule{
		{name: "id", kind: kindString, required: true},
		{name: "display_name", kind: kindString},
		{name: "base_url", kind: kindString},
		{name: "env", kind: kindStringList},
		{name: "pricing_defaults", kind: kindMap, sub: pricingSchema},
	},
}

var modelSchema = &schema{
	name: "model",
	rules: []fieldRule{
		{name: "id", kind: kindString, required: true},
		{name: "display_name", kind: kindString},
		{name: "family", kind: kindString},
		{name: "release_date", kind: kindString},
		{name: "capabilities", kind: kindMap, sub: capabilitiesSchema},
		{name: "modalities", kind: kindMap, sub: modalitiesSchema},
		{name: "limits", kind: kindMap, sub: limitsSchema},
		{name: "cost", kind: kindMap, sub: costSchema},
		{name: "pricing", kind: kindMap, sub: pricingSchema},
		{name: "lifecycle", kind: kindMap, sub: lifecycleSchema},
		{name: "deprecated", kind: kindBool},
		{name: "retired", kind: kindBool},
		{name: "aliases", kind: kindStringList},
	},
}

type validator struct {
	complete bool
	errs     ValidationErrors
}

func (v *validator) add(record, field, message string) {
	v.errs = append(v.errs, ValidationError{Record: record, Field: field, Message: message})
}

func (v *validator) validate(s *schema, record, path string, rec catalog.Record) {
	for _, r := range s.rules {
		fieldPath := r.name
		if path != "" {
			fieldPath = path + "." + r.name
		}
		raw, present := rec[r.name]
		if !present || raw == nil {
			// Only id is mandatory pre-merge; the rest of the required set
			// is enforced on the merged record.
			if r.required && (v.complete || r.name == "id") {
				v.add(record, fieldPath, "required field is missing")
			}
			continue
		}
		v.validateField(r, record, fieldPath, raw)
	}
	if s.check != nil {
		s.check(v, record, path, rec)
	}
}

func (v *validator) validateField(r fieldRule, record, path string, raw any) {
	switch r.kind {
	case kindString:
		s, ok := raw.(string)
		if !ok {
			v.typeError(record, path, r, raw)
			return
		}
		v.checkEnum(r, record, path, s)
	case kindBool:
		if _, ok := raw.(bool); !ok {
			v.typeError(record, path, r, raw)
		}
	case kindNumber, kindInt:
		n, ok := asNumber(raw)
		if !ok {
			v.typeError(record, path, r, raw)
			return
		}
		if r.kind == kindInt && n != float64(int64(n)) {
			v.typeError(record, path, r, raw)
			return
		}
		if r.hasMin && n < r.min {
			v.add(record, path, fmt.Sprintf("value %v below minimum %v", n, r.min))
		}
	case kindStringList:
		list, ok := raw.([]any)
		if !ok {
			v.typeError(record, path, r, raw)
			return
		}
		for i, e := range list {
			if _, ok := e.(string); !ok {
				v.add(record, fmt.Sprintf("%s[%d]", path, i), fmt.Sprintf("expected string, got %T", e))
			}
		}
	case kindMap:
		sub, ok := raw.(catalog.Record)
		if !ok {
			v.typeError(record, path, r, raw)
			return
		}
		if r.sub != nil {
			v.validate(r.sub, record, path, sub)
		}
	case kindMapList:
		list, ok := raw.([]any)
		if !ok {
			v.typeError(record, path, r, raw)
			return
		}
		for i, e := range list {
			entry, ok := e.(catalog.Record)
			if !ok {
				v.add(record, fmt.Sprintf("%s[%d]", path, i), fmt.Sprintf("expected map, got %T", e))
				continue
			}
			if r.sub != nil {
				v.validate(r.sub, record, fmt.Sprintf("%s[%d]", path, i), entry)
			}
		}
	}
}

func (v *validator) typeError(record, path string, r fieldRule, raw any) {
	v.add(record, path, fmt.Sprintf("expected %s, got %T", r.kind, raw))
}

func (v *validator) checkEnum(r fieldRule, record, path, s string) {
	if len(r.enum) == 0 {
		return
	}
	for _, allowed := range r.enum {
		if s == allowed {
			return
		}
	}
	v.add(record, path, fmt.Sprintf("value %q not in %v", s, r.enum))
}

// checkComponentIDs rejects duplicate component ids within one list.
func checkComponentIDs(v *validator, record, path string, rec catalog.Record) {
	list, ok := rec["components"].([]any)
	if !ok {
		return
	}
	seen := make(map[string]bool, len(list))
	for i, e := range list {
		entry, ok := e.(catalog.Record)
		if !ok {
			continue
		}
		id, _ := entry["id"].(string)
		if id == "" {
			continue
		}
		if seen[id] {
			v.add(record, fmt.Sprintf("%s.components[%d].id", path, i), fmt.Sprintf("duplicate component id %q", id))
		}
		seen[id] = true
	}
}

// checkCapabilities allows each capability to be a bool or a map of bools
// (with an optional "enabled" key).
func checkCapabilities(v *validator, record, path string, rec catalog.Record) {
	for _, name := range catalog.CapabilityNames() {
		raw, ok := rec[name]
		if !ok || raw == nil {
			continue
		}
		fieldPath := path + "." + name
		switch t := raw.(type) {
		case bool:
		case catalog.Record:
			for k, fv := range t {
				if _, ok := fv.(bool); !ok {
					v.add(record, fieldPath+"."+k, fmt.Sprintf("expected bool, got %T", fv))
				}
			}
		default:
			v.add(record, fieldPath, fmt.Sprintf("expected bool or map of bools, got %T", raw))
		}
	}
}

func asNumber(v any) (float64, bool) {
	switch t := v.(type) {
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint64:
		return float64(t), true
	case float32:
		return float64(t), true
	case float64:
		return t, true
	}
	return 0, false
}

// validateLayers checks every raw record of every layer, partial-tolerant.
func validateLayers(layers []layer) error {
	v := &validator{}
	for _, l := range layers {
		for _, rec := range l.providers {
			id, _ := rec["id"].(string)
			v.validate(providerSchema, fmt.Sprintf("provider %s (source %s)", id, l.origin), "", rec)
		}
		for _, mr := range l.models {
			id, _ := mr.rec["id"].(string)
			v.validate(modelSchema, fmt.Sprintf("model %s/%s (source %s)", mr.provider, id, l.origin), "", mr.rec)
		}
	}
	if len(v.errs) > 0 {
		return v.errs
	}
	return nil
}

// validateMerged re-checks the merged records with completeness enforced.
func validateMerged(providers map[string]catalog.Record, models map[catalog.ModelKey]catalog.Record) error {
	v := &validator{complete: true}
	for id, rec := range providers {
		v.validate(providerSchema, "provider "+id, "", rec)
	}
	for key, rec := range models {
		v.validate(modelSchema, fmt.Sprintf("model %s/%s", key.Provider, key.ID), "", rec)
	}
	if len(v.errs) > 0 {
		return v.errs
	}
	return nil
}
