package catalog

import (
	"fmt"
	"reflect"
)

// Symbol is a symbolic record key. Sources hand the pipeline loosely typed
// records whose keys may be plain strings or Symbol values; canonicalization
// rewrites everything to string-keyed Records.
type Symbol string

// Record is a canonicalized raw record: string keys, nested Records and
// []any values, scalars as string/bool/int/float64.
type Record map[string]any

// CanonicalValue rewrites a raw value tree into canonical form: all map
// keys become strings (Symbol and other string-kinded keys included),
// map[any]any becomes Record. Non-string map keys are an error.
func CanonicalValue(v any) (any, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case Record:
		out := make(Record, len(t))
		for k, e := range t {
			ce, err := CanonicalValue(e)
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", k, err)
			}
			out[k] = ce
		}
		return out, nil
	case map[string]any:
		out := make(Record, len(t))
		for k, e := range t {
			ce, err := CanonicalValue(e)
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", k, err)
			}
			out[k] = ce
		}
		return out, nil
	case map[any]any:
		out := make(Record, len(t))
		for k, e := range t {
			ks, ok := keyString(k)
			if !ok {
				return nil, fmt.Errorf("non-string record key %v (%T)", k, k)
			}
			ce, err := CanonicalValue(e)
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", ks, err)
			}
			out[ks] = ce
		}
		return out, nil
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			ce, err := CanonicalValue(e)
			if err != nil {
				return nil, fmt.Errorf("index %d: %w", i, err)
			}
			out[i] = ce
		}
		return out, nil
	default:
		return v, nil
	}
}

// CanonicalRecord canonicalizes a value that must be a record.
func CanonicalRecord(v any) (Record, error) {
	cv, err := CanonicalValue(v)
	if err != nil {
		return nil, err
	}
	rec, ok := cv.(Record)
	if !ok {
		return nil, fmt.Errorf("expected record, got %T", v)
	}
	return rec, nil
}

// keyString accepts string and any string-kinded type (Symbol included).
func keyString(k any) (string, bool) {
	if s, ok := k.(string); ok {
		return s, true
	}
	rv := reflect.ValueOf(k)
	if rv.Kind() == reflect.String {
		return rv.String(), true
	}
	return "", false
}

// Accessors below tolerate the scalar representations different parsers
// produce (YAML ints vs JSON floats, etc).

func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func asBool(v any) (bool, bool) {
	b, ok := v.(bool)
	return b, ok
}

func asFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint64:
		return float64(t), true
	}
	return 0, false
}

func asInt(v any) (int, bool) {
	switch t := v.(type) {
	case int:
		return t, true
	case int64:
		return int(t), true
	case uint64:
		return int(t), true
	case float64:
		if t == float64(int(t)) {
			return int(t), true
		}
	}
	return 0, false
}

func asRecord(v any) (Record, bool) {
	r, ok := v.(Record)
	return r, ok
}

func asList(v any) ([]any, bool) {
	l, ok := v.([]any)
	return l, ok
}

func asStringList(v any) ([]string, bool) {
	l, ok := v.([]any)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(l))
	for _, e := range l {
		s, ok := e.(string)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}

func floatPtr(rec Record, key string) *float64 {
	v, ok := rec[key]
	if !ok || v == nil {
		return nil
	}
	f, ok := asFloat(v)
	if !ok {
		return nil
	}
	return &f
}

func str(rec Record, key string) string {
	s, _ := asString(rec[key])
	return s
}

func boolean(rec Record, key string) bool {
	b, _ := asBool(rec[key])
	return b
}

func strlist(rec Record, key string) []string {
	l, _ := asStringList(rec[key])
	return l
}

// Known field names per record type; everything else lands in Extra.

var providerFields = fieldSet("id", "display_name", "base_url", "env", "pricing_defaults")

var modelFields = fieldSet("id", "provider", "display_name", "family", "release_date",
	"capabilities", "modalities", "limits", "cost", "pricing", "lifecycle",
	"deprecated", "retired", "aliases")

func fieldSet(names ...string) map[string]bool {
	s := make(map[string]bool, len(names))
	for _, n := range names {
		s[n] = true
	}
	return s
}

func extraBag(rec Record, known map[string]bool) map[string]any {
	var extra map[string]any
	for k, v := range rec {
		if known[k] {
			continue
		}
		if extra == nil {
			extra = make(map[string]any)
		}
		extra[k] = v
	}
	return extra
}

// ProviderFromRecord decodes a validated provider record.
func ProviderFromRecord(rec Record) *Provider {
	p := &Provider{
		ID:          str(rec, "id"),
		DisplayName: str(rec, "display_name"),
		BaseURL:     str(rec, "base_url"),
		Env:         strlist(rec, "env"),
		Extra:       extraBag(rec, providerFields),
	}
	if pr, ok := asRecord(rec["pricing_defaults"]); ok {
		p.PricingDefaults = pricingFromRecord(pr)
	}
	return p
}

// ModelFromRecord decodes a validated model record. The provider id is
// attached by normalization, not taken from the record.
func ModelFromRecord(provider string, rec Record) *Model {
	m := &Model{
		ID:          str(rec, "id"),
		Provider:    provider,
		DisplayName: str(rec, "display_name"),
		Family:      str(rec, "family"),
		ReleaseDate: str(rec, "release_date"),
		Deprecated:  boolean(rec, "deprecated"),
		Retired:     boolean(rec, "retired"),
		Aliases:     strlist(rec, "aliases"),
		Extra:       extraBag(rec, modelFields),
	}
	if caps, ok := asRecord(rec["capabilities"]); ok {
		m.Capabilities = capabilitiesFromRecord(caps)
	}
	if mod, ok := asRecord(rec["modalities"]); ok {
		m.Modalities = Modalities{
			Input:  strlist(mod, "input"),
			Output: strlist(mod, "output"),
		}
	}
	if lim, ok := asRecord(rec["limits"]); ok {
		ctx, _ := asInt(lim["context"])
		out, _ := asInt(lim["output"])
		m.Limits = Limits{Context: ctx, Output: out}
	}
	if cost, ok := asRecord(rec["cost"]); ok {
		m.Cost = &Cost{
			Input:      floatPtr(cost, "input"),
			Output:     floatPtr(cost, "output"),
			CacheRead:  floatPtr(cost, "cache_read"),
			CacheWrite: floatPtr(cost, "cache_write"),
			Reasoning:  floatPtr(cost, "reasoning"),
		}
	}
	if pr, ok := asRecord(rec["pricing"]); ok {
		m.Pricing = pricingFromRecord(pr)
	}
	if lc, ok := asRecord(rec["lifecycle"]); ok {
		m.Lifecycle = &Lifecycle{
			Status:       str(lc, "status"),
			DeprecatedAt: str(lc, "deprecated_at"),
			RetiresAt:    str(lc, "retires_at"),
			RetiredAt:    str(lc, "retired_at"),
			Replacement:  str(lc, "replacement"),
		}
	}
	return m
}

func pricingFromRecord(rec Record) *Pricing {
	p := &Pricing{
		Currency: str(rec, "currency"),
		Merge:    str(rec, "merge"),
	}
	if list, ok := asList(rec["components"]); ok {
		for _, e := range list {
			cr, ok := asRecord(e)
			if !ok {
				continue
			}
			p.Components = append(p.Components, componentFromRecord(cr))
		}
	}
	return p
}

func componentFromRecord(rec Record) PricingComponent {
	per, ok := asFloat(rec["per"])
	if !ok {
		per = 1 // unit-priced components omit the denominator
	}
	rate, _ := asFloat(rec["rate"])
	return PricingComponent{
		ID:    str(rec, "id"),
		Kind:  str(rec, "kind"),
		Unit:  str(rec, "unit"),
		Per:   per,
		Rate:  rate,
		Meter: str(rec, "meter"),
		Tool:  str(rec, "tool"),
		Size:  str(rec, "size"),
		Notes: str(rec, "notes"),
	}
}

func capabilitiesFromRecord(rec Record) Capabilities {
	var c Capabilities
	for _, name := range CapabilityNames() {
		v, ok := rec[name]
		if !ok {
			continue
		}
		target := c.lookup(name)
		switch t := v.(type) {
		case bool:
			target.Enabled = t
		case Record:
			target.Enabled = true
			if en, ok := asBool(t["enabled"]); ok {
				target.Enabled = en
			}
			for k, fv := range t {
				if k == "enabled" {
					continue
				}
				if b, ok := asBool(fv); ok {
					if target.Flags == nil {
						target.Flags = make(map[string]bool)
					}
					target.Flags[k] = b
				}
			}
		}
	}
	return c
}
