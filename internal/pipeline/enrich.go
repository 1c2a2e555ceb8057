package pipeline

import (
	"github.com/everstacklabs/atlas/internal/catalog"
)

// enrich decodes the merged records into typed values and applies the
// derived-field computations. Both derivations are idempotent: re-running
// enrich on an already enriched model changes nothing.
func enrich(m *merged) (map[string]*catalog.Provider, []*catalog.Model) {
	providers := make(map[string]*catalog.Provider, len(m.providers))
	for _, id := range m.providerOrder {
		providers[id] = catalog.ProviderFromRecord(m.providers[id])
	}

	models := make([]*catalog.Model, 0, len(m.models))
	for _, key := range m.modelOrder {
		model := catalog.ModelFromRecord(key.Provider, m.models[key])
		synthesizeCostComponents(model)
		if p, ok := providers[key.Provider]; ok {
			model.Pricing = mergePricing(p.PricingDefaults, model.Pricing)
		}
		syncLifecycle(model)
		models = append(models, model)
	}
	return providers, models
}

// costComponents maps legacy cost fields to synthesized component ids, in
// output order.
var costComponents = []struct {
	id    string
	field func(*catalog.Cost) *float64
}{
	{"token.input", func(c *catalog.Cost) *float64 { return c.Input }},
	{"token.output", func(c *catalog.Cost) *float64 { return c.Output }},
	{"token.cache_read", func(c *catalog.Cost) *float64 { return c.CacheRead }},
	{"token.cache_write", func(c *catalog.Cost) *float64 { return c.CacheWrite }},
	{"token.reasoning", func(c *catalog.Cost) *float64 { return c.Reasoning }},
}

// synthesizeCostComponents converts each non-null legacy cost rate into a
// token component per million tokens, unless the model already declares a
// component with that id.
func synthesizeCostComponents(m *catalog.Model) {
	if m.Cost == nil {
		return
	}
	for _, cc := range costComponents {
		rate := cc.field(m.Cost)
		if rate == nil {
			continue
		}
		if m.Pricing == nil {
			m.Pricing = &catalog.Pricing{}
		}
		if m.Pricing.Component(cc.id) != nil {
			continue
		}
		m.Pricing.Components = append(m.Pricing.Components, catalog.PricingComponent{
			ID:   cc.id,
			Kind: catalog.KindToken,
			Unit: "token",
			Per:  1_000_000,
			Rate: *rate,
		})
	}
}

// mergePricing combines provider pricing defaults with the model's own
// pricing according to the model's merge strategy.
func mergePricing(defaults, model *catalog.Pricing) *catalog.Pricing {
	if model == nil {
		return defaults.Clone()
	}
	if defaults == nil {
		return model
	}
	if model.Merge == catalog.MergeReplace {
		return model
	}

	// merge_by_id: defaults with matching ids overridden, model-only
	// components appended in model order.
	out := &catalog.Pricing{Currency: model.Currency, Merge: model.Merge}
	if out.Currency == "" {
		out.Currency = defaults.Currency
	}
	overridden := make(map[string]bool, len(model.Components))
	for _, dc := range defaults.Components {
		if mc := model.Component(dc.ID); mc != nil {
			out.Components = append(out.Components, *mc)
			overridden[dc.ID] = true
			continue
		}
		out.Components = append(out.Components, dc)
	}
	for _, mc := range model.Components {
		if !overridden[mc.ID] {
			out.Components = append(out.Components, mc)
		}
	}
	return out
}

// syncLifecycle derives the deprecated/retired booleans from a canonical
// lifecycle status. Absent or non-canonical statuses leave the explicit
// booleans untouched.
func syncLifecycle(m *catalog.Model) {
	if m.Lifecycle == nil {
		return
	}
	switch m.Lifecycle.Status {
	case catalog.StatusRetired:
		m.Deprecated, m.Retired = true, true
	case catalog.StatusDeprecated:
		m.Deprecated, m.Retired = true, false
	case catalog.StatusActive:
		m.Deprecated, m.Retired = false, false
	}
}
