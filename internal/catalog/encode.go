package catalog

// Record encodes the provider back into canonical raw form. Used by the
// artifact writer; keys are plain strings so yaml marshaling sorts them.
func (p *Provider) Record() map[string]any {
	rec := map[string]any{"id": p.ID}
	putStr(rec, "display_name", p.DisplayName)
	putStr(rec, "base_url", p.BaseURL)
	if len(p.Env) > 0 {
		rec["env"] = toAnyList(p.Env)
	}
	if p.PricingDefaults != nil {
		rec["pricing_defaults"] = p.PricingDefaults.record()
	}
	for k, v := range p.Extra {
		rec[k] = v
	}
	return rec
}

// Record encodes the model back into canonical raw form.
func (m *Model) Record() map[string]any {
	rec := map[string]any{"id": m.ID}
	putStr(rec, "display_name", m.DisplayName)
	putStr(rec, "family", m.Family)
	putStr(rec, "release_date", m.ReleaseDate)
	if caps := m.Capabilities.record(); len(caps) > 0 {
		rec["capabilities"] = caps
	}
	if len(m.Modalities.Input) > 0 || len(m.Modalities.Output) > 0 {
		mod := map[string]any{}
		if len(m.Modalities.Input) > 0 {
			mod["input"] = toAnyList(m.Modalities.Input)
		}
		if len(m.Modalities.Output) > 0 {
			mod["output"] = toAnyList(m.Modalities.Output)
		}
		rec["modalities"] = mod
	}
	if m.Limits.Context > 0 || m.Limits.Output > 0 {
		lim := map[string]any{}
		if m.Limits.Context > 0 {
			lim["context"] = m.Limits.Context
		}
		if m.Limits.Output > 0 {
			lim["output"] = m.Limits.Output
		}
		rec["limits"] = lim
	}
	if m.Cost != nil {
		cost := map[string]any{}
		putFloat(cost, "input", m.Cost.Input)
		putFloat(cost, "output", m.Cost.Output)
		putFloat(cost, "cache_read", m.Cost.CacheRead)
		putFloat(cost, "cache_write", m.Cost.CacheWrite)
		putFloat(cost, "reasoning", m.Cost.Reasoning)
		rec["cost"] = cost
	}
	if m.Pricing != nil {
		rec["pricing"] = m.Pricing.record()
	}
	if m.Lifecycle != nil {
		lc := map[string]any{}
		putStr(lc, "status", m.Lifecycle.Status)
		putStr(lc, "deprecated_at", m.Lifecycle.DeprecatedAt)
		putStr(lc, "retires_at", m.Lifecycle.RetiresAt)
		putStr(lc, "retired_at", m.Lifecycle.RetiredAt)
		putStr(lc, "replacement", m.Lifecycle.Replacement)
		rec["lifecycle"] = lc
	}
	if m.Deprecated {
		rec["deprecated"] = true
	}
	if m.Retired {
		rec["retired"] = true
	}
	if len(m.Aliases) > 0 {
		rec["aliases"] = toAnyList(m.Aliases)
	}
	for k, v := range m.Extra {
		rec[k] = v
	}
	return rec
}

func (p *Pricing) record() map[string]any {
	rec := map[string]any{}
	putStr(rec, "currency", p.Currency)
	putStr(rec, "merge", p.Merge)
	if len(p.Components) > 0 {
		list := make([]any, 0, len(p.Components))
		for _, c := range p.Components {
			cr := map[string]any{"id": c.ID, "kind": c.Kind, "unit": c.Unit, "per": c.Per, "rate": c.Rate}
			putStr(cr, "meter", c.Meter)
			putStr(cr, "tool", c.Tool)
			putStr(cr, "size", c.Size)
			putStr(cr, "notes", c.Notes)
			list = append(list, cr)
		}
		rec["components"] = list
	}
	return rec
}

func (c *Capabilities) record() map[string]any {
	rec := map[string]any{}
	for _, name := range CapabilityNames() {
		cp := c.lookup(name)
		if !cp.Enabled && len(cp.Flags) == 0 {
			continue
		}
		if len(cp.Flags) == 0 {
			rec[name] = cp.Enabled
			continue
		}
		entry := map[string]any{"enabled": cp.Enabled}
		for k, v := range cp.Flags {
			entry[k] = v
		}
		rec[name] = entry
	}
	return rec
}

func putStr(rec map[string]any, key, val string) {
	if val != "" {
		rec[key] = val
	}
}

func putFloat(rec map[string]any, key string, val *float64) {
	if val != nil {
		rec[key] = *val
	}
}

func toAnyList(items []string) []any {
	out := make([]any, len(items))
	for i, s := range items {
		out[i] = s
	}
	return out
}
