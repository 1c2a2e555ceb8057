package catalog

import "testing"

func TestCanonicalRecordSymbolKeys(t *testing.T) {
	rec, err := CanonicalRecord(map[any]any{
		Symbol("id"): "gpt-4o",
		"limits": map[any]any{
			Symbol("context"): 128000,
		},
	})
	if err != nil {
		t.Fatalf("CanonicalRecord: %v", err)
	}
	if rec["id"] != "gpt-4o" {
		t.Errorf("id = %v", rec["id"])
	}
	limits, ok := rec["limits"].(Record)
	if !ok {
		t.Fatalf("limits is %T, want Record", rec["limits"])
	}
	if limits["context"] != 128000 {
		t.Errorf("context = %v", limits["context"])
	}
}

func TestCanonicalRecordRejectsNonStringKeys(t *testing.T) {
	if _, err := CanonicalRecord(map[any]any{42: "x"}); err == nil {
		t.Fatal("expected error for integer key")
	}
}

func TestModelFromRecordExtrasPreserved(t *testing.T) {
	rec := Record{
		"id":           "gpt-4o",
		"display_name": "GPT-4o",
		"vendor_notes": "not a schema field",
		"capabilities": Record{
			"chat":     true,
			"tool_use": Record{"enabled": true, "parallel": true},
		},
	}
	m := ModelFromRecord("openai", rec)

	if m.ID != "gpt-4o" || m.Provider != "openai" {
		t.Fatalf("decoded %s/%s", m.Provider, m.ID)
	}
	if m.Extra["vendor_notes"] != "not a schema field" {
		t.Errorf("extra bag lost unknown field: %v", m.Extra)
	}
	if !m.Capabilities.Has("tool_use.parallel") {
		t.Error("tool_use.parallel not decoded")
	}
}

func TestModelRecordRoundTrip(t *testing.T) {
	rate := 2.5
	m := &Model{
		ID:       "gpt-4o",
		Provider: "openai",
		Limits:   Limits{Context: 128000, Output: 16384},
		Cost:     &Cost{Input: &rate},
		Aliases:  []string{"gpt-4-omni"},
	}

	rec, err := CanonicalRecord(m.Record())
	if err != nil {
		t.Fatalf("CanonicalRecord: %v", err)
	}
	back := ModelFromRecord("openai", rec)

	if back.Limits != m.Limits {
		t.Errorf("limits = %+v, want %+v", back.Limits, m.Limits)
	}
	if back.Cost == nil || back.Cost.Input == nil || *back.Cost.Input != rate {
		t.Errorf("cost lost in round trip: %+v", back.Cost)
	}
	if len(back.Aliases) != 1 || back.Aliases[0] != "gpt-4-omni" {
		t.Errorf("aliases = %v", back.Aliases)
	}
}
