package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/everstacklabs/atlas/internal/catalog"
	"github.com/everstacklabs/atlas/internal/pipeline"
	"github.com/everstacklabs/atlas/internal/policy"
	"github.com/everstacklabs/atlas/internal/source"
)

func testDocument() source.Document {
	return source.Document{
		Providers: []any{
			map[string]any{"id": "openai", "display_name": "OpenAI"},
			map[string]any{"id": "anthropic"},
		},
		Models: map[string]any{
			"openai": []any{
				map[string]any{
					"id":      "gpt-4o",
					"cost":    map[string]any{"input": 2.5},
					"aliases": []any{"gpt-4-omni"},
					"capabilities": map[string]any{
						"chat":     true,
						"tool_use": map[string]any{"enabled": true, "parallel": true},
					},
				},
				map[string]any{
					"id":           "gpt-3.5-turbo",
					"capabilities": map[string]any{"chat": true},
					"lifecycle":    map[string]any{"status": "deprecated"},
				},
			},
			"anthropic": []any{
				map[string]any{
					"id":           "claude-opus",
					"capabilities": map[string]any{"chat": true, "reasoning": true},
				},
			},
		},
	}
}

func testOptions() pipeline.Options {
	return pipeline.Options{
		Sources: []source.Source{source.NewStatic("defaults", testDocument())},
	}
}

func TestBuildPublishesAndIncrementsEpoch(t *testing.T) {
	s := New()
	if s.Epoch() != 0 || s.Current() != nil {
		t.Fatal("fresh store is not empty")
	}

	snap1, err := s.Build(context.Background(), testOptions())
	if err != nil {
		t.Fatalf("first build: %v", err)
	}
	if snap1.Epoch != 1 || s.Epoch() != 1 {
		t.Errorf("epoch = %d, want 1", snap1.Epoch)
	}
	if snap1.GeneratedAt.IsZero() {
		t.Error("GeneratedAt not stamped")
	}

	snap2, err := s.Build(context.Background(), testOptions())
	if err != nil {
		t.Fatalf("second build: %v", err)
	}
	if snap2.Epoch != snap1.Epoch+1 {
		t.Errorf("epoch = %d, want %d", snap2.Epoch, snap1.Epoch+1)
	}
	if s.Current() != snap2 {
		t.Error("current snapshot not swapped")
	}
}

func TestFailedBuildLeavesSnapshot(t *testing.T) {
	s := New()
	snap, err := s.Build(context.Background(), testOptions())
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	bad := pipeline.Options{
		Sources: []source.Source{source.NewStatic("bad", source.Document{
			Providers: []any{map[string]any{"id": "acme-ai"}},
		})},
	}
	if _, err := s.Build(context.Background(), bad); err == nil {
		t.Fatal("bad build succeeded")
	}

	if s.Current() != snap {
		t.Error("failed build replaced the snapshot")
	}
	if s.Epoch() != 1 {
		t.Errorf("epoch = %d after failed build, want 1", s.Epoch())
	}
}

func TestRebuildUsesLastOptions(t *testing.T) {
	s := New()
	if _, err := s.Rebuild(context.Background()); !errors.Is(err, ErrNoSnapshot) {
		t.Fatalf("rebuild before build: %v", err)
	}

	if _, err := s.Build(context.Background(), testOptions()); err != nil {
		t.Fatalf("build: %v", err)
	}
	snap, err := s.Rebuild(context.Background())
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	if snap.Epoch != 2 {
		t.Errorf("epoch = %d, want 2", snap.Epoch)
	}
	if _, ok := snap.Model("openai", "gpt-4o"); !ok {
		t.Error("rebuilt snapshot missing model")
	}
}

func TestLookupsBeforeFirstBuild(t *testing.T) {
	s := New()
	if _, err := s.GetProvider("openai"); !errors.Is(err, ErrNoSnapshot) {
		t.Errorf("GetProvider: %v", err)
	}
	if _, err := s.GetModel("openai", "gpt-4o"); !errors.Is(err, ErrNoSnapshot) {
		t.Errorf("GetModel: %v", err)
	}
	if s.ListProviders() != nil || s.ListAllModels() != nil {
		t.Error("lists not empty before first build")
	}
	if s.IsAllowed("openai", "gpt-4o") {
		t.Error("IsAllowed true without a snapshot")
	}
}

func TestGetModelResolvesAlias(t *testing.T) {
	s := New()
	if _, err := s.Build(context.Background(), testOptions()); err != nil {
		t.Fatalf("build: %v", err)
	}

	byID, err := s.GetModel("openai", "gpt-4o")
	if err != nil {
		t.Fatalf("GetModel by id: %v", err)
	}
	byAlias, err := s.GetModel("openai", "gpt-4-omni")
	if err != nil {
		t.Fatalf("GetModel by alias: %v", err)
	}
	if byID != byAlias {
		t.Error("alias resolved to a different model")
	}

	if _, err := s.GetModel("openai", "gpt-5"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing model: %v", err)
	}
}

func TestIsAllowedDenyWinsOnAlias(t *testing.T) {
	s := New()
	opts := testOptions()
	opts.Policy = policy.Spec{
		Allow: map[string]policy.AllowSpec{
			"openai":    policy.AllowAll(),
			"anthropic": policy.AllowAll(),
		},
		Deny: map[string][]string{"openai": {"gpt-4o"}},
	}
	if _, err := s.Build(context.Background(), opts); err != nil {
		t.Fatalf("build: %v", err)
	}

	if s.IsAllowed("openai", "gpt-4o") {
		t.Error("denied model allowed")
	}
	// The alias of a denied model is denied too, even though the model is
	// absent from the filtered index.
	if s.IsAllowed("openai", "gpt-4-omni") {
		t.Error("alias of denied model allowed")
	}
	if !s.IsAllowed("openai", "gpt-3.5-turbo") {
		t.Error("allowed model denied")
	}
}

func TestListModels(t *testing.T) {
	s := New()
	if _, err := s.Build(context.Background(), testOptions()); err != nil {
		t.Fatalf("build: %v", err)
	}

	all := s.ListAllModels()
	if len(all) != 3 {
		t.Fatalf("all models = %d, want 3", len(all))
	}
	if all[0].Provider != "anthropic" || all[1].ID != "gpt-3.5-turbo" {
		t.Errorf("order = %s/%s, %s/%s", all[0].Provider, all[0].ID, all[1].Provider, all[1].ID)
	}

	openai := s.ListModels("openai")
	if len(openai) != 2 || openai[0].ID != "gpt-3.5-turbo" {
		t.Errorf("openai models = %v", openai)
	}
	if got := s.ListModels("mistral"); len(got) != 0 {
		t.Errorf("unknown provider models = %v", got)
	}
}

func TestSelectByCapability(t *testing.T) {
	s := New()
	if _, err := s.Build(context.Background(), testOptions()); err != nil {
		t.Fatalf("build: %v", err)
	}

	key, err := s.Select(Selector{Require: []string{"tool_use.parallel"}})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if key != (catalog.ModelKey{Provider: "openai", ID: "gpt-4o"}) {
		t.Errorf("selected %v", key)
	}

	key, err = s.Select(Selector{Require: []string{"reasoning"}})
	if err != nil || key.Provider != "anthropic" {
		t.Errorf("selected %v, %v", key, err)
	}

	if _, err := s.Select(Selector{Require: []string{"embeddings"}}); !errors.Is(err, ErrNoMatch) {
		t.Errorf("err = %v, want ErrNoMatch", err)
	}
}

func TestSelectForbidAndScope(t *testing.T) {
	s := New()
	if _, err := s.Build(context.Background(), testOptions()); err != nil {
		t.Fatalf("build: %v", err)
	}

	key, err := s.Select(Selector{
		Provider: "openai",
		Require:  []string{"chat"},
		Forbid:   []string{"tool_use"},
	})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	// gpt-4o is forbidden by tool_use; the deprecated turbo is the fallback.
	if key.ID != "gpt-3.5-turbo" {
		t.Errorf("selected %v", key)
	}
}

func TestSelectPrefersActiveOverDeprecated(t *testing.T) {
	s := New()
	if _, err := s.Build(context.Background(), testOptions()); err != nil {
		t.Fatalf("build: %v", err)
	}

	// Both turbo (deprecated) and gpt-4o (active) satisfy chat within
	// openai; the active one wins despite sorting after turbo.
	key, err := s.Select(Selector{Provider: "openai", Require: []string{"chat"}})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if key.ID != "gpt-4o" {
		t.Errorf("selected %v, want active gpt-4o", key)
	}
}

func TestSelectPreferenceOrder(t *testing.T) {
	s := New()
	opts := testOptions()
	opts.Prefer = []string{"anthropic"}
	if _, err := s.Build(context.Background(), opts); err != nil {
		t.Fatalf("build: %v", err)
	}

	key, err := s.Select(Selector{Require: []string{"chat"}})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if key.Provider != "anthropic" {
		t.Errorf("selected %v, want anthropic first", key)
	}

	// A selector-level preference overrides the snapshot's.
	key, err = s.Select(Selector{Require: []string{"chat"}, Prefer: []string{"openai"}})
	if err != nil || key.Provider != "openai" {
		t.Errorf("selected %v, %v", key, err)
	}
}

func TestSelectSkipsRetired(t *testing.T) {
	s := New()
	doc := source.Document{
		Providers: []any{map[string]any{"id": "openai"}},
		Models: []any{
			map[string]any{
				"provider":     "openai",
				"id":           "gpt-3",
				"capabilities": map[string]any{"chat": true},
				"lifecycle":    map[string]any{"status": "retired"},
			},
		},
	}
	opts := pipeline.Options{Sources: []source.Source{source.NewStatic("defaults", doc)}}
	if _, err := s.Build(context.Background(), opts); err != nil {
		t.Fatalf("build: %v", err)
	}

	if _, err := s.Select(Selector{Require: []string{"chat"}}); !errors.Is(err, ErrNoMatch) {
		t.Errorf("retired model selected: %v", err)
	}
}

func TestSelectDateDrivenRetirement(t *testing.T) {
	s := New()
	s.now = func() time.Time { return time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC) }
	doc := source.Document{
		Providers: []any{map[string]any{"id": "openai"}},
		Models: []any{
			map[string]any{
				"provider":     "openai",
				"id":           "gpt-old",
				"capabilities": map[string]any{"chat": true},
				"lifecycle":    map[string]any{"retired_at": "2026-01-01"},
			},
			map[string]any{
				"provider":     "openai",
				"id":           "gpt-new",
				"capabilities": map[string]any{"chat": true},
			},
		},
	}
	opts := pipeline.Options{Sources: []source.Source{source.NewStatic("defaults", doc)}}
	if _, err := s.Build(context.Background(), opts); err != nil {
		t.Fatalf("build: %v", err)
	}

	key, err := s.Select(Selector{Require: []string{"chat"}})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if key.ID != "gpt-new" {
		t.Errorf("selected %v, want gpt-new (gpt-old retired by date)", key)
	}
}

func TestParseSpec(t *testing.T) {
	key, err := ParseSpec("openai:gpt-4o")
	if err != nil {
		t.Fatalf("ParseSpec: %v", err)
	}
	if key != (catalog.ModelKey{Provider: "openai", ID: "gpt-4o"}) {
		t.Errorf("key = %v", key)
	}

	for _, bad := range []string{"gpt-4o", "openai:", ":gpt-4o", ""} {
		if _, err := ParseSpec(bad); !errors.Is(err, ErrInvalidSpec) {
			t.Errorf("ParseSpec(%q) = %v, want ErrInvalidSpec", bad, err)
		}
	}

	if _, err := ParseSpec("acme:gpt"); err == nil {
		t.Error("unknown provider accepted")
	}
}
