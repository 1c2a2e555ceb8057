package pipeline

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/everstacklabs/atlas/internal/policy"
	"github.com/everstacklabs/atlas/internal/registry"
	"github.com/everstacklabs/atlas/internal/source"
)

func baseDocument() source.Document {
	return source.Document{
		Providers: []any{
			map[string]any{
				"id":           "openai",
				"display_name": "OpenAI",
				"env":          []any{"OPENAI_API_KEY"},
			},
			map[string]any{
				"id": "anthropic",
				"pricing_defaults": map[string]any{
					"currency": "USD",
					"components": []any{
						map[string]any{"id": "tool.web_search", "kind": "tool", "unit": "call", "per": 1000, "rate": 10.0},
					},
				},
			},
		},
		Models: map[string]any{
			"openai": []any{
				map[string]any{
					"id":           "gpt-4o",
					"display_name": "GPT-4o",
					"cost":         map[string]any{"input": 2.5, "output": 10.0},
					"limits":       map[string]any{"context": 128000},
					"aliases":      []any{"gpt-4-omni"},
				},
				map[string]any{
					"id":        "gpt-3.5-turbo",
					"lifecycle": map[string]any{"status": "deprecated"},
				},
			},
			"anthropic": []any{
				map[string]any{
					"id":   "claude-opus",
					"cost": map[string]any{"input": 15.0},
				},
			},
		},
	}
}

func TestBuildFullSnapshot(t *testing.T) {
	snap, err := Build(context.Background(), Options{
		Sources: []source.Source{source.NewStatic("defaults", baseDocument())},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if got := snap.ProviderIDs(); !reflect.DeepEqual(got, []string{"anthropic", "openai"}) {
		t.Errorf("providers = %v", got)
	}
	if len(snap.Models) != 3 {
		t.Errorf("models = %d, want 3", len(snap.Models))
	}

	m, ok := snap.Model("openai", "gpt-4o")
	if !ok {
		t.Fatal("gpt-4o missing")
	}
	if c := m.Pricing.Component("token.input"); c == nil || c.Per != 1_000_000 || c.Rate != 2.5 {
		t.Errorf("token.input = %+v", c)
	}

	// Alias resolves to the canonical model.
	if byAlias, ok := snap.Model("openai", "gpt-4-omni"); !ok || byAlias != m {
		t.Errorf("alias lookup = %v, %v", byAlias, ok)
	}

	// Provider pricing defaults reach the model.
	opus, _ := snap.Model("anthropic", "claude-opus")
	if opus == nil || opus.Pricing.Component("tool.web_search") == nil {
		t.Errorf("provider defaults not applied: %+v", opus)
	}

	// Canonical lifecycle status syncs the boolean.
	turbo, _ := snap.Model("openai", "gpt-3.5-turbo")
	if turbo == nil || !turbo.Deprecated {
		t.Errorf("deprecated flag not synced: %+v", turbo)
	}
}

func TestBuildLayerPrecedence(t *testing.T) {
	override := source.Document{
		Models: []any{
			map[string]any{
				"provider":     "openai",
				"id":           "gpt-4o",
				"display_name": "GPT-4o (tuned)",
				"cost":         map[string]any{"input": 2.0},
			},
		},
	}
	snap, err := Build(context.Background(), Options{
		Sources: []source.Source{
			source.NewStatic("defaults", baseDocument()),
			source.NewStatic("overrides", override),
		},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	m, _ := snap.Model("openai", "gpt-4o")
	if m.DisplayName != "GPT-4o (tuned)" {
		t.Errorf("display_name = %q", m.DisplayName)
	}
	// Overridden field wins; sibling fields from the base layer survive.
	if c := m.Pricing.Component("token.input"); c == nil || c.Rate != 2.0 {
		t.Errorf("token.input = %+v", c)
	}
	if c := m.Pricing.Component("token.output"); c == nil || c.Rate != 10.0 {
		t.Errorf("token.output lost across layers: %+v", c)
	}
	if m.Limits.Context != 128000 {
		t.Errorf("limits.context lost across layers: %d", m.Limits.Context)
	}
}

func TestBuildNullNeverClears(t *testing.T) {
	override := source.Document{
		Models: []any{
			map[string]any{
				"provider":     "openai",
				"id":           "gpt-4o",
				"display_name": nil,
			},
		},
	}
	snap, err := Build(context.Background(), Options{
		Sources: []source.Source{
			source.NewStatic("defaults", baseDocument()),
			source.NewStatic("overrides", override),
		},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	m, _ := snap.Model("openai", "gpt-4o")
	if m.DisplayName != "GPT-4o" {
		t.Errorf("null cleared display_name: %q", m.DisplayName)
	}
}

func TestBuildProviderSynonym(t *testing.T) {
	doc := source.Document{
		Providers: []any{map[string]any{"id": "gemini"}},
		Models: []any{
			map[string]any{"provider": "gemini", "id": "gemini-pro"},
		},
	}
	snap, err := Build(context.Background(), Options{
		Sources: []source.Source{source.NewStatic("defaults", doc)},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if _, ok := snap.Provider("google"); !ok {
		t.Errorf("synonym not canonicalized: %v", snap.ProviderIDs())
	}
	if _, ok := snap.Model("google", "gemini-pro"); !ok {
		t.Error("model not filed under canonical provider")
	}
}

func TestBuildUnknownProvider(t *testing.T) {
	doc := source.Document{
		Providers: []any{map[string]any{"id": "acme-ai"}},
	}
	_, err := Build(context.Background(), Options{
		Sources: []source.Source{source.NewStatic("defaults", doc)},
	})
	var be *BuildError
	if !errors.As(err, &be) || be.Stage != StageNormalize {
		t.Fatalf("err = %v", err)
	}
	var upe *registry.UnknownProviderError
	if !errors.As(err, &upe) || upe.ID != "acme-ai" {
		t.Errorf("err = %v, want UnknownProviderError for acme-ai", err)
	}
}

func TestBuildValidationFailure(t *testing.T) {
	doc := baseDocument()
	doc.Models = []any{
		map[string]any{"provider": "openai", "id": "bad", "limits": map[string]any{"context": "big"}},
	}
	_, err := Build(context.Background(), Options{
		Sources: []source.Source{source.NewStatic("defaults", doc)},
	})
	var be *BuildError
	if !errors.As(err, &be) || be.Stage != StageValidate {
		t.Fatalf("err = %v, want validate stage failure", err)
	}
	var verrs ValidationErrors
	if !errors.As(err, &verrs) {
		t.Errorf("validation details not wrapped: %v", err)
	}
}

func TestBuildNotViableWhenAllDenied(t *testing.T) {
	_, err := Build(context.Background(), Options{
		Sources: []source.Source{source.NewStatic("defaults", baseDocument())},
		Policy: policy.Spec{Deny: map[string][]string{
			"openai":    {"*"},
			"anthropic": {"*"},
		}},
	})
	if !errors.Is(err, ErrNotViable) {
		t.Fatalf("err = %v, want ErrNotViable", err)
	}
	var be *BuildError
	if !errors.As(err, &be) || be.Stage != StageViability {
		t.Errorf("stage = %v", err)
	}
}

func TestBuildFilterKeepsAliasOfDeniedModel(t *testing.T) {
	snap, err := Build(context.Background(), Options{
		Sources: []source.Source{source.NewStatic("defaults", baseDocument())},
		Policy: policy.Spec{Deny: map[string][]string{
			"openai": {"gpt-4o"},
		}},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if _, ok := snap.Model("openai", "gpt-4o"); ok {
		t.Error("denied model still indexed")
	}
	// The alias still resolves so policy checks on aliases work.
	if got := snap.Resolve("openai", "gpt-4-omni"); got != "gpt-4o" {
		t.Errorf("Resolve = %q, want gpt-4o", got)
	}
}

func TestBuildIdempotent(t *testing.T) {
	opts := Options{
		Sources: []source.Source{source.NewStatic("defaults", baseDocument())},
	}
	a, err := Build(context.Background(), opts)
	if err != nil {
		t.Fatalf("first build: %v", err)
	}
	b, err := Build(context.Background(), opts)
	if err != nil {
		t.Fatalf("second build: %v", err)
	}
	if !reflect.DeepEqual(a.AllModels(), b.AllModels()) {
		t.Error("model sets differ between identical builds")
	}
	if !reflect.DeepEqual(a.Providers, b.Providers) {
		t.Error("provider sets differ between identical builds")
	}
}
