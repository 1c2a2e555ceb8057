package registry

import (
	"errors"
	"testing"
)

func TestCanonicalIdentity(t *testing.T) {
	for _, id := range []string{"openai", "anthropic", "google"} {
		got, err := Canonical(id)
		if err != nil || got != id {
			t.Errorf("Canonical(%s) = %q, %v", id, got, err)
		}
	}
}

func TestCanonicalSynonyms(t *testing.T) {
	cases := map[string]string{
		"gemini":  "google",
		"x-ai":    "xai",
		"bedrock": "amazon",
		"azure":   "microsoft",
	}
	for in, want := range cases {
		got, err := Canonical(in)
		if err != nil || got != want {
			t.Errorf("Canonical(%s) = %q, %v, want %q", in, got, err, want)
		}
	}
}

func TestUnknownProviderTypedError(t *testing.T) {
	_, err := Canonical("definitely-not-a-provider")
	if err == nil {
		t.Fatal("expected error")
	}
	var upe *UnknownProviderError
	if !errors.As(err, &upe) {
		t.Fatalf("error %T is not *UnknownProviderError", err)
	}
	if upe.ID != "definitely-not-a-provider" {
		t.Errorf("ID = %q", upe.ID)
	}
}

func TestAllSortedAndClosed(t *testing.T) {
	ids := All()
	if len(ids) == 0 {
		t.Fatal("registry is empty")
	}
	for i := 1; i < len(ids); i++ {
		if ids[i-1] >= ids[i] {
			t.Fatalf("ids not sorted: %q >= %q", ids[i-1], ids[i])
		}
	}
	for _, id := range ids {
		if !IsKnown(id) {
			t.Errorf("IsKnown(%s) = false", id)
		}
	}
}
