// Package registry holds the closed set of valid provider identifiers.
// The set is fixed at compile time: unknown identifiers from sources are
// rejected with a typed error instead of being registered dynamically, so
// untrusted input can never grow the identifier space.
package registry

import (
	"fmt"
	"sort"
)

var canonical = map[string]bool{
	"ai21":       true,
	"amazon":     true,
	"anthropic":  true,
	"cohere":     true,
	"deepseek":   true,
	"fireworks":  true,
	"google":     true,
	"groq":       true,
	"meta":       true,
	"microsoft":  true,
	"mistral":    true,
	"openai":     true,
	"perplexity": true,
	"togetherai": true,
	"xai":        true,
}

// Vendor spellings seen in the wild mapped to canonical ids.
var synonyms = map[string]string{
	"gemini":       "google",
	"google-ai":    "google",
	"vertex":       "google",
	"x-ai":         "xai",
	"grok":         "xai",
	"bedrock":      "amazon",
	"aws":          "amazon",
	"azure":        "microsoft",
	"together":     "togetherai",
	"together-ai":  "togetherai",
	"meta-llama":   "meta",
	"fireworks-ai": "fireworks",
}

// UnknownProviderError reports an identifier outside the closed registry.
type UnknownProviderError struct {
	ID string
}

func (e *UnknownProviderError) Error() string {
	return fmt.Sprintf("unknown provider identifier %q", e.ID)
}

// Canonical maps a raw provider identifier to its canonical form.
func Canonical(id string) (string, error) {
	if canonical[id] {
		return id, nil
	}
	if c, ok := synonyms[id]; ok {
		return c, nil
	}
	return "", &UnknownProviderError{ID: id}
}

// IsKnown reports whether id is a canonical provider identifier.
func IsKnown(id string) bool {
	return canonical[id]
}

// All returns the sorted canonical identifier set.
func All() []string {
	ids := make([]string, 0, len(canonical))
	for id := range canonical {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
