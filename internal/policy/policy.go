// Package policy implements allow/deny filtering of catalog models.
// Patterns are literal model ids or globs with '*' wildcards, compiled once
// at build time. Deny always wins over allow.
package policy

import (
	"fmt"
	"strings"
)

// AllowSpec is the per-provider allow entry: either the "all" sentinel or a
// list of patterns.
type AllowSpec struct {
	All      bool
	Patterns []string
}

// Spec is the uncompiled policy configuration.
type Spec struct {
	Allow map[string]AllowSpec
	Deny  map[string][]string
}

// AllowAll returns an AllowSpec admitting every model.
func AllowAll() AllowSpec {
	return AllowSpec{All: true}
}

// ParseAllowValue interprets a loosely typed allow entry: the strings "all"
// or ":all", or a list of pattern strings.
func ParseAllowValue(v any) (AllowSpec, error) {
	switch t := v.(type) {
	case string:
		if t == "all" || t == ":all" {
			return AllowSpec{All: true}, nil
		}
		return AllowSpec{Patterns: []string{t}}, nil
	case []string:
		return AllowSpec{Patterns: t}, nil
	case []any:
		var patterns []string
		for _, e := range t {
			s, ok := e.(string)
			if !ok {
				return AllowSpec{}, fmt.Errorf("allow pattern %v is not a string", e)
			}
			patterns = append(patterns, s)
		}
		return AllowSpec{Patterns: patterns}, nil
	}
	return AllowSpec{}, fmt.Errorf("allow entry %v (%T) is neither \"all\" nor a pattern list", v, v)
}

// Policy is the compiled filter.
type Policy struct {
	allow           map[string]compiledAllow
	deny            map[string][]matcher
	allowConfigured bool
}

type compiledAllow struct {
	all      bool
	patterns []matcher
}

// Compile validates every pattern and builds matchers.
func (s Spec) Compile() (*Policy, error) {
	p := &Policy{
		allow: make(map[string]compiledAllow, len(s.Allow)),
		deny:  make(map[string][]matcher, len(s.Deny)),
	}
	for provider, entry := range s.Allow {
		p.allowConfigured = true
		ca := compiledAllow{all: entry.All}
		for _, pat := range entry.Patterns {
			m, err := compile(pat)
			if err != nil {
				return nil, fmt.Errorf("allow pattern for %s: %w", provider, err)
			}
			ca.patterns = append(ca.patterns, m)
		}
		p.allow[provider] = ca
	}
	for provider, patterns := range s.Deny {
		for _, pat := range patterns {
			m, err := compile(pat)
			if err != nil {
				return nil, fmt.Errorf("deny pattern for %s: %w", provider, err)
			}
			p.deny[provider] = append(p.deny[provider], m)
		}
	}
	return p, nil
}

// Allowed decides inclusion for one provider+model id.
// Deny wins unconditionally. With no allow configuration everything else is
// included; once any allow entry exists, a provider with a missing or empty
// entry is excluded entirely.
func (p *Policy) Allowed(provider, modelID string) bool {
	for _, m := range p.deny[provider] {
		if m.match(modelID) {
			return false
		}
	}
	if !p.allowConfigured {
		return true
	}
	entry, ok := p.allow[provider]
	if !ok {
		return false
	}
	if entry.all {
		return true
	}
	for _, m := range entry.patterns {
		if m.match(modelID) {
			return true
		}
	}
	return false
}

// matcher is one compiled pattern. Literal patterns compare directly;
// wildcard patterns keep their '*'-split segments.
type matcher struct {
	pattern  string
	literal  bool
	segments []string
}

func compile(pattern string) (matcher, error) {
	if pattern == "" {
		return matcher{}, fmt.Errorf("empty pattern")
	}
	if !strings.Contains(pattern, "*") {
		return matcher{pattern: pattern, literal: true}, nil
	}
	return matcher{pattern: pattern, segments: strings.Split(pattern, "*")}, nil
}

func (m matcher) match(s string) bool {
	if m.literal {
		return s == m.pattern
	}
	segs := m.segments
	// Anchored first segment.
	if first := segs[0]; first != "" {
		if !strings.HasPrefix(s, first) {
			return false
		}
		s = s[len(first):]
	}
	segs = segs[1:]
	// Anchored last segment.
	last := segs[len(segs)-1]
	segs = segs[:len(segs)-1]
	if last != "" {
		if !strings.HasSuffix(s, last) {
			return false
		}
		s = s[:len(s)-len(last)]
	}
	// Middle segments match greedily left to right.
	for _, seg := range segs {
		if seg == "" {
			continue
		}
		i := strings.Index(s, seg)
		if i < 0 {
			return false
		}
		s = s[i+len(seg):]
	}
	return true
}
