// Package mergetree implements the layered record merge: raw records become
// a sum-type tree (map, list, scalar, null) merged recursively with a fixed
// precedence rule. Higher layers replace scalars, merge maps key-by-key and
// replace lists wholesale; a null or absent value in a higher layer never
// clears a lower one.
package mergetree

import (
	"fmt"
	"reflect"
	"sort"
)

// Kind discriminates the node sum type.
type Kind uint8

const (
	Null Kind = iota
	Scalar
	List
	Map
)

// Node is one tree node. Map nodes preserve key insertion order so merged
// output is deterministic.
type Node struct {
	kind   Kind
	scalar any
	list   []*Node
	keys   []string
	fields map[string]*Node
}

// Kind returns the node kind.
func (n *Node) Kind() Kind {
	if n == nil {
		return Null
	}
	return n.kind
}

// Field returns the child node for a map key.
func (n *Node) Field(key string) *Node {
	if n == nil || n.kind != Map {
		return nil
	}
	return n.fields[key]
}

// FromValue converts a canonicalized raw value into a tree. Maps must have
// string-kinded keys.
func FromValue(v any) (*Node, error) {
	if v == nil {
		return &Node{kind: Null}, nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, fmt.Errorf("map key type %s is not string-kinded", rv.Type().Key())
		}
		n := &Node{kind: Map, fields: make(map[string]*Node, rv.Len())}
		keys := make([]string, 0, rv.Len())
		for _, k := range rv.MapKeys() {
			keys = append(keys, k.String())
		}
		// Raw map iteration order is random; sort for stable trees.
		sort.Strings(keys)
		for _, k := range keys {
			child, err := FromValue(rv.MapIndex(reflect.ValueOf(k).Convert(rv.Type().Key())).Interface())
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", k, err)
			}
			n.keys = append(n.keys, k)
			n.fields[k] = child
		}
		return n, nil
	case reflect.Slice, reflect.Array:
		n := &Node{kind: List, list: make([]*Node, 0, rv.Len())}
		for i := 0; i < rv.Len(); i++ {
			child, err := FromValue(rv.Index(i).Interface())
			if err != nil {
				return nil, fmt.Errorf("index %d: %w", i, err)
			}
			n.list = append(n.list, child)
		}
		return n, nil
	default:
		return &Node{kind: Scalar, scalar: v}, nil
	}
}

// Value converts the tree back to plain Go values (map[string]any, []any,
// scalars, nil).
func (n *Node) Value() any {
	if n == nil {
		return nil
	}
	switch n.kind {
	case Null:
		return nil
	case Scalar:
		return n.scalar
	case List:
		out := make([]any, len(n.list))
		for i, c := range n.list {
			out[i] = c.Value()
		}
		return out
	case Map:
		out := make(map[string]any, len(n.keys))
		for _, k := range n.keys {
			out[k] = n.fields[k].Value()
		}
		return out
	}
	return nil
}

// Options tune the merge.
type Options struct {
	// ListMergeKeys maps a field name to an entry identity key: lists under
	// that field whose entries are maps carrying the identity key merge
	// entry-by-entry instead of being replaced wholesale. Used for pricing
	// component lists keyed by "id".
	ListMergeKeys map[string]string
}

// Merge combines base with a higher-precedence overlay and returns a new
// tree; the inputs are not modified.
func Merge(base, overlay *Node, opts Options) *Node {
	return merge(base, overlay, "", opts)
}

func merge(base, overlay *Node, field string, opts Options) *Node {
	// Absence means "no opinion", never "clear".
	if overlay.Kind() == Null {
		return base
	}
	if base.Kind() == Null {
		return overlay
	}
	if base.kind == Map && overlay.kind == Map {
		n := &Node{kind: Map, fields: make(map[string]*Node, len(base.fields))}
		for _, k := range base.keys {
			n.keys = append(n.keys, k)
			n.fields[k] = merge(base.fields[k], overlay.fields[k], k, opts)
		}
		for _, k := range overlay.keys {
			if _, seen := n.fields[k]; seen {
				continue
			}
			n.keys = append(n.keys, k)
			n.fields[k] = overlay.fields[k]
		}
		return n
	}
	if base.kind == List && overlay.kind == List {
		if idKey, ok := opts.ListMergeKeys[field]; ok {
			if merged := mergeListByKey(base, overlay, idKey, opts); merged != nil {
				return merged
			}
		}
		return overlay
	}
	return overlay
}

// mergeListByKey merges two lists of maps entry-by-entry on an identity key:
// base entries overridden in place, new overlay entries appended in order.
// Returns nil when either list has entries without the identity key.
func mergeListByKey(base, overlay *Node, idKey string, opts Options) *Node {
	index := func(n *Node) (map[string]*Node, []string, bool) {
		byID := make(map[string]*Node, len(n.list))
		order := make([]string, 0, len(n.list))
		for _, entry := range n.list {
			id := entry.Field(idKey)
			if id.Kind() != Scalar {
				return nil, nil, false
			}
			s, ok := id.scalar.(string)
			if !ok {
				return nil, nil, false
			}
			if _, dup := byID[s]; !dup {
				order = append(order, s)
			}
			byID[s] = entry
		}
		return byID, order, true
	}

	baseByID, baseOrder, ok := index(base)
	if !ok {
		return nil
	}
	overlayByID, overlayOrder, ok := index(overlay)
	if !ok {
		return nil
	}

	n := &Node{kind: List}
	for _, id := range baseOrder {
		if over, hit := overlayByID[id]; hit {
			n.list = append(n.list, merge(baseByID[id], over, "", opts))
			continue
		}
		n.list = append(n.list, baseByID[id])
	}
	for _, id := range overlayOrder {
		if _, seen := baseByID[id]; !seen {
			n.list = append(n.list, overlayByID[id])
		}
	}
	return n
}
