package operation

import (
	"strconv"
	"strings"
)

// Params is the raw parameter object of one operation request, as decoded
// from JSON. Values are the usual encoding/json shapes: string, float64,
// bool, nil, []any, map[string]any.
type Params map[string]any

// Clone returns a deep copy. Normalization always works on a copy so the
// caller's object is never mutated.
func (p Params) Clone() Params {
	if p == nil {
		return Params{}
	}
	return Params(cloneMap(p))
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMap(t)
	case Params:
		return cloneMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

// Get resolves a dot path ("owner.key_auths.0") against the tree. Numeric
// segments index into slices. The boolean reports whether the full path
// exists.
func Get(p Params, path string) (any, bool) {
	var current any = map[string]any(p)
	for _, segment := range strings.Split(path, ".") {
		switch node := current.(type) {
		case map[string]any:
			v, ok := node[segment]
			if !ok {
				return nil, false
			}
			current = v
		case Params:
			v, ok := node[segment]
			if !ok {
				return nil, false
			}
			current = v
		case []any:
			idx, err := strconv.Atoi(segment)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, false
			}
			current = node[idx]
		default:
			return nil, false
		}
	}
	return current, true
}

// Set writes a value at a dot path, creating intermediate containers as
// needed. A numeric segment targets a slice: an existing index is replaced,
// an index equal to the length appends. Out-of-range indices are ignored
// rather than padded.
func Set(p Params, path string, value any) {
	segments := strings.Split(path, ".")
	setPath(map[string]any(p), segments, value)
}

func setPath(node any, segments []string, value any) {
	segment := segments[0]
	last := len(segments) == 1

	switch container := node.(type) {
	case map[string]any:
		if last {
			container[segment] = value
			return
		}
		child, ok := container[segment]
		if !ok || !isContainer(child) {
			child = newContainer(segments[1])
			container[segment] = child
		}
		// Slices need write-back since append may reallocate.
		if slice, ok := child.([]any); ok {
			container[segment] = setSlice(slice, segments[1:], value)
			return
		}
		setPath(child, segments[1:], value)
	case []any:
		// Only reachable from the root, which is always a map.
	}
}

func setSlice(slice []any, segments []string, value any) []any {
	idx, err := strconv.Atoi(segments[0])
	if err != nil || idx < 0 || idx > len(slice) {
		return slice
	}
	if idx == len(slice) {
		if len(segments) == 1 {
			return append(slice, value)
		}
		child := newContainer(segments[1])
		slice = append(slice, child)
	}
	if len(segments) == 1 {
		slice[idx] = value
		return slice
	}
	child := slice[idx]
	if !isContainer(child) {
		child = newContainer(segments[1])
		slice[idx] = child
	}
	if inner, ok := child.([]any); ok {
		slice[idx] = setSlice(inner, segments[1:], value)
		return slice
	}
	setPath(child, segments[1:], value)
	return slice
}

func isContainer(v any) bool {
	switch v.(type) {
	case map[string]any, []any:
		return true
	default:
		return false
	}
}

func newContainer(nextSegment string) any {
	if _, err := strconv.Atoi(nextSegment); err == nil {
		return []any{}
	}
	return map[string]any{}
}

// isFalsy mirrors JavaScript truthiness for parameter presence checks:
// nil, empty string, false, numeric zero and empty collections all count
// as absent.
func isFalsy(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case bool:
		return !t
	case float64:
		return t == 0
	case float32:
		return t == 0
	case int:
		return t == 0
	case int64:
		return t == 0
	case []any:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	case Params:
		return len(t) == 0
	default:
		return false
	}
}
