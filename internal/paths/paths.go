// Package paths implements path-addressed mutation of nested JSON-compatible
// values. A path is a dot-separated sequence of segments where each segment is
// an object key optionally followed by one or more [n] array indices, e.g.
// "partes[0].nome" or "imovel.endereco_completo".
package paths

import (
	"regexp"
	"strconv"
)

// step is a single resolved path step: either an object key or an array index.
type step struct {
	key     string
	index   int
	isIndex bool
}

var segmentRe = regexp.MustCompile(`([^\[\]]+)|\[(\d+)\]`)

// parsePath tokenizes a path expression into ordered steps. Dot-segments are
// scanned left to right; each identifier becomes a key step and each [n]
// suffix becomes an index step. An empty or unparseable path yields no steps.
func parsePath(path string) []step {
	var steps []step
	start := 0
	for i := 0; i <= len(path); i++ {
		if i < len(path) && path[i] != '.' {
			continue
		}
		chunk := path[start:i]
		start = i + 1
		if chunk == "" {
			continue
		}
		for _, m := range segmentRe.FindAllStringSubmatch(chunk, -1) {
			if m[1] != "" {
				steps = append(steps, step{key: m[1]})
			} else if m[2] != "" {
				idx, err := strconv.Atoi(m[2])
				if err != nil {
					continue
				}
				steps = append(steps, step{index: idx, isIndex: true})
			}
		}
	}
	return steps
}

// Valid reports whether path parses to at least one step. Callers must reject
// empty paths before mutating state.
func Valid(path string) bool {
	return len(parsePath(path)) > 0
}

// Clone returns a deep copy of a JSON-compatible value. Maps and slices are
// copied recursively; scalars are returned as-is.
func Clone(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = Clone(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = Clone(val)
		}
		return out
	default:
		return v
	}
}

// Set returns a deep copy of root with value assigned at the location the
// path resolves to. Missing intermediate containers are created on the way
// down: an array when the following step is an index, an object otherwise.
// Arrays are grown with nil elements as needed to reach an index. A nil root
// is treated as an empty object.
//
// Shape mismatches (a step addresses an array but the existing value is not
// one, or an object key lands on a non-object) return the unmodified copy
// rather than an error. The caller's root is never mutated.
func Set(root any, path string, value any) any {
	steps := parsePath(path)

	if root == nil {
		root = map[string]any{}
	}
	clone := Clone(root)
	if len(steps) == 0 {
		return clone
	}

	out, ok := assign(clone, steps, value)
	if !ok {
		return clone
	}
	return out
}

// assign walks steps into cur and places value at the terminal step. It
// returns the (possibly re-allocated) container and whether the assignment
// happened. Containers are only written after the deeper levels succeed, so a
// mismatch partway down leaves the tree untouched.
func assign(cur any, steps []step, value any) (any, bool) {
	st := steps[0]

	if st.isIndex {
		arr, ok := cur.([]any)
		if !ok {
			return nil, false
		}
		for len(arr) <= st.index {
			arr = append(arr, nil)
		}
		if len(steps) == 1 {
			arr[st.index] = value
			return arr, true
		}
		child := arr[st.index]
		if child == nil {
			child = emptyContainer(steps[1])
		}
		done, ok := assign(child, steps[1:], value)
		if !ok {
			return nil, false
		}
		arr[st.index] = done
		return arr, true
	}

	obj, ok := cur.(map[string]any)
	if !ok {
		return nil, false
	}
	if len(steps) == 1 {
		obj[st.key] = value
		return obj, true
	}
	child := obj[st.key]
	if child == nil {
		child = emptyContainer(steps[1])
	}
	done, ok := assign(child, steps[1:], value)
	if !ok {
		return nil, false
	}
	obj[st.key] = done
	return obj, true
}

// emptyContainer picks the container type a missing step needs based on the
// step that follows it.
func emptyContainer(next step) any {
	if next.isIndex {
		return []any{}
	}
	return map[string]any{}
}
