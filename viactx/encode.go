package viactx

import "strconv"

// Nest turns a flat map whose keys encode hierarchy with "." (spec.md
// §4.7, "Signal encoding") into a nested map[string]any, e.g.
// {"a.b": 1, "a.c": 2, "x": 3} -> {"a": {"b": 1, "c": 2}, "x": 3}.
//
// A nested map whose keys are exactly "0".."n-1" is converted to a
// []any list value rather than left as an object, per the array
// clarification in spec.md §4.7 and §9 ("the JSON distinction ... is
// not ambiguous; the 'associative array' heuristic in the source ...
// should not be reproduced" — here we only ever make that call once
// per generated node, from keys we control).
func Nest(flat map[string]any) map[string]any {
	root := make(map[string]any)
	for key, value := range flat {
		setPath(root, splitPath(key), value)
	}
	return arrayify(root).(map[string]any)
}

func splitPath(key string) []string {
	var parts []string
	start := 0
	for i := 0; i < len(key); i++ {
		if key[i] == '.' {
			parts = append(parts, key[start:i])
			start = i + 1
		}
	}
	parts = append(parts, key[start:])
	return parts
}

func setPath(node map[string]any, path []string, value any) {
	if len(path) == 1 {
		node[path[0]] = value
		return
	}
	child, ok := node[path[0]].(map[string]any)
	if !ok {
		child = make(map[string]any)
		node[path[0]] = child
	}
	setPath(child, path[1:], value)
}

// arrayify walks a value produced by Nest and replaces every
// map[string]any whose keys are exactly "0".."n-1" with the
// corresponding []any.
func arrayify(value any) any {
	m, ok := value.(map[string]any)
	if !ok {
		return value
	}
	for k, v := range m {
		m[k] = arrayify(v)
	}
	if list, ok := asIndexList(m); ok {
		return list
	}
	return m
}

func asIndexList(m map[string]any) ([]any, bool) {
	if len(m) == 0 {
		return nil, false
	}
	out := make([]any, len(m))
	for k, v := range m {
		n, err := strconv.Atoi(k)
		if err != nil || n < 0 || n >= len(m) {
			return nil, false
		}
		out[n] = v
	}
	return out, true
}

// Flatten reverses Nest: a nested value (maps and/or slices, as
// decoded from JSON) is walked into a flat map keyed by dotted paths.
// Slices are flattened using their numeric index as the path segment,
// which is exactly what Nest needs to reconstruct them.
func Flatten(value any) map[string]any {
	out := make(map[string]any)
	flattenInto(out, "", value)
	return out
}

func flattenInto(out map[string]any, prefix string, value any) {
	switch v := value.(type) {
	case map[string]any:
		if len(v) == 0 && prefix != "" {
			out[prefix] = v
			return
		}
		for k, child := range v {
			flattenInto(out, joinPath(prefix, k), child)
		}
	case []any:
		if len(v) == 0 && prefix != "" {
			out[prefix] = v
			return
		}
		for i, child := range v {
			flattenInto(out, joinPath(prefix, strconv.Itoa(i)), child)
		}
	default:
		if prefix != "" {
			out[prefix] = v
		}
	}
}

func joinPath(prefix, segment string) string {
	if prefix == "" {
		return segment
	}
	return prefix + "." + segment
}
