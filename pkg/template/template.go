// Package template implements {{placeholder}} interpolation against workflow variables.
package template

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var placeholder = regexp.MustCompile(`\{\{\s*([A-Za-z_$][A-Za-z0-9_$]*(?:\.[A-Za-z0-9_$]+)*)\s*\}\}`)

// NeedsInterpolation reports whether s contains at least one placeholder.
func NeedsInterpolation(s string) bool {
	return placeholder.MatchString(s)
}

// Interpolate replaces every {{identifier}} in s with the string form of the matching
// variable. Placeholders naming unknown variables are left untouched.
func Interpolate(s string, vars map[string]any) string {
	if !strings.Contains(s, "{{") {
		return s
	}

	return placeholder.ReplaceAllStringFunc(s, func(match string) string {
		path := placeholder.FindStringSubmatch(match)[1]

		value, ok := Lookup(vars, path)
		if !ok {
			return match
		}

		return Stringify(value)
	})
}

// InterpolateValue applies Interpolate recursively through slices and maps.
func InterpolateValue(v any, vars map[string]any) any {
	switch typed := v.(type) {
	case string:
		return Interpolate(typed, vars)
	case []any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = InterpolateValue(item, vars)
		}

		return out
	case []string:
		out := make([]string, len(typed))
		for i, item := range typed {
			out[i] = Interpolate(item, vars)
		}

		return out
	case []map[string]any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = InterpolateValue(item, vars)
		}

		return out
	case map[string]any:
		out := make(map[string]any, len(typed))
		for k, item := range typed {
			out[k] = InterpolateValue(item, vars)
		}

		return out
	case map[string]string:
		out := make(map[string]string, len(typed))
		for k, item := range typed {
			out[k] = Interpolate(item, vars)
		}

		return out
	default:
		return v
	}
}

// Lookup resolves a dotted path against nested maps. A key containing dots that
// exists verbatim at the top level wins over path traversal.
func Lookup(vars map[string]any, path string) (any, bool) {
	if vars == nil {
		return nil, false
	}

	if value, ok := vars[path]; ok {
		return value, true
	}

	segments := strings.Split(path, ".")

	var current any = vars

	for _, segment := range segments {
		switch node := current.(type) {
		case map[string]any:
			next, ok := node[segment]
			if !ok {
				return nil, false
			}

			current = next
		case map[string]string:
			next, ok := node[segment]
			if !ok {
				return nil, false
			}

			current = next
		case []any:
			index, err := strconv.Atoi(segment)
			if err != nil || index < 0 || index >= len(node) {
				return nil, false
			}

			current = node[index]
		default:
			return nil, false
		}
	}

	return current, true
}

// Stringify renders a variable value the way it appears inside an interpolated string.
func Stringify(v any) string {
	switch typed := v.(type) {
	case nil:
		return "null"
	case string:
		return typed
	case bool:
		return strconv.FormatBool(typed)
	case float64:
		return formatFloat(typed)
	case float32:
		return formatFloat(float64(typed))
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", typed)
	case json.Number:
		return typed.String()
	case fmt.Stringer:
		return typed.String()
	default:
		data, err := json.Marshal(typed)
		if err != nil {
			return fmt.Sprintf("%v", typed)
		}

		return string(data)
	}
}

func formatFloat(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}

	return strconv.FormatFloat(f, 'f', -1, 64)
}
