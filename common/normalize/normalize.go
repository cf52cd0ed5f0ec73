// Package normalize turns the heterogeneous values historically stored in
// a project's image-reference columns into a canonical ordered list.
//
// The record store may hold a native array, a JSON-encoded array string,
// a comma separated string, or null. Every reader compares values only
// after passing them through Normalize.
package normalize

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// Normalize returns value as an ordered list of strings. It never returns
// nil and never panics; unrecognized input yields an empty list.
func Normalize(value any) []string {
	switch v := value.(type) {
	case nil:
		return []string{}
	case []string:
		out := make([]string, len(v))
		copy(out, v)
		return out
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := element(item); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		return fromString(v)
	case *string:
		if v == nil {
			return []string{}
		}
		return fromString(*v)
	case []byte:
		return fromString(string(v))
	default:
		return []string{}
	}
}

func element(item any) (string, bool) {
	switch e := item.(type) {
	case nil:
		return "", false
	case string:
		return e, true
	case bool, float64, float32, int, int32, int64, uint, uint32, uint64:
		return fmt.Sprint(e), true
	default:
		return "", false
	}
}

func fromString(s string) []string {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return []string{}
	}

	if gjson.Valid(trimmed) {
		parsed := gjson.Parse(trimmed)
		switch {
		case parsed.IsArray():
			out := []string{}
			parsed.ForEach(func(_, item gjson.Result) bool {
				switch item.Type {
				case gjson.String, gjson.Number, gjson.True, gjson.False:
					out = append(out, item.String())
				}
				return true
			})
			return out
		case parsed.Type == gjson.Null:
			return []string{}
		case parsed.Type == gjson.String:
			// double-encoded value, e.g. "\"[\\\"a.jpg\\\"]\""
			return fromString(parsed.String())
		default:
			// objects, numbers and booleans are not image lists
			return []string{}
		}
	}

	out := []string{}
	for _, part := range strings.Split(trimmed, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
