package crew

import (
	"fmt"
	"strings"
)

// textKeys are the known payload keys, checked in priority order, when a
// completion arrives as a keyed record instead of plain text.
var textKeys = []string{"text", "content", "output"}

// Normalize forces a heterogeneous completion payload into a single string.
// Remote completion APIs are known to return plain strings, lists of
// strings, lists of keyed records, keyed maps, or error payloads whose
// message contains the failed value; the parser only ever sees the result
// of this function.
//
// Rules:
//   - nil becomes "".
//   - strings pass through unchanged (Normalize is idempotent).
//   - lists are normalized element-wise and joined with a single space,
//     preserving order.
//   - maps reduce to the first known key among "text", "content", "output";
//     if none is present, the whole map is rendered.
//   - errors reduce to their message; everything else is rendered with %v.
//
// Normalize never panics: any internal failure yields an explicit
// "processing error" marker rather than aborting the loop on a transient
// upstream formatting quirk.
func Normalize(raw any) (out string) {
	defer func() {
		if r := recover(); r != nil {
			out = fmt.Sprintf("processing error: %v", r)
		}
	}()
	return normalize(raw)
}

func normalize(raw any) string {
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		return v
	case []string:
		return strings.Join(v, " ")
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, normalize(item))
		}
		return strings.Join(parts, " ")
	case []map[string]any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, normalize(item))
		}
		return strings.Join(parts, " ")
	case map[string]any:
		for _, key := range textKeys {
			if val, ok := v[key]; ok {
				return normalize(val)
			}
		}
		return fmt.Sprintf("%v", v)
	case map[string]string:
		for _, key := range textKeys {
			if val, ok := v[key]; ok {
				return val
			}
		}
		return fmt.Sprintf("%v", v)
	case error:
		return v.Error()
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}
