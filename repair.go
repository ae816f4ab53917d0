package crew

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Repairer recovers a two-field structured payload from a string that is
// supposed to be strict JSON but frequently is not. Models drop closing
// braces, leave newlines unescaped inside string literals, or wrap the
// whole thing in prose; tools whose input is semantically structured (a
// target path plus a content body) use a Repairer instead of failing the
// call outright.
//
// The strategy is a small ordered list of tiers, stopping at the first
// success:
//
//  1. Strict JSON parse. A tier-1 success is returned exactly as parsed.
//  2. Escape bare newlines/tabs inside string literals and append a
//     best-guess closing delimiter if the text looks truncated, then retry
//     the strict parse.
//  3. Tolerant per-field extraction: quoted-key/quoted-value search for each
//     required field independently, accepting a match even if the text as a
//     whole is invalid. Both fields must be recovered; a half-populated
//     structured input is worse than an explicit failure.
//
// Repair returns ok=false when every tier fails. Callers must treat that as
// a recoverable per-call error (an error observation back to the loop), not
// a fault.
type Repairer struct {
	pathField    string
	contentField string

	pathPattern     *regexp.Regexp
	contentPattern  *regexp.Regexp
	contentFallback *regexp.Regexp
}

// NewRepairer creates a Repairer for the given required field names, e.g.
// NewRepairer("file_path", "content").
func NewRepairer(pathField, contentField string) *Repairer {
	quotedKey := func(field string) string {
		return `["']` + regexp.QuoteMeta(field) + `["']\s*:\s*`
	}
	return &Repairer{
		pathField:    pathField,
		contentField: contentField,

		pathPattern: regexp.MustCompile(quotedKey(pathField) + `["']([^"'\\]+)["']`),
		// Greedy-but-bounded first: value runs to a closing quote before the
		// object's closing brace. The fallback accepts a value truncated at
		// end of text.
		contentPattern:  regexp.MustCompile(`(?s)` + quotedKey(contentField) + `["'](.+?)["']\s*}`),
		contentFallback: regexp.MustCompile(`(?s)` + quotedKey(contentField) + `["'](.+)`),
	}
}

// Fields returns the two required field names, path first.
func (r *Repairer) Fields() (path, content string) {
	return r.pathField, r.contentField
}

// Repair runs the tiers in order and returns the recovered field map.
func (r *Repairer) Repair(raw string) (map[string]string, bool) {
	for _, tier := range []func(string) (map[string]string, bool){
		r.strict,
		r.closeAndRetry,
		r.scavenge,
	} {
		if fields, ok := tier(raw); ok {
			return fields, true
		}
	}
	return nil, false
}

// strict is tier 1: the input is valid JSON with both fields present.
func (r *Repairer) strict(raw string) (map[string]string, bool) {
	var parsed map[string]any
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, false
	}
	return r.extract(parsed)
}

// closeAndRetry is tier 2: fix single-character escaping mistakes and a
// missing closing delimiter, then retry the strict parse.
func (r *Repairer) closeAndRetry(raw string) (map[string]string, bool) {
	cleaned := escapeBareControls(strings.TrimSpace(raw))
	if fields, ok := r.strict(cleaned); ok {
		return fields, true
	}
	if !strings.HasSuffix(cleaned, "}") {
		// The model may have truncated mid-string or right after the value.
		if fields, ok := r.strict(cleaned + `"}`); ok {
			return fields, true
		}
		if fields, ok := r.strict(cleaned + "}"); ok {
			return fields, true
		}
	}
	return nil, false
}

// scavenge is tier 3: pattern-match the two required fields independently.
func (r *Repairer) scavenge(raw string) (map[string]string, bool) {
	pathMatch := r.pathPattern.FindStringSubmatch(raw)
	if pathMatch == nil {
		return nil, false
	}

	contentMatch := r.contentPattern.FindStringSubmatch(raw)
	if contentMatch == nil {
		contentMatch = r.contentFallback.FindStringSubmatch(raw)
	}
	if contentMatch == nil {
		return nil, false
	}

	content := strings.TrimRight(contentMatch[1], "\"}' \n\r\t")
	content = unescape(content)

	return map[string]string{
		r.pathField:    pathMatch[1],
		r.contentField: content,
	}, true
}

// extract pulls the two required fields out of a parsed map. Both must be
// present; the path must be a non-empty string.
func (r *Repairer) extract(parsed map[string]any) (map[string]string, bool) {
	pathVal, ok := parsed[r.pathField].(string)
	if !ok || pathVal == "" {
		return nil, false
	}
	contentVal, ok := parsed[r.contentField]
	if !ok {
		return nil, false
	}
	contentStr, ok := contentVal.(string)
	if !ok {
		contentStr = fmt.Sprintf("%v", contentVal)
	}
	return map[string]string{
		r.pathField:    pathVal,
		r.contentField: contentStr,
	}, true
}

// escapeBareControls escapes literal newlines and tabs that appear inside
// JSON string literals, the most common model mistake.
func escapeBareControls(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))

	inString := false
	escaped := false
	for _, c := range s {
		if escaped {
			sb.WriteRune(c)
			escaped = false
			continue
		}
		switch c {
		case '\\':
			sb.WriteRune(c)
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
			sb.WriteRune(c)
		case '\n':
			if inString {
				sb.WriteString(`\n`)
			} else {
				sb.WriteRune(c)
			}
		case '\t':
			if inString {
				sb.WriteString(`\t`)
			} else {
				sb.WriteRune(c)
			}
		default:
			sb.WriteRune(c)
		}
	}
	return sb.String()
}

// unescape reverses the escaping a model applies inside string literals.
func unescape(s string) string {
	s = strings.ReplaceAll(s, `\n`, "\n")
	s = strings.ReplaceAll(s, `\t`, "\t")
	s = strings.ReplaceAll(s, `\\`, `\`)
	s = strings.ReplaceAll(s, `\"`, `"`)
	s = strings.ReplaceAll(s, `\'`, `'`)
	return s
}
