package crew

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepair(t *testing.T) {
	type input struct {
		raw string
	}

	type expected struct {
		ok     bool
		fields map[string]string
	}

	tests := []struct {
		name     string
		input    input
		expected expected
	}{
		{
			name:  "tier 1 strict json",
			input: input{raw: `{"file_path": "a.txt", "content": "hello"}`},
			expected: expected{ok: true, fields: map[string]string{
				"file_path": "a.txt",
				"content":   "hello",
			}},
		},
		{
			name:  "tier 1 stringifies non-string content",
			input: input{raw: `{"file_path": "n.txt", "content": 42}`},
			expected: expected{ok: true, fields: map[string]string{
				"file_path": "n.txt",
				"content":   "42",
			}},
		},
		{
			name:  "tier 2 escapes bare newline in string literal",
			input: input{raw: "{\"file_path\": \"a.txt\", \"content\": \"line1\nline2\"}"},
			expected: expected{ok: true, fields: map[string]string{
				"file_path": "a.txt",
				"content":   "line1\nline2",
			}},
		},
		{
			name:  "tier 2 closes truncated object",
			input: input{raw: `{"file_path": "a.txt", "content": "trunc`},
			expected: expected{ok: true, fields: map[string]string{
				"file_path": "a.txt",
				"content":   "trunc",
			}},
		},
		{
			name: "tier 3 scavenges from surrounding prose",
			input: input{raw: `I will write the file now: ` +
				`{"file_path": "b.txt", "content": "data here"} as requested`},
			expected: expected{ok: true, fields: map[string]string{
				"file_path": "b.txt",
				"content":   "data here",
			}},
		},
		{
			name:  "tier 3 unescapes sequences",
			input: input{raw: `oops {"file_path": 'c.txt', "content": 'x\ny'} trailing`},
			expected: expected{ok: true, fields: map[string]string{
				"file_path": "c.txt",
				"content":   "x\ny",
			}},
		},
		{
			name:     "path alone is not enough",
			input:    input{raw: `something "file_path": "only.txt" and nothing else`},
			expected: expected{ok: false},
		},
		{
			name:     "content alone is not enough",
			input:    input{raw: `"content": "orphan value"}`},
			expected: expected{ok: false},
		},
		{
			name:     "empty path fails",
			input:    input{raw: `{"file_path": "", "content": "x"}`},
			expected: expected{ok: false},
		},
		{
			name:     "free text fails every tier",
			input:    input{raw: "please just write the file for me"},
			expected: expected{ok: false},
		},
		{
			name:     "empty input fails",
			input:    input{raw: ""},
			expected: expected{ok: false},
		},
	}

	r := NewRepairer("file_path", "content")
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fields, ok := r.Repair(tc.input.raw)

			assert.Equal(t, tc.expected.ok, ok)
			if tc.expected.ok {
				assert.Equal(t, tc.expected.fields, fields)
			} else {
				assert.Nil(t, fields)
			}
		})
	}
}

func TestRepairTierMonotonicity(t *testing.T) {
	// Valid JSON must come back exactly as parsed, untouched by the
	// looser tiers.
	r := NewRepairer("file_path", "content")

	fields, ok := r.Repair(`{"file_path": "a.txt", "content": "has \\n escaped and }brace{"}`)
	require.True(t, ok)
	assert.Equal(t, `has \n escaped and }brace{`, fields["content"])
}

func TestRepairCustomFieldNames(t *testing.T) {
	r := NewRepairer("target", "body")
	path, content := r.Fields()
	assert.Equal(t, "target", path)
	assert.Equal(t, "body", content)

	fields, ok := r.Repair(`{"target": "x.md", "body": "text"}`)
	require.True(t, ok)
	assert.Equal(t, "x.md", fields["target"])
	assert.Equal(t, "text", fields["body"])

	_, ok = r.Repair(`{"file_path": "x.md", "content": "text"}`)
	assert.False(t, ok)
}

func TestEscapeBareControls(t *testing.T) {
	type input struct {
		s string
	}

	type expected struct {
		out string
	}

	tests := []struct {
		name     string
		input    input
		expected expected
	}{
		{
			name:     "newline inside string literal escaped",
			input:    input{s: "{\"a\": \"x\ny\"}"},
			expected: expected{out: `{"a": "x\ny"}`},
		},
		{
			name:     "newline outside string literal kept",
			input:    input{s: "{\n\"a\": \"x\"\n}"},
			expected: expected{out: "{\n\"a\": \"x\"\n}"},
		},
		{
			name:     "tab inside string literal escaped",
			input:    input{s: "{\"a\": \"x\ty\"}"},
			expected: expected{out: `{"a": "x\ty"}`},
		},
		{
			name:     "already escaped sequences untouched",
			input:    input{s: `{"a": "x\ny"}`},
			expected: expected{out: `{"a": "x\ny"}`},
		},
		{
			name:     "escaped quote does not end the string",
			input:    input{s: "{\"a\": \"x\\\"\ny\"}"},
			expected: expected{out: `{"a": "x\"\ny"}`},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected.out, escapeBareControls(tc.input.s))
		})
	}
}
