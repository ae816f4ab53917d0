// Package fileops provides the file-operation tool set agents run against
// a confined workspace directory.
//
// Every operation resolves its path inside the workspace root; traversal
// outside it is refused. Failures that the model can act on (missing file,
// bad input, unreadable block) are returned as descriptive observation
// strings, never as errors, so the loop feeds them straight back to the
// model.
package fileops

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/rickchristie/crew"
	"github.com/rickchristie/crew/schema"
)

// payloadSchema validates the repaired write/append input.
var payloadSchema = schema.MustCompile(schema.Object(map[string]*schema.Property{
	"file_path": schema.String("Path relative to the workspace root").MinLength(1),
	"content":   schema.String("Content to write"),
}, "file_path", "content"))

// modifyInput is the strict JSON payload for modify_code_block.
type modifyInput struct {
	FilePath     string `json:"file_path"`
	SearchBlock  string `json:"search_block"`
	ReplaceBlock string `json:"replace_block"`
}

// Ops is the file-operation backend for one workspace root.
//
// It tracks which files have been read since construction; modify_code_block
// refuses to touch a file the agent has not read, which stops the model from
// guessing at content it has never seen.
type Ops struct {
	root     string
	repairer *crew.Repairer

	mu   sync.Mutex
	read map[string]bool
}

// New creates an Ops confined to the given root directory.
func New(root string) *Ops {
	return &Ops{
		root:     root,
		repairer: crew.NewRepairer("file_path", "content"),
		read:     make(map[string]bool),
	}
}

// Register adds all file-operation tools to the registry and returns it.
func (o *Ops) Register(reg *crew.Registry) *crew.Registry {
	reg.Register(crew.Tool{
		Name:        "read_file",
		Description: "Read a file. Input: path relative to the workspace root.",
		Handler:     o.ReadFile,
	})
	reg.Register(crew.Tool{
		Name:        "write_file",
		Description: `Create or overwrite a file. Input: JSON {"file_path": "...", "content": "..."}.`,
		Handler:     o.WriteFile,
	})
	reg.Register(crew.Tool{
		Name:        "append_to_file",
		Description: `Append to a file. Input: JSON {"file_path": "...", "content": "..."}.`,
		Handler:     o.AppendToFile,
	})
	reg.Register(crew.Tool{
		Name:        "delete_file",
		Description: "Delete a file. Input: path relative to the workspace root.",
		Handler:     o.DeleteFile,
	})
	reg.Register(crew.Tool{
		Name:        "list_directory",
		Description: "List a directory. Input: path relative to the workspace root, or . for the root.",
		Handler:     o.ListDirectory,
	})
	reg.Register(crew.Tool{
		Name: "modify_code_block",
		Description: `Replace an exact block in a file you have already read. ` +
			`Input: JSON {"file_path": "...", "search_block": "...", "replace_block": "..."}.`,
		Handler: o.ModifyCodeBlock,
	})
	return reg
}

// ReadFile returns the file's content.
func (o *Ops) ReadFile(ctx context.Context, input string) (string, error) {
	rel, abs, errMsg := o.resolve(input)
	if errMsg != "" {
		return errMsg, nil
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Sprintf("error: file not found: %s", rel), nil
		}
		return fmt.Sprintf("error: could not read %s: %v", rel, err), nil
	}

	o.markRead(rel)
	return string(data), nil
}

// WriteFile creates or overwrites a file from a structured payload. The
// payload goes through input repair before validation, so slightly broken
// JSON still succeeds.
func (o *Ops) WriteFile(ctx context.Context, input string) (string, error) {
	fields, errMsg := o.structured(input)
	if errMsg != "" {
		return errMsg, nil
	}

	rel, abs, errMsg := o.resolve(fields["file_path"])
	if errMsg != "" {
		return errMsg, nil
	}

	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return fmt.Sprintf("error: could not create parent directory for %s: %v", rel, err), nil
	}
	content := fields["content"]
	if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
		return fmt.Sprintf("error: could not write %s: %v", rel, err), nil
	}

	// The agent now knows the file's exact content.
	o.markRead(rel)
	return fmt.Sprintf("successfully wrote %d bytes to %s", len(content), rel), nil
}

// AppendToFile appends content to a file, creating it if needed.
func (o *Ops) AppendToFile(ctx context.Context, input string) (string, error) {
	fields, errMsg := o.structured(input)
	if errMsg != "" {
		return errMsg, nil
	}

	rel, abs, errMsg := o.resolve(fields["file_path"])
	if errMsg != "" {
		return errMsg, nil
	}

	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return fmt.Sprintf("error: could not create parent directory for %s: %v", rel, err), nil
	}
	f, err := os.OpenFile(abs, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Sprintf("error: could not open %s: %v", rel, err), nil
	}
	defer f.Close()

	content := fields["content"]
	if _, err := f.WriteString(content); err != nil {
		return fmt.Sprintf("error: could not append to %s: %v", rel, err), nil
	}

	// Appending invalidates whatever content the agent last read.
	o.unmarkRead(rel)
	return fmt.Sprintf("successfully appended %d bytes to %s", len(content), rel), nil
}

// DeleteFile removes a file.
func (o *Ops) DeleteFile(ctx context.Context, input string) (string, error) {
	rel, abs, errMsg := o.resolve(input)
	if errMsg != "" {
		return errMsg, nil
	}

	if err := os.Remove(abs); err != nil {
		if os.IsNotExist(err) {
			return fmt.Sprintf("error: file not found: %s", rel), nil
		}
		return fmt.Sprintf("error: could not delete %s: %v", rel, err), nil
	}

	o.unmarkRead(rel)
	return fmt.Sprintf("successfully deleted %s", rel), nil
}

// ListDirectory lists a directory's entries, directories suffixed with "/".
func (o *Ops) ListDirectory(ctx context.Context, input string) (string, error) {
	if strings.TrimSpace(input) == "" {
		input = "."
	}
	rel, abs, errMsg := o.resolve(input)
	if errMsg != "" {
		return errMsg, nil
	}

	entries, err := os.ReadDir(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Sprintf("error: directory not found: %s", rel), nil
		}
		return fmt.Sprintf("error: could not list %s: %v", rel, err), nil
	}
	if len(entries) == 0 {
		return fmt.Sprintf("%s is empty", rel), nil
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() {
			name += "/"
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, "\n"), nil
}

// ModifyCodeBlock replaces the first occurrence of an exact block. The file
// must have been read through this backend first, and the observation is a
// unified diff of the change.
func (o *Ops) ModifyCodeBlock(ctx context.Context, input string) (string, error) {
	var in modifyInput
	if err := json.Unmarshal([]byte(input), &in); err != nil {
		return fmt.Sprintf(
			`error: invalid input, expected JSON {"file_path": "...", "search_block": "...", "replace_block": "..."}: %v`,
			err), nil
	}
	if in.FilePath == "" || in.SearchBlock == "" {
		return "error: file_path and search_block are required", nil
	}

	rel, abs, errMsg := o.resolve(in.FilePath)
	if errMsg != "" {
		return errMsg, nil
	}

	if !o.wasRead(rel) {
		return fmt.Sprintf("error: you must read %s before modifying it", rel), nil
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Sprintf("error: file not found: %s", rel), nil
		}
		return fmt.Sprintf("error: could not read %s: %v", rel, err), nil
	}

	before := string(data)
	count := strings.Count(before, in.SearchBlock)
	if count == 0 {
		return fmt.Sprintf("error: search_block not found in %s; re-read the file and use an exact block", rel), nil
	}

	after := strings.Replace(before, in.SearchBlock, in.ReplaceBlock, 1)
	if err := os.WriteFile(abs, []byte(after), 0o644); err != nil {
		return fmt.Sprintf("error: could not write %s: %v", rel, err), nil
	}

	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(before),
		B:        difflib.SplitLines(after),
		FromFile: rel + " (before)",
		ToFile:   rel + " (after)",
		Context:  3,
	})
	if err != nil {
		diff = "(diff unavailable)"
	}

	note := ""
	if count > 1 {
		note = fmt.Sprintf(" (search_block occurs %d times; only the first was replaced)", count)
	}
	return fmt.Sprintf("successfully modified %s%s\n%s", rel, note, diff), nil
}

// structured repairs and validates a path+content payload. Returns a
// non-empty message on failure.
func (o *Ops) structured(input string) (map[string]string, string) {
	fields, ok := o.repairer.Repair(input)
	if !ok {
		return nil, `error: invalid input, expected JSON {"file_path": "...", "content": "..."}`
	}
	if err := payloadSchema.ValidateStrings(fields); err != nil {
		return nil, fmt.Sprintf("error: %v", err)
	}
	return fields, ""
}

// resolve confines a path to the workspace root. Returns the cleaned
// relative path, the absolute path, and a non-empty message on refusal.
func (o *Ops) resolve(input string) (rel, abs, errMsg string) {
	p := strings.TrimSpace(input)
	p = strings.Trim(p, `"'`)
	if p == "" {
		return "", "", "error: empty path"
	}
	if filepath.IsAbs(p) {
		return "", "", fmt.Sprintf("error: absolute paths are not allowed: %s", p)
	}
	p = filepath.Clean(p)
	if p != "." && !filepath.IsLocal(p) {
		return "", "", fmt.Sprintf("error: path escapes the workspace root: %s", input)
	}
	return p, filepath.Join(o.root, p), ""
}

func (o *Ops) markRead(rel string) {
	o.mu.Lock()
	o.read[rel] = true
	o.mu.Unlock()
}

func (o *Ops) unmarkRead(rel string) {
	o.mu.Lock()
	delete(o.read, rel)
	o.mu.Unlock()
}

func (o *Ops) wasRead(rel string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.read[rel]
}
