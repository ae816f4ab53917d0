package crew

import (
	"context"
	"fmt"
	"strings"
)

// Handler executes one tool call. The input is the raw string the model
// emitted; the return value becomes the observation fed back to the model.
//
// Business-level failures ("file not found", "invalid input") must be
// returned as descriptive observation strings, not as errors: an error
// return is reserved for truly exceptional conditions, and even those are
// caught at the loop boundary and converted into an error observation.
type Handler func(ctx context.Context, input string) (string, error)

// Tool is a single named capability an agent may invoke. The description
// is used only for prompt construction and has no behavioral effect.
// Tools are immutable once registered.
type Tool struct {
	Name        string
	Description string
	Handler     Handler
}

// Registry maps tool names to handlers for one agent configuration. It is
// also the agent's allow-list: dispatch is an exact, case-sensitive lookup,
// and an unrecognized name is a recoverable error, never a silent no-op.
//
// Registration order is preserved; the tool catalog in the prompt lists
// tools in the order they were registered.
type Registry struct {
	order []string
	tools map[string]Tool
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool to the registry. Returns the registry for chaining.
//
// Panics if the tool has no name, no handler, or a name that is already
// registered; these are programming errors, not runtime conditions.
func (r *Registry) Register(t Tool) *Registry {
	if t.Name == "" {
		panic("crew: tool registered with empty name")
	}
	if t.Handler == nil {
		panic(fmt.Sprintf("crew: tool %q registered with nil handler", t.Name))
	}
	if _, exists := r.tools[t.Name]; exists {
		panic(fmt.Sprintf("crew: %v: %s", ErrDuplicateTool, t.Name))
	}
	r.order = append(r.order, t.Name)
	r.tools[t.Name] = t
	return r
}

// Get returns the tool with the given name. The lookup is case-sensitive.
func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Names returns the tool names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	return len(r.order)
}

// Catalog renders the "name: description" listing used in prompts.
func (r *Registry) Catalog() string {
	var sb strings.Builder
	for i, name := range r.order {
		if i > 0 {
			sb.WriteString("\n")
		}
		t := r.tools[name]
		sb.WriteString(t.Name)
		sb.WriteString(": ")
		sb.WriteString(t.Description)
	}
	return sb.String()
}

// Invoke dispatches one tool call. An unknown name yields ErrUnknownTool
// wrapped with the offending name; a panicking handler is recovered and
// reported as ErrToolPanicked. Both are recoverable: the loop converts
// them into error observations.
func (r *Registry) Invoke(ctx context.Context, name, input string) (out string, err error) {
	t, ok := r.tools[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}

	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: %s: %v", ErrToolPanicked, name, rec)
		}
	}()

	return t.Handler(ctx, input)
}
