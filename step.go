package crew

import "time"

// Step is one completed loop iteration. The observation is always populated
// before a step is recorded; no step ever represents a pending tool call.
// The ordered step slice forms the scratchpad, which is append-only within
// a single run and discarded when the run ends — only the final answer is
// persisted to session history.
type Step struct {
	// Thought is the model's free-text rationale preceding the action.
	// Informational only.
	Thought string

	// Action is the requested tool name. Empty for steps that record a
	// recovered model-call failure rather than a tool dispatch.
	Action string

	// Input is the raw action input exactly as the model emitted it.
	Input string

	// Observation is what the tool (or the error path) returned.
	Observation string
}

// RunResult is what a loop run yields. A caller always gets either a
// completed answer, possibly flagged as budget-stopped, or a fatal error
// from Run itself — never an empty response.
type RunResult struct {
	// Answer is the final output. When Stopped is true it is synthesized
	// from the best available partial result; it is never empty.
	Answer string

	// Steps is the scratchpad, in iteration order.
	Steps []Step

	// Stopped is true when the run ended on the iteration cap or wall-clock
	// budget rather than on a final answer.
	Stopped bool

	// Iterations is the number of loop iterations executed.
	Iterations int

	// Duration is the total wall-clock time spent in Run.
	Duration time.Duration

	// Verdict is the lead review, when a reviewer is configured. A review
	// failure is recorded as a ReviewError verdict; it never fails the run.
	Verdict *Verdict
}

// Message is one entry of a session's chat history.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)
