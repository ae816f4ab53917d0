package agent

import (
	"strings"
	"text/template"

	"github.com/rickchristie/crew"
)

// DefaultPromptTemplate is the per-iteration prompt. It renders the role
// instructions, the tool catalog, the protocol format block, the windowed
// chat history, the current query, and the scratchpad so far.
//
// The format block is written in terms of the configured markers so that a
// Loop with overridden markers stays self-consistent without a custom
// template.
const DefaultPromptTemplate = `{{.Instructions}}

You have access to the following tools:

{{.Tools}}

Use the following format:

Question: the input question you must answer
Thought: you should always think about what to do
{{.Markers.Action}} the action to take, must be one of [{{.ToolNames}}]
{{.Markers.ActionInput}} the input to the action
{{.Markers.Observation}} the result of the action
... (this Thought/Action/Action Input/Observation can repeat N times)
Thought: I now know the final answer
{{.Markers.FinalAnswer}} the final answer to the original question

Begin!
{{if .History}}
Previous conversation:
{{.History}}
{{end}}
Question: {{.Query}}
{{.Scratchpad}}`

// promptData is the data passed to the prompt template.
type promptData struct {
	Instructions string
	Tools        string
	ToolNames    string
	Markers      crew.Markers
	History      string
	Query        string
	Scratchpad   string
}

// instructionsData is the data passed to the instructions template. Role
// instructions are themselves templates so a profile can reference the
// current date:
//
//	Today is {{.Time.Today}} ({{.Time.Weekday}}).
type instructionsData struct {
	Time crew.TimeProvider
}

// renderInstructions executes the instructions body as a template.
func renderInstructions(body string, clock crew.TimeProvider) (string, error) {
	tmpl, err := template.New("instructions").Parse(body)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	if err := tmpl.Execute(&sb, instructionsData{Time: clock}); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// renderHistory renders the windowed chat history as "role: content" lines.
func renderHistory(history []crew.Message, window int) string {
	if window > 0 && len(history) > window {
		history = history[len(history)-window:]
	}
	var sb strings.Builder
	for i, m := range history {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(m.Role)
		sb.WriteString(": ")
		sb.WriteString(m.Content)
	}
	return sb.String()
}

// renderScratchpad renders completed steps in iteration order, closing with
// a bare "Thought:" cue for the next completion. Steps recording a recovered
// model failure have no action and render only the observation.
func renderScratchpad(steps []crew.Step, markers crew.Markers) string {
	var sb strings.Builder
	for _, s := range steps {
		if s.Thought != "" {
			sb.WriteString("Thought: ")
			sb.WriteString(s.Thought)
			sb.WriteString("\n")
		}
		if s.Action != "" {
			sb.WriteString(markers.Action)
			sb.WriteString(" ")
			sb.WriteString(s.Action)
			sb.WriteString("\n")
			sb.WriteString(markers.ActionInput)
			sb.WriteString(" ")
			sb.WriteString(s.Input)
			sb.WriteString("\n")
		}
		sb.WriteString(markers.Observation)
		sb.WriteString(" ")
		sb.WriteString(s.Observation)
		sb.WriteString("\n")
	}
	sb.WriteString("Thought:")
	return sb.String()
}
