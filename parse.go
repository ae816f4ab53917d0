package crew

import "strings"

// Markers are the protocol strings shared between the prompt and the parser.
// They are the contract that lets the parser find a final answer or a tool
// request inside free text, so a Loop and its prompt template must use the
// same set.
type Markers struct {
	FinalAnswer string
	Action      string
	ActionInput string
	Observation string
}

// DefaultMarkers returns the standard ReAct protocol markers.
func DefaultMarkers() Markers {
	return Markers{
		FinalAnswer: "Final Answer:",
		Action:      "Action:",
		ActionInput: "Action Input:",
		Observation: "Observation:",
	}
}

// DecisionKind discriminates the two parse outcomes.
type DecisionKind string

const (
	// DecisionFinish means the completion carries the final answer.
	DecisionFinish DecisionKind = "finish"

	// DecisionAction means the completion requests a tool invocation.
	DecisionAction DecisionKind = "action"
)

// Decision is the parse result for one model completion: either a final
// answer (Output set) or a tool request (Tool and Input set). It is never
// partially valid.
type Decision struct {
	Kind   DecisionKind
	Output string
	Tool   string
	Input  string
}

// Parser classifies raw model completions. Given identical input text the
// output is identical; parsing has no side effects.
type Parser struct {
	markers Markers
}

// NewParser creates a Parser for the given protocol markers.
func NewParser(markers Markers) *Parser {
	return &Parser{markers: markers}
}

// Parse applies the protocol rules in priority order, first match wins:
//
//  1. A final-answer marker anywhere in the text wins: everything after its
//     last occurrence is the answer.
//  2. Otherwise a pair of action and action-input markers yields a tool
//     request: tool name between the last action marker and the following
//     action-input marker, raw input up to the next observation marker or
//     end of text, with outer quotes stripped.
//  3. Otherwise the model forgot the protocol; its whole reply is treated
//     as the final answer rather than crashing the loop.
//
// Malformed text mid-pattern (an action marker with nothing extractable)
// falls back to rule 3.
func (p *Parser) Parse(text string) Decision {
	if idx := strings.LastIndex(text, p.markers.FinalAnswer); idx >= 0 {
		return Decision{
			Kind:   DecisionFinish,
			Output: strings.TrimSpace(text[idx+len(p.markers.FinalAnswer):]),
		}
	}

	if tool, input, ok := p.parseAction(text); ok {
		return Decision{Kind: DecisionAction, Tool: tool, Input: input}
	}

	return Decision{Kind: DecisionFinish, Output: strings.TrimSpace(text)}
}

// parseAction extracts the tool name and raw input from an action block.
// Returns ok=false when the text is not in the expected grammar.
func (p *Parser) parseAction(text string) (tool, input string, ok bool) {
	actionIdx := strings.LastIndex(text, p.markers.Action)
	if actionIdx < 0 {
		return "", "", false
	}

	rest := text[actionIdx+len(p.markers.Action):]
	inputIdx := strings.Index(rest, p.markers.ActionInput)
	if inputIdx < 0 {
		return "", "", false
	}

	tool = strings.TrimSpace(rest[:inputIdx])
	if tool == "" {
		return "", "", false
	}

	input = rest[inputIdx+len(p.markers.ActionInput):]
	if obsIdx := strings.Index(input, p.markers.Observation); obsIdx >= 0 {
		input = input[:obsIdx]
	}
	input = stripOuterQuotes(strings.TrimSpace(input))

	return tool, input, true
}

// stripOuterQuotes removes one layer of surrounding single or double quotes.
func stripOuterQuotes(s string) string {
	s = strings.Trim(s, `"`)
	return strings.Trim(s, `'`)
}
