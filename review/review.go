// Package review implements the lead review pass: a second model call that
// scores a completed run against a fixed rubric.
//
// The verdict is advisory. A review that cannot be produced, because the
// model call failed or the reply is unparseable, degrades to an error or
// default verdict; it never fails the run it reviews.
package review

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/rickchristie/crew"
)

// inputPreview caps how much of each action input is quoted in the rubric
// prompt.
const inputPreview = 100

const rubricTemplate = `You are a lead reviewer. Assess the work below.

Task:
%s

Actions taken:
%s

Result:
%s

Respond using exactly this format:

Decision: APPROVED or NEEDS_IMPROVEMENT or REJECTED
Summary: one-sentence assessment
Comments: comma-separated remarks, or none
Issues: comma-separated problems found, or none
Suggestions: comma-separated improvements, or none`

// Reviewer produces verdicts from a model. Safe for concurrent use.
type Reviewer struct {
	model  crew.Model
	logger *zap.Logger
}

// New creates a Reviewer around the given model.
func New(model crew.Model) *Reviewer {
	return &Reviewer{model: model, logger: zap.NewNop()}
}

// WithLogger sets the logger. Default is a nop logger.
func (r *Reviewer) WithLogger(logger *zap.Logger) *Reviewer {
	if logger != nil {
		r.logger = logger
	}
	return r
}

// Review runs one rubric completion over the finished run and parses the
// reply into a Verdict. An empty step slice is reviewed as-is; the rubric
// notes that no actions were taken. Any model failure yields a
// ReviewError verdict instead of an error.
func (r *Reviewer) Review(ctx context.Context, task string, steps []crew.Step, result string) *crew.Verdict {
	prompt := fmt.Sprintf(rubricTemplate, task, summarizeSteps(steps), result)

	completion, err := r.model.Complete(ctx, prompt, nil)
	if err != nil {
		r.logger.Warn("review call failed", zap.Error(err))
		return &crew.Verdict{
			Decision: crew.ReviewError,
			Summary:  fmt.Sprintf("review unavailable: %v", err),
		}
	}

	return parseVerdict(crew.Normalize(completion.Raw))
}

var _ crew.Reviewer = (*Reviewer)(nil)

// summarizeSteps renders the scratchpad for the rubric prompt, one line per
// action with a truncated input preview.
func summarizeSteps(steps []crew.Step) string {
	if len(steps) == 0 {
		return "(no actions were taken)"
	}
	var sb strings.Builder
	for i, s := range steps {
		if i > 0 {
			sb.WriteString("\n")
		}
		name := s.Action
		if name == "" {
			name = "(model failure)"
		}
		fmt.Fprintf(&sb, "%d. %s(%s) -> %s", i+1, name, truncate(s.Input, inputPreview), s.Observation)
	}
	return sb.String()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

// parseVerdict extracts the rubric fields line by line. Unknown lines are
// ignored; a missing or unrecognizable decision defaults to approved.
func parseVerdict(text string) *crew.Verdict {
	v := &crew.Verdict{Decision: crew.ReviewApproved}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case hasPrefixFold(line, "Decision:"):
			v.Decision = parseDecision(line)
		case hasPrefixFold(line, "Summary:"):
			v.Summary = strings.TrimSpace(line[len("Summary:"):])
		case hasPrefixFold(line, "Comments:"):
			v.Comments = splitList(line[len("Comments:"):])
		case hasPrefixFold(line, "Issues:"):
			v.Issues = splitList(line[len("Issues:"):])
		case hasPrefixFold(line, "Suggestions:"):
			v.Suggestions = splitList(line[len("Suggestions:"):])
		}
	}
	return v
}

// parseDecision matches the decision keywords case-insensitively, as
// substrings; models often decorate the keyword with markdown or prose.
func parseDecision(line string) crew.ReviewDecision {
	upper := strings.ToUpper(line)
	switch {
	case strings.Contains(upper, "APPROVED"):
		return crew.ReviewApproved
	case strings.Contains(upper, "NEEDS_IMPROVEMENT"),
		strings.Contains(upper, "NEEDS IMPROVEMENT"):
		return crew.ReviewNeedsImprovement
	case strings.Contains(upper, "REJECTED"):
		return crew.ReviewRejected
	default:
		return crew.ReviewApproved
	}
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

// splitList splits a comma-separated rubric list, dropping empties and the
// literal "none".
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" || strings.EqualFold(part, "none") {
			continue
		}
		out = append(out, part)
	}
	return out
}
