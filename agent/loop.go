// Package agent implements the iterative reasoning loop that drives a
// model against a tool registry until it produces a final answer or runs
// out of budget.
//
// A Loop is configured with builder methods and is safe to reuse across
// runs; all per-run state lives inside Run.
package agent

import (
	"context"
	"fmt"
	"strings"
	"text/template"
	"time"

	"go.uber.org/zap"

	"github.com/rickchristie/crew"
)

// Defaults applied by New.
const (
	DefaultMaxIterations = 15
	DefaultBudget        = 5 * time.Minute
	DefaultHistoryWindow = 5
)

// Loop runs the think/act/observe cycle for one agent configuration.
//
// Per iteration it renders the prompt (instructions, tool catalog, windowed
// history, query, scratchpad), asks the model for a completion with the
// observation marker as a stop sequence, normalizes and parses the reply,
// and either returns the final answer or dispatches the requested tool and
// records the observation as a new scratchpad step.
type Loop struct {
	model         crew.Model
	name          string
	instructions  string
	markers       crew.Markers
	tools         *crew.Registry
	maxIterations int
	budget        time.Duration
	historyWindow int
	reviewer      crew.Reviewer
	reviewTrivial bool
	logger        *zap.Logger
	clock         crew.TimeProvider
	promptText    string
}

// New creates a Loop with default configuration around the given model.
func New(model crew.Model) *Loop {
	return &Loop{
		model:         model,
		name:          "agent",
		markers:       crew.DefaultMarkers(),
		tools:         crew.NewRegistry(),
		maxIterations: DefaultMaxIterations,
		budget:        DefaultBudget,
		historyWindow: DefaultHistoryWindow,
		reviewTrivial: true,
		logger:        zap.NewNop(),
		clock:         crew.NewDefaultTimeProvider(),
		promptText:    DefaultPromptTemplate,
	}
}

// WithName sets the agent name used in logs.
func (l *Loop) WithName(name string) *Loop {
	l.name = name
	return l
}

// WithInstructions sets the role instructions. The body is itself a
// template and may reference {{.Time}}, e.g. {{.Time.Today}}.
func (l *Loop) WithInstructions(instructions string) *Loop {
	l.instructions = instructions
	return l
}

// WithMarkers overrides the protocol markers. The prompt template and the
// parser both follow the override.
func (l *Loop) WithMarkers(m crew.Markers) *Loop {
	l.markers = m
	return l
}

// WithTools sets the tool registry.
func (l *Loop) WithTools(r *crew.Registry) *Loop {
	l.tools = r
	return l
}

// RegisterTool adds one tool to the loop's registry.
func (l *Loop) RegisterTool(t crew.Tool) *Loop {
	l.tools.Register(t)
	return l
}

// WithMaxIterations sets the iteration cap. Values below 1 are ignored.
func (l *Loop) WithMaxIterations(n int) *Loop {
	if n >= 1 {
		l.maxIterations = n
	}
	return l
}

// WithBudget sets the wall-clock budget for one run. Zero disables the
// budget; the iteration cap still applies.
func (l *Loop) WithBudget(d time.Duration) *Loop {
	l.budget = d
	return l
}

// WithHistoryWindow sets how many trailing history messages are included
// in the prompt. Zero includes all of them.
func (l *Loop) WithHistoryWindow(n int) *Loop {
	l.historyWindow = n
	return l
}

// WithReviewer attaches a post-run reviewer. Review failures never fail
// the run.
func (l *Loop) WithReviewer(r crew.Reviewer) *Loop {
	l.reviewer = r
	return l
}

// WithReviewTrivial controls whether runs that used no tools are still
// reviewed. Default true.
func (l *Loop) WithReviewTrivial(review bool) *Loop {
	l.reviewTrivial = review
	return l
}

// WithLogger sets the logger. Default is a nop logger.
func (l *Loop) WithLogger(logger *zap.Logger) *Loop {
	if logger != nil {
		l.logger = logger
	}
	return l
}

// WithTimeProvider sets the clock used for the budget and for
// instructions templates.
func (l *Loop) WithTimeProvider(clock crew.TimeProvider) *Loop {
	if clock != nil {
		l.clock = clock
	}
	return l
}

// WithPromptTemplate overrides the prompt template body. The template is
// parsed at Run time; a body that fails to parse or execute is a
// configuration defect and aborts the run with a fatal error.
func (l *Loop) WithPromptTemplate(body string) *Loop {
	l.promptText = body
	return l
}

// Run executes the loop for one query. The returned result always carries
// a non-empty answer: on iteration cap or budget exhaustion the answer is
// synthesized from the best available partial result and Stopped is set.
//
// Fatal errors (template defects, model client construction failures)
// abort the run; every other failure is converted into an observation and
// the loop continues.
func (l *Loop) Run(ctx context.Context, query string, history []crew.Message) (*crew.RunResult, error) {
	if l.model == nil {
		return nil, crew.Fatal("run", "no model configured")
	}
	if strings.TrimSpace(query) == "" {
		return nil, crew.Fatal("run", "empty query")
	}

	start := l.clock.Now()

	instructions, err := renderInstructions(l.instructions, l.clock)
	if err != nil {
		return nil, crew.Fatalw("prompt", "instructions template failed", err)
	}

	tmpl, err := template.New("prompt").Parse(l.promptText)
	if err != nil {
		return nil, crew.Fatalw("prompt", "prompt template failed to parse", err)
	}

	parser := crew.NewParser(l.markers)
	stop := []string{"\n" + l.markers.Observation}
	historyText := renderHistory(history, l.historyWindow)

	var (
		steps    []crew.Step
		lastText string
	)

	finish := func(answer string, stopped bool, iterations int) *crew.RunResult {
		res := &crew.RunResult{
			Answer:     answer,
			Steps:      steps,
			Stopped:    stopped,
			Iterations: iterations,
			Duration:   l.clock.Now().Sub(start),
		}
		if l.reviewer != nil && (len(steps) > 0 || l.reviewTrivial) {
			res.Verdict = l.reviewer.Review(ctx, query, steps, answer)
		}
		return res
	}

	for i := 1; i <= l.maxIterations; i++ {
		if err := ctx.Err(); err != nil {
			l.logger.Info("run cancelled",
				zap.String("agent", l.name), zap.Int("iteration", i))
			return finish(l.partialAnswer(steps, lastText), true, i-1), nil
		}
		if l.budget > 0 && l.clock.Now().Sub(start) >= l.budget {
			l.logger.Info("budget exhausted",
				zap.String("agent", l.name), zap.Int("iteration", i))
			return finish(l.partialAnswer(steps, lastText), true, i-1), nil
		}

		var promptBuf strings.Builder
		execErr := tmpl.Execute(&promptBuf, promptData{
			Instructions: instructions,
			Tools:        l.tools.Catalog(),
			ToolNames:    strings.Join(l.tools.Names(), ", "),
			Markers:      l.markers,
			History:      historyText,
			Query:        query,
			Scratchpad:   renderScratchpad(steps, l.markers),
		})
		if execErr != nil {
			return nil, crew.Fatalw("prompt", "prompt template failed to execute", execErr)
		}

		completion, err := l.model.Complete(ctx, promptBuf.String(), stop)
		if err != nil {
			if crew.IsFatal(err) {
				return nil, err
			}
			l.logger.Warn("model call failed",
				zap.String("agent", l.name), zap.Int("iteration", i), zap.Error(err))
			steps = append(steps, crew.Step{
				Observation: fmt.Sprintf("model call failed: %v", err),
			})
			continue
		}

		text := crew.Normalize(completion.Raw)
		lastText = text

		decision := parser.Parse(text)
		if decision.Kind == crew.DecisionFinish {
			l.logger.Info("run finished",
				zap.String("agent", l.name), zap.Int("iterations", i))
			return finish(decision.Output, false, i), nil
		}

		observation, err := l.tools.Invoke(ctx, decision.Tool, decision.Input)
		if err != nil {
			observation = fmt.Sprintf("error: %v", err)
			l.logger.Warn("tool failed",
				zap.String("agent", l.name), zap.String("tool", decision.Tool), zap.Error(err))
		}

		steps = append(steps, crew.Step{
			Thought:     thoughtOf(text, l.markers),
			Action:      decision.Tool,
			Input:       decision.Input,
			Observation: observation,
		})
	}

	l.logger.Info("iteration cap reached",
		zap.String("agent", l.name), zap.Int("iterations", l.maxIterations))
	return finish(l.partialAnswer(steps, lastText), true, l.maxIterations), nil
}

// partialAnswer synthesizes a non-empty answer for a stopped run from the
// best available partial result.
func (l *Loop) partialAnswer(steps []crew.Step, lastText string) string {
	if len(steps) > 0 {
		last := steps[len(steps)-1]
		if last.Action != "" {
			return fmt.Sprintf(
				"I could not complete the task within the allowed limits. The last action was %s, which returned: %s",
				last.Action, last.Observation)
		}
		return fmt.Sprintf(
			"I could not complete the task within the allowed limits. Last observation: %s",
			last.Observation)
	}
	if strings.TrimSpace(lastText) != "" {
		return lastText
	}
	return "I could not complete the task within the allowed limits."
}

// thoughtOf extracts the free-text rationale preceding the action marker.
func thoughtOf(text string, markers crew.Markers) string {
	idx := strings.LastIndex(text, markers.Action)
	if idx < 0 {
		return ""
	}
	thought := strings.TrimSpace(text[:idx])
	thought = strings.TrimPrefix(thought, "Thought:")
	return strings.TrimSpace(thought)
}
