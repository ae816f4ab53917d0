package crew

import (
	"context"
	"time"
)

// Model is the text-completion capability the agent loop runs against. It is
// deliberately narrow: one prompt in, one completion out, with optional stop
// sequences. Provider SDK differences live behind implementations (see the
// models package).
//
// The returned Completion's Raw payload may be any of the shapes a remote
// completion API is known to produce (string, list of strings, list of
// keyed records, keyed map, validation-error payload). Callers must pass it
// through [Normalize] before any other processing.
//
// Error contract: a returned error is treated as recoverable (one bad
// completion becomes an observation and the loop continues) unless it is a
// [FatalError], which aborts the run. Implementations should reserve
// FatalError for client construction and credential problems.
type Model interface {
	Complete(ctx context.Context, prompt string, stop []string) (*Completion, error)
}

// Completion is the raw result of one model call.
type Completion struct {
	// Raw is the unnormalized payload as returned by the provider.
	// Always pass through Normalize before parsing.
	Raw any

	// Model optionally identifies the model that produced the completion.
	Model string

	// Duration is how long the call took.
	Duration time.Duration
}

// ModelFunc adapts a plain function to the Model interface.
type ModelFunc func(ctx context.Context, prompt string, stop []string) (*Completion, error)

// Complete implements Model.
func (f ModelFunc) Complete(ctx context.Context, prompt string, stop []string) (*Completion, error) {
	return f(ctx, prompt, stop)
}
