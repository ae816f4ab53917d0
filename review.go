package crew

import "context"

// ReviewDecision is the outcome of a lead review pass.
type ReviewDecision string

const (
	ReviewApproved         ReviewDecision = "approved"
	ReviewNeedsImprovement ReviewDecision = "needs_improvement"
	ReviewRejected         ReviewDecision = "rejected"

	// ReviewError means the review call itself failed. The review rubric is
	// advisory, not a gate: a failed review never fails the run.
	ReviewError ReviewDecision = "error"
)

// Verdict is the structured result of a review pass. Produced fresh per
// call; the core does not persist it.
type Verdict struct {
	Decision    ReviewDecision `json:"decision"`
	Summary     string         `json:"summary"`
	Comments    []string       `json:"comments"`
	Issues      []string       `json:"issues"`
	Suggestions []string       `json:"suggestions"`
}

// Reviewer is the optional secondary LLM pass consuming a completed run's
// transcript. Implementations must be non-fatal by construction: any
// internal failure is downgraded to a ReviewError verdict instead of an
// error return, which is why the interface has none.
type Reviewer interface {
	Review(ctx context.Context, task string, steps []Step, result string) *Verdict
}
