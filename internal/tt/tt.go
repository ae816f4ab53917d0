// Package tt provides shared test doubles.
package tt

import (
	"context"
	"sync"

	"github.com/rickchristie/crew"
)

// MockModel is a scripted Model. Completions and errors are returned in the
// order they were queued; it records every prompt it receives.
type MockModel struct {
	mu      sync.Mutex
	queue   []response
	Prompts []string
	Stops   [][]string
}

type response struct {
	raw any
	err error
}

// NewMockModel creates an empty MockModel. A call past the end of the queue
// repeats the last queued response.
func NewMockModel() *MockModel {
	return &MockModel{}
}

// QueueCompletion queues a raw completion payload.
func (m *MockModel) QueueCompletion(raw any) *MockModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, response{raw: raw})
	return m
}

// QueueError queues an error return.
func (m *MockModel) QueueError(err error) *MockModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, response{err: err})
	return m
}

// CallCount returns how many times Complete was called.
func (m *MockModel) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Prompts)
}

// Complete implements crew.Model.
func (m *MockModel) Complete(ctx context.Context, prompt string, stop []string) (*crew.Completion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := len(m.Prompts)
	m.Prompts = append(m.Prompts, prompt)
	m.Stops = append(m.Stops, stop)

	if len(m.queue) == 0 {
		return &crew.Completion{Raw: ""}, nil
	}
	if idx >= len(m.queue) {
		idx = len(m.queue) - 1
	}
	r := m.queue[idx]
	if r.err != nil {
		return nil, r.err
	}
	return &crew.Completion{Raw: r.raw, Model: "mock"}, nil
}

var _ crew.Model = (*MockModel)(nil)

// MockReviewer is a scripted Reviewer recording its inputs.
type MockReviewer struct {
	Verdict *crew.Verdict

	Called     int
	LastTask   string
	LastSteps  []crew.Step
	LastResult string
}

// Review implements crew.Reviewer.
func (m *MockReviewer) Review(ctx context.Context, task string, steps []crew.Step, result string) *crew.Verdict {
	m.Called++
	m.LastTask = task
	m.LastSteps = steps
	m.LastResult = result
	if m.Verdict != nil {
		return m.Verdict
	}
	return &crew.Verdict{Decision: crew.ReviewApproved}
}

var _ crew.Reviewer = (*MockReviewer)(nil)
