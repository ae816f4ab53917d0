// Package models adapts langchaingo-backed LLM clients to the Model
// capability the loop runs against.
package models

import (
	"context"
	"time"

	"github.com/tmc/langchaingo/llms"

	"github.com/rickchristie/crew"
)

// LCG wraps an llms.Model into a crew.Model.
//
// Example usage:
//
//	llm, _ := openai.New(openai.WithToken(apiKey))
//	model := models.NewLCG(llm).WithModelName("gpt-4")
type LCG struct {
	model     llms.Model
	modelName string
	options   []llms.CallOption
}

// NewLCG creates an LCG wrapping the given llms.Model.
func NewLCG(model llms.Model) *LCG {
	return &LCG{model: model}
}

// WithModelName sets the model name reported on completions. Returns the
// model for chaining.
func (m *LCG) WithModelName(name string) *LCG {
	m.modelName = name
	return m
}

// WithCallOptions appends call options applied to every completion, e.g.
// llms.WithTemperature(0.2).
func (m *LCG) WithCallOptions(opts ...llms.CallOption) *LCG {
	m.options = append(m.options, opts...)
	return m
}

// Unwrap returns the underlying llms.Model.
func (m *LCG) Unwrap() llms.Model {
	return m.model
}

// Complete implements crew.Model. The raw payload is the first choice's
// content; providers that return nothing yield an empty string, which the
// normalizer passes through unchanged.
//
// Errors from the underlying client are returned as-is and treated as
// recoverable by the loop; only client construction fails fatally.
func (m *LCG) Complete(ctx context.Context, prompt string, stop []string) (*crew.Completion, error) {
	opts := make([]llms.CallOption, 0, len(m.options)+1)
	opts = append(opts, m.options...)
	if len(stop) > 0 {
		opts = append(opts, llms.WithStopWords(stop))
	}

	start := time.Now()
	resp, err := m.model.GenerateContent(ctx, []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}, opts...)
	duration := time.Since(start)
	if err != nil {
		return nil, err
	}

	var raw any
	if resp != nil && len(resp.Choices) > 0 {
		raw = resp.Choices[0].Content
	} else {
		raw = ""
	}

	return &crew.Completion{
		Raw:      raw,
		Model:    m.modelName,
		Duration: duration,
	}, nil
}

var _ crew.Model = (*LCG)(nil)
