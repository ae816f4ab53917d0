package models

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/rickchristie/crew"
)

// fakeLLM is a scripted llms.Model capturing the resolved call options.
type fakeLLM struct {
	response *llms.ContentResponse
	err      error

	lastMessages []llms.MessageContent
	lastOpts     llms.CallOptions
}

func (f *fakeLLM) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	f.lastMessages = messages
	f.lastOpts = llms.CallOptions{}
	for _, o := range options {
		o(&f.lastOpts)
	}
	return f.response, f.err
}

func (f *fakeLLM) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	resp, err := f.GenerateContent(ctx, []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}, options...)
	if err != nil {
		return "", err
	}
	return resp.Choices[0].Content, nil
}

var _ llms.Model = (*fakeLLM)(nil)

func TestLCGComplete(t *testing.T) {
	llm := &fakeLLM{response: &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: "Final Answer: 42"}},
	}}

	model := NewLCG(llm).WithModelName("gemini-pro")

	completion, err := model.Complete(context.Background(), "what is the answer?", []string{"\nObservation:"})
	require.NoError(t, err)

	assert.Equal(t, "Final Answer: 42", completion.Raw)
	assert.Equal(t, "gemini-pro", completion.Model)
	assert.Equal(t, []string{"\nObservation:"}, llm.lastOpts.StopWords)
	require.Len(t, llm.lastMessages, 1)
}

func TestLCGCompleteNoStop(t *testing.T) {
	llm := &fakeLLM{response: &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: "ok"}},
	}}

	_, err := NewLCG(llm).Complete(context.Background(), "p", nil)
	require.NoError(t, err)
	assert.Empty(t, llm.lastOpts.StopWords)
}

func TestLCGCompleteEmptyChoices(t *testing.T) {
	llm := &fakeLLM{response: &llms.ContentResponse{}}

	completion, err := NewLCG(llm).Complete(context.Background(), "p", nil)
	require.NoError(t, err)
	assert.Equal(t, "", completion.Raw)
	assert.Equal(t, "", crew.Normalize(completion.Raw))
}

func TestLCGCompleteError(t *testing.T) {
	llm := &fakeLLM{err: errors.New("backend unavailable")}

	_, err := NewLCG(llm).Complete(context.Background(), "p", nil)
	require.Error(t, err)
	// Transport errors stay recoverable; the loop retries via observation.
	assert.False(t, crew.IsFatal(err))
}

func TestNewVertexRequiresProject(t *testing.T) {
	_, err := NewVertex(context.Background(), "", "us-central1", "gemini-pro")
	require.Error(t, err)
	assert.True(t, crew.IsFatal(err))
}
