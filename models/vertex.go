package models

import (
	"context"

	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/googleai/vertex"

	"github.com/rickchristie/crew"
)

// NewVertex creates a crew.Model backed by a Vertex AI Gemini model.
//
// Client construction failures are fatal: they mean the process is
// misconfigured (wrong project, missing application default credentials)
// and no run can succeed until that is fixed.
func NewVertex(ctx context.Context, project, location, model string) (*LCG, error) {
	if project == "" {
		return nil, crew.Fatal("vertex init", "project id is required")
	}
	if location == "" {
		location = "us-central1"
	}

	llm, err := vertex.New(ctx,
		googleai.WithCloudProject(project),
		googleai.WithCloudLocation(location),
		googleai.WithDefaultModel(model),
	)
	if err != nil {
		return nil, crew.Fatalw("vertex init",
			"failed to create Vertex AI client; check the project id and run `gcloud auth application-default login`",
			err)
	}

	return NewLCG(llm).WithModelName(model), nil
}
