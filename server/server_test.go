package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rickchristie/crew"
	"github.com/rickchristie/crew/internal/tt"
	"github.com/rickchristie/crew/roles"
	"github.com/rickchristie/crew/session"
)

func testProfiles() map[string]roles.Profile {
	return map[string]roles.Profile{
		"developer": {
			Name:          "developer",
			Instructions:  "You are a developer.",
			Tools:         []string{"echo"},
			MaxIterations: 5,
			Budget:        roles.Duration(time.Minute),
			Review:        true,
		},
	}
}

func testCatalog() *crew.Registry {
	return crew.NewRegistry().Register(crew.Tool{
		Name:        "echo",
		Description: "Echoes input",
		Handler: func(ctx context.Context, input string) (string, error) {
			return input, nil
		},
	})
}

func newTestServer(model crew.Model) (*Server, *session.Store) {
	store := session.New(time.Hour)
	srv := New(model, store, testProfiles(), testCatalog())
	return srv, store
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any, headers map[string]string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var decoded map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	}
	return rec, decoded
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(tt.NewMockModel())
	rec, body := doJSON(t, srv.Handler(), http.MethodGet, "/health", nil, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
}

func TestSessionLifecycle(t *testing.T) {
	srv, _ := newTestServer(tt.NewMockModel())
	h := srv.Handler()

	rec, body := doJSON(t, h, http.MethodPost, "/session/create", nil, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	id := body["session_id"].(string)
	require.NotEmpty(t, id)

	rec, body = doJSON(t, h, http.MethodGet, "/session/"+id, nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, id, body["id"])

	rec, body = doJSON(t, h, http.MethodGet, "/sessions", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), body["count"])

	rec, _ = doJSON(t, h, http.MethodPost, "/session/"+id+"/clear", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = doJSON(t, h, http.MethodDelete, "/session/"+id, nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = doJSON(t, h, http.MethodGet, "/session/"+id, nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSessionNotFound(t *testing.T) {
	srv, _ := newTestServer(tt.NewMockModel())
	h := srv.Handler()

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/session/nope"},
		{http.MethodGet, "/session/nope/history"},
		{http.MethodPost, "/session/nope/clear"},
		{http.MethodDelete, "/session/nope"},
	} {
		rec, _ := doJSON(t, h, tc.method, tc.path, nil, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code, "%s %s", tc.method, tc.path)
	}
}

func TestTaskRun(t *testing.T) {
	model := tt.NewMockModel().
		QueueCompletion("Thought: echo it.\nAction: echo\nAction Input: \"hi\"").
		QueueCompletion("Final Answer: done")
	srv, _ := newTestServer(model)

	rec, body := doJSON(t, srv.Handler(), http.MethodPost, "/task", taskRequest{
		Role: "developer",
		Task: "echo hi",
	}, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "done", body["answer"])
	assert.Equal(t, false, body["stopped"])
	assert.Equal(t, float64(2), body["iterations"])
	steps := body["steps"].([]any)
	require.Len(t, steps, 1)
	assert.Equal(t, "echo", steps[0].(map[string]any)["action"])
}

func TestTaskWithSessionHistory(t *testing.T) {
	model := tt.NewMockModel().QueueCompletion("Final Answer: remembered")
	srv, store := newTestServer(model)
	h := srv.Handler()

	id := store.Create()
	store.Append(id, crew.RoleUser, "earlier question")

	rec, body := doJSON(t, h, http.MethodPost, "/task", taskRequest{
		Role:      "developer",
		Task:      "follow up",
		SessionID: id,
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, id, body["session_id"])

	// The prior history went into the prompt.
	assert.Contains(t, model.Prompts[0], "earlier question")

	// The turn was persisted.
	msgs, ok := store.History(id)
	require.True(t, ok)
	require.Len(t, msgs, 3)
	assert.Equal(t, "follow up", msgs[1].Content)
	assert.Equal(t, "remembered", msgs[2].Content)
}

func TestTaskSessionIDHeader(t *testing.T) {
	model := tt.NewMockModel().QueueCompletion("Final Answer: ok")
	srv, store := newTestServer(model)

	id := store.Create()
	rec, body := doJSON(t, srv.Handler(), http.MethodPost, "/task", taskRequest{
		Role: "developer",
		Task: "do it",
	}, map[string]string{"X-Session-ID": id})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, id, body["session_id"])
}

func TestTaskValidation(t *testing.T) {
	srv, _ := newTestServer(tt.NewMockModel())
	h := srv.Handler()

	rec, body := doJSON(t, h, http.MethodPost, "/task", taskRequest{Role: "developer"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, body["error"], "task is required")

	rec, body = doJSON(t, h, http.MethodPost, "/task", taskRequest{Role: "astronaut", Task: "x"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, body["error"], "unknown role")

	rec, _ = doJSON(t, h, http.MethodPost, "/task", taskRequest{
		Role: "developer", Task: "x", SessionID: "nope",
	}, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTaskReview(t *testing.T) {
	model := tt.NewMockModel().QueueCompletion("Final Answer: reviewed work")
	srv, _ := newTestServer(model)
	reviewer := &tt.MockReviewer{Verdict: &crew.Verdict{
		Decision: crew.ReviewNeedsImprovement,
		Summary:  "add tests",
	}}
	srv.WithReviewer(reviewer)

	rec, body := doJSON(t, srv.Handler(), http.MethodPost, "/task", taskRequest{
		Role: "developer",
		Task: "build it",
	}, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	verdict := body["verdict"].(map[string]any)
	assert.Equal(t, "needs_improvement", verdict["decision"])
	assert.Equal(t, 1, reviewer.Called)
}

func TestTaskFatalError(t *testing.T) {
	model := tt.NewMockModel().QueueError(crew.Fatal("vertex init", "bad credentials"))
	srv, _ := newTestServer(model)

	rec, body := doJSON(t, srv.Handler(), http.MethodPost, "/task", taskRequest{
		Role: "developer",
		Task: "anything",
	}, nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, body["error"], "bad credentials")
}
