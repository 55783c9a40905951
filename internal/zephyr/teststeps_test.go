package mcpzephyr

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/mark3labs/mcp-go/mcptest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetTestStepsTool(t *testing.T) {
	ctx := context.Background()
	client := newMockedClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"testScript": {
				"type": "STEP_BY_STEP",
				"steps": [
					{"description": "open page", "expectedResult": "page loads"},
					{"description": "log in"}
				]
			}
		}`))
	}))

	srv := mcptest.NewUnstartedServer(t)
	tools := NewTestStepTools(client)
	srv.AddTool(tools.toolGetTestSteps())
	require.NoError(t, srv.Start(ctx))
	defer srv.Close()

	result := callTool(t, srv, "get_test_steps", map[string]any{
		"issue_id":   "JQA-T1",
		"project_id": "10000",
	})
	require.False(t, result.IsError)

	envelope := unmarshalEnvelope(t, result)
	steps := envelope["test_steps"].(map[string]any)
	assert.Equal(t, "JQA-T1", steps["issue_id"])
	assert.Equal(t, float64(2), steps["total_steps"])
}

func TestAddMultipleTestStepsTool(t *testing.T) {
	ctx := context.Background()
	client := newMockedClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.Method {
		case http.MethodGet:
			_, _ = w.Write([]byte(`{
				"testScript": {"type": "STEP_BY_STEP", "steps": [{"description": "existing"}]}
			}`))
		case http.MethodPut:
			_, _ = w.Write([]byte(`{}`))
		}
	}))

	srv := mcptest.NewUnstartedServer(t)
	tools := NewTestStepTools(client)
	srv.AddTool(tools.toolAddMultipleTestSteps())
	require.NoError(t, srv.Start(ctx))
	defer srv.Close()

	result := callTool(t, srv, "add_multiple_test_steps", map[string]any{
		"issue_id":   "JQA-T1",
		"project_id": "10000",
		"steps":      `[{"step": "new a"}, {"step": "new b", "result": "done"}]`,
	})
	require.False(t, result.IsError)

	envelope := unmarshalEnvelope(t, result)
	assert.Equal(t, float64(2), envelope["total_requested"])
	assert.Equal(t, float64(2), envelope["total_created"])
	created := envelope["test_steps"].([]any)
	require.Len(t, created, 2)
	first := created[0].(map[string]any)
	assert.Equal(t, float64(2), first["order_id"], "appended after the existing step")
}

func TestAddMultipleTestStepsToolRejectsBadJSON(t *testing.T) {
	ctx := context.Background()
	var requests atomic.Int32
	client := newMockedClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
	}))

	srv := mcptest.NewUnstartedServer(t)
	tools := NewTestStepTools(client)
	srv.AddTool(tools.toolAddMultipleTestSteps())
	require.NoError(t, srv.Start(ctx))
	defer srv.Close()

	result := callTool(t, srv, "add_multiple_test_steps", map[string]any{
		"issue_id":   "JQA-T1",
		"project_id": "10000",
		"steps":      `{"step": "not an array"}`,
	})
	require.True(t, result.IsError)
	assert.Equal(t, int32(0), requests.Load())
}

func TestGetTestStepsToolErrorKeepsIdentity(t *testing.T) {
	ctx := context.Background()
	client := newMockedClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	srv := mcptest.NewUnstartedServer(t)
	tools := NewTestStepTools(client)
	srv.AddTool(tools.toolGetTestSteps())
	require.NoError(t, srv.Start(ctx))
	defer srv.Close()

	result := callTool(t, srv, "get_test_steps", map[string]any{
		"issue_id":   "JQA-T1",
		"project_id": "10000",
	})
	require.True(t, result.IsError)

	envelope := unmarshalEnvelope(t, result)
	assert.Equal(t, "JQA-T1", envelope["issue_id"])
	assert.Equal(t, "10000", envelope["project_id"])
}
