package zephyr

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetTestStepsStepByStep(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/atm/1.0/testcase/JQA-T1", r.URL.Path)
		assert.Equal(t, "key,name,testScript", r.URL.Query().Get("fields"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"key": "JQA-T1",
			"testScript": {
				"type": "STEP_BY_STEP",
				"steps": [
					{"description": "open page", "testData": "url", "expectedResult": "page loads", "id": 10},
					{"description": "log in", "expectedResult": "dashboard shown"}
				]
			}
		}`))
	}))

	steps, err := client.TestSteps.Get(ctx, "JQA-T1", "10000")
	require.NoError(t, err)
	require.Len(t, steps.Steps, 2)

	assert.Equal(t, 1, steps.Steps[0].OrderID)
	assert.Equal(t, "open page", steps.Steps[0].Step)
	assert.Equal(t, "url", steps.Steps[0].Data)
	require.NotNil(t, steps.Steps[0].StepID)
	assert.Equal(t, 10, *steps.Steps[0].StepID)

	assert.Equal(t, 2, steps.Steps[1].OrderID)
	assert.Nil(t, steps.Steps[1].StepID)

	simplified := steps.Simplified()
	assert.Equal(t, "JQA-T1", simplified["issue_id"])
	assert.Equal(t, "10000", simplified["project_id"])
	assert.Equal(t, 2, simplified["total_steps"])
}

func TestGetTestStepsPlainText(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"testScript": {"type": "PLAIN_TEXT", "text": "Verify login end to end"}
		}`))
	}))

	steps, err := client.TestSteps.Get(ctx, "JQA-T1", "10000")
	require.NoError(t, err)
	require.Len(t, steps.Steps, 1)
	assert.Equal(t, 1, steps.Steps[0].OrderID)
	assert.Equal(t, "Verify login end to end", steps.Steps[0].Step)
}

func TestGetTestStepsEmptyPlainText(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"testScript": {"type": "PLAIN_TEXT", "text": ""}}`))
	}))

	steps, err := client.TestSteps.Get(ctx, "JQA-T1", "10000")
	require.NoError(t, err)
	assert.Empty(t, steps.Steps)
}

func TestGetTestStepsMissingCase(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	steps, err := client.TestSteps.Get(ctx, "JQA-T9999", "10000")
	require.NoError(t, err, "missing case reads as empty, not as an error")
	assert.Empty(t, steps.Steps)
}

func TestAddAllZeroStepsPerformsNoWrite(t *testing.T) {
	ctx := context.Background()
	var requests atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	}))

	created, err := client.TestSteps.AddAll(ctx, "JQA-T1", "10000", nil)
	require.NoError(t, err)
	assert.Empty(t, created)
	assert.Equal(t, int32(0), requests.Load(), "no network traffic for an empty append")
}

func TestAddAllAppendsWithContiguousOrder(t *testing.T) {
	ctx := context.Background()
	var putBody map[string]any
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.Method {
		case http.MethodGet:
			_, _ = w.Write([]byte(`{
				"testScript": {
					"type": "STEP_BY_STEP",
					"steps": [
						{"description": "existing one"},
						{"description": "existing two"}
					]
				}
			}`))
		case http.MethodPut:
			body, err := io.ReadAll(r.Body)
			require.NoError(t, err)
			require.NoError(t, json.Unmarshal(body, &putBody))
			_, _ = w.Write([]byte(`{}`))
		}
	}))

	created, err := client.TestSteps.AddAll(ctx, "JQA-T1", "10000", []TestStepRequest{
		{Step: "new step a", Data: "input", Result: "outcome"},
		{Step: "new step b"},
	})
	require.NoError(t, err)

	require.Len(t, created, 2)
	assert.Equal(t, 3, created[0].OrderID)
	assert.Equal(t, 4, created[1].OrderID)

	script := putBody["testScript"].(map[string]any)
	assert.Equal(t, ScriptTypeStepByStep, script["type"])
	steps := script["steps"].([]any)
	require.Len(t, steps, 4, "existing steps are preserved in the overwrite")
	last := steps[3].(map[string]any)
	assert.Equal(t, "new step b", last["description"])
}

func TestAddStepToMissingCase(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			// Read path treats 404 as empty; the PUT must still fail.
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))

	_, err := client.TestSteps.Add(ctx, "JQA-T9999", "10000", TestStepRequest{Step: "anything"})
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestStepsFromAPISkipsMalformedEntries(t *testing.T) {
	steps := TestStepsFromAPI(map[string]any{
		"stepBeanCollection": []any{
			map[string]any{"orderId": float64(1), "step": "valid"},
			"garbage",
			map[string]any{"orderId": float64(2), "step": ""},
		},
	}, "JQA-T1", "10000")

	require.Len(t, steps.Steps, 1)
	assert.Equal(t, "valid", steps.Steps[0].Step)
}
