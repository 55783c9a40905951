package zephyr

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
)

// Test script types as the remote API declares them.
const (
	ScriptTypeStepByStep = "STEP_BY_STEP"
	ScriptTypePlainText  = "PLAIN_TEXT"
	ScriptTypeBDD        = "BDD"
)

// TestStep is one step of a test case script. OrderID is the 1-based
// position and stays contiguous within a case; StepID is remote-assigned.
type TestStep struct {
	OrderID int
	Step    string
	Data    string
	Result  string
	StepID  *int
}

// TestStepFromAPI builds a TestStep from a raw step object.
func TestStepFromAPI(data map[string]any) TestStep {
	orderID := 0
	if n := getIntPtr(data, "orderId"); n != nil {
		orderID = *n
	}
	return TestStep{
		OrderID: orderID,
		Step:    getString(data, "step"),
		Data:    getString(data, "data"),
		Result:  getString(data, "result"),
		StepID:  getIntPtr(data, "id"),
	}
}

// Simplified reduces the step to its output mapping.
func (ts TestStep) Simplified() map[string]any {
	result := map[string]any{
		"order_id": ts.OrderID,
		"step":     ts.Step,
		"data":     ts.Data,
		"result":   ts.Result,
	}
	if ts.StepID != nil {
		result["step_id"] = *ts.StepID
	}
	return result
}

// TestStepRequest is the input-only variant of a step, used before its
// position in the script is known.
type TestStepRequest struct {
	Step   string
	Data   string
	Result string
}

// TestSteps is the ordered step sequence of one issue/project pair. The
// identity comes from the caller, not from the response body.
type TestSteps struct {
	IssueID   string
	ProjectID string
	Steps     []TestStep
}

// TestStepsFromAPI parses a stepBeanCollection payload. Individually
// malformed elements are skipped so one bad step never discards the rest.
func TestStepsFromAPI(data map[string]any, issueID, projectID string) *TestSteps {
	steps := []TestStep{}
	items, _ := data["stepBeanCollection"].([]any)
	for _, item := range items {
		stepData, ok := item.(map[string]any)
		if !ok {
			slog.Warn("skipping malformed test step entry", "issue_id", issueID)
			continue
		}
		step := TestStepFromAPI(stepData)
		if step.Step == "" {
			slog.Warn("skipping test step without an action", "issue_id", issueID)
			continue
		}
		steps = append(steps, step)
	}
	return &TestSteps{IssueID: issueID, ProjectID: projectID, Steps: steps}
}

// Simplified reduces the collection to its output mapping; the total is
// computed from the sequence length.
func (c *TestSteps) Simplified() map[string]any {
	steps := make([]map[string]any, 0, len(c.Steps))
	for _, step := range c.Steps {
		steps = append(steps, step.Simplified())
	}
	return map[string]any{
		"issue_id":    c.IssueID,
		"project_id":  c.ProjectID,
		"total_steps": len(c.Steps),
		"steps":       steps,
	}
}

// TestStepService mutates test steps through the test case script. The
// remote API has no first-class step resource, so every write is a
// read-modify-write over the whole script. A concurrent remote change
// between the read and the PUT is lost; the API offers no way to detect it.
type TestStepService struct {
	client doer
}

// Get interprets the test case script as a step sequence. A 404 yields an
// empty sequence rather than an error: a missing case has no steps, and this
// read path is the documented exception to not-found propagation.
func (s *TestStepService) Get(ctx context.Context, issueID, projectID string) (*TestSteps, error) {
	params := url.Values{}
	params.Set("fields", "key,name,testScript")

	rs, err := s.client.Do(ctx, http.MethodGet, "/testcase/"+issueID, nil, params)
	if err != nil {
		return nil, err
	}
	if rs.StatusCode() == http.StatusNotFound {
		slog.Warn("test case not found, returning empty step sequence", "issue_id", issueID)
		return &TestSteps{IssueID: issueID, ProjectID: projectID, Steps: []TestStep{}}, nil
	}
	if rs.IsError() {
		return nil, operationFailed("failed to get test steps",
			fmt.Errorf("unexpected status %d: %s", rs.StatusCode(), rs.String()))
	}

	raw, err := decodeObject(rs.Bytes())
	if err != nil {
		return nil, operationFailed("failed to get test steps", err)
	}
	return stepsFromScript(raw, issueID, projectID), nil
}

// stepsFromScript maps a testScript object onto a step sequence by its
// declared type. Unrecognized or absent types produce an empty sequence.
func stepsFromScript(raw map[string]any, issueID, projectID string) *TestSteps {
	steps := []TestStep{}
	script := getMap(raw, "testScript")

	switch getString(script, "type") {
	case ScriptTypeStepByStep:
		for i, item := range getMapSlice(script, "steps") {
			steps = append(steps, TestStep{
				OrderID: i + 1,
				Step:    getString(item, "description"),
				Data:    getString(item, "testData"),
				Result:  getString(item, "expectedResult"),
				StepID:  getIntPtr(item, "id"),
			})
		}
	case ScriptTypePlainText:
		if text := getString(script, "text"); text != "" {
			steps = append(steps, TestStep{OrderID: 1, Step: text})
		}
	}

	return &TestSteps{IssueID: issueID, ProjectID: projectID, Steps: steps}
}

// Add appends one step to the test case script and returns it with its
// assigned position.
func (s *TestStepService) Add(
	ctx context.Context,
	issueID, projectID string,
	request TestStepRequest,
) (*TestStep, error) {
	created, err := s.AddAll(ctx, issueID, projectID, []TestStepRequest{request})
	if err != nil {
		return nil, err
	}
	if len(created) == 0 {
		return nil, operationFailed("failed to add test step",
			fmt.Errorf("no step was created for test case %s", issueID))
	}
	return &created[0], nil
}

// AddAll appends steps in request order with contiguous order ids starting
// at len(current)+1, then overwrites the whole script with a STEP_BY_STEP
// payload; the remote API exposes no incremental append. Appending zero
// steps performs no write.
func (s *TestStepService) AddAll(
	ctx context.Context,
	issueID, projectID string,
	requests []TestStepRequest,
) ([]TestStep, error) {
	if len(requests) == 0 {
		return []TestStep{}, nil
	}

	current, err := s.Get(ctx, issueID, projectID)
	if err != nil {
		return nil, operationFailed("failed to add test steps", err)
	}

	nextOrder := len(current.Steps) + 1
	created := make([]TestStep, 0, len(requests))
	for i, rq := range requests {
		created = append(created, TestStep{
			OrderID: nextOrder + i,
			Step:    rq.Step,
			Data:    rq.Data,
			Result:  rq.Result,
		})
	}

	all := append(append([]TestStep{}, current.Steps...), created...)
	scriptSteps := make([]map[string]any, 0, len(all))
	for _, step := range all {
		scriptSteps = append(scriptSteps, map[string]any{
			"description":    step.Step,
			"testData":       step.Data,
			"expectedResult": step.Result,
		})
	}
	payload := map[string]any{
		"testScript": map[string]any{
			"type":  ScriptTypeStepByStep,
			"steps": scriptSteps,
		},
	}

	rs, err := s.client.Do(ctx, http.MethodPut, "/testcase/"+issueID, payload, nil)
	if err != nil {
		return nil, operationFailed("failed to add test steps", err)
	}
	if rs.StatusCode() == http.StatusNotFound {
		return nil, &NotFoundError{Resource: "test case", Key: issueID}
	}
	if rs.IsError() {
		return nil, operationFailed("failed to add test steps",
			fmt.Errorf("unexpected status %d: %s", rs.StatusCode(), rs.String()))
	}

	slog.Info("added test steps", "issue_id", issueID, "count", len(created))
	return created, nil
}
