package zephyr

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
)

// TestResult is a projection of one execution of a test case. ID is
// remote-assigned and set only after successful creation.
type TestResult struct {
	ID              *int
	TestCaseKey     string
	ProjectKey      string
	Status          string
	Environment     string
	ExecutedBy      string
	ActualStartDate string
	ActualEndDate   string
	Comment         string
	TestRunKey      string
	CustomFields    map[string]any
	Steps           []map[string]any
	Attachments     []map[string]any
	CreatedOn       string
	LastModifiedOn  string
}

// TestResultFromAPI builds a TestResult from a raw API response object.
func TestResultFromAPI(data map[string]any) *TestResult {
	return &TestResult{
		ID:              getIntPtr(data, "id"),
		TestCaseKey:     getString(data, "testCaseKey"),
		ProjectKey:      getString(data, "projectKey"),
		Status:          getString(data, "status"),
		Environment:     getString(data, "environment"),
		ExecutedBy:      getString(data, "executedBy"),
		ActualStartDate: getString(data, "actualStartDate"),
		ActualEndDate:   getString(data, "actualEndDate"),
		Comment:         getString(data, "comment"),
		TestRunKey:      getString(data, "testRunKey"),
		CustomFields:    getMapOrEmpty(data, "customFields"),
		Steps:           getMapSlice(data, "steps"),
		Attachments:     getMapSlice(data, "attachments"),
		CreatedOn:       getString(data, "createdOn"),
		LastModifiedOn:  getString(data, "lastModifiedOn"),
	}
}

// Simplified reduces the record to its output mapping. Step and attachment
// counts are computed, never stored.
func (tr *TestResult) Simplified() map[string]any {
	result := map[string]any{
		"test_case_key":     tr.TestCaseKey,
		"project_key":       tr.ProjectKey,
		"status":            tr.Status,
		"executed_by":       tr.ExecutedBy,
		"steps_count":       len(tr.Steps),
		"attachments_count": len(tr.Attachments),
		"created_on":        formatTimestamp(tr.CreatedOn),
		"last_modified_on":  formatTimestamp(tr.LastModifiedOn),
	}

	if tr.ID != nil {
		result["id"] = *tr.ID
	}
	putNonEmpty(result, "environment", tr.Environment)
	putNonEmptyTime(result, "actual_start_date", tr.ActualStartDate)
	putNonEmptyTime(result, "actual_end_date", tr.ActualEndDate)
	putNonEmpty(result, "comment", tr.Comment)
	putNonEmpty(result, "test_run_key", tr.TestRunKey)
	putNonEmptyMap(result, "custom_fields", tr.CustomFields)
	putNonEmptyMaps(result, "steps", tr.Steps)
	putNonEmptyMaps(result, "attachments", tr.Attachments)

	return result
}

// TestResultService provides standalone and run-scoped result operations.
type TestResultService struct {
	client doer
}

// Create posts a standalone test result and returns the assigned id.
func (s *TestResultService) Create(ctx context.Context, data map[string]any) (int, error) {
	rs, err := s.client.Do(ctx, http.MethodPost, "/testresult", data, nil)
	if err != nil {
		return 0, operationFailed("failed to create test result", err)
	}
	if rs.IsError() {
		return 0, operationFailed("failed to create test result",
			fmt.Errorf("unexpected status %d: %s", rs.StatusCode(), rs.String()))
	}

	raw, err := decodeObject(rs.Bytes())
	if err != nil {
		return 0, operationFailed("failed to create test result", err)
	}
	if id := getIntPtr(raw, "id"); id != nil {
		return *id, nil
	}
	return 0, nil
}

// LatestForCase fetches the most recent result for a test case. A 404 means
// the case has no results yet and yields a nil record, not an error; this is
// the one read path where absence is a safe default.
func (s *TestResultService) LatestForCase(ctx context.Context, caseKey string) (*TestResult, error) {
	rs, err := s.client.Do(ctx, http.MethodGet, "/testcase/"+caseKey+"/testresult/latest", nil, nil)
	if err != nil {
		return nil, operationFailed("failed to get latest test result", err)
	}
	if rs.StatusCode() == http.StatusNotFound {
		return nil, nil
	}
	if rs.IsError() {
		return nil, operationFailed("failed to get latest test result",
			fmt.Errorf("unexpected status %d: %s", rs.StatusCode(), rs.String()))
	}

	raw, err := decodeObject(rs.Bytes())
	if err != nil {
		return nil, operationFailed("failed to get latest test result", err)
	}
	return TestResultFromAPI(raw), nil
}

// ForRun fetches all results recorded against a test run.
func (s *TestResultService) ForRun(ctx context.Context, runKey string) ([]*TestResult, error) {
	rs, err := s.client.Do(ctx, http.MethodGet, "/testrun/"+runKey+"/testresults", nil, nil)
	if err != nil {
		return nil, operationFailed("failed to get test run results", err)
	}
	if rs.StatusCode() == http.StatusNotFound {
		return nil, &NotFoundError{Resource: "test run", Key: runKey}
	}
	if rs.IsError() {
		return nil, operationFailed("failed to get test run results",
			fmt.Errorf("unexpected status %d: %s", rs.StatusCode(), rs.String()))
	}

	items, err := decodeResultList(rs.Bytes())
	if err != nil {
		return nil, operationFailed("failed to get test run results", err)
	}

	results := make([]*TestResult, 0, len(items))
	for _, item := range items {
		data, ok := item.(map[string]any)
		if !ok {
			slog.Warn("skipping malformed test result entry", "entry", item)
			continue
		}
		results = append(results, TestResultFromAPI(data))
	}
	return results, nil
}

// runScopedQuery carries the optional environment/user filters the
// run-scoped result endpoints accept.
func runScopedQuery(environment, userKey string) url.Values {
	params := url.Values{}
	if environment != "" {
		params.Set("environment", environment)
	}
	if userKey != "" {
		params.Set("userKey", userKey)
	}
	return params
}

// CreateForRun records a result for one (run, case) pair and returns the
// assigned id.
func (s *TestResultService) CreateForRun(
	ctx context.Context,
	runKey, caseKey string,
	data map[string]any,
	environment, userKey string,
) (int, error) {
	path := "/testrun/" + runKey + "/testcase/" + caseKey + "/testresult"
	rs, err := s.client.Do(ctx, http.MethodPost, path, data, runScopedQuery(environment, userKey))
	if err != nil {
		return 0, operationFailed("failed to create test result", err)
	}
	if rs.IsError() {
		return 0, operationFailed("failed to create test result",
			fmt.Errorf("unexpected status %d: %s", rs.StatusCode(), rs.String()))
	}

	raw, err := decodeObject(rs.Bytes())
	if err != nil {
		return 0, operationFailed("failed to create test result", err)
	}
	if id := getIntPtr(raw, "id"); id != nil {
		return *id, nil
	}
	return 0, nil
}

// UpdateForRun updates the latest result for one (run, case) pair and
// returns its id.
func (s *TestResultService) UpdateForRun(
	ctx context.Context,
	runKey, caseKey string,
	data map[string]any,
	environment, userKey string,
) (int, error) {
	path := "/testrun/" + runKey + "/testcase/" + caseKey + "/testresult"
	rs, err := s.client.Do(ctx, http.MethodPut, path, data, runScopedQuery(environment, userKey))
	if err != nil {
		return 0, operationFailed("failed to update test result", err)
	}
	if rs.IsError() {
		return 0, operationFailed("failed to update test result",
			fmt.Errorf("unexpected status %d: %s", rs.StatusCode(), rs.String()))
	}

	raw, err := decodeObject(rs.Bytes())
	if err != nil {
		return 0, operationFailed("failed to update test result", err)
	}
	if id := getIntPtr(raw, "id"); id != nil {
		return *id, nil
	}
	return 0, nil
}

// CreateBulk records several results against one run in a single call and
// returns the assigned ids in request order.
func (s *TestResultService) CreateBulk(
	ctx context.Context,
	runKey string,
	data []map[string]any,
	environment, userKey string,
) ([]int, error) {
	path := "/testrun/" + runKey + "/testresults"
	rs, err := s.client.Do(ctx, http.MethodPost, path, data, runScopedQuery(environment, userKey))
	if err != nil {
		return nil, operationFailed("failed to create bulk test results", err)
	}
	if rs.IsError() {
		return nil, operationFailed("failed to create bulk test results",
			fmt.Errorf("unexpected status %d: %s", rs.StatusCode(), rs.String()))
	}

	raw, err := decodeObject(rs.Bytes())
	if err != nil {
		return nil, operationFailed("failed to create bulk test results", err)
	}

	ids := []int{}
	if items, ok := raw["ids"].([]any); ok {
		for _, item := range items {
			if n, ok := item.(float64); ok {
				ids = append(ids, int(n))
			}
		}
	}
	return ids, nil
}
