package zephyr

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
)

// TestRun is a read/write projection of a Zephyr test run. It references a
// test plan and test cases by opaque keys; nothing is owned locally.
type TestRun struct {
	Key              string
	Name             string
	ProjectKey       string
	Status           string
	Folder           *string
	Owner            string
	Version          string
	Iteration        string
	Environment      string
	PlannedStartDate string
	PlannedEndDate   string
	ActualStartDate  string
	ActualEndDate    string
	TestPlanKey      string
	IssueKey         string
	Items            []map[string]any
	CustomFields     map[string]any
	IssueLinks       []string
	CreatedOn        string
	LastModifiedOn   string
	CreatedBy        string
	LastModifiedBy   string
}

// TestRunFromAPI builds a TestRun from a raw API response object.
func TestRunFromAPI(data map[string]any) *TestRun {
	return &TestRun{
		Key:              getString(data, "key"),
		Name:             getString(data, "name"),
		ProjectKey:       getString(data, "projectKey"),
		Status:           getString(data, "status"),
		Folder:           getStringPtr(data, "folder"),
		Owner:            getString(data, "owner"),
		Version:          getString(data, "version"),
		Iteration:        getString(data, "iteration"),
		Environment:      getString(data, "environment"),
		PlannedStartDate: getString(data, "plannedStartDate"),
		PlannedEndDate:   getString(data, "plannedEndDate"),
		ActualStartDate:  getString(data, "actualStartDate"),
		ActualEndDate:    getString(data, "actualEndDate"),
		TestPlanKey:      getString(data, "testPlanKey"),
		IssueKey:         getString(data, "issueKey"),
		Items:            getMapSlice(data, "items"),
		CustomFields:     getMapOrEmpty(data, "customFields"),
		IssueLinks:       getStringSlice(data, "issueLinks"),
		CreatedOn:        getString(data, "createdOn"),
		LastModifiedOn:   getString(data, "lastModifiedOn"),
		CreatedBy:        getString(data, "createdBy"),
		LastModifiedBy:   getString(data, "lastModifiedBy"),
	}
}

// Simplified reduces the record to its output mapping. The item count is
// computed, never stored.
func (tr *TestRun) Simplified() map[string]any {
	var folder any
	if tr.Folder != nil {
		folder = *tr.Folder
	}
	result := map[string]any{
		"key":              tr.Key,
		"name":             tr.Name,
		"project_key":      tr.ProjectKey,
		"status":           tr.Status,
		"folder":           folder,
		"items_count":      len(tr.Items),
		"created_on":       formatTimestamp(tr.CreatedOn),
		"last_modified_on": formatTimestamp(tr.LastModifiedOn),
	}

	putNonEmpty(result, "owner", tr.Owner)
	putNonEmpty(result, "version", tr.Version)
	putNonEmpty(result, "iteration", tr.Iteration)
	putNonEmpty(result, "environment", tr.Environment)
	putNonEmptyTime(result, "planned_start_date", tr.PlannedStartDate)
	putNonEmptyTime(result, "planned_end_date", tr.PlannedEndDate)
	putNonEmptyTime(result, "actual_start_date", tr.ActualStartDate)
	putNonEmptyTime(result, "actual_end_date", tr.ActualEndDate)
	putNonEmpty(result, "test_plan_key", tr.TestPlanKey)
	putNonEmpty(result, "issue_key", tr.IssueKey)
	putNonEmptyMaps(result, "items", tr.Items)
	putNonEmptyMap(result, "custom_fields", tr.CustomFields)
	putNonEmptyStrings(result, "issue_links", tr.IssueLinks)
	putNonEmpty(result, "created_by", tr.CreatedBy)
	putNonEmpty(result, "last_modified_by", tr.LastModifiedBy)

	return result
}

// TestRunService provides test run operations. The remote API exposes no
// test run update endpoint, so there is none here either.
type TestRunService struct {
	client doer
}

// Get fetches a test run by key.
func (s *TestRunService) Get(ctx context.Context, key, fields string) (*TestRun, error) {
	params := url.Values{}
	if fields != "" {
		params.Set("fields", fields)
	}

	rs, err := s.client.Do(ctx, http.MethodGet, "/testrun/"+key, nil, params)
	if err != nil {
		return nil, err
	}
	if rs.StatusCode() == http.StatusNotFound {
		return nil, &NotFoundError{Resource: "test run", Key: key}
	}
	if rs.IsError() {
		return nil, operationFailed("failed to get test run",
			fmt.Errorf("unexpected status %d: %s", rs.StatusCode(), rs.String()))
	}

	raw, err := decodeObject(rs.Bytes())
	if err != nil {
		return nil, operationFailed("failed to get test run", err)
	}
	return TestRunFromAPI(raw), nil
}

// Create posts a new test run and returns the server-assigned key.
func (s *TestRunService) Create(ctx context.Context, data map[string]any) (string, error) {
	rs, err := s.client.Do(ctx, http.MethodPost, "/testrun", data, nil)
	if err != nil {
		return "", operationFailed("failed to create test run", err)
	}
	if rs.IsError() {
		return "", operationFailed("failed to create test run",
			fmt.Errorf("unexpected status %d: %s", rs.StatusCode(), rs.String()))
	}

	raw, err := decodeObject(rs.Bytes())
	if err != nil {
		return "", operationFailed("failed to create test run", err)
	}
	return getString(raw, "key"), nil
}

// Delete removes a test run.
func (s *TestRunService) Delete(ctx context.Context, key string) error {
	rs, err := s.client.Do(ctx, http.MethodDelete, "/testrun/"+key, nil, nil)
	if err != nil {
		return operationFailed("failed to delete test run", err)
	}
	if rs.StatusCode() == http.StatusNotFound {
		return &NotFoundError{Resource: "test run", Key: key}
	}
	if rs.IsError() {
		return operationFailed("failed to delete test run",
			fmt.Errorf("unexpected status %d: %s", rs.StatusCode(), rs.String()))
	}
	return nil
}

// Search runs a TQL query over test runs with the shared partial-success
// parsing policy.
func (s *TestRunService) Search(
	ctx context.Context,
	query, fields string,
	startAt, maxResults int,
) ([]*TestRun, error) {
	params := buildSearchQuery(query, fields, startAt, maxResults)

	rs, err := s.client.Do(ctx, http.MethodGet, "/testrun/search", nil, params)
	if err != nil {
		return nil, operationFailed("failed to search test runs", err)
	}
	if rs.IsError() {
		return nil, operationFailed("failed to search test runs",
			fmt.Errorf("unexpected status %d: %s", rs.StatusCode(), rs.String()))
	}

	items, err := decodeResultList(rs.Bytes())
	if err != nil {
		return nil, operationFailed("failed to search test runs", err)
	}

	runs := make([]*TestRun, 0, len(items))
	for _, item := range items {
		data, ok := item.(map[string]any)
		if !ok {
			slog.Warn("skipping malformed test run entry", "entry", item)
			continue
		}
		runs = append(runs, TestRunFromAPI(data))
	}
	return runs, nil
}
