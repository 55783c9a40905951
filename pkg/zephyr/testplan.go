package zephyr

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
)

// TestPlan is a read/write projection of a Zephyr test plan.
type TestPlan struct {
	Key            string
	Name           string
	ProjectKey     string
	Status         string
	Folder         *string
	Owner          string
	Labels         []string
	Objective      string
	TestRuns       []map[string]any
	CustomFields   map[string]any
	IssueLinks     []string
	CreatedOn      string
	LastModifiedOn string
	CreatedBy      string
	LastModifiedBy string
}

// TestPlanFromAPI builds a TestPlan from a raw API response object.
func TestPlanFromAPI(data map[string]any) *TestPlan {
	return &TestPlan{
		Key:            getString(data, "key"),
		Name:           getString(data, "name"),
		ProjectKey:     getString(data, "projectKey"),
		Status:         getString(data, "status"),
		Folder:         getStringPtr(data, "folder"),
		Owner:          getString(data, "owner"),
		Labels:         getStringSlice(data, "labels"),
		Objective:      getString(data, "objective"),
		TestRuns:       getMapSlice(data, "testRuns"),
		CustomFields:   getMapOrEmpty(data, "customFields"),
		IssueLinks:     getStringSlice(data, "issueLinks"),
		CreatedOn:      getString(data, "createdOn"),
		LastModifiedOn: getString(data, "lastModifiedOn"),
		CreatedBy:      getString(data, "createdBy"),
		LastModifiedBy: getString(data, "lastModifiedBy"),
	}
}

// Simplified reduces the record to its output mapping. The run count is
// computed, never stored.
func (tp *TestPlan) Simplified() map[string]any {
	var folder any
	if tp.Folder != nil {
		folder = *tp.Folder
	}
	result := map[string]any{
		"key":              tp.Key,
		"name":             tp.Name,
		"project_key":      tp.ProjectKey,
		"status":           tp.Status,
		"folder":           folder,
		"labels":           tp.Labels,
		"test_runs_count":  len(tp.TestRuns),
		"created_on":       formatTimestamp(tp.CreatedOn),
		"last_modified_on": formatTimestamp(tp.LastModifiedOn),
	}

	putNonEmpty(result, "owner", tp.Owner)
	putNonEmpty(result, "objective", tp.Objective)
	putNonEmptyMaps(result, "test_runs", tp.TestRuns)
	putNonEmptyMap(result, "custom_fields", tp.CustomFields)
	putNonEmptyStrings(result, "issue_links", tp.IssueLinks)
	putNonEmpty(result, "created_by", tp.CreatedBy)
	putNonEmpty(result, "last_modified_by", tp.LastModifiedBy)

	return result
}

// TestPlanService provides test plan CRUD and search.
type TestPlanService struct {
	client doer
}

// Get fetches a test plan by key.
func (s *TestPlanService) Get(ctx context.Context, key, fields string) (*TestPlan, error) {
	params := url.Values{}
	if fields != "" {
		params.Set("fields", fields)
	}

	rs, err := s.client.Do(ctx, http.MethodGet, "/testplan/"+key, nil, params)
	if err != nil {
		return nil, err
	}
	if rs.StatusCode() == http.StatusNotFound {
		return nil, &NotFoundError{Resource: "test plan", Key: key}
	}
	if rs.IsError() {
		return nil, operationFailed("failed to get test plan",
			fmt.Errorf("unexpected status %d: %s", rs.StatusCode(), rs.String()))
	}

	raw, err := decodeObject(rs.Bytes())
	if err != nil {
		return nil, operationFailed("failed to get test plan", err)
	}
	return TestPlanFromAPI(raw), nil
}

// Create posts a new test plan and returns the server-assigned key.
func (s *TestPlanService) Create(ctx context.Context, data map[string]any) (string, error) {
	rs, err := s.client.Do(ctx, http.MethodPost, "/testplan", data, nil)
	if err != nil {
		return "", operationFailed("failed to create test plan", err)
	}
	if rs.IsError() {
		return "", operationFailed("failed to create test plan",
			fmt.Errorf("unexpected status %d: %s", rs.StatusCode(), rs.String()))
	}

	raw, err := decodeObject(rs.Bytes())
	if err != nil {
		return "", operationFailed("failed to create test plan", err)
	}
	return getString(raw, "key"), nil
}

// Update replaces test plan fields with the given partial mapping.
func (s *TestPlanService) Update(ctx context.Context, key string, data map[string]any) error {
	rs, err := s.client.Do(ctx, http.MethodPut, "/testplan/"+key, data, nil)
	if err != nil {
		return operationFailed("failed to update test plan", err)
	}
	if rs.StatusCode() == http.StatusNotFound {
		return &NotFoundError{Resource: "test plan", Key: key}
	}
	if rs.IsError() {
		return operationFailed("failed to update test plan",
			fmt.Errorf("unexpected status %d: %s", rs.StatusCode(), rs.String()))
	}
	return nil
}

// Delete removes a test plan.
func (s *TestPlanService) Delete(ctx context.Context, key string) error {
	rs, err := s.client.Do(ctx, http.MethodDelete, "/testplan/"+key, nil, nil)
	if err != nil {
		return operationFailed("failed to delete test plan", err)
	}
	if rs.StatusCode() == http.StatusNotFound {
		return &NotFoundError{Resource: "test plan", Key: key}
	}
	if rs.IsError() {
		return operationFailed("failed to delete test plan",
			fmt.Errorf("unexpected status %d: %s", rs.StatusCode(), rs.String()))
	}
	return nil
}

// Search runs a TQL query over test plans with the shared partial-success
// parsing policy.
func (s *TestPlanService) Search(
	ctx context.Context,
	query, fields string,
	startAt, maxResults int,
) ([]*TestPlan, error) {
	params := buildSearchQuery(query, fields, startAt, maxResults)

	rs, err := s.client.Do(ctx, http.MethodGet, "/testplan/search", nil, params)
	if err != nil {
		return nil, operationFailed("failed to search test plans", err)
	}
	if rs.IsError() {
		return nil, operationFailed("failed to search test plans",
			fmt.Errorf("unexpected status %d: %s", rs.StatusCode(), rs.String()))
	}

	items, err := decodeResultList(rs.Bytes())
	if err != nil {
		return nil, operationFailed("failed to search test plans", err)
	}

	plans := make([]*TestPlan, 0, len(items))
	for _, item := range items {
		data, ok := item.(map[string]any)
		if !ok {
			slog.Warn("skipping malformed test plan entry", "entry", item)
			continue
		}
		plans = append(plans, TestPlanFromAPI(data))
	}
	return plans, nil
}
