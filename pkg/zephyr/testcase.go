package zephyr

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
)

// TestCase is a read/write projection of a Zephyr test case. Records are
// immutable once constructed; the remote system stays the source of truth.
type TestCase struct {
	Key            string
	Name           string
	ProjectKey     string
	Status         string
	Priority       string
	Component      string
	Owner          string
	EstimatedTime  *int
	Folder         *string
	Labels         []string
	Objective      string
	Precondition   string
	TestScript     map[string]any
	Parameters     map[string]any
	CustomFields   map[string]any
	IssueLinks     []string
	CreatedOn      string
	LastModifiedOn string
	CreatedBy      string
	LastModifiedBy string
}

// TestCaseFromAPI builds a TestCase from a raw API response object. Missing
// keys fall back to typed defaults; unknown keys are ignored.
func TestCaseFromAPI(data map[string]any) *TestCase {
	return &TestCase{
		Key:            getString(data, "key"),
		Name:           getString(data, "name"),
		ProjectKey:     getString(data, "projectKey"),
		Status:         getString(data, "status"),
		Priority:       getString(data, "priority"),
		Component:      getString(data, "component"),
		Owner:          getString(data, "owner"),
		EstimatedTime:  getIntPtr(data, "estimatedTime"),
		Folder:         getStringPtr(data, "folder"),
		Labels:         getStringSlice(data, "labels"),
		Objective:      getString(data, "objective"),
		Precondition:   getString(data, "precondition"),
		TestScript:     getMap(data, "testScript"),
		Parameters:     getMap(data, "parameters"),
		CustomFields:   getMapOrEmpty(data, "customFields"),
		IssueLinks:     getStringSlice(data, "issueLinks"),
		CreatedOn:      getString(data, "createdOn"),
		LastModifiedOn: getString(data, "lastModifiedOn"),
		CreatedBy:      getString(data, "createdBy"),
		LastModifiedBy: getString(data, "lastModifiedBy"),
	}
}

// Simplified reduces the record to its output mapping. The minimal field
// set is always present; optional fields appear only when set.
func (tc *TestCase) Simplified() map[string]any {
	var folder any
	if tc.Folder != nil {
		folder = *tc.Folder
	}
	result := map[string]any{
		"key":              tc.Key,
		"name":             tc.Name,
		"project_key":      tc.ProjectKey,
		"status":           tc.Status,
		"priority":         tc.Priority,
		"folder":           folder,
		"labels":           tc.Labels,
		"created_on":       formatTimestamp(tc.CreatedOn),
		"last_modified_on": formatTimestamp(tc.LastModifiedOn),
	}

	putNonEmpty(result, "component", tc.Component)
	putNonEmpty(result, "owner", tc.Owner)
	if tc.EstimatedTime != nil {
		result["estimated_time"] = *tc.EstimatedTime
	}
	putNonEmpty(result, "objective", tc.Objective)
	putNonEmpty(result, "precondition", tc.Precondition)
	putNonEmptyMap(result, "test_script", tc.TestScript)
	putNonEmptyMap(result, "parameters", tc.Parameters)
	putNonEmptyMap(result, "custom_fields", tc.CustomFields)
	putNonEmptyStrings(result, "issue_links", tc.IssueLinks)
	putNonEmpty(result, "created_by", tc.CreatedBy)
	putNonEmpty(result, "last_modified_by", tc.LastModifiedBy)

	return result
}

// TestCaseService provides test case CRUD and search over a shared
// transport handle.
type TestCaseService struct {
	client doer
}

// Get fetches a test case by key. An optional comma-separated field list
// restricts the returned attributes.
func (s *TestCaseService) Get(ctx context.Context, key, fields string) (*TestCase, error) {
	params := url.Values{}
	if fields != "" {
		params.Set("fields", fields)
	}

	rs, err := s.client.Do(ctx, http.MethodGet, "/testcase/"+key, nil, params)
	if err != nil {
		return nil, err
	}
	if rs.StatusCode() == http.StatusNotFound {
		return nil, &NotFoundError{Resource: "test case", Key: key}
	}
	if rs.IsError() {
		return nil, operationFailed("failed to get test case",
			fmt.Errorf("unexpected status %d: %s", rs.StatusCode(), rs.String()))
	}

	raw, err := decodeObject(rs.Bytes())
	if err != nil {
		return nil, operationFailed("failed to get test case", err)
	}
	return TestCaseFromAPI(raw), nil
}

// Create posts a new test case and returns the server-assigned key.
func (s *TestCaseService) Create(ctx context.Context, data map[string]any) (string, error) {
	rs, err := s.client.Do(ctx, http.MethodPost, "/testcase", data, nil)
	if err != nil {
		return "", operationFailed("failed to create test case", err)
	}
	if rs.IsError() {
		return "", operationFailed("failed to create test case",
			fmt.Errorf("unexpected status %d: %s", rs.StatusCode(), rs.String()))
	}

	raw, err := decodeObject(rs.Bytes())
	if err != nil {
		return "", operationFailed("failed to create test case", err)
	}
	return getString(raw, "key"), nil
}

// Update replaces test case fields with the given partial mapping.
func (s *TestCaseService) Update(ctx context.Context, key string, data map[string]any) error {
	rs, err := s.client.Do(ctx, http.MethodPut, "/testcase/"+key, data, nil)
	if err != nil {
		return operationFailed("failed to update test case", err)
	}
	if rs.StatusCode() == http.StatusNotFound {
		return &NotFoundError{Resource: "test case", Key: key}
	}
	if rs.IsError() {
		return operationFailed("failed to update test case",
			fmt.Errorf("unexpected status %d: %s", rs.StatusCode(), rs.String()))
	}
	return nil
}

// Delete removes a test case.
func (s *TestCaseService) Delete(ctx context.Context, key string) error {
	rs, err := s.client.Do(ctx, http.MethodDelete, "/testcase/"+key, nil, nil)
	if err != nil {
		return operationFailed("failed to delete test case", err)
	}
	if rs.StatusCode() == http.StatusNotFound {
		return &NotFoundError{Resource: "test case", Key: key}
	}
	if rs.IsError() {
		return operationFailed("failed to delete test case",
			fmt.Errorf("unexpected status %d: %s", rs.StatusCode(), rs.String()))
	}
	return nil
}

// Search runs a TQL query. Individually malformed elements are logged and
// skipped so one bad record never discards the rest of the page.
func (s *TestCaseService) Search(
	ctx context.Context,
	query, fields string,
	startAt, maxResults int,
) ([]*TestCase, error) {
	params := buildSearchQuery(query, fields, startAt, maxResults)

	rs, err := s.client.Do(ctx, http.MethodGet, "/testcase/search", nil, params)
	if err != nil {
		return nil, operationFailed("failed to search test cases", err)
	}
	if rs.IsError() {
		return nil, operationFailed("failed to search test cases",
			fmt.Errorf("unexpected status %d: %s", rs.StatusCode(), rs.String()))
	}

	items, err := decodeResultList(rs.Bytes())
	if err != nil {
		return nil, operationFailed("failed to search test cases", err)
	}
	return parseTestCaseList(items), nil
}

// ForIssue lists the test cases linked to a Jira issue.
func (s *TestCaseService) ForIssue(ctx context.Context, issueKey, fields string) ([]*TestCase, error) {
	params := url.Values{}
	if fields != "" {
		params.Set("fields", fields)
	}

	rs, err := s.client.Do(ctx, http.MethodGet, "/issuelink/"+issueKey+"/testcases", nil, params)
	if err != nil {
		return nil, operationFailed("failed to get test cases for issue", err)
	}
	if rs.StatusCode() == http.StatusNotFound {
		return nil, &NotFoundError{Resource: "issue", Key: issueKey}
	}
	if rs.IsError() {
		return nil, operationFailed("failed to get test cases for issue",
			fmt.Errorf("unexpected status %d: %s", rs.StatusCode(), rs.String()))
	}

	items, err := decodeResultList(rs.Bytes())
	if err != nil {
		return nil, operationFailed("failed to get test cases for issue", err)
	}
	return parseTestCaseList(items), nil
}

func parseTestCaseList(items []any) []*TestCase {
	cases := make([]*TestCase, 0, len(items))
	for _, item := range items {
		data, ok := item.(map[string]any)
		if !ok {
			slog.Warn("skipping malformed test case entry", "entry", item)
			continue
		}
		cases = append(cases, TestCaseFromAPI(data))
	}
	return cases
}
