package mcpzephyr

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/yosida95/uritemplate/v3"

	"github.com/atlassian-community/zephyr-mcp-server/pkg/zephyr"
)

// TestCaseTools exposes test case operations as MCP tools.
type TestCaseTools struct {
	client *zephyr.Client
}

func NewTestCaseTools(client *zephyr.Client) *TestCaseTools {
	return &TestCaseTools{client: client}
}

func (t *TestCaseTools) toolGetTestCase() (mcp.Tool, server.ToolHandlerFunc) {
	return mcp.NewTool("get_testcase",
			mcp.WithDescription("Get a Zephyr test case by key"),
			mcp.WithString("test_case_key",
				mcp.Required(),
				mcp.Description("The test case key (e.g., 'JQA-T1234')"),
			),
			mcp.WithString("fields",
				mcp.Description(
					"Optional comma-separated list of fields to include. "+
						"Available fields: key, name, folder, status, priority, component, owner, "+
						"estimatedTime, labels, customFields, issueLinks, testScript",
				),
			),
		), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			key, err := request.RequireString("test_case_key")
			if err != nil {
				return errorResult(err, nil)
			}
			fields := request.GetString("fields", "")

			testCase, err := t.client.TestCases.Get(ctx, key, fields)
			if err != nil {
				return errorResult(err, nil)
			}
			return successResult(map[string]any{"test_case": testCase.Simplified()})
		}
}

func (t *TestCaseTools) toolCreateTestCase() (mcp.Tool, server.ToolHandlerFunc) {
	return mcp.NewTool("create_testcase",
			mcp.WithDescription("Create a new Zephyr test case"),
			mcp.WithString("testcase_data",
				mcp.Required(),
				mcp.Description(
					"JSON string containing test case data. Required: name, projectKey. "+
						"Optional: status, priority, component, folder, owner, estimatedTime, "+
						"labels, customFields, issueLinks, testScript. "+
						`Example: {"name": "Test login", "projectKey": "JQA", "status": "Draft"}`,
				),
			),
		), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			raw, err := request.RequireString("testcase_data")
			if err != nil {
				return errorResult(err, nil)
			}
			data, err := decodePayload(raw, "testcase_data")
			if err != nil {
				return errorResult(err, nil)
			}

			key, err := t.client.TestCases.Create(ctx, data)
			if err != nil {
				return errorResult(err, nil)
			}
			return successResult(map[string]any{"test_case_key": key})
		}
}

func (t *TestCaseTools) toolUpdateTestCase() (mcp.Tool, server.ToolHandlerFunc) {
	return mcp.NewTool("update_testcase",
			mcp.WithDescription("Update a Zephyr test case"),
			mcp.WithString("test_case_key",
				mcp.Required(),
				mcp.Description("The test case key to update (e.g., 'JQA-T1234')"),
			),
			mcp.WithString("testcase_data",
				mcp.Required(),
				mcp.Description("JSON string containing the fields to update"),
			),
		), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			key, err := request.RequireString("test_case_key")
			if err != nil {
				return errorResult(err, nil)
			}
			raw, err := request.RequireString("testcase_data")
			if err != nil {
				return errorResult(err, nil)
			}
			data, err := decodePayload(raw, "testcase_data")
			if err != nil {
				return errorResult(err, nil)
			}

			if err := t.client.TestCases.Update(ctx, key, data); err != nil {
				return errorResult(err, nil)
			}
			return successResult(map[string]any{
				"message": fmt.Sprintf("Test case %s updated", key),
			})
		}
}

func (t *TestCaseTools) toolDeleteTestCase() (mcp.Tool, server.ToolHandlerFunc) {
	return mcp.NewTool("delete_testcase",
			mcp.WithDescription("Delete a Zephyr test case"),
			mcp.WithString("test_case_key",
				mcp.Required(),
				mcp.Description("The test case key to delete (e.g., 'JQA-T1234')"),
			),
		), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			key, err := request.RequireString("test_case_key")
			if err != nil {
				return errorResult(err, nil)
			}

			if err := t.client.TestCases.Delete(ctx, key); err != nil {
				return errorResult(err, nil)
			}
			return successResult(map[string]any{
				"message": fmt.Sprintf("Test case %s deleted", key),
			})
		}
}

func (t *TestCaseTools) toolSearchTestCases() (mcp.Tool, server.ToolHandlerFunc) {
	options := []mcp.ToolOption{
		mcp.WithDescription("Search Zephyr test cases with a TQL query"),
	}
	options = append(options, searchOptions()...)

	return mcp.NewTool("search_testcases", options...),
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			query, fields, startAt, maxResults := extractSearchParams(request)

			cases, err := t.client.TestCases.Search(ctx, query, fields, startAt, maxResults)
			if err != nil {
				return errorResult(err, nil)
			}

			results := make([]map[string]any, 0, len(cases))
			for _, tc := range cases {
				results = append(results, tc.Simplified())
			}
			return successResult(map[string]any{
				"test_cases": results,
				"count":      len(results),
			})
		}
}

func (t *TestCaseTools) toolGetIssueTestCases() (mcp.Tool, server.ToolHandlerFunc) {
	return mcp.NewTool("get_issue_testcases",
			mcp.WithDescription("Get all Zephyr test cases linked to a Jira issue"),
			mcp.WithString("issue_key",
				mcp.Required(),
				mcp.Description("The Jira issue key (e.g., 'JQA-1234')"),
			),
			mcp.WithString("fields",
				mcp.Description("Optional comma-separated list of fields to include"),
			),
		), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			issueKey, err := request.RequireString("issue_key")
			if err != nil {
				return errorResult(err, nil)
			}
			fields := request.GetString("fields", "")

			cases, err := t.client.TestCases.ForIssue(ctx, issueKey, fields)
			if err != nil {
				return errorResult(err, nil)
			}

			results := make([]map[string]any, 0, len(cases))
			for _, tc := range cases {
				results = append(results, tc.Simplified())
			}
			return successResult(map[string]any{
				"test_cases": results,
				"count":      len(results),
			})
		}
}

func (t *TestCaseTools) resourceTestCase() (mcp.ResourceTemplate, server.ResourceTemplateHandlerFunc) {
	tmpl := uritemplate.MustNew("zephyr://testcase/{testCaseKey}")

	return mcp.NewResourceTemplate(tmpl.Raw(), "zephyr-testcase-by-key"),
		func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
			values := tmpl.Match(request.Params.URI)
			if len(values) == 0 {
				return nil, fmt.Errorf("incorrect URI: %s", request.Params.URI)
			}
			key := values.Get("testCaseKey").String()
			if key == "" {
				return nil, fmt.Errorf("missing testCaseKey in URI: %s", request.Params.URI)
			}

			testCase, err := t.client.TestCases.Get(ctx, key, "")
			if err != nil {
				return nil, err
			}
			payload, err := json.Marshal(testCase.Simplified())
			if err != nil {
				return nil, fmt.Errorf("failed to marshal test case: %w", err)
			}

			return []mcp.ResourceContents{
				mcp.TextResourceContents{
					URI:      request.Params.URI,
					MIMEType: "application/json",
					Text:     string(payload),
				},
			}, nil
		}
}
