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

// TestRunTools exposes test run operations as MCP tools.
type TestRunTools struct {
	client *zephyr.Client
}

func NewTestRunTools(client *zephyr.Client) *TestRunTools {
	return &TestRunTools{client: client}
}

func (t *TestRunTools) toolGetTestRun() (mcp.Tool, server.ToolHandlerFunc) {
	return mcp.NewTool("get_testrun",
			mcp.WithDescription("Get a Zephyr test run by key"),
			mcp.WithString("test_run_key",
				mcp.Required(),
				mcp.Description("The test run key (e.g., 'JQA-R1234')"),
			),
			mcp.WithString("fields",
				mcp.Description("Optional comma-separated list of fields to include"),
			),
		), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			key, err := request.RequireString("test_run_key")
			if err != nil {
				return errorResult(err, nil)
			}
			fields := request.GetString("fields", "")

			run, err := t.client.TestRuns.Get(ctx, key, fields)
			if err != nil {
				return errorResult(err, nil)
			}
			return successResult(map[string]any{"test_run": run.Simplified()})
		}
}

func (t *TestRunTools) toolCreateTestRun() (mcp.Tool, server.ToolHandlerFunc) {
	return mcp.NewTool("create_testrun",
			mcp.WithDescription("Create a new Zephyr test run"),
			mcp.WithString("testrun_data",
				mcp.Required(),
				mcp.Description(
					"JSON string containing test run data. Required: name, projectKey. "+
						"Optional: status, folder, owner, version, iteration, environment, "+
						"plannedStartDate, plannedEndDate, testPlanKey, issueKey, items. "+
						`Example: {"name": "Regression run", "projectKey": "JQA", "testPlanKey": "JQA-P1"}`,
				),
			),
		), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			raw, err := request.RequireString("testrun_data")
			if err != nil {
				return errorResult(err, nil)
			}
			data, err := decodePayload(raw, "testrun_data")
			if err != nil {
				return errorResult(err, nil)
			}

			key, err := t.client.TestRuns.Create(ctx, data)
			if err != nil {
				return errorResult(err, nil)
			}
			return successResult(map[string]any{"test_run_key": key})
		}
}

func (t *TestRunTools) toolDeleteTestRun() (mcp.Tool, server.ToolHandlerFunc) {
	return mcp.NewTool("delete_testrun",
			mcp.WithDescription("Delete a Zephyr test run"),
			mcp.WithString("test_run_key",
				mcp.Required(),
				mcp.Description("The test run key to delete (e.g., 'JQA-R1234')"),
			),
		), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			key, err := request.RequireString("test_run_key")
			if err != nil {
				return errorResult(err, nil)
			}

			if err := t.client.TestRuns.Delete(ctx, key); err != nil {
				return errorResult(err, nil)
			}
			return successResult(map[string]any{
				"message": fmt.Sprintf("Test run %s deleted", key),
			})
		}
}

func (t *TestRunTools) toolSearchTestRuns() (mcp.Tool, server.ToolHandlerFunc) {
	options := []mcp.ToolOption{
		mcp.WithDescription("Search Zephyr test runs with a TQL query"),
	}
	options = append(options, searchOptions()...)

	return mcp.NewTool("search_testruns", options...),
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			query, fields, startAt, maxResults := extractSearchParams(request)

			runs, err := t.client.TestRuns.Search(ctx, query, fields, startAt, maxResults)
			if err != nil {
				return errorResult(err, nil)
			}

			results := make([]map[string]any, 0, len(runs))
			for _, run := range runs {
				results = append(results, run.Simplified())
			}
			return successResult(map[string]any{
				"test_runs": results,
				"count":     len(results),
			})
		}
}

func (t *TestRunTools) resourceTestRun() (mcp.ResourceTemplate, server.ResourceTemplateHandlerFunc) {
	tmpl := uritemplate.MustNew("zephyr://testrun/{testRunKey}")

	return mcp.NewResourceTemplate(tmpl.Raw(), "zephyr-testrun-by-key"),
		func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
			values := tmpl.Match(request.Params.URI)
			if len(values) == 0 {
				return nil, fmt.Errorf("incorrect URI: %s", request.Params.URI)
			}
			key := values.Get("testRunKey").String()
			if key == "" {
				return nil, fmt.Errorf("missing testRunKey in URI: %s", request.Params.URI)
			}

			run, err := t.client.TestRuns.Get(ctx, key, "")
			if err != nil {
				return nil, err
			}
			payload, err := json.Marshal(run.Simplified())
			if err != nil {
				return nil, fmt.Errorf("failed to marshal test run: %w", err)
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
