package mcpzephyr

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/atlassian-community/zephyr-mcp-server/pkg/zephyr"
)

// TestResultTools exposes standalone and run-scoped result operations as
// MCP tools.
type TestResultTools struct {
	client *zephyr.Client
}

func NewTestResultTools(client *zephyr.Client) *TestResultTools {
	return &TestResultTools{client: client}
}

func (t *TestResultTools) toolCreateTestResult() (mcp.Tool, server.ToolHandlerFunc) {
	return mcp.NewTool("create_testresult",
			mcp.WithDescription("Create a standalone Zephyr test result"),
			mcp.WithString("testresult_data",
				mcp.Required(),
				mcp.Description(
					"JSON string containing test result data. Required: projectKey, testCaseKey, status. "+
						"Optional: environment, comment, executedBy, actualStartDate, actualEndDate, "+
						"executionTime, customFields, scriptResults. "+
						`Example: {"projectKey": "JQA", "testCaseKey": "JQA-T1234", "status": "Pass"}`,
				),
			),
		), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			raw, err := request.RequireString("testresult_data")
			if err != nil {
				return errorResult(err, nil)
			}
			data, err := decodePayload(raw, "testresult_data")
			if err != nil {
				return errorResult(err, nil)
			}

			id, err := t.client.TestResults.Create(ctx, data)
			if err != nil {
				return errorResult(err, nil)
			}
			return successResult(map[string]any{"test_result_id": id})
		}
}

func (t *TestResultTools) toolGetTestCaseLatestResult() (mcp.Tool, server.ToolHandlerFunc) {
	return mcp.NewTool("get_testcase_latest_result",
			mcp.WithDescription("Get the most recent test result for a Zephyr test case"),
			mcp.WithString("test_case_key",
				mcp.Required(),
				mcp.Description("The test case key (e.g., 'JQA-T1234')"),
			),
		), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			key, err := request.RequireString("test_case_key")
			if err != nil {
				return errorResult(err, nil)
			}

			result, err := t.client.TestResults.LatestForCase(ctx, key)
			if err != nil {
				return errorResult(err, nil)
			}
			if result == nil {
				return successResult(map[string]any{
					"test_result": nil,
					"message":     "No results found",
				})
			}
			return successResult(map[string]any{"test_result": result.Simplified()})
		}
}

func (t *TestResultTools) toolGetTestRunResults() (mcp.Tool, server.ToolHandlerFunc) {
	return mcp.NewTool("get_testrun_results",
			mcp.WithDescription("Get all test results recorded against a Zephyr test run"),
			mcp.WithString("test_run_key",
				mcp.Required(),
				mcp.Description("The test run key (e.g., 'JQA-R1234')"),
			),
		), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			key, err := request.RequireString("test_run_key")
			if err != nil {
				return errorResult(err, nil)
			}

			results, err := t.client.TestResults.ForRun(ctx, key)
			if err != nil {
				return errorResult(err, nil)
			}

			simplified := make([]map[string]any, 0, len(results))
			for _, result := range results {
				simplified = append(simplified, result.Simplified())
			}
			return successResult(map[string]any{
				"test_results": simplified,
				"count":        len(simplified),
			})
		}
}

// runResultOptions returns the parameters shared by the run-scoped result
// tools.
func runResultOptions() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("test_run_key",
			mcp.Required(),
			mcp.Description("The test run key (e.g., 'JQA-R1234')"),
		),
		mcp.WithString("test_case_key",
			mcp.Required(),
			mcp.Description("The test case key (e.g., 'JQA-T1234')"),
		),
		mcp.WithString("testresult_data",
			mcp.Required(),
			mcp.Description(
				"JSON string containing test result data. Required: status. "+
					"Optional: comment, executedBy, actualStartDate, actualEndDate, "+
					"executionTime, customFields, scriptResults",
			),
		),
		mcp.WithString("environment",
			mcp.Description("Optional environment name to record the result against"),
		),
		mcp.WithString("user_key",
			mcp.Description("Optional user key to record as the executor"),
		),
	}
}

func (t *TestResultTools) toolCreateTestRunResult() (mcp.Tool, server.ToolHandlerFunc) {
	options := []mcp.ToolOption{
		mcp.WithDescription("Create a test result for a test case within a Zephyr test run"),
	}
	options = append(options, runResultOptions()...)

	return mcp.NewTool("create_testrun_result", options...),
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			runKey, err := request.RequireString("test_run_key")
			if err != nil {
				return errorResult(err, nil)
			}
			caseKey, err := request.RequireString("test_case_key")
			if err != nil {
				return errorResult(err, nil)
			}
			raw, err := request.RequireString("testresult_data")
			if err != nil {
				return errorResult(err, nil)
			}
			data, err := decodePayload(raw, "testresult_data")
			if err != nil {
				return errorResult(err, nil)
			}
			environment := request.GetString("environment", "")
			userKey := request.GetString("user_key", "")

			id, err := t.client.TestResults.CreateForRun(ctx, runKey, caseKey, data, environment, userKey)
			if err != nil {
				return errorResult(err, nil)
			}
			return successResult(map[string]any{"test_result_id": id})
		}
}

func (t *TestResultTools) toolUpdateTestRunResult() (mcp.Tool, server.ToolHandlerFunc) {
	options := []mcp.ToolOption{
		mcp.WithDescription("Update the latest test result for a test case within a Zephyr test run"),
	}
	options = append(options, runResultOptions()...)

	return mcp.NewTool("update_testrun_result", options...),
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			runKey, err := request.RequireString("test_run_key")
			if err != nil {
				return errorResult(err, nil)
			}
			caseKey, err := request.RequireString("test_case_key")
			if err != nil {
				return errorResult(err, nil)
			}
			raw, err := request.RequireString("testresult_data")
			if err != nil {
				return errorResult(err, nil)
			}
			data, err := decodePayload(raw, "testresult_data")
			if err != nil {
				return errorResult(err, nil)
			}
			environment := request.GetString("environment", "")
			userKey := request.GetString("user_key", "")

			id, err := t.client.TestResults.UpdateForRun(ctx, runKey, caseKey, data, environment, userKey)
			if err != nil {
				return errorResult(err, nil)
			}
			return successResult(map[string]any{"test_result_id": id})
		}
}

func (t *TestResultTools) toolCreateBulkTestRunResults() (mcp.Tool, server.ToolHandlerFunc) {
	return mcp.NewTool("create_bulk_testrun_results",
			mcp.WithDescription("Create several test results against one Zephyr test run in a single call"),
			mcp.WithString("test_run_key",
				mcp.Required(),
				mcp.Description("The test run key (e.g., 'JQA-R1234')"),
			),
			mcp.WithString("results_data",
				mcp.Required(),
				mcp.Description(
					"JSON array of test result objects. Each requires testCaseKey and status. "+
						`Example: [{"testCaseKey": "JQA-T1", "status": "Pass"}, {"testCaseKey": "JQA-T2", "status": "Fail"}]`,
				),
			),
			mcp.WithString("environment",
				mcp.Description("Optional environment name to record the results against"),
			),
			mcp.WithString("user_key",
				mcp.Description("Optional user key to record as the executor"),
			),
		), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			runKey, err := request.RequireString("test_run_key")
			if err != nil {
				return errorResult(err, nil)
			}
			raw, err := request.RequireString("results_data")
			if err != nil {
				return errorResult(err, nil)
			}
			data, err := decodePayloadList(raw, "results_data")
			if err != nil {
				return errorResult(err, nil)
			}
			environment := request.GetString("environment", "")
			userKey := request.GetString("user_key", "")

			ids, err := t.client.TestResults.CreateBulk(ctx, runKey, data, environment, userKey)
			if err != nil {
				return errorResult(err, nil)
			}
			return successResult(map[string]any{
				"test_result_ids": ids,
				"count":           len(ids),
			})
		}
}
