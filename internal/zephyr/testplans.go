package mcpzephyr

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/atlassian-community/zephyr-mcp-server/pkg/zephyr"
)

// TestPlanTools exposes test plan operations as MCP tools.
type TestPlanTools struct {
	client *zephyr.Client
}

func NewTestPlanTools(client *zephyr.Client) *TestPlanTools {
	return &TestPlanTools{client: client}
}

func (t *TestPlanTools) toolGetTestPlan() (mcp.Tool, server.ToolHandlerFunc) {
	return mcp.NewTool("get_testplan",
			mcp.WithDescription("Get a Zephyr test plan by key"),
			mcp.WithString("test_plan_key",
				mcp.Required(),
				mcp.Description("The test plan key (e.g., 'JQA-P1234')"),
			),
			mcp.WithString("fields",
				mcp.Description("Optional comma-separated list of fields to include"),
			),
		), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			key, err := request.RequireString("test_plan_key")
			if err != nil {
				return errorResult(err, nil)
			}
			fields := request.GetString("fields", "")

			plan, err := t.client.TestPlans.Get(ctx, key, fields)
			if err != nil {
				return errorResult(err, nil)
			}
			return successResult(map[string]any{"test_plan": plan.Simplified()})
		}
}

func (t *TestPlanTools) toolCreateTestPlan() (mcp.Tool, server.ToolHandlerFunc) {
	return mcp.NewTool("create_testplan",
			mcp.WithDescription("Create a new Zephyr test plan"),
			mcp.WithString("testplan_data",
				mcp.Required(),
				mcp.Description(
					"JSON string containing test plan data. Required: name, projectKey. "+
						"Optional: status, folder, owner, labels, objective, customFields, issueLinks. "+
						`Example: {"name": "Release 1.0 plan", "projectKey": "JQA"}`,
				),
			),
		), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			raw, err := request.RequireString("testplan_data")
			if err != nil {
				return errorResult(err, nil)
			}
			data, err := decodePayload(raw, "testplan_data")
			if err != nil {
				return errorResult(err, nil)
			}

			key, err := t.client.TestPlans.Create(ctx, data)
			if err != nil {
				return errorResult(err, nil)
			}
			return successResult(map[string]any{"test_plan_key": key})
		}
}

func (t *TestPlanTools) toolUpdateTestPlan() (mcp.Tool, server.ToolHandlerFunc) {
	return mcp.NewTool("update_testplan",
			mcp.WithDescription("Update a Zephyr test plan"),
			mcp.WithString("test_plan_key",
				mcp.Required(),
				mcp.Description("The test plan key to update (e.g., 'JQA-P1234')"),
			),
			mcp.WithString("testplan_data",
				mcp.Required(),
				mcp.Description("JSON string containing the fields to update"),
			),
		), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			key, err := request.RequireString("test_plan_key")
			if err != nil {
				return errorResult(err, nil)
			}
			raw, err := request.RequireString("testplan_data")
			if err != nil {
				return errorResult(err, nil)
			}
			data, err := decodePayload(raw, "testplan_data")
			if err != nil {
				return errorResult(err, nil)
			}

			if err := t.client.TestPlans.Update(ctx, key, data); err != nil {
				return errorResult(err, nil)
			}
			return successResult(map[string]any{
				"message": fmt.Sprintf("Test plan %s updated", key),
			})
		}
}

func (t *TestPlanTools) toolDeleteTestPlan() (mcp.Tool, server.ToolHandlerFunc) {
	return mcp.NewTool("delete_testplan",
			mcp.WithDescription("Delete a Zephyr test plan"),
			mcp.WithString("test_plan_key",
				mcp.Required(),
				mcp.Description("The test plan key to delete (e.g., 'JQA-P1234')"),
			),
		), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			key, err := request.RequireString("test_plan_key")
			if err != nil {
				return errorResult(err, nil)
			}

			if err := t.client.TestPlans.Delete(ctx, key); err != nil {
				return errorResult(err, nil)
			}
			return successResult(map[string]any{
				"message": fmt.Sprintf("Test plan %s deleted", key),
			})
		}
}

func (t *TestPlanTools) toolSearchTestPlans() (mcp.Tool, server.ToolHandlerFunc) {
	options := []mcp.ToolOption{
		mcp.WithDescription("Search Zephyr test plans with a TQL query"),
	}
	options = append(options, searchOptions()...)

	return mcp.NewTool("search_testplans", options...),
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			query, fields, startAt, maxResults := extractSearchParams(request)

			plans, err := t.client.TestPlans.Search(ctx, query, fields, startAt, maxResults)
			if err != nil {
				return errorResult(err, nil)
			}

			results := make([]map[string]any, 0, len(plans))
			for _, plan := range plans {
				results = append(results, plan.Simplified())
			}
			return successResult(map[string]any{
				"test_plans": results,
				"count":      len(results),
			})
		}
}
