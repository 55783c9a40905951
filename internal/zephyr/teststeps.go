package mcpzephyr

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/atlassian-community/zephyr-mcp-server/pkg/zephyr"
)

// TestStepTools exposes test step operations as MCP tools. Steps live
// inside the test case script, so every tool takes the issue/project pair
// that identifies the owning case.
type TestStepTools struct {
	client *zephyr.Client
}

func NewTestStepTools(client *zephyr.Client) *TestStepTools {
	return &TestStepTools{client: client}
}

func stepIdentityOptions() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("issue_id",
			mcp.Required(),
			mcp.Description("The test case key the steps belong to (e.g., 'JQA-T1234')"),
		),
		mcp.WithString("project_id",
			mcp.Required(),
			mcp.Description("The project key of the test case (e.g., 'JQA')"),
		),
	}
}

func stepIdentity(request mcp.CallToolRequest) (issueID, projectID string, err error) {
	issueID, err = request.RequireString("issue_id")
	if err != nil {
		return "", "", err
	}
	projectID, err = request.RequireString("project_id")
	if err != nil {
		return "", "", err
	}
	return issueID, projectID, nil
}

func (t *TestStepTools) toolGetTestSteps() (mcp.Tool, server.ToolHandlerFunc) {
	options := []mcp.ToolOption{
		mcp.WithDescription("Get the ordered test steps of a Zephyr test case"),
	}
	options = append(options, stepIdentityOptions()...)

	return mcp.NewTool("get_test_steps", options...),
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			issueID, projectID, err := stepIdentity(request)
			if err != nil {
				return errorResult(err, nil)
			}

			steps, err := t.client.TestSteps.Get(ctx, issueID, projectID)
			if err != nil {
				return errorResult(err, map[string]any{
					"issue_id":   issueID,
					"project_id": projectID,
				})
			}
			return successResult(map[string]any{"test_steps": steps.Simplified()})
		}
}

func (t *TestStepTools) toolAddTestStep() (mcp.Tool, server.ToolHandlerFunc) {
	options := []mcp.ToolOption{
		mcp.WithDescription("Append one test step to a Zephyr test case"),
		mcp.WithString("step",
			mcp.Required(),
			mcp.Description("The action the step performs"),
		),
		mcp.WithString("data",
			mcp.Description("Optional test data the step uses"),
		),
		mcp.WithString("result",
			mcp.Description("Optional expected result of the step"),
		),
	}
	options = append(options, stepIdentityOptions()...)

	return mcp.NewTool("add_test_step", options...),
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			issueID, projectID, err := stepIdentity(request)
			if err != nil {
				return errorResult(err, nil)
			}
			step, err := request.RequireString("step")
			if err != nil {
				return errorResult(err, nil)
			}

			created, err := t.client.TestSteps.Add(ctx, issueID, projectID, zephyr.TestStepRequest{
				Step:   step,
				Data:   request.GetString("data", ""),
				Result: request.GetString("result", ""),
			})
			if err != nil {
				return errorResult(err, map[string]any{
					"issue_id":   issueID,
					"project_id": projectID,
				})
			}
			return successResult(map[string]any{
				"test_step":  created.Simplified(),
				"issue_id":   issueID,
				"project_id": projectID,
			})
		}
}

func (t *TestStepTools) toolAddMultipleTestSteps() (mcp.Tool, server.ToolHandlerFunc) {
	options := []mcp.ToolOption{
		mcp.WithDescription("Append several test steps to a Zephyr test case in one call"),
		mcp.WithString("steps",
			mcp.Required(),
			mcp.Description(
				"JSON array of step objects. Each requires step; data and result are optional. "+
					`Example: [{"step": "Open login page"}, {"step": "Submit form", "result": "User is logged in"}]`,
			),
		),
	}
	options = append(options, stepIdentityOptions()...)

	return mcp.NewTool("add_multiple_test_steps", options...),
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			issueID, projectID, err := stepIdentity(request)
			if err != nil {
				return errorResult(err, nil)
			}
			raw, err := request.RequireString("steps")
			if err != nil {
				return errorResult(err, nil)
			}
			entries, err := decodePayloadList(raw, "steps")
			if err != nil {
				return errorResult(err, nil)
			}

			requests := make([]zephyr.TestStepRequest, 0, len(entries))
			for _, entry := range entries {
				step, _ := entry["step"].(string)
				data, _ := entry["data"].(string)
				result, _ := entry["result"].(string)
				requests = append(requests, zephyr.TestStepRequest{
					Step:   step,
					Data:   data,
					Result: result,
				})
			}

			created, err := t.client.TestSteps.AddAll(ctx, issueID, projectID, requests)
			if err != nil {
				return errorResult(err, map[string]any{
					"issue_id":   issueID,
					"project_id": projectID,
				})
			}

			simplified := make([]map[string]any, 0, len(created))
			for _, step := range created {
				simplified = append(simplified, step.Simplified())
			}
			return successResult(map[string]any{
				"test_steps":      simplified,
				"total_requested": len(requests),
				"total_created":   len(created),
				"issue_id":        issueID,
				"project_id":      projectID,
			})
		}
}
