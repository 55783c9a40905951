package mcpzephyr

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/atlassian-community/zephyr-mcp-server/pkg/zephyr"
)

// EnvironmentTools exposes project environment operations as MCP tools.
type EnvironmentTools struct {
	client *zephyr.Client
}

func NewEnvironmentTools(client *zephyr.Client) *EnvironmentTools {
	return &EnvironmentTools{client: client}
}

func (t *EnvironmentTools) toolGetEnvironments() (mcp.Tool, server.ToolHandlerFunc) {
	return mcp.NewTool("get_environments",
			mcp.WithDescription("Get the execution environments defined for a project"),
			mcp.WithString("project_key",
				mcp.Required(),
				mcp.Description("The project key (e.g., 'JQA')"),
			),
		), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			projectKey, err := request.RequireString("project_key")
			if err != nil {
				return errorResult(err, nil)
			}

			environments, err := t.client.Environments.List(ctx, projectKey)
			if err != nil {
				return errorResult(err, nil)
			}
			return successResult(map[string]any{
				"environments": environments,
				"count":        len(environments),
			})
		}
}

func (t *EnvironmentTools) toolCreateEnvironment() (mcp.Tool, server.ToolHandlerFunc) {
	return mcp.NewTool("create_environment",
			mcp.WithDescription("Create an execution environment for a project"),
			mcp.WithString("environment_data",
				mcp.Required(),
				mcp.Description(
					"JSON string containing environment data. Required: projectKey, name. "+
						"Optional: description. "+
						`Example: {"projectKey": "JQA", "name": "Chrome", "description": "Latest stable Chrome"}`,
				),
			),
		), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			raw, err := request.RequireString("environment_data")
			if err != nil {
				return errorResult(err, nil)
			}
			data, err := decodePayload(raw, "environment_data")
			if err != nil {
				return errorResult(err, nil)
			}

			id, err := t.client.Environments.Create(ctx, data)
			if err != nil {
				return errorResult(err, nil)
			}
			return successResult(map[string]any{"environment_id": id})
		}
}
