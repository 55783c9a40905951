package mcpzephyr

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// withLogging wraps a tool handler with per-invocation logging. Each call
// gets a generated invocation id so concurrent invocations can be told
// apart in the log stream.
func withLogging(toolName string, handler server.ToolHandlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		invocationID := uuid.NewString()
		started := time.Now()
		slog.Debug("tool invocation started", "tool", toolName, "invocation_id", invocationID)

		result, err := handler(ctx, request)

		slog.Info("tool invocation finished",
			"tool", toolName,
			"invocation_id", invocationID,
			"duration", time.Since(started),
			"is_error", err != nil || (result != nil && result.IsError),
		)
		return result, err
	}
}
