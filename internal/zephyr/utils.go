package mcpzephyr

import (
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/atlassian-community/zephyr-mcp-server/pkg/zephyr"
)

const (
	defaultStartAt    = 0
	defaultMaxResults = zephyr.DefaultSearchLimit
)

// successResult wraps a tool payload in the response envelope. Every tool
// returns a well-formed JSON object; the envelope always carries "success".
func successResult(payload map[string]any) (*mcp.CallToolResult, error) {
	envelope := make(map[string]any, len(payload)+1)
	for key, value := range payload {
		envelope[key] = value
	}
	envelope["success"] = true

	body, err := json.MarshalIndent(envelope, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response: %w", err)
	}
	return mcp.NewToolResultText(string(body)), nil
}

// errorResult converts any failure into the envelope's failure shape. No
// error escapes a tool handler as a protocol-level exception.
func errorResult(err error, extra map[string]any) (*mcp.CallToolResult, error) {
	envelope := map[string]any{
		"success": false,
		"error":   err.Error(),
	}
	for key, value := range extra {
		envelope[key] = value
	}

	body, mErr := json.MarshalIndent(envelope, "", "  ")
	if mErr != nil {
		return nil, fmt.Errorf("failed to marshal error response: %w", mErr)
	}
	return mcp.NewToolResultError(string(body)), nil
}

// decodePayload validates a caller-supplied JSON object string before any
// network call is made.
func decodePayload(raw, what string) (map[string]any, error) {
	var data map[string]any
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, fmt.Errorf("invalid JSON in %s: %v", what, err)
	}
	return data, nil
}

// decodePayloadList validates a caller-supplied JSON array of objects.
func decodePayloadList(raw, what string) ([]map[string]any, error) {
	var items []any
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("invalid JSON in %s: %v (expected a JSON array)", what, err)
	}
	data := make([]map[string]any, 0, len(items))
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("invalid entry at index %d in %s: expected a JSON object", i, what)
		}
		data = append(data, obj)
	}
	return data, nil
}

// searchOptions returns the shared search tool parameters.
func searchOptions() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("query",
			mcp.Description("TQL query string, passed through to the API verbatim"),
		),
		mcp.WithString("fields",
			mcp.Description("Optional comma-separated list of fields to include"),
		),
		mcp.WithNumber("start_at",
			mcp.DefaultNumber(defaultStartAt),
			mcp.Description("Offset for pagination"),
		),
		mcp.WithNumber("max_results",
			mcp.DefaultNumber(defaultMaxResults),
			mcp.Description("Maximum number of results to return (1-200)"),
		),
	}
}

// extractSearchParams reads and bounds the shared search parameters:
// start_at is floored at 0, max_results clamped to [1,200].
func extractSearchParams(request mcp.CallToolRequest) (query, fields string, startAt, maxResults int) {
	query = request.GetString("query", "")
	fields = request.GetString("fields", "")

	startAt = request.GetInt("start_at", defaultStartAt)
	if startAt < 0 {
		startAt = 0
	}

	maxResults = request.GetInt("max_results", defaultMaxResults)
	if maxResults < 1 {
		maxResults = 1
	}
	if maxResults > defaultMaxResults {
		maxResults = defaultMaxResults
	}
	return query, fields, startAt, maxResults
}
