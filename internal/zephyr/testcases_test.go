package mcpzephyr

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/mcptest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yosida95/uritemplate/v3"

	"github.com/atlassian-community/zephyr-mcp-server/pkg/zephyr"
)

func newMockedClient(t *testing.T, handler http.Handler) *zephyr.Client {
	t.Helper()

	mockServer := httptest.NewServer(handler)
	t.Cleanup(mockServer.Close)

	cfg := zephyr.NewConfig(mockServer.URL, "test-token")
	cfg.MaxRetries = 0
	client, err := zephyr.NewClient(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func callTool(t *testing.T, srv *mcptest.Server, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()

	var req mcp.CallToolRequest
	req.Params.Name = name
	req.Params.Arguments = args

	result, err := srv.Client().CallTool(context.Background(), req)
	require.NoError(t, err)
	return result
}

func TestTestCaseByKeyTemplate(t *testing.T) {
	uritmpl := uritemplate.MustNew("zephyr://testcase/{testCaseKey}")
	vals := uritmpl.Match("zephyr://testcase/JQA-T123")
	require.Equal(t, "JQA-T123", vals.Get("testCaseKey").String())
}

func TestGetTestCaseTool(t *testing.T) {
	ctx := context.Background()
	client := newMockedClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/atm/1.0/testcase/JQA-T1", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"key": "JQA-T1",
			"name": "Login works",
			"projectKey": "JQA",
			"status": "Approved",
			"priority": "High"
		}`))
	}))

	srv := mcptest.NewUnstartedServer(t)
	tools := NewTestCaseTools(client)
	srv.AddTool(tools.toolGetTestCase())
	require.NoError(t, srv.Start(ctx))
	defer srv.Close()

	result := callTool(t, srv, "get_testcase", map[string]any{
		"test_case_key": "JQA-T1",
	})
	require.False(t, result.IsError)

	envelope := unmarshalEnvelope(t, result)
	assert.Equal(t, true, envelope["success"])
	testCase := envelope["test_case"].(map[string]any)
	assert.Equal(t, "JQA-T1", testCase["key"])
	assert.Equal(t, "Approved", testCase["status"])
}

func TestGetTestCaseToolNotFound(t *testing.T) {
	ctx := context.Background()
	client := newMockedClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	srv := mcptest.NewUnstartedServer(t)
	tools := NewTestCaseTools(client)
	srv.AddTool(tools.toolGetTestCase())
	require.NoError(t, srv.Start(ctx))
	defer srv.Close()

	result := callTool(t, srv, "get_testcase", map[string]any{
		"test_case_key": "JQA-T9999",
	})
	require.True(t, result.IsError)

	envelope := unmarshalEnvelope(t, result)
	assert.Equal(t, false, envelope["success"])
	assert.Equal(t, "test case JQA-T9999 not found", envelope["error"])
}

func TestSearchTestCasesTool(t *testing.T) {
	ctx := context.Background()
	client := newMockedClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/atm/1.0/testcase/search", r.URL.Path)
		assert.Equal(t, `folder = "/Auth"`, r.URL.Query().Get("query"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"key": "JQA-T1"}, {"key": "JQA-T2"}]`))
	}))

	srv := mcptest.NewUnstartedServer(t)
	tools := NewTestCaseTools(client)
	srv.AddTool(tools.toolSearchTestCases())
	require.NoError(t, srv.Start(ctx))
	defer srv.Close()

	result := callTool(t, srv, "search_testcases", map[string]any{
		"query": `folder = "/Auth"`,
	})
	require.False(t, result.IsError)

	envelope := unmarshalEnvelope(t, result)
	assert.Equal(t, float64(2), envelope["count"])
	assert.Len(t, envelope["test_cases"], 2)
}

func TestCreateTestCaseToolRejectsBadJSON(t *testing.T) {
	ctx := context.Background()
	var requests int
	client := newMockedClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	}))

	srv := mcptest.NewUnstartedServer(t)
	tools := NewTestCaseTools(client)
	srv.AddTool(tools.toolCreateTestCase())
	require.NoError(t, srv.Start(ctx))
	defer srv.Close()

	result := callTool(t, srv, "create_testcase", map[string]any{
		"testcase_data": `{"name": unquoted}`,
	})
	require.True(t, result.IsError)
	assert.Zero(t, requests, "invalid input is rejected before any network call")

	envelope := unmarshalEnvelope(t, result)
	assert.Contains(t, envelope["error"], "testcase_data")
}

func TestDeleteTestCaseTool(t *testing.T) {
	ctx := context.Background()
	client := newMockedClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusNoContent)
	}))

	srv := mcptest.NewUnstartedServer(t)
	tools := NewTestCaseTools(client)
	srv.AddTool(tools.toolDeleteTestCase())
	require.NoError(t, srv.Start(ctx))
	defer srv.Close()

	result := callTool(t, srv, "delete_testcase", map[string]any{
		"test_case_key": "JQA-T1",
	})
	require.False(t, result.IsError)

	envelope := unmarshalEnvelope(t, result)
	assert.Equal(t, "Test case JQA-T1 deleted", envelope["message"])
}
