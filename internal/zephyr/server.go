package mcpzephyr

import (
	"embed"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/atlassian-community/zephyr-mcp-server/internal/promptreader"
	"github.com/atlassian-community/zephyr-mcp-server/pkg/zephyr"
)

//go:embed prompts/*.yaml
var promptFiles embed.FS

// NewServer assembles the MCP server: every Zephyr tool wrapped with
// invocation logging, the resource templates, and the embedded prompts.
func NewServer(version string, client *zephyr.Client) (*server.MCPServer, error) {
	s := server.NewMCPServer(
		"zephyr-mcp-server",
		version,
		server.WithRecovery(),
		server.WithLogging(),
		server.WithResourceCapabilities(true, true),
		server.WithToolCapabilities(true),
	)

	addTool := func(tool mcp.Tool, handler server.ToolHandlerFunc) {
		s.AddTool(tool, withLogging(tool.Name, handler))
	}

	testCases := NewTestCaseTools(client)
	addTool(testCases.toolGetTestCase())
	addTool(testCases.toolCreateTestCase())
	addTool(testCases.toolUpdateTestCase())
	addTool(testCases.toolDeleteTestCase())
	addTool(testCases.toolSearchTestCases())
	addTool(testCases.toolGetIssueTestCases())
	s.AddResourceTemplate(testCases.resourceTestCase())

	testPlans := NewTestPlanTools(client)
	addTool(testPlans.toolGetTestPlan())
	addTool(testPlans.toolCreateTestPlan())
	addTool(testPlans.toolUpdateTestPlan())
	addTool(testPlans.toolDeleteTestPlan())
	addTool(testPlans.toolSearchTestPlans())

	testRuns := NewTestRunTools(client)
	addTool(testRuns.toolGetTestRun())
	addTool(testRuns.toolCreateTestRun())
	addTool(testRuns.toolDeleteTestRun())
	addTool(testRuns.toolSearchTestRuns())
	s.AddResourceTemplate(testRuns.resourceTestRun())

	testResults := NewTestResultTools(client)
	addTool(testResults.toolCreateTestResult())
	addTool(testResults.toolGetTestCaseLatestResult())
	addTool(testResults.toolGetTestRunResults())
	addTool(testResults.toolCreateTestRunResult())
	addTool(testResults.toolUpdateTestRunResult())
	addTool(testResults.toolCreateBulkTestRunResults())

	testSteps := NewTestStepTools(client)
	addTool(testSteps.toolGetTestSteps())
	addTool(testSteps.toolAddTestStep())
	addTool(testSteps.toolAddMultipleTestSteps())

	environments := NewEnvironmentTools(client)
	addTool(environments.toolGetEnvironments())
	addTool(environments.toolCreateEnvironment())

	prompts, err := readPrompts(promptFiles, "prompts")
	if err != nil {
		return nil, fmt.Errorf("failed to load prompts: %w", err)
	}
	for _, prompt := range prompts {
		s.AddPrompt(prompt.Prompt, prompt.Handler)
	}

	return s, nil
}

// readPrompts reads every embedded YAML file containing prompt definitions.
func readPrompts(files embed.FS, dir string) ([]promptreader.PromptHandlerPair, error) {
	entries, err := fs.ReadDir(files, dir)
	if err != nil {
		return nil, err
	}
	handlers := make([]promptreader.PromptHandlerPair, 0, len(entries))
	for _, entry := range entries {
		// The embed path separator is a forward slash, even on Windows.
		data, err := fs.ReadFile(files, filepath.Clean(dir)+"/"+entry.Name())
		if err != nil {
			return nil, err
		}
		prompts, err := promptreader.LoadPromptsFromYAML(data)
		if err != nil {
			return nil, fmt.Errorf("error loading prompts from YAML: %w", err)
		}
		handlers = append(handlers, prompts...)
	}
	return handlers, nil
}
