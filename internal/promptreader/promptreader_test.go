package promptreader_test

import (
	"context"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlassian-community/zephyr-mcp-server/internal/promptreader"
)

func getPromptRequest(name string, arguments map[string]string) mcp.GetPromptRequest {
	return mcp.GetPromptRequest{
		Params: struct {
			Name      string            `json:"name"`
			Arguments map[string]string `json:"arguments,omitempty"`
		}{
			Name:      name,
			Arguments: arguments,
		},
	}
}

func TestLoadPromptsFromYAML(t *testing.T) {
	yamlContent := []byte(`
prompts:
  - name: zephyr_analyze_testrun_results
    description: "Analyze the results of a Zephyr test run"
    arguments:
      - name: test_run_key
        description: "Key of the test run to analyze"
        required: true
    messages:
      - role: user
        content:
          type: text
          text: "Analyze the execution results of test run '{{.test_run_key}}'."
  - name: zephyr_draft_test_cases
    description: "Draft test cases for a Jira issue"
    arguments:
      - name: issue_key
        description: "Key of the issue to cover"
        required: true
      - name: project_key
        description: "Key of the owning project"
        required: true
    messages:
      - role: user
        content:
          type: text
          text: "Draft test cases covering issue '{{.issue_key}}' in project '{{.project_key}}'."
      - role: assistant
        content:
          type: text
          text: "I'll check existing coverage first."
`)

	prompts, err := promptreader.LoadPromptsFromYAML(yamlContent)
	require.NoError(t, err)
	require.Len(t, prompts, 2)

	t.Run("VerifyPromptMetadata", func(t *testing.T) {
		assert.Equal(t, "zephyr_analyze_testrun_results", prompts[0].Prompt.GetName())
		assert.Equal(t, "Analyze the results of a Zephyr test run", prompts[0].Prompt.Description)
		assert.Len(t, prompts[0].Prompt.Arguments, 1)

		assert.Equal(t, "zephyr_draft_test_cases", prompts[1].Prompt.GetName())
		assert.Len(t, prompts[1].Prompt.Arguments, 2)
		assert.Equal(t, "issue_key", prompts[1].Prompt.Arguments[0].Name)
		assert.True(t, prompts[1].Prompt.Arguments[0].Required)
	})

	t.Run("TemplateRendering", func(t *testing.T) {
		ctx := context.Background()
		promptResult, err := prompts[1].Handler(ctx, getPromptRequest(
			"zephyr_draft_test_cases",
			map[string]string{"issue_key": "JQA-123", "project_key": "JQA"},
		))
		require.NoError(t, err)
		require.Len(t, promptResult.Messages, 2)

		assert.Equal(t, "user", string(promptResult.Messages[0].Role))
		text := promptResult.Messages[0].Content.(mcp.TextContent).Text
		assert.Contains(t, text, "JQA-123")
		assert.Contains(t, text, "'JQA'")

		assert.Equal(t, "assistant", string(promptResult.Messages[1].Role))
	})

	t.Run("MissingArgumentFailsRendering", func(t *testing.T) {
		ctx := context.Background()
		_, err := prompts[1].Handler(ctx, getPromptRequest(
			"zephyr_draft_test_cases",
			map[string]string{"issue_key": "JQA-123"},
		))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "zephyr_draft_test_cases")
	})

	t.Run("WrongPromptName", func(t *testing.T) {
		ctx := context.Background()
		_, err := prompts[0].Handler(ctx, getPromptRequest("no_such_prompt", nil))
		require.Error(t, err)
	})
}

func TestLoadPromptsFromInvalidYAML(t *testing.T) {
	_, err := promptreader.LoadPromptsFromYAML([]byte("invalid: yaml: content"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error parsing prompts YAML")
}

func TestEmptyPromptsYAML(t *testing.T) {
	prompts, err := promptreader.LoadPromptsFromYAML([]byte(`prompts: []`))
	require.NoError(t, err)
	assert.Empty(t, prompts)
}

func TestPromptWithoutMessages(t *testing.T) {
	_, err := promptreader.LoadPromptsFromYAML([]byte(`
prompts:
  - name: incomplete_prompt
    description: "No messages defined"
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "has no messages")
}

func TestPromptWithUnsupportedContentType(t *testing.T) {
	_, err := promptreader.LoadPromptsFromYAML([]byte(`
prompts:
  - name: image_prompt
    description: "Unsupported content"
    messages:
      - role: user
        content:
          type: image
          text: "nope"
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported content type")
}
