package promptreader

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"text/template"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"gopkg.in/yaml.v3"
)

// PromptHandlerPair couples a prompt definition with the handler that
// renders it.
type PromptHandlerPair struct {
	Prompt  mcp.Prompt
	Handler server.PromptHandlerFunc
}

// LoadPromptsFromYAML reads prompt definitions from a YAML document and
// converts them to pairs of mcp.Prompt and server.PromptHandlerFunc.
// Message texts are Go templates over the prompt arguments; they are parsed
// once at load time and rendered per request, so a missing argument fails
// the GetPrompt call rather than the serialization of its result.
func LoadPromptsFromYAML(data []byte) ([]PromptHandlerPair, error) {
	var promptDefs struct {
		Prompts []struct {
			mcp.Prompt `yaml:",inline"`
			Messages   []struct {
				Role    mcp.Role `yaml:"role"`
				Content struct {
					mcp.TextContent `yaml:",inline"`
				} `yaml:"content"`
			} `yaml:"messages"`
		} `yaml:"prompts"`
	}
	if err := yaml.Unmarshal(data, &promptDefs); err != nil {
		return nil, fmt.Errorf("error parsing prompts YAML: %w", err)
	}

	result := make([]PromptHandlerPair, 0, len(promptDefs.Prompts))
	for _, def := range promptDefs.Prompts {
		if len(def.Messages) == 0 {
			return nil, fmt.Errorf("prompt %s has no messages", def.GetName())
		}

		tmpls := template.New("").Option("missingkey=error")
		var err error
		for idx, msgDef := range def.Messages {
			if msgDef.Content.Type != "text" {
				return nil, fmt.Errorf(
					"prompt %s message %d has unsupported content type %s",
					def.GetName(), idx, msgDef.Content.Type,
				)
			}
			if msgDef.Content.Text == "" {
				return nil, fmt.Errorf(
					"prompt %s message %d has no text defined",
					def.GetName(), idx,
				)
			}
			tmpls, err = tmpls.New(strconv.Itoa(idx)).Parse(msgDef.Content.Text)
			if err != nil {
				return nil, fmt.Errorf(
					"error parsing template for prompt %s: %w",
					def.GetName(), err,
				)
			}
		}

		messages := def.Messages
		name := def.GetName()
		description := def.Description
		handler := func(ctx context.Context, rq mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
			if rq.Params.Name != name {
				return nil, fmt.Errorf("prompt %s not found", rq.Params.Name)
			}

			rendered := make([]mcp.PromptMessage, 0, len(messages))
			for msgIdx, msg := range messages {
				var buf bytes.Buffer
				tmpl := tmpls.Lookup(strconv.Itoa(msgIdx))
				if err := tmpl.Execute(&buf, rq.Params.Arguments); err != nil {
					return nil, fmt.Errorf(
						"error rendering prompt %s message %d: %w",
						name, msgIdx, err,
					)
				}
				rendered = append(rendered, mcp.NewPromptMessage(msg.Role, mcp.TextContent{
					Type:      msg.Content.Type,
					Text:      buf.String(),
					Annotated: msg.Content.Annotated,
				}))
			}
			return &mcp.GetPromptResult{
				Description: description,
				Messages:    rendered,
			}, nil
		}

		result = append(result, PromptHandlerPair{
			Prompt:  def.Prompt,
			Handler: handler,
		})
	}

	return result, nil
}
