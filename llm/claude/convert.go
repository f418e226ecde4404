package claude

import (
	"encoding/json"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/m-mizutani/promptic"
)

func convertTools(specs []promptic.ToolSpec) []anthropic.ToolUnionParam {
	tools := make([]anthropic.ToolUnionParam, len(specs))
	for i, spec := range specs {
		tools[i] = convertTool(spec)
	}
	return tools
}

func convertTool(spec promptic.ToolSpec) anthropic.ToolUnionParam {
	inputSchema := spec.InputSchema()

	return anthropic.ToolUnionParam{
		OfTool: &anthropic.ToolParam{
			Name:        spec.Name,
			Description: anthropic.String(spec.Description),
			InputSchema: anthropic.ToolInputSchemaParam{
				Properties: inputSchema["properties"],
			},
		},
	}
}

// convertMessages splits a chat message list into Claude's system text and
// message params. Tool-role messages become tool_result blocks, merged into
// a single user message as the API requires.
func convertMessages(messages []promptic.Message) (string, []anthropic.MessageParam) {
	var system strings.Builder
	var converted []anthropic.MessageParam
	var toolResults []anthropic.ContentBlockParamUnion

	flushToolResults := func() {
		if len(toolResults) > 0 {
			converted = append(converted, anthropic.NewUserMessage(toolResults...))
			toolResults = nil
		}
	}

	for _, msg := range messages {
		switch msg.Role {
		case promptic.RoleSystem:
			if system.Len() > 0 {
				system.WriteString("\n\n")
			}
			system.WriteString(msg.Content)

		case promptic.RoleUser:
			flushToolResults()
			converted = append(converted, anthropic.NewUserMessage(
				anthropic.NewTextBlock(msg.Content),
			))

		case promptic.RoleAssistant:
			flushToolResults()
			var blocks []anthropic.ContentBlockParamUnion
			if msg.Content != "" {
				blocks = append(blocks, anthropic.NewTextBlock(msg.Content))
			}
			for _, call := range msg.ToolCalls {
				var input any
				if call.Arguments != "" {
					// Invalid JSON stays nil; the API reports it upstream.
					_ = json.Unmarshal([]byte(call.Arguments), &input)
				}
				blocks = append(blocks, anthropic.ContentBlockParamUnion{
					OfRequestToolUseBlock: &anthropic.ToolUseBlockParam{
						ID:    call.ID,
						Name:  call.Name,
						Input: input,
						Type:  "tool_use",
					},
				})
			}
			if len(blocks) > 0 {
				converted = append(converted, anthropic.NewAssistantMessage(blocks...))
			}

		case promptic.RoleTool:
			toolResults = append(toolResults, anthropic.NewToolResultBlock(msg.ToolCallID, msg.Content, false))
		}
	}
	flushToolResults()

	return system.String(), converted
}

// convertResponse converts a Claude message to promptic.ChatResponse
func convertResponse(resp *anthropic.Message) *promptic.ChatResponse {
	response := &promptic.ChatResponse{}
	if len(resp.Content) == 0 {
		return response
	}

	var texts []string
	for _, content := range resp.Content {
		textBlock := content.AsResponseTextBlock()
		if textBlock.Type == "text" {
			texts = append(texts, textBlock.Text)
		}

		toolUseBlock := content.AsResponseToolUseBlock()
		if toolUseBlock.Type == "tool_use" {
			response.ToolCalls = append(response.ToolCalls, promptic.ToolCall{
				ID:        toolUseBlock.ID,
				Name:      toolUseBlock.Name,
				Arguments: string(toolUseBlock.Input),
			})
		}
	}
	response.Content = strings.Join(texts, "\n")

	return response
}
