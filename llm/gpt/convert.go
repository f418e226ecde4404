package gpt

import (
	"github.com/m-mizutani/promptic"
	"github.com/sashabaranov/go-openai"
)

func convertRequest(req promptic.ChatRequest) openai.ChatCompletionRequest {
	converted := openai.ChatCompletionRequest{
		Model:    req.Model,
		Messages: make([]openai.ChatCompletionMessage, 0, len(req.Messages)),
	}

	for _, msg := range req.Messages {
		converted.Messages = append(converted.Messages, convertMessage(msg))
	}
	for _, spec := range req.Tools {
		converted.Tools = append(converted.Tools, convertTool(spec))
	}

	return converted
}

func convertMessage(msg promptic.Message) openai.ChatCompletionMessage {
	converted := openai.ChatCompletionMessage{
		Role:       convertRole(msg.Role),
		Content:    msg.Content,
		ToolCallID: msg.ToolCallID,
	}

	if msg.Role == promptic.RoleTool {
		converted.Name = msg.Name
	}

	for _, call := range msg.ToolCalls {
		converted.ToolCalls = append(converted.ToolCalls, openai.ToolCall{
			ID:   call.ID,
			Type: openai.ToolTypeFunction,
			Function: openai.FunctionCall{
				Name:      call.Name,
				Arguments: call.Arguments,
			},
		})
	}

	return converted
}

func convertRole(role string) string {
	switch role {
	case promptic.RoleSystem:
		return openai.ChatMessageRoleSystem
	case promptic.RoleUser:
		return openai.ChatMessageRoleUser
	case promptic.RoleAssistant:
		return openai.ChatMessageRoleAssistant
	case promptic.RoleTool:
		return openai.ChatMessageRoleTool
	default:
		return openai.ChatMessageRoleUser
	}
}

func convertTool(spec promptic.ToolSpec) openai.Tool {
	return openai.Tool{
		Type: openai.ToolTypeFunction,
		Function: &openai.FunctionDefinition{
			Name:        spec.Name,
			Description: spec.Description,
			Parameters:  spec.InputSchema(),
		},
	}
}
