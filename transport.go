package promptic

import (
	"context"
	"encoding/json"
)

// Message roles on the chat wire. The orchestrator builds message lists with
// these roles and transports map them to provider-specific shapes.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is one entry of a chat exchange.
type Message struct {
	Role    string
	Content string

	// ToolCalls carries the tool invocations requested by an assistant
	// message. It is empty for other roles.
	ToolCalls []ToolCall

	// ToolCallID links a tool-role message back to the assistant's tool
	// call it answers.
	ToolCallID string

	// Name is the function name on a tool-role message. Some providers
	// correlate tool results by name rather than by call ID.
	Name string
}

// ToolCall is a tool invocation requested by the model. Arguments is the
// raw JSON object string as received from the provider.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// ChatRequest is a single completion request.
type ChatRequest struct {
	Model    string
	Messages []Message

	// Tools are declared to the model when non-empty.
	Tools []ToolSpec
}

// ChatResponse is the model's reply to a ChatRequest.
type ChatResponse struct {
	Content   string
	ToolCalls []ToolCall
}

// StreamChunk is one increment of a streamed completion. Err is set on the
// final chunk when the stream terminates abnormally.
type StreamChunk struct {
	Delta string
	Err   error
}

// Transport sends chat requests to one provider endpoint. Implementations
// live in the llm subpackages; tests substitute their own.
type Transport interface {
	// Complete performs a single blocking chat completion.
	Complete(ctx context.Context, req ChatRequest) (*ChatResponse, error)

	// CompleteStructured performs a completion whose output is constrained
	// by schema and returns the raw JSON document produced by the model.
	CompleteStructured(ctx context.Context, req ChatRequest, schema *Parameter) (json.RawMessage, error)

	// CompleteStream starts a streaming completion. The returned channel is
	// closed when the stream ends.
	CompleteStream(ctx context.Context, req ChatRequest) (<-chan StreamChunk, error)
}
