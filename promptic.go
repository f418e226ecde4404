// Package promptic assembles prompts from external storage and drives them
// through LLM provider endpoints. A prompt directory (settings.json,
// system.md, optional user.md) is loaded through a storage provider,
// optionally enriched with tools and a response schema, and completed by a
// ModelClient: plain text, tool-calling, structured output, or streaming.
package promptic

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

// ModelClient sends an assembled prompt to a model endpoint. When the
// prompt declares tools, completion is a fixed two-phase exchange: the
// first call collects the model's tool calls, the dispatched results are
// appended to the conversation, and a second call produces the final
// answer. The branch depends only on whether tools are declared, never on
// what the model returns.
type ModelClient struct {
	prompt    *Prompt
	transport Transport
	runner    *Runner
	logger    *slog.Logger
}

// ModelOption configures a ModelClient.
type ModelOption func(*ModelClient)

// WithToolRunner sets the runner used to dispatch tool calls. Without this
// option the client builds a runner over the prompt's own tools.
func WithToolRunner(runner *Runner) ModelOption {
	return func(c *ModelClient) {
		c.runner = runner
	}
}

// WithLogger sets the logger for the client. Default is a discard logger.
func WithLogger(logger *slog.Logger) ModelOption {
	return func(c *ModelClient) {
		c.logger = logger
	}
}

// NewModelClient creates a client that completes prompt through transport.
func NewModelClient(prompt *Prompt, transport Transport, options ...ModelOption) *ModelClient {
	client := &ModelClient{
		prompt:    prompt,
		transport: transport,
		logger:    slog.New(slog.DiscardHandler),
	}

	for _, opt := range options {
		opt(client)
	}

	if client.runner == nil {
		client.runner = NewRunner(NewRegistry(prompt.Tools...))
	}

	return client
}

// Complete sends the prompt and returns the model's final text answer.
// With tools declared it always performs the full two-phase exchange, even
// when the first response requests no tool calls.
func (c *ModelClient) Complete(ctx context.Context) (string, error) {
	ctx, logger := c.requestContext(ctx)
	messages := c.baseMessages()

	if len(c.prompt.Tools) == 0 {
		logger.Info("start completion", "model", c.prompt.Settings.Model)

		resp, err := c.transport.Complete(ctx, ChatRequest{
			Model:    c.prompt.Settings.Model,
			Messages: messages,
		})
		if err != nil {
			return "", err
		}
		return resp.Content, nil
	}

	logger.Info("start tool completion", "model", c.prompt.Settings.Model, "tools", len(c.prompt.Tools))
	return c.completeWithTools(ctx, messages)
}

func (c *ModelClient) completeWithTools(ctx context.Context, messages []Message) (string, error) {
	logger := LoggerFromContext(ctx)
	specs := c.prompt.Specs()

	first, err := c.transport.Complete(ctx, ChatRequest{
		Model:    c.prompt.Settings.Model,
		Messages: messages,
		Tools:    specs,
	})
	if err != nil {
		return "", err
	}
	logger.Debug("first call done", "tool_calls", len(first.ToolCalls))

	requests := make([]ToolCallRequest, 0, len(first.ToolCalls))
	for _, call := range first.ToolCalls {
		args, err := decodeToolArguments(call)
		if err != nil {
			return "", err
		}
		requests = append(requests, ToolCallRequest{
			ID:           call.ID,
			FunctionName: call.Name,
			Arguments:    args,
		})
	}

	responses := c.runner.Run(ctx, requests)

	messages = append(messages, Message{
		Role:      RoleAssistant,
		Content:   first.Content,
		ToolCalls: first.ToolCalls,
	})
	for _, resp := range responses {
		messages = append(messages, Message{
			Role:       RoleTool,
			ToolCallID: resp.ToolCallID,
			Name:       resp.FunctionName,
			Content:    stringifyToolResult(resp.Result),
		})
	}

	second, err := c.transport.Complete(ctx, ChatRequest{
		Model:    c.prompt.Settings.Model,
		Messages: messages,
		Tools:    specs,
	})
	if err != nil {
		return "", err
	}
	logger.Debug("second call done")

	return second.Content, nil
}

// CompleteStructured sends the prompt with the response schema attached and
// decodes the model's JSON output into out. It fails when the prompt was
// loaded without a response schema.
func (c *ModelClient) CompleteStructured(ctx context.Context, out any) error {
	if c.prompt.ResponseSchema == nil {
		return goerr.Wrap(ErrNoResponseSchema, "load the prompt with a response schema")
	}

	ctx, logger := c.requestContext(ctx)
	logger.Info("start structured completion", "model", c.prompt.Settings.Model)

	raw, err := c.transport.CompleteStructured(ctx, ChatRequest{
		Model:    c.prompt.Settings.Model,
		Messages: c.baseMessages(),
	}, c.prompt.ResponseSchema)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return goerr.Wrap(err, "failed to decode structured response", goerr.V("raw", string(raw)))
	}

	return nil
}

// CompleteStream starts a streaming completion and hands back the
// transport's chunk channel unmodified. Declared tools are not dispatched
// in streaming mode.
func (c *ModelClient) CompleteStream(ctx context.Context) (<-chan StreamChunk, error) {
	ctx, logger := c.requestContext(ctx)
	logger.Info("start stream completion", "model", c.prompt.Settings.Model)

	return c.transport.CompleteStream(ctx, ChatRequest{
		Model:    c.prompt.Settings.Model,
		Messages: c.baseMessages(),
	})
}

// baseMessages builds the system/user message list every exchange starts
// from. The user message is present only when the prompt has one.
func (c *ModelClient) baseMessages() []Message {
	messages := []Message{
		{Role: RoleSystem, Content: c.prompt.SystemPrompt},
	}
	if c.prompt.UserPrompt != "" {
		messages = append(messages, Message{Role: RoleUser, Content: c.prompt.UserPrompt})
	}
	return messages
}

func (c *ModelClient) requestContext(ctx context.Context) (context.Context, *slog.Logger) {
	requestID := uuid.New().String()
	logger := c.logger.With("promptic.request_id", requestID)
	return ctxWithLogger(ctx, logger), logger
}

// decodeToolArguments parses a tool call's raw JSON arguments. A payload
// that is not valid JSON is a protocol violation from the provider and
// fails the whole exchange; it never reaches per-call dispatch isolation.
func decodeToolArguments(call ToolCall) (map[string]any, error) {
	if call.Arguments == "" {
		return nil, nil
	}

	var args map[string]any
	if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal tool arguments",
			goerr.V("tool", call.Name),
			goerr.V("arguments", call.Arguments),
		)
	}
	return args, nil
}

// stringifyToolResult renders a tool result for a tool-role message.
// Strings pass through; other values are serialized as JSON.
func stringifyToolResult(result any) string {
	switch v := result.(type) {
	case nil:
		return ""
	case string:
		return v
	}

	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Sprintf("%v", result)
	}
	return string(raw)
}
