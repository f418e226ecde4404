// Package gpt implements the transport for providers speaking the OpenAI
// chat completion protocol: OpenAI itself, Azure OpenAI deployments, and
// x.ai Grok.
package gpt

import (
	"context"
	"encoding/json"
	"errors"
	"io"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/promptic"
	"github.com/sashabaranov/go-openai"
)

const grokBaseURL = "https://api.x.ai/v1"

// Client is a promptic.Transport over the OpenAI chat completion API.
type Client struct {
	client *openai.Client
}

// New creates a client for the OpenAI API.
func New(ctx context.Context, apiKey string) (*Client, error) {
	return &Client{
		client: openai.NewClient(apiKey),
	}, nil
}

// NewAzure creates a client for an Azure OpenAI deployment. The endpoint is
// the resource URL; the model name in requests selects the deployment.
func NewAzure(ctx context.Context, apiKey, endpoint, apiVersion string) (*Client, error) {
	config := openai.DefaultAzureConfig(apiKey, endpoint)
	config.APIVersion = apiVersion

	return &Client{
		client: openai.NewClientWithConfig(config),
	}, nil
}

// NewGrok creates a client for the x.ai API, which is wire-compatible with
// the OpenAI protocol.
func NewGrok(ctx context.Context, apiKey string) (*Client, error) {
	config := openai.DefaultConfig(apiKey)
	config.BaseURL = grokBaseURL

	return &Client{
		client: openai.NewClientWithConfig(config),
	}, nil
}

// Complete performs a single chat completion.
func (c *Client) Complete(ctx context.Context, req promptic.ChatRequest) (*promptic.ChatResponse, error) {
	resp, err := c.client.CreateChatCompletion(ctx, convertRequest(req))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create chat completion")
	}

	if len(resp.Choices) == 0 {
		return &promptic.ChatResponse{}, nil
	}

	message := resp.Choices[0].Message
	response := &promptic.ChatResponse{
		Content: message.Content,
	}
	for _, call := range message.ToolCalls {
		response.ToolCalls = append(response.ToolCalls, promptic.ToolCall{
			ID:        call.ID,
			Name:      call.Function.Name,
			Arguments: call.Function.Arguments,
		})
	}

	return response, nil
}

// CompleteStructured performs a completion constrained by schema through
// the json_schema response format and returns the raw JSON content.
func (c *Client) CompleteStructured(ctx context.Context, req promptic.ChatRequest, schema *promptic.Parameter) (json.RawMessage, error) {
	raw, err := json.Marshal(schema.JSONSchema())
	if err != nil {
		return nil, goerr.Wrap(err, "failed to marshal response schema")
	}

	converted := convertRequest(req)
	converted.ResponseFormat = &openai.ChatCompletionResponseFormat{
		Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
		JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
			Name:   "response",
			Schema: json.RawMessage(raw),
		},
	}

	resp, err := c.client.CreateChatCompletion(ctx, converted)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create structured chat completion")
	}
	if len(resp.Choices) == 0 {
		return nil, goerr.New("no choices in structured completion response")
	}

	return json.RawMessage(resp.Choices[0].Message.Content), nil
}

// CompleteStream starts a streaming completion and forwards content deltas.
func (c *Client) CompleteStream(ctx context.Context, req promptic.ChatRequest) (<-chan promptic.StreamChunk, error) {
	stream, err := c.client.CreateChatCompletionStream(ctx, convertRequest(req))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create chat completion stream")
	}

	chunks := make(chan promptic.StreamChunk)

	go func() {
		defer close(chunks)
		defer stream.Close()

		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				chunks <- promptic.StreamChunk{Err: goerr.Wrap(err, "failed to receive stream chunk")}
				return
			}
			if len(resp.Choices) == 0 {
				continue
			}

			if delta := resp.Choices[0].Delta.Content; delta != "" {
				chunks <- promptic.StreamChunk{Delta: delta}
			}
		}
	}()

	return chunks, nil
}
