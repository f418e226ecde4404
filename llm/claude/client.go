// Package claude implements the transport for Anthropic Claude models.
package claude

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/promptic"
	"github.com/m-mizutani/promptic/internal/schema"
)

// generationParameters represents the parameters for text generation.
type generationParameters struct {
	// Temperature controls randomness in the output.
	// Higher values make the output more random, lower values make it more focused.
	Temperature float64

	// TopP controls diversity via nucleus sampling.
	// Higher values allow more diverse outputs.
	TopP float64

	// MaxTokens limits the number of tokens to generate.
	MaxTokens int64
}

// Client is a promptic.Transport for the Claude API.
type Client struct {
	// client is the underlying Claude client.
	client *anthropic.Client

	// generation parameters
	params generationParameters
}

// Option is a function that configures a Client.
type Option func(*Client)

// WithTemperature sets the temperature parameter for text generation.
// Range: 0.0 to 1.0
// Default: 0.7
func WithTemperature(temp float64) Option {
	return func(c *Client) {
		c.params.Temperature = temp
	}
}

// WithTopP sets the top_p parameter for text generation.
// Range: 0.0 to 1.0
// Default: 1.0
func WithTopP(topP float64) Option {
	return func(c *Client) {
		c.params.TopP = topP
	}
}

// WithMaxTokens sets the maximum number of tokens to generate.
// Default: 4096
func WithMaxTokens(maxTokens int64) Option {
	return func(c *Client) {
		c.params.MaxTokens = maxTokens
	}
}

// New creates a new client for the Claude API.
// It requires an API key and can be configured with additional options.
func New(ctx context.Context, apiKey string, options ...Option) (*Client, error) {
	client := &Client{
		params: generationParameters{
			Temperature: 0.7,
			TopP:        1.0,
			MaxTokens:   4096,
		},
	}

	for _, option := range options {
		option(client)
	}

	newClient := anthropic.NewClient(
		option.WithAPIKey(apiKey),
	)
	client.client = &newClient

	return client, nil
}

func (c *Client) createRequest(model, system string, messages []anthropic.MessageParam) anthropic.MessageNewParams {
	params := anthropic.MessageNewParams{
		Model:       model,
		MaxTokens:   c.params.MaxTokens,
		Temperature: anthropic.Float(c.params.Temperature),
		TopP:        anthropic.Float(c.params.TopP),
		Messages:    messages,
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	return params
}

// Complete performs a single message exchange.
func (c *Client) Complete(ctx context.Context, req promptic.ChatRequest) (*promptic.ChatResponse, error) {
	system, messages := convertMessages(req.Messages)

	params := c.createRequest(req.Model, system, messages)
	if len(req.Tools) > 0 {
		params.Tools = convertTools(req.Tools)
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create message")
	}

	return convertResponse(resp), nil
}

// CompleteStructured constrains the output by embedding the schema in the
// system prompt. Claude has no schema-constrained response mode, so the
// reply text is scanned for the JSON document.
func (c *Client) CompleteStructured(ctx context.Context, req promptic.ChatRequest, responseSchema *promptic.Parameter) (json.RawMessage, error) {
	schemaJSON, err := schema.ToJSONString(responseSchema)
	if err != nil {
		return nil, err
	}

	system, messages := convertMessages(req.Messages)
	system = fmt.Sprintf("%s\n\nYou must respond with a JSON object conforming to this schema:\n```json\n%s\n```\nRespond with the JSON object only, no other text.", system, schemaJSON)

	resp, err := c.client.Messages.New(ctx, c.createRequest(req.Model, system, messages))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create structured message")
	}

	raw := extractJSONFromResponse(convertResponse(resp).Content)
	if raw == "" {
		return nil, goerr.New("no JSON found in structured response")
	}

	return json.RawMessage(raw), nil
}

// CompleteStream starts a streaming exchange and forwards text deltas.
func (c *Client) CompleteStream(ctx context.Context, req promptic.ChatRequest) (<-chan promptic.StreamChunk, error) {
	system, messages := convertMessages(req.Messages)

	stream := c.client.Messages.NewStreaming(ctx, c.createRequest(req.Model, system, messages))
	if stream == nil {
		return nil, goerr.New("failed to create message stream")
	}

	chunks := make(chan promptic.StreamChunk)

	go func() {
		defer close(chunks)

		for stream.Next() {
			event := stream.Current()
			if event.Type != "content_block_delta" {
				continue
			}

			deltaEvent := event.AsContentBlockDeltaEvent()
			if deltaEvent.Delta.Type != "text_delta" {
				continue
			}

			textDelta := deltaEvent.Delta.AsTextContentBlockDelta()
			if textDelta.Text != "" {
				chunks <- promptic.StreamChunk{Delta: textDelta.Text}
			}
		}

		if err := stream.Err(); err != nil {
			chunks <- promptic.StreamChunk{Err: goerr.Wrap(err, "stream failed")}
		}
	}()

	return chunks, nil
}
