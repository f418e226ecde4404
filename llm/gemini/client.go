// Package gemini implements the transport for Gemini models on Vertex AI.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"cloud.google.com/go/vertexai/genai"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/promptic"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// Client is a promptic.Transport for Gemini models served by Vertex AI.
type Client struct {
	client *genai.Client

	googleOptions []option.ClientOption
}

// Option is a function that configures a Client.
type Option func(*Client)

// WithClientOptions passes additional Google API client options, such as
// credentials, to the underlying Vertex AI client.
func WithClientOptions(options ...option.ClientOption) Option {
	return func(c *Client) {
		c.googleOptions = append(c.googleOptions, options...)
	}
}

// New creates a new client for Gemini on Vertex AI. projectID and location
// identify the Vertex AI endpoint to use.
func New(ctx context.Context, projectID, location string, options ...Option) (*Client, error) {
	client := &Client{}
	for _, opt := range options {
		opt(client)
	}

	genaiClient, err := genai.NewClient(ctx, projectID, location, client.googleOptions...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create Vertex AI client",
			goerr.V("project_id", projectID),
			goerr.V("location", location),
		)
	}
	client.client = genaiClient

	return client, nil
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	return c.client.Close()
}

// prepare builds the generative model and splits the message list into chat
// history and the parts to send last.
func (c *Client) prepare(req promptic.ChatRequest) (*genai.GenerativeModel, []*genai.Content, []genai.Part, error) {
	system, contents, err := convertMessages(req.Messages)
	if err != nil {
		return nil, nil, nil, err
	}
	if len(contents) == 0 {
		return nil, nil, nil, goerr.New("no messages to send")
	}

	model := c.client.GenerativeModel(req.Model)
	if system != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(system)},
		}
	}
	if len(req.Tools) > 0 {
		model.Tools = []*genai.Tool{
			{FunctionDeclarations: convertTools(req.Tools)},
		}
	}

	last := contents[len(contents)-1]
	history := contents[:len(contents)-1]

	return model, history, last.Parts, nil
}

// Complete performs a single content generation.
func (c *Client) Complete(ctx context.Context, req promptic.ChatRequest) (*promptic.ChatResponse, error) {
	model, history, parts, err := c.prepare(req)
	if err != nil {
		return nil, err
	}

	session := model.StartChat()
	session.History = history

	resp, err := session.SendMessage(ctx, parts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate content")
	}

	return convertResponse(resp)
}

// CompleteStructured constrains the output with a response schema and the
// JSON response MIME type, both enforced server side.
func (c *Client) CompleteStructured(ctx context.Context, req promptic.ChatRequest, responseSchema *promptic.Parameter) (json.RawMessage, error) {
	model, history, parts, err := c.prepare(req)
	if err != nil {
		return nil, err
	}

	model.GenerationConfig.ResponseMIMEType = "application/json"
	model.GenerationConfig.ResponseSchema = convertParameterToSchema(responseSchema)

	session := model.StartChat()
	session.History = history

	resp, err := session.SendMessage(ctx, parts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate structured content")
	}

	converted, err := convertResponse(resp)
	if err != nil {
		return nil, err
	}

	return json.RawMessage(converted.Content), nil
}

// CompleteStream starts a streaming generation and forwards text deltas.
func (c *Client) CompleteStream(ctx context.Context, req promptic.ChatRequest) (<-chan promptic.StreamChunk, error) {
	model, history, parts, err := c.prepare(req)
	if err != nil {
		return nil, err
	}

	session := model.StartChat()
	session.History = history

	iter := session.SendMessageStream(ctx, parts...)
	chunks := make(chan promptic.StreamChunk)

	go func() {
		defer close(chunks)

		for {
			resp, err := iter.Next()
			if errors.Is(err, iterator.Done) {
				return
			}
			if err != nil {
				chunks <- promptic.StreamChunk{Err: goerr.Wrap(err, "failed to receive stream chunk")}
				return
			}

			if delta := textOf(resp); delta != "" {
				chunks <- promptic.StreamChunk{Delta: delta}
			}
		}
	}()

	return chunks, nil
}

func textOf(resp *genai.GenerateContentResponse) string {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}

	var texts []string
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			texts = append(texts, string(text))
		}
	}
	return strings.Join(texts, "")
}
