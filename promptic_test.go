package promptic_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/promptic"
)

// mockTransport records every request and replays scripted responses.
type mockTransport struct {
	calls      []promptic.ChatRequest
	responses  []*promptic.ChatResponse
	structured json.RawMessage
	chunks     []string
}

func (m *mockTransport) Complete(ctx context.Context, req promptic.ChatRequest) (*promptic.ChatResponse, error) {
	m.calls = append(m.calls, req)
	if len(m.responses) == 0 {
		return &promptic.ChatResponse{}, nil
	}
	resp := m.responses[0]
	m.responses = m.responses[1:]
	return resp, nil
}

func (m *mockTransport) CompleteStructured(ctx context.Context, req promptic.ChatRequest, schema *promptic.Parameter) (json.RawMessage, error) {
	m.calls = append(m.calls, req)
	return m.structured, nil
}

func (m *mockTransport) CompleteStream(ctx context.Context, req promptic.ChatRequest) (<-chan promptic.StreamChunk, error) {
	m.calls = append(m.calls, req)

	ch := make(chan promptic.StreamChunk, len(m.chunks))
	for _, chunk := range m.chunks {
		ch <- promptic.StreamChunk{Delta: chunk}
	}
	close(ch)
	return ch, nil
}

func testPrompt(tools ...promptic.Tool) *promptic.Prompt {
	return &promptic.Prompt{
		SystemPrompt: "You are a test assistant.",
		UserPrompt:   "Do the thing.",
		Settings:     promptic.PromptSettings{Provider: promptic.ProviderOpenAI, Model: "gpt-4"},
		Tools:        tools,
	}
}

func TestCompleteWithoutTools(t *testing.T) {
	transport := &mockTransport{
		responses: []*promptic.ChatResponse{{Content: "plain answer"}},
	}
	client := promptic.NewModelClient(testPrompt(), transport)

	answer, err := client.Complete(context.Background())
	gt.NoError(t, err)
	gt.Equal(t, answer, "plain answer")

	gt.A(t, transport.calls).Length(1)
	req := transport.calls[0]
	gt.Equal(t, req.Model, "gpt-4")
	gt.A(t, req.Tools).Length(0)
	gt.A(t, req.Messages).Length(2)
	gt.Equal(t, req.Messages[0].Role, promptic.RoleSystem)
	gt.Equal(t, req.Messages[0].Content, "You are a test assistant.")
	gt.Equal(t, req.Messages[1].Role, promptic.RoleUser)
	gt.Equal(t, req.Messages[1].Content, "Do the thing.")
}

func TestCompleteWithTools(t *testing.T) {
	transport := &mockTransport{
		responses: []*promptic.ChatResponse{
			{
				Content: "let me check",
				ToolCalls: []promptic.ToolCall{
					{ID: "call-1", Name: "echo", Arguments: `{"message": "first"}`},
					{ID: "call-2", Name: "echo", Arguments: `{"message": "second"}`},
				},
			},
			{Content: "final answer"},
		},
	}
	client := promptic.NewModelClient(testPrompt(echoTool()), transport)

	answer, err := client.Complete(context.Background())
	gt.NoError(t, err)
	gt.Equal(t, answer, "final answer")

	gt.A(t, transport.calls).Length(2)

	first := transport.calls[0]
	gt.A(t, first.Tools).Length(1)
	gt.Equal(t, first.Tools[0].Name, "echo")
	gt.A(t, first.Messages).Length(2)

	second := transport.calls[1]
	gt.A(t, second.Tools).Length(1)
	gt.A(t, second.Messages).Length(5)

	assistant := second.Messages[2]
	gt.Equal(t, assistant.Role, promptic.RoleAssistant)
	gt.Equal(t, assistant.Content, "let me check")
	gt.A(t, assistant.ToolCalls).Length(2)

	result1 := second.Messages[3]
	gt.Equal(t, result1.Role, promptic.RoleTool)
	gt.Equal(t, result1.ToolCallID, "call-1")
	gt.Equal(t, result1.Name, "echo")
	gt.Equal(t, result1.Content, "first")

	result2 := second.Messages[4]
	gt.Equal(t, result2.ToolCallID, "call-2")
	gt.Equal(t, result2.Content, "second")
}

func TestCompleteToolsDeclaredButUnused(t *testing.T) {
	transport := &mockTransport{
		responses: []*promptic.ChatResponse{
			{Content: "no tools needed"},
			{Content: "still final"},
		},
	}
	client := promptic.NewModelClient(testPrompt(echoTool()), transport)

	answer, err := client.Complete(context.Background())
	gt.NoError(t, err)
	gt.Equal(t, answer, "still final")

	// Declared tools always trigger the second call, even with zero tool
	// calls in the first response.
	gt.A(t, transport.calls).Length(2)
	second := transport.calls[1]
	gt.A(t, second.Messages).Length(3)
	gt.Equal(t, second.Messages[2].Role, promptic.RoleAssistant)
	gt.Equal(t, second.Messages[2].Content, "no tools needed")
}

func TestCompleteToolFailureIsIsolated(t *testing.T) {
	transport := &mockTransport{
		responses: []*promptic.ChatResponse{
			{
				ToolCalls: []promptic.ToolCall{
					{ID: "call-1", Name: "echo", Arguments: `{}`},
				},
			},
			{Content: "recovered"},
		},
	}
	client := promptic.NewModelClient(testPrompt(echoTool()), transport)

	answer, err := client.Complete(context.Background())
	gt.NoError(t, err)
	gt.Equal(t, answer, "recovered")

	// The missing required argument fails the call, not the exchange; the
	// diagnostic reaches the model as the tool result.
	gt.A(t, transport.calls).Length(2)
	result := transport.calls[1].Messages[3]
	gt.Equal(t, result.Role, promptic.RoleTool)
	gt.S(t, result.Content).Contains("invalid arguments")
}

func TestCompleteMalformedArgumentsIsFatal(t *testing.T) {
	transport := &mockTransport{
		responses: []*promptic.ChatResponse{
			{
				ToolCalls: []promptic.ToolCall{
					{ID: "call-1", Name: "echo", Arguments: `{broken`},
				},
			},
		},
	}
	client := promptic.NewModelClient(testPrompt(echoTool()), transport)

	_, err := client.Complete(context.Background())
	gt.Error(t, err)
	gt.A(t, transport.calls).Length(1)
}

func TestCompleteWithToolRunner(t *testing.T) {
	transport := &mockTransport{
		responses: []*promptic.ChatResponse{
			{
				ToolCalls: []promptic.ToolCall{
					{ID: "call-1", Name: "sideloaded", Arguments: `{}`},
				},
			},
			{Content: "done"},
		},
	}

	// The custom runner resolves a tool the prompt never declared.
	runner := promptic.NewRunner(promptic.NewRegistry(newTestTool("sideloaded", "extra")))
	client := promptic.NewModelClient(testPrompt(echoTool()), transport,
		promptic.WithToolRunner(runner),
	)

	answer, err := client.Complete(context.Background())
	gt.NoError(t, err)
	gt.Equal(t, answer, "done")
	gt.Equal(t, transport.calls[1].Messages[3].Content, "extra")
}

func TestCompleteStructured(t *testing.T) {
	t.Run("decodes into out", func(t *testing.T) {
		transport := &mockTransport{structured: json.RawMessage(`{"answer": "42", "score": 0.5}`)}

		prompt := testPrompt()
		prompt.ResponseSchema = &promptic.Parameter{
			Type: promptic.TypeObject,
			Properties: map[string]*promptic.Parameter{
				"answer": {Type: promptic.TypeString},
				"score":  {Type: promptic.TypeNumber},
			},
		}
		client := promptic.NewModelClient(prompt, transport)

		var out struct {
			Answer string  `json:"answer"`
			Score  float64 `json:"score"`
		}
		gt.NoError(t, client.CompleteStructured(context.Background(), &out))
		gt.Equal(t, out.Answer, "42")
		gt.Equal(t, out.Score, 0.5)
	})

	t.Run("fails without response schema", func(t *testing.T) {
		client := promptic.NewModelClient(testPrompt(), &mockTransport{})

		var out map[string]any
		err := client.CompleteStructured(context.Background(), &out)
		gt.Error(t, err)
		gt.True(t, errors.Is(err, promptic.ErrNoResponseSchema))
	})

	t.Run("fails on undecodable payload", func(t *testing.T) {
		transport := &mockTransport{structured: json.RawMessage(`not json`)}

		prompt := testPrompt()
		prompt.ResponseSchema = &promptic.Parameter{
			Type:       promptic.TypeObject,
			Properties: map[string]*promptic.Parameter{},
		}
		client := promptic.NewModelClient(prompt, transport)

		var out map[string]any
		gt.Error(t, client.CompleteStructured(context.Background(), &out))
	})
}

func TestCompleteStream(t *testing.T) {
	transport := &mockTransport{chunks: []string{"str", "eam", "ed"}}
	client := promptic.NewModelClient(testPrompt(), transport)

	ch, err := client.CompleteStream(context.Background())
	gt.NoError(t, err)

	var got string
	for chunk := range ch {
		gt.NoError(t, chunk.Err)
		got += chunk.Delta
	}
	gt.Equal(t, got, "streamed")
}

func TestCompleteLogsRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	transport := &mockTransport{
		responses: []*promptic.ChatResponse{{Content: "one"}, {Content: "two"}},
	}
	client := promptic.NewModelClient(testPrompt(), transport, promptic.WithLogger(logger))

	_, err := client.Complete(context.Background())
	gt.NoError(t, err)
	_, err = client.Complete(context.Background())
	gt.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	gt.A(t, lines).Length(2)

	ids := make([]string, 0, 2)
	for _, line := range lines {
		var entry struct {
			Msg       string `json:"msg"`
			Model     string `json:"model"`
			RequestID string `json:"promptic.request_id"`
		}
		gt.NoError(t, json.Unmarshal([]byte(line), &entry))
		gt.Equal(t, entry.Msg, "start completion")
		gt.Equal(t, entry.Model, "gpt-4")
		gt.NotEqual(t, entry.RequestID, "")
		ids = append(ids, entry.RequestID)
	}

	// Each invocation carries its own request id.
	gt.NotEqual(t, ids[0], ids[1])
}
