package promptic_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/promptic"
	mcpgo "github.com/mark3labs/mcp-go/mcp"
)

func TestMCPLocalDryRun(t *testing.T) {
	mcpExecPath, ok := os.LookupEnv("TEST_MCP_EXEC_PATH")
	if !ok {
		t.Skip("TEST_MCP_EXEC_PATH is not set")
	}

	client := promptic.NewLocalMCPClient(mcpExecPath, nil)
	defer client.Close()

	ctx := context.Background()
	gt.NoError(t, client.Start(ctx))

	registry := promptic.NewRegistry()
	gt.NoError(t, client.RegisterTools(ctx, registry))
	gt.A(t, registry.Names()).Longer(0)

	t.Log("registered:", registry.Names())
}

func TestInputSchemaToParameters(t *testing.T) {
	t.Run("flat properties", func(t *testing.T) {
		schema := mcpgo.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"city": map[string]any{
					"type":        "string",
					"title":       "City",
					"description": "City name",
				},
				"days": map[string]any{
					"type": "integer",
				},
				"unit": map[string]any{
					"type": "string",
					"enum": []any{"celsius", "fahrenheit"},
				},
			},
			Required: []string{"city"},
		}

		params, err := promptic.InputSchemaToParameters(schema)
		gt.NoError(t, err)
		gt.Equal(t, len(params), 3)
		gt.Equal(t, params["city"].Type, promptic.TypeString)
		gt.Equal(t, params["city"].Title, "City")
		gt.Equal(t, params["city"].Description, "City name")
		gt.Equal(t, params["days"].Type, promptic.TypeInteger)
		gt.Equal(t, params["unit"].Enum, []string{"celsius", "fahrenheit"})
	})

	t.Run("nested object carries its own required list", func(t *testing.T) {
		schema := mcpgo.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"location": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"lat": map[string]any{"type": "number"},
						"lon": map[string]any{"type": "number"},
					},
					"required": []any{"lat", "lon"},
				},
			},
		}

		params, err := promptic.InputSchemaToParameters(schema)
		gt.NoError(t, err)

		location := params["location"]
		gt.NotNil(t, location)
		gt.Equal(t, location.Type, promptic.TypeObject)
		gt.Equal(t, location.Properties["lat"].Type, promptic.TypeNumber)
		gt.Equal(t, location.Required, []string{"lat", "lon"})
	})

	t.Run("array items", func(t *testing.T) {
		schema := mcpgo.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"tags": map[string]any{
					"type":  "array",
					"items": map[string]any{"type": "string"},
				},
			},
		}

		params, err := promptic.InputSchemaToParameters(schema)
		gt.NoError(t, err)
		gt.Equal(t, params["tags"].Type, promptic.TypeArray)
		gt.NotNil(t, params["tags"].Items)
		gt.Equal(t, params["tags"].Items.Type, promptic.TypeString)
	})

	t.Run("property is not an object", func(t *testing.T) {
		schema := mcpgo.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"broken": "not a schema",
			},
		}

		_, err := promptic.InputSchemaToParameters(schema)
		gt.Error(t, err)
		gt.True(t, errors.Is(err, promptic.ErrInvalidInputSchema))
	})

	t.Run("array without items", func(t *testing.T) {
		schema := mcpgo.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"tags": map[string]any{"type": "array"},
			},
		}

		_, err := promptic.InputSchemaToParameters(schema)
		gt.Error(t, err)
		gt.True(t, errors.Is(err, promptic.ErrInvalidInputSchema))
	})
}

func TestMCPContentToValue(t *testing.T) {
	t.Run("when content is empty", func(t *testing.T) {
		gt.Nil(t, promptic.MCPContentToValue(nil))
	})

	t.Run("when text content is JSON", func(t *testing.T) {
		content := mcpgo.TextContent{Text: `{"status": "ok", "count": 2}`}
		result := promptic.MCPContentToValue([]mcpgo.Content{content})
		gt.Equal[any](t, result, map[string]any{"status": "ok", "count": 2.0})
	})

	t.Run("when text content is not JSON", func(t *testing.T) {
		content := mcpgo.TextContent{Text: "plain text"}
		result := promptic.MCPContentToValue([]mcpgo.Content{content})
		gt.Equal(t, result, "plain text")
	})

	t.Run("first text content wins", func(t *testing.T) {
		contents := []mcpgo.Content{
			mcpgo.TextContent{Text: "first"},
			mcpgo.TextContent{Text: "second"},
		}
		gt.Equal(t, promptic.MCPContentToValue(contents), "first")
	})
}
