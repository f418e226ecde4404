package gemini

import (
	"encoding/json"
	"strings"

	"cloud.google.com/go/vertexai/genai"
	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/promptic"
)

func convertTools(specs []promptic.ToolSpec) []*genai.FunctionDeclaration {
	declarations := make([]*genai.FunctionDeclaration, len(specs))
	for i, spec := range specs {
		declarations[i] = convertTool(spec)
	}
	return declarations
}

func convertTool(spec promptic.ToolSpec) *genai.FunctionDeclaration {
	parameters := &genai.Schema{
		Type:       genai.TypeObject,
		Properties: make(map[string]*genai.Schema),
		Required:   spec.Required,
	}

	for name, param := range spec.Parameters {
		parameters.Properties[name] = convertParameterToSchema(param)
	}

	return &genai.FunctionDeclaration{
		Name:        spec.Name,
		Description: spec.Description,
		Parameters:  parameters,
	}
}

func convertParameterToSchema(param *promptic.Parameter) *genai.Schema {
	schema := &genai.Schema{
		Type:        getGenaiType(param.Type),
		Title:       param.Title,
		Description: param.Description,
	}

	if param.Properties != nil {
		schema.Properties = make(map[string]*genai.Schema)
		for propName, prop := range param.Properties {
			schema.Properties[propName] = convertParameterToSchema(prop)
		}
		if len(param.Required) > 0 {
			schema.Required = param.Required
		}
	}

	if param.Items != nil {
		schema.Items = convertParameterToSchema(param.Items)
	}

	return schema
}

func getGenaiType(paramType promptic.ParameterType) genai.Type {
	switch paramType {
	case promptic.TypeString:
		return genai.TypeString
	case promptic.TypeNumber:
		return genai.TypeNumber
	case promptic.TypeInteger:
		return genai.TypeInteger
	case promptic.TypeBoolean:
		return genai.TypeBoolean
	case promptic.TypeArray:
		return genai.TypeArray
	case promptic.TypeObject:
		return genai.TypeObject
	default:
		return genai.TypeString
	}
}

// convertMessages splits the message list into the system instruction text
// and Vertex AI content turns. Consecutive tool results are merged into a
// single user turn of function responses.
func convertMessages(messages []promptic.Message) (string, []*genai.Content, error) {
	var system []string
	var contents []*genai.Content
	lastWasToolResult := false

	for _, msg := range messages {
		switch msg.Role {
		case promptic.RoleSystem:
			system = append(system, msg.Content)
			lastWasToolResult = false

		case promptic.RoleUser:
			contents = append(contents, &genai.Content{
				Role:  "user",
				Parts: []genai.Part{genai.Text(msg.Content)},
			})
			lastWasToolResult = false

		case promptic.RoleAssistant:
			var parts []genai.Part
			if msg.Content != "" {
				parts = append(parts, genai.Text(msg.Content))
			}
			for _, call := range msg.ToolCalls {
				args, err := decodeArguments(call.Arguments)
				if err != nil {
					return "", nil, goerr.Wrap(err, "failed to decode tool call arguments",
						goerr.V("tool", call.Name),
					)
				}
				parts = append(parts, genai.FunctionCall{
					Name: call.Name,
					Args: args,
				})
			}
			if len(parts) > 0 {
				contents = append(contents, &genai.Content{
					Role:  "model",
					Parts: parts,
				})
			}
			lastWasToolResult = false

		case promptic.RoleTool:
			part := genai.FunctionResponse{
				Name:     msg.Name,
				Response: toResponseMap(msg.Content),
			}
			if lastWasToolResult && len(contents) > 0 {
				last := contents[len(contents)-1]
				last.Parts = append(last.Parts, part)
			} else {
				contents = append(contents, &genai.Content{
					Role:  "user",
					Parts: []genai.Part{part},
				})
			}
			lastWasToolResult = true
		}
	}

	return strings.Join(system, "\n\n"), contents, nil
}

func decodeArguments(arguments string) (map[string]any, error) {
	args := map[string]any{}
	if arguments == "" {
		return args, nil
	}
	if err := json.Unmarshal([]byte(arguments), &args); err != nil {
		return nil, err
	}
	return args, nil
}

// toResponseMap wraps a tool result string into the map form FunctionResponse
// requires. JSON object results pass through as-is.
func toResponseMap(content string) map[string]any {
	var decoded map[string]any
	if err := json.Unmarshal([]byte(content), &decoded); err == nil {
		return decoded
	}
	return map[string]any{"result": content}
}

// convertResponse maps a Vertex AI response onto the transport response.
// Gemini function calls carry no ID on the wire, so one is assigned here.
func convertResponse(resp *genai.GenerateContentResponse) (*promptic.ChatResponse, error) {
	response := &promptic.ChatResponse{}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return response, nil
	}

	var texts []string
	for _, part := range resp.Candidates[0].Content.Parts {
		switch v := part.(type) {
		case genai.Text:
			texts = append(texts, string(v))

		case genai.FunctionCall:
			raw, err := json.Marshal(v.Args)
			if err != nil {
				return nil, goerr.Wrap(err, "failed to marshal function call arguments",
					goerr.V("function", v.Name),
				)
			}
			response.ToolCalls = append(response.ToolCalls, promptic.ToolCall{
				ID:        uuid.New().String(),
				Name:      v.Name,
				Arguments: string(raw),
			})
		}
	}

	response.Content = strings.Join(texts, "\n")
	return response, nil
}
