package promptic

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"
)

// MCPClient connects to a Model Context Protocol server and exposes its
// tools for registration into a Registry.
type MCPClient struct {
	// For local MCP server
	path    string
	args    []string
	envVars []string

	// For remote MCP server
	baseURL string
	headers map[string]string

	// Common client
	client     *client.Client
	initResult *mcp.InitializeResult

	initMutex sync.Mutex
}

// MCPonStdioOption is the option for the MCP client for local MCP executable server via stdio.
type MCPonStdioOption func(*MCPClient)

// WithEnvVars sets the environment variables for the MCP client. It appends the environment variables to the existing ones.
func WithEnvVars(envVars []string) MCPonStdioOption {
	return func(m *MCPClient) {
		m.envVars = append(m.envVars, envVars...)
	}
}

// MCPonSSEOption is the option for the MCP client for remote MCP server via HTTP SSE.
type MCPonSSEOption func(*MCPClient)

// WithHeaders sets the headers for the MCP client. It replaces the existing headers setting.
func WithHeaders(headers map[string]string) MCPonSSEOption {
	return func(m *MCPClient) {
		m.headers = headers
	}
}

// NewLocalMCPClient creates a client for a local MCP executable server
// spoken to via stdio. Call Start before RegisterTools, and Close when done.
func NewLocalMCPClient(path string, args []string, options ...MCPonStdioOption) *MCPClient {
	c := &MCPClient{
		path: path,
		args: args,
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// NewSSEMCPClient creates a client for a remote MCP server via HTTP SSE.
func NewSSEMCPClient(baseURL string, options ...MCPonSSEOption) *MCPClient {
	c := &MCPClient{
		baseURL: baseURL,
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// Start establishes the connection and initializes the MCP session.
// Calling Start on an initialized client is a no-op.
func (c *MCPClient) Start(ctx context.Context) error {
	c.initMutex.Lock()
	defer c.initMutex.Unlock()

	if c.initResult != nil {
		return nil
	}

	var tp transport.Interface
	if c.path != "" {
		tp = transport.NewStdio(c.path, c.envVars, c.args...)
	}

	if c.baseURL != "" {
		sse, err := transport.NewSSE(c.baseURL, transport.WithHeaders(c.headers))
		if err != nil {
			return goerr.Wrap(err, "failed to create SSE transport")
		}
		tp = sse
	}

	if tp == nil {
		return goerr.New("no transport")
	}

	c.client = client.NewClient(tp)

	if err := c.client.Start(ctx); err != nil {
		return goerr.Wrap(err, "failed to start MCP client")
	}

	var initRequest mcp.InitializeRequest
	initRequest.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initRequest.Params.ClientInfo = mcp.Implementation{
		Name:    "promptic",
		Version: "0.0.1",
	}

	if resp, err := c.client.Initialize(ctx, initRequest); err != nil {
		return goerr.Wrap(err, "failed to initialize MCP client")
	} else {
		c.initResult = resp
	}

	return nil
}

// RegisterTools lists the server's tools and registers each one into the
// registry, starting the client first if needed. Registered names follow
// the registry's overwrite semantics.
func (c *MCPClient) RegisterTools(ctx context.Context, registry *Registry) error {
	if err := c.Start(ctx); err != nil {
		return err
	}

	tools, err := c.listTools(ctx)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(tools))
	for _, tool := range tools {
		wrapped, err := wrapMCPToolCall(c, tool)
		if err != nil {
			return goerr.Wrap(err, "failed to wrap MCP tool", goerr.V("tool", tool.Name))
		}
		registry.Register(wrapped)
		names = append(names, tool.Name)
	}

	LoggerFromContext(ctx).Debug("registered MCP tools", "names", names)

	return nil
}

func (c *MCPClient) listTools(ctx context.Context) ([]mcp.Tool, error) {
	if c.initResult == nil {
		return nil, goerr.New("MCP client not initialized")
	}

	resp, err := c.client.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list tools")
	}

	return resp.Tools, nil
}

func (c *MCPClient) callTool(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, error) {
	if c.initResult == nil {
		return nil, goerr.New("MCP client not initialized")
	}

	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	resp, err := c.client.CallTool(ctx, req)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to call tool")
	}

	return resp, nil
}

// Close shuts down the underlying connection.
func (c *MCPClient) Close() error {
	if c.client == nil {
		return nil
	}
	if err := c.client.Close(); err != nil {
		return goerr.Wrap(err, "failed to close MCP client")
	}
	return nil
}

func valueOrEmpty[T any](v any) T {
	var empty T
	if v == nil {
		return empty
	}
	if v, ok := v.(T); ok {
		return v
	}
	return empty
}

func stringList(v any) []string {
	switch list := v.(type) {
	case []string:
		return list
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func inputSchemaToParameters(inputSchema mcp.ToolInputSchema) (map[string]*Parameter, error) {
	parameters := map[string]*Parameter{}

	for name, property := range inputSchema.Properties {
		prop, ok := property.(map[string]any)
		if !ok {
			return nil, goerr.Wrap(ErrInvalidInputSchema, "invalid property", goerr.V("property", property))
		}

		parameter, err := propertyToParameter(prop)
		if err != nil {
			return nil, err
		}
		parameters[name] = parameter
	}

	return parameters, nil
}

func propertyToParameter(prop map[string]any) (*Parameter, error) {
	var properties map[string]*Parameter
	var required []string
	var items *Parameter
	propType := valueOrEmpty[string](prop["type"])

	if propType == "object" {
		properties = map[string]*Parameter{}
		nestedProperty := valueOrEmpty[map[string]any](prop["properties"])

		for k, v := range nestedProperty {
			sub, ok := v.(map[string]any)
			if !ok {
				return nil, goerr.Wrap(ErrInvalidInputSchema, "invalid nested property", goerr.V("property", v))
			}
			objParam, err := propertyToParameter(sub)
			if err != nil {
				return nil, err
			}
			properties[k] = objParam
		}
		required = stringList(prop["required"])
	}

	if propType == "array" {
		sub, ok := prop["items"].(map[string]any)
		if !ok {
			return nil, goerr.Wrap(ErrInvalidInputSchema, "invalid items", goerr.V("property", prop["items"]))
		}
		v, err := propertyToParameter(sub)
		if err != nil {
			return nil, err
		}
		items = v
	}

	return &Parameter{
		Type:        ParameterType(propType),
		Title:       valueOrEmpty[string](prop["title"]),
		Description: valueOrEmpty[string](prop["description"]),
		Required:    required,
		Enum:        stringList(prop["enum"]),
		Properties:  properties,
		Items:       items,
	}, nil
}

// mcpTool adapts one server-side tool to the Tool interface.
type mcpTool struct {
	spec   ToolSpec
	client *MCPClient
}

func (t *mcpTool) Spec() ToolSpec {
	return t.spec
}

func (t *mcpTool) Run(ctx context.Context, args map[string]any) (any, error) {
	resp, err := t.client.callTool(ctx, t.spec.Name, args)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to call tool")
	}

	return mcpContentToValue(resp.Content), nil
}

func wrapMCPToolCall(mcpClient *MCPClient, tool mcp.Tool) (*mcpTool, error) {
	parameters, err := inputSchemaToParameters(tool.InputSchema)
	if err != nil {
		return nil, err
	}

	return &mcpTool{
		spec: ToolSpec{
			Name:        tool.Name,
			Description: tool.Description,
			Parameters:  parameters,
			Required:    tool.InputSchema.Required,
		},
		client: mcpClient,
	}, nil
}

// mcpContentToValue extracts the first text content as the tool result.
// JSON text is decoded so the dispatcher can serialize it uniformly.
func mcpContentToValue(contents []mcp.Content) any {
	for _, c := range contents {
		if txt, ok := c.(mcp.TextContent); ok {
			var v any
			if err := json.Unmarshal([]byte(txt.Text), &v); err == nil {
				return v
			}
			return txt.Text
		}
	}

	// No appropriate content found
	return nil
}
