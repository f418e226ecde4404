package promptic

var (
	InputSchemaToParameters = inputSchemaToParameters
	MCPContentToValue       = mcpContentToValue
)
