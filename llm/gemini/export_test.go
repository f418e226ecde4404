package gemini

// Export convert functions for testing
var (
	ConvertTool     = convertTool
	ConvertTools    = convertTools
	ConvertMessages = convertMessages
	ConvertResponse = convertResponse
	ToResponseMap   = toResponseMap
)
