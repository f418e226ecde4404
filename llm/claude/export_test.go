package claude

// Export convert functions for testing
var (
	ConvertTool             = convertTool
	ConvertTools            = convertTools
	ConvertMessages         = convertMessages
	ExtractJSONFromResponse = extractJSONFromResponse
)
