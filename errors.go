package promptic

import "errors"

var (
	ErrInvalidTool      = errors.New("invalid tool specification")
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrToolNotFound is returned when a tool name cannot be resolved
	// by a Registry. The wrapped message lists the known tool names.
	ErrToolNotFound = errors.New("tool not found")

	// ErrInvalidInputSchema is returned when an MCP server advertises a
	// tool whose input schema cannot be mapped to Parameters.
	ErrInvalidInputSchema = errors.New("invalid input schema")

	// Prompt loading failures. Each one identifies which artifact was
	// missing when the loader scanned the storage provider.
	ErrPromptNotFound       = errors.New("prompt does not exist in storage")
	ErrSettingsNotFound     = errors.New("settings.json not found in prompt directory")
	ErrSystemPromptNotFound = errors.New("system.md not found in prompt directory")

	// ErrNoResponseSchema is returned by CompleteStructured when the
	// prompt was loaded without a response schema.
	ErrNoResponseSchema = errors.New("no response schema provided for structured completion")

	// ErrUnsupportedProvider is returned when settings.json names a
	// provider that no transport implements.
	ErrUnsupportedProvider = errors.New("unsupported provider")
)
