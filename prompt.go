package promptic

// Provider identifiers accepted in settings.json. The transport factory in
// the llm package maps each one to a concrete endpoint.
const (
	ProviderOpenAI = "openai"
	ProviderAzure  = "azure"
	ProviderGrok   = "grok"
	ProviderClaude = "claude"
	ProviderGemini = "gemini"
)

// PromptSettings is the parsed content of settings.json. It selects which
// provider endpoint and model a prompt is sent to.
type PromptSettings struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

// Prompt is an assembled prompt ready to be sent to a model. It is built by
// a PromptLoader and not modified afterwards.
type Prompt struct {
	// SystemPrompt is the content of system.md after placeholder substitution.
	SystemPrompt string

	// UserPrompt is the content of user.md after placeholder substitution.
	// It is empty when the prompt directory has no user.md.
	UserPrompt string

	// Settings selects the provider and model.
	Settings PromptSettings

	// ResponseSchema constrains the model output for structured completions.
	// Nil means the prompt has no structured mode.
	ResponseSchema *Parameter

	// Tools are the tools declared to the model. A non-empty list switches
	// completion to the two-phase tool-calling exchange.
	Tools []Tool
}

// Specs returns the specifications of the prompt's declared tools.
func (p *Prompt) Specs() []ToolSpec {
	if len(p.Tools) == 0 {
		return nil
	}
	specs := make([]ToolSpec, len(p.Tools))
	for i, tool := range p.Tools {
		specs[i] = tool.Spec()
	}
	return specs
}
