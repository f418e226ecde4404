package promptic

import (
	"context"
	"encoding/json"
	"regexp"

	"github.com/m-mizutani/goerr/v2"
)

// Prompt directories hold up to three artifacts. settings.json and
// system.md are mandatory; user.md is optional.
const (
	SettingsFileName     = "settings.json"
	SystemPromptFileName = "system.md"
	UserPromptFileName   = "user.md"
)

var placeholderRegex = regexp.MustCompile(`\{([^}]*)\}`)

// PromptLoader assembles a Prompt from a storage provider. Loading happens
// once at construction; the loader then serves the immutable result.
type PromptLoader struct {
	provider       StorageProvider
	placeholders   map[string]string
	responseSchema *Parameter
	tools          []Tool

	prompt Prompt
}

// LoaderOption configures a PromptLoader.
type LoaderOption func(*PromptLoader)

// WithPlaceholders sets the substitution values for {name} tokens in the
// prompt templates. Tokens without a matching key are left verbatim.
func WithPlaceholders(values map[string]string) LoaderOption {
	return func(l *PromptLoader) {
		l.placeholders = values
	}
}

// WithResponseSchema attaches a response schema to the loaded prompt,
// enabling structured completions.
func WithResponseSchema(schema *Parameter) LoaderOption {
	return func(l *PromptLoader) {
		l.responseSchema = schema
	}
}

// WithTools attaches tools to the loaded prompt. A prompt with tools is
// completed through the two-phase tool-calling exchange.
func WithTools(tools ...Tool) LoaderOption {
	return func(l *PromptLoader) {
		l.tools = append(l.tools, tools...)
	}
}

// NewPromptLoader loads the prompt artifacts from provider and returns a
// loader serving the assembled prompt. It fails when the prompt directory
// does not exist, or when settings.json or system.md is missing or
// unreadable.
func NewPromptLoader(ctx context.Context, provider StorageProvider, options ...LoaderOption) (*PromptLoader, error) {
	loader := &PromptLoader{
		provider: provider,
	}
	for _, opt := range options {
		opt(loader)
	}

	if err := loader.load(ctx); err != nil {
		return nil, err
	}

	return loader, nil
}

func (l *PromptLoader) load(ctx context.Context) error {
	logger := LoggerFromContext(ctx)

	files := l.provider.ListFiles(ctx)
	if len(files) == 0 {
		return goerr.Wrap(ErrPromptNotFound, "no files found")
	}

	if !l.provider.FileExists(ctx, SettingsFileName) {
		return goerr.Wrap(ErrSettingsNotFound, SettingsFileName+" is required")
	}
	rawSettings := l.provider.DownloadFile(ctx, SettingsFileName)

	var settings PromptSettings
	if err := json.Unmarshal(rawSettings, &settings); err != nil {
		return goerr.Wrap(err, "failed to parse "+SettingsFileName)
	}

	if !l.provider.FileExists(ctx, SystemPromptFileName) {
		return goerr.Wrap(ErrSystemPromptNotFound, SystemPromptFileName+" is required")
	}
	systemPrompt := string(l.provider.DownloadFile(ctx, SystemPromptFileName))

	// user.md is optional; absence means no user prompt.
	userPrompt := string(l.provider.DownloadFile(ctx, UserPromptFileName))

	l.prompt = Prompt{
		SystemPrompt:   l.substitute(systemPrompt),
		UserPrompt:     l.substitute(userPrompt),
		Settings:       settings,
		ResponseSchema: l.responseSchema,
		Tools:          l.tools,
	}

	logger.Debug("loaded prompt",
		"provider", settings.Provider,
		"model", settings.Model,
		"files", len(files),
		"tools", len(l.tools),
	)

	return nil
}

// substitute replaces every {name} token whose name is a key of the
// placeholder map. Unknown tokens stay as-is, so partially parameterized
// templates survive loading unchanged.
func (l *PromptLoader) substitute(text string) string {
	if len(l.placeholders) == 0 {
		return text
	}

	return placeholderRegex.ReplaceAllStringFunc(text, func(token string) string {
		name := token[1 : len(token)-1]
		if value, ok := l.placeholders[name]; ok {
			return value
		}
		return token
	})
}

// Prompt returns the assembled prompt.
func (l *PromptLoader) Prompt() *Prompt {
	prompt := l.prompt
	return &prompt
}

// Settings returns the parsed settings.json content.
func (l *PromptLoader) Settings() PromptSettings {
	return l.prompt.Settings
}
