package promptic_test

import (
	"context"
	"errors"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/promptic"
	"github.com/m-mizutani/promptic/storage/memory"
)

// stubStorage serves a fixed file set without any provider wiring, for
// exercising the loader's failure paths.
type stubStorage struct {
	files map[string][]byte
}

func (s *stubStorage) ListFiles(ctx context.Context) []promptic.FileInfo {
	var infos []promptic.FileInfo
	for name, data := range s.files {
		infos = append(infos, promptic.FileInfo{
			Name:     name,
			Filename: name,
			Size:     int64(len(data)),
		})
	}
	return infos
}

func (s *stubStorage) DownloadFile(ctx context.Context, name string) []byte {
	return s.files[name]
}

func (s *stubStorage) FileExists(ctx context.Context, name string) bool {
	_, ok := s.files[name]
	return ok
}

func TestPromptLoader(t *testing.T) {
	ctx := context.Background()
	settings := promptic.PromptSettings{Provider: promptic.ProviderOpenAI, Model: "gpt-4"}

	t.Run("round trip through memory provider", func(t *testing.T) {
		provider, err := memory.New(settings, "You are a helpful assistant.", "Summarize the report.")
		gt.NoError(t, err)

		loader, err := promptic.NewPromptLoader(ctx, provider)
		gt.NoError(t, err)

		prompt := loader.Prompt()
		gt.Equal(t, prompt.SystemPrompt, "You are a helpful assistant.")
		gt.Equal(t, prompt.UserPrompt, "Summarize the report.")
		gt.Equal(t, prompt.Settings.Provider, promptic.ProviderOpenAI)
		gt.Equal(t, prompt.Settings.Model, "gpt-4")
		gt.Equal(t, loader.Settings(), settings)
	})

	t.Run("user prompt is optional", func(t *testing.T) {
		provider, err := memory.New(settings, "system only", "")
		gt.NoError(t, err)

		loader, err := promptic.NewPromptLoader(ctx, provider)
		gt.NoError(t, err)
		gt.Equal(t, loader.Prompt().UserPrompt, "")
	})

	t.Run("placeholder substitution", func(t *testing.T) {
		provider, err := memory.New(settings,
			"Hello {name}, you are a {role}. Keep {unknown} and {}.",
			"{name} asked: {question}",
		)
		gt.NoError(t, err)

		loader, err := promptic.NewPromptLoader(ctx, provider,
			promptic.WithPlaceholders(map[string]string{
				"name":     "Alice",
				"role":     "reviewer",
				"question": "why?",
			}),
		)
		gt.NoError(t, err)

		prompt := loader.Prompt()
		gt.Equal(t, prompt.SystemPrompt, "Hello Alice, you are a reviewer. Keep {unknown} and {}.")
		gt.Equal(t, prompt.UserPrompt, "Alice asked: why?")
	})

	t.Run("tools and schema pass through", func(t *testing.T) {
		provider, err := memory.New(settings, "system", "")
		gt.NoError(t, err)

		schema := &promptic.Parameter{
			Type: promptic.TypeObject,
			Properties: map[string]*promptic.Parameter{
				"answer": {Type: promptic.TypeString},
			},
		}
		loader, err := promptic.NewPromptLoader(ctx, provider,
			promptic.WithTools(newTestTool("alpha", nil), newTestTool("beta", nil)),
			promptic.WithResponseSchema(schema),
		)
		gt.NoError(t, err)

		prompt := loader.Prompt()
		gt.A(t, prompt.Tools).Length(2)
		gt.Equal(t, prompt.ResponseSchema, schema)

		specs := prompt.Specs()
		gt.A(t, specs).Length(2)
		gt.Equal(t, specs[0].Name, "alpha")
		gt.Equal(t, specs[1].Name, "beta")
	})

	t.Run("prompt returns a fresh value", func(t *testing.T) {
		provider, err := memory.New(settings, "immutable", "")
		gt.NoError(t, err)

		loader, err := promptic.NewPromptLoader(ctx, provider)
		gt.NoError(t, err)

		first := loader.Prompt()
		first.SystemPrompt = "mutated"
		gt.Equal(t, loader.Prompt().SystemPrompt, "immutable")
	})
}

func TestPromptLoaderErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("empty storage", func(t *testing.T) {
		_, err := promptic.NewPromptLoader(ctx, &stubStorage{})
		gt.Error(t, err)
		gt.True(t, errors.Is(err, promptic.ErrPromptNotFound))
	})

	t.Run("missing settings.json", func(t *testing.T) {
		_, err := promptic.NewPromptLoader(ctx, &stubStorage{files: map[string][]byte{
			"system.md": []byte("system"),
		}})
		gt.Error(t, err)
		gt.True(t, errors.Is(err, promptic.ErrSettingsNotFound))
	})

	t.Run("malformed settings.json", func(t *testing.T) {
		_, err := promptic.NewPromptLoader(ctx, &stubStorage{files: map[string][]byte{
			"settings.json": []byte("{not json"),
			"system.md":     []byte("system"),
		}})
		gt.Error(t, err)
		gt.False(t, errors.Is(err, promptic.ErrSettingsNotFound))
	})

	t.Run("missing system.md", func(t *testing.T) {
		_, err := promptic.NewPromptLoader(ctx, &stubStorage{files: map[string][]byte{
			"settings.json": []byte(`{"provider": "openai", "model": "gpt-4"}`),
		}})
		gt.Error(t, err)
		gt.True(t, errors.Is(err, promptic.ErrSystemPromptNotFound))
	})
}
