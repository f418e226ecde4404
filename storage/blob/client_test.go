package blob_test

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/promptic/storage/blob"
)

// devConnectionString is the well-known Azurite development credential. It
// parses offline, which is all the construction tests need.
const devConnectionString = "DefaultEndpointsProtocol=http;AccountName=devstoreaccount1;AccountKey=Eby8vdM02xNOcqFlqUwJPLlmEtlCDXJ1OUzFT50uSRZ6IFsuFq2UVErCz4I6tq/K1SZFPTOtr/KBHBeksoGMGw==;BlobEndpoint=http://127.0.0.1:10000/devstoreaccount1;"

func TestNewClient(t *testing.T) {
	t.Run("connection string is required", func(t *testing.T) {
		t.Setenv("PROMPTIC_STORAGE_CONNECTION_STRING", "")

		_, err := blob.NewClient()
		gt.Error(t, err)
		gt.S(t, err.Error()).Contains("PROMPTIC_STORAGE_CONNECTION_STRING")
	})

	t.Run("connection string from environment", func(t *testing.T) {
		t.Setenv("PROMPTIC_STORAGE_CONNECTION_STRING", devConnectionString)

		client, err := blob.NewClient()
		gt.NoError(t, err)
		gt.Equal(t, client.ContainerName(), blob.DefaultContainer)
		gt.Equal(t, client.WorkingFolder(), "")
	})

	t.Run("container name override", func(t *testing.T) {
		client, err := blob.NewClient(
			blob.WithConnectionString(devConnectionString),
			blob.WithContainerName("custom"),
		)
		gt.NoError(t, err)
		gt.Equal(t, client.ContainerName(), "custom")
	})

	t.Run("blank container name is rejected", func(t *testing.T) {
		_, err := blob.NewClient(
			blob.WithConnectionString(devConnectionString),
			blob.WithContainerName("  "),
		)
		gt.Error(t, err)
	})

	t.Run("working folder is normalized", func(t *testing.T) {
		cases := map[string]string{
			"assistant":    "assistant/",
			"assistant/":   "assistant/",
			"/assistant//": "assistant/",
			"a/b":          "a/b/",
			"":             "",
			"   ":          "",
		}
		for input, want := range cases {
			client, err := blob.NewClient(
				blob.WithConnectionString(devConnectionString),
				blob.WithWorkingFolder(input),
			)
			gt.NoError(t, err)
			gt.Equal(t, client.WorkingFolder(), want)
		}
	})
}

func TestNewProvider(t *testing.T) {
	provider, err := blob.NewProvider("assistant",
		blob.WithConnectionString(devConnectionString),
	)
	gt.NoError(t, err)
	gt.Equal(t, provider.Client().WorkingFolder(), "assistant/")
	gt.Equal(t, provider.Client().ContainerName(), blob.DefaultContainer)
}

func TestBlobIntegration(t *testing.T) {
	if _, ok := os.LookupEnv("PROMPTIC_STORAGE_CONNECTION_STRING"); !ok {
		t.Skip("PROMPTIC_STORAGE_CONNECTION_STRING is not set")
	}

	ctx := context.Background()
	folder := "promptic-test-" + uuid.New().String()

	client, err := blob.NewClient(blob.WithWorkingFolder(folder))
	gt.NoError(t, err)

	gt.NoError(t, client.CreateFolder(ctx, folder))
	gt.NoError(t, client.CreateFolder(ctx, folder)) // existing folder is fine

	gt.NoError(t, client.UploadFile(ctx, "settings.json", []byte(`{"provider": "openai", "model": "gpt-4"}`)))
	gt.NoError(t, client.UploadFile(ctx, "system.md", []byte("integration system prompt")))

	t.Run("list excludes the folder marker", func(t *testing.T) {
		files, err := client.ListFiles(ctx)
		gt.NoError(t, err)
		gt.A(t, files).Length(2)
		for _, f := range files {
			gt.S(t, f.Name).Contains(folder + "/")
			gt.NotEqual(t, f.Filename, "")
		}
	})

	t.Run("download and exists", func(t *testing.T) {
		data, err := client.DownloadFile(ctx, "system.md")
		gt.NoError(t, err)
		gt.Equal(t, string(data), "integration system prompt")

		exists, err := client.FileExists(ctx, "system.md")
		gt.NoError(t, err)
		gt.True(t, exists)

		exists, err = client.FileExists(ctx, "absent.md")
		gt.NoError(t, err)
		gt.False(t, exists)
	})

	t.Run("provider boundary swallows absence", func(t *testing.T) {
		provider := blob.NewProviderFromClient(client)
		gt.Nil(t, provider.DownloadFile(ctx, "absent.md"))
		gt.True(t, provider.FileExists(ctx, "system.md"))
		gt.A(t, provider.ListFiles(ctx)).Length(2)
	})
}
