package blob

import (
	"context"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/m-mizutani/promptic"
)

// Provider adapts Client to the promptic.StorageProvider contract. Transport
// failures are logged through the context logger and reported as absence.
type Provider struct {
	client *Client
}

// NewProvider builds a provider for one prompt folder. The prompt name
// becomes the client's working folder.
func NewProvider(promptName string, options ...Option) (*Provider, error) {
	options = append(options, WithWorkingFolder(promptName))
	client, err := NewClient(options...)
	if err != nil {
		return nil, err
	}
	return &Provider{client: client}, nil
}

// NewProviderFromClient wraps an already configured client.
func NewProviderFromClient(client *Client) *Provider {
	return &Provider{client: client}
}

// Client returns the underlying blob client, for callers that need the
// error-returning API.
func (p *Provider) Client() *Client {
	return p.client
}

// ListFiles lists the prompt's blobs. Failures yield an empty list.
func (p *Provider) ListFiles(ctx context.Context) []promptic.FileInfo {
	infos, err := p.client.ListFiles(ctx)
	if err != nil {
		promptic.LoggerFromContext(ctx).Warn("failed to list blobs",
			"container", p.client.ContainerName(),
			"folder", p.client.WorkingFolder(),
			"error", err,
		)
		return nil
	}
	return infos
}

// DownloadFile returns the blob's content, or nil when it is absent or the
// download fails.
func (p *Provider) DownloadFile(ctx context.Context, name string) []byte {
	if name == "" {
		return nil
	}

	data, err := p.client.DownloadFile(ctx, name)
	if err != nil {
		logger := promptic.LoggerFromContext(ctx)
		if bloberror.HasCode(err, bloberror.BlobNotFound) {
			logger.Debug("blob does not exist", "name", name)
		} else {
			logger.Warn("failed to download blob", "name", name, "error", err)
		}
		return nil
	}
	return data
}

// FileExists reports whether the blob exists. Failures report false.
func (p *Provider) FileExists(ctx context.Context, name string) bool {
	exists, err := p.client.FileExists(ctx, name)
	if err != nil {
		promptic.LoggerFromContext(ctx).Warn("failed to check blob existence", "name", name, "error", err)
		return false
	}
	return exists
}
