// Package blob provides prompt storage on Azure Blob Storage. Client is the
// full error-returning API; Provider adapts it to the promptic storage
// contract.
package blob

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/promptic"
)

const (
	// DefaultContainer is the container used when none is configured.
	DefaultContainer = "prompts"

	connectionStringEnv = "PROMPTIC_STORAGE_CONNECTION_STRING"
)

var contentTypes = map[string]string{
	".json": "application/json",
	".md":   "text/markdown",
	".txt":  "text/plain",
	".yaml": "application/yaml",
	".yml":  "application/yaml",
}

// Client wraps one Azure Blob Storage container, scoped to an optional
// working folder. Blob names passed to its methods are relative to the
// working folder.
type Client struct {
	client *azblob.Client

	connectionString string
	containerName    string
	workingFolder    string
}

// Option is a function that configures a Client.
type Option func(*Client)

// WithContainerName overrides the container. Default: DefaultContainer.
func WithContainerName(name string) Option {
	return func(c *Client) {
		c.containerName = name
	}
}

// WithWorkingFolder scopes the client to a folder within the container.
func WithWorkingFolder(folder string) Option {
	return func(c *Client) {
		c.workingFolder = folder
	}
}

// WithConnectionString overrides the connection string taken from
// PROMPTIC_STORAGE_CONNECTION_STRING.
func WithConnectionString(connectionString string) Option {
	return func(c *Client) {
		c.connectionString = connectionString
	}
}

// NewClient creates a blob storage client. The connection string comes from
// the PROMPTIC_STORAGE_CONNECTION_STRING environment variable unless
// overridden.
func NewClient(options ...Option) (*Client, error) {
	c := &Client{
		containerName: DefaultContainer,
	}
	for _, opt := range options {
		opt(c)
	}

	if c.connectionString == "" {
		c.connectionString = os.Getenv(connectionStringEnv)
	}
	if c.connectionString == "" {
		return nil, goerr.New(connectionStringEnv + " is not set")
	}
	if strings.TrimSpace(c.containerName) == "" {
		return nil, goerr.New("container name is empty")
	}
	c.workingFolder = normalizeFolder(c.workingFolder)

	azClient, err := azblob.NewClientFromConnectionString(c.connectionString, nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create blob service client",
			goerr.V("container", c.containerName),
		)
	}
	c.client = azClient

	return c, nil
}

// ContainerName returns the configured container.
func (c *Client) ContainerName() string {
	return c.containerName
}

// WorkingFolder returns the normalized folder prefix, empty or ending in "/".
func (c *Client) WorkingFolder() string {
	return c.workingFolder
}

// ListFiles lists the blobs under the working folder. The zero-byte marker
// blob that backs the folder itself is excluded.
func (c *Client) ListFiles(ctx context.Context) ([]promptic.FileInfo, error) {
	options := &azblob.ListBlobsFlatOptions{}
	if c.workingFolder != "" {
		options.Prefix = &c.workingFolder
	}

	pager := c.client.NewListBlobsFlatPager(c.containerName, options)

	var infos []promptic.FileInfo
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to list blobs",
				goerr.V("container", c.containerName),
				goerr.V("folder", c.workingFolder),
			)
		}

		for _, item := range page.Segment.BlobItems {
			if item == nil || item.Name == nil {
				continue
			}
			name := *item.Name
			if name == c.workingFolder {
				continue
			}

			info := promptic.FileInfo{
				Name:     name,
				Filename: strings.TrimPrefix(name, c.workingFolder),
			}
			if props := item.Properties; props != nil {
				if props.ContentLength != nil {
					info.Size = *props.ContentLength
				}
				if props.CreationTime != nil {
					info.CreatedAt = *props.CreationTime
				}
				if props.LastModified != nil {
					info.ModifiedAt = *props.LastModified
				}
				if props.ContentType != nil {
					info.ContentType = *props.ContentType
				}
			}
			infos = append(infos, info)
		}
	}

	return infos, nil
}

// DownloadFile returns the content of the named blob.
func (c *Client) DownloadFile(ctx context.Context, name string) ([]byte, error) {
	if strings.TrimSpace(name) == "" {
		return nil, goerr.New("blob name is empty")
	}

	blobName := c.blobName(name)
	resp, err := c.client.DownloadStream(ctx, c.containerName, blobName, nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to download blob", goerr.V("blob", blobName))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read blob content", goerr.V("blob", blobName))
	}

	return data, nil
}

// UploadFile writes data to the named blob, overwriting any existing
// content. The content type is derived from the file extension.
func (c *Client) UploadFile(ctx context.Context, name string, data []byte) error {
	if strings.TrimSpace(name) == "" {
		return goerr.New("blob name is empty")
	}

	blobName := c.blobName(name)
	contentType := contentTypeOf(name)

	_, err := c.client.UploadBuffer(ctx, c.containerName, blobName, data, &azblob.UploadBufferOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: &contentType},
	})
	if err != nil {
		return goerr.Wrap(err, "failed to upload blob", goerr.V("blob", blobName))
	}

	return nil
}

// CreateFolder writes the zero-byte marker blob that makes a folder visible
// in listings. A folder that already exists counts as success.
func (c *Client) CreateFolder(ctx context.Context, folder string) error {
	marker := normalizeFolder(folder)
	if marker == "" {
		return goerr.New("folder name is empty")
	}

	_, err := c.client.UploadBuffer(ctx, c.containerName, marker, []byte{}, nil)
	if err != nil && !bloberror.HasCode(err, bloberror.BlobAlreadyExists) {
		return goerr.Wrap(err, "failed to create folder marker", goerr.V("folder", marker))
	}

	return nil
}

// FileExists reports whether the named blob exists.
func (c *Client) FileExists(ctx context.Context, name string) (bool, error) {
	if strings.TrimSpace(name) == "" {
		return false, nil
	}

	blobName := c.blobName(name)
	blobClient := c.client.ServiceClient().NewContainerClient(c.containerName).NewBlobClient(blobName)

	if _, err := blobClient.GetProperties(ctx, nil); err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound) {
			return false, nil
		}
		return false, goerr.Wrap(err, "failed to check blob existence", goerr.V("blob", blobName))
	}

	return true, nil
}

func (c *Client) blobName(name string) string {
	return c.workingFolder + name
}

// normalizeFolder strips surrounding slashes and restores the single
// trailing slash that marks a folder prefix.
func normalizeFolder(folder string) string {
	folder = strings.Trim(strings.TrimSpace(folder), "/")
	if folder == "" {
		return ""
	}
	return folder + "/"
}

func contentTypeOf(name string) string {
	if ct, ok := contentTypes[strings.ToLower(filepath.Ext(name))]; ok {
		return ct
	}
	return "application/octet-stream"
}
