package promptic

import (
	"context"
	"time"
)

// FileInfo is the metadata record of a stored prompt artifact. Listing a
// provider yields metadata only; content is fetched with DownloadFile.
type FileInfo struct {
	// Name is the full path of the artifact within the backing store, such
	// as "assistant/settings.json" for a blob under a working folder.
	Name string

	// Filename is the bare file name within the prompt directory, such as
	// "settings.json" or "system.md". For flat stores it equals Name.
	Filename string

	// Size is the content length in bytes.
	Size int64

	CreatedAt  time.Time
	ModifiedAt time.Time

	// ContentType is the MIME type derived from the file extension or
	// reported by the backing store.
	ContentType string
}

// StorageProvider is the read surface over a prompt's artifacts. The three
// implementations (memory, localfs, blob) hide where the artifacts live.
//
// The methods do not return errors. A provider that fails to reach its
// backing store reports the same results as an empty store (no files, nil
// content, false existence) and logs the cause through the context logger.
// Callers that need to distinguish outage from absence should use the
// backend client directly.
type StorageProvider interface {
	// ListFiles returns metadata for every artifact of the prompt.
	// The result is empty when the prompt does not exist.
	ListFiles(ctx context.Context) []FileInfo

	// DownloadFile returns the content of the named artifact, or nil when
	// the artifact does not exist or the name is blank.
	DownloadFile(ctx context.Context, name string) []byte

	// FileExists reports whether the named artifact exists.
	FileExists(ctx context.Context, name string) bool
}
