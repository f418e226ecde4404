// Package localfs provides a storage provider over a prompt directory on
// the local filesystem.
package localfs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/promptic"
)

// DefaultBasePath is the directory prompts live under when no explicit base
// path is given to New.
const DefaultBasePath = "prompts"

var contentTypes = map[string]string{
	".json": "application/json",
	".md":   "text/markdown",
	".txt":  "text/plain",
	".yaml": "application/yaml",
	".yml":  "application/yaml",
}

// Provider serves the files of a single prompt directory,
// basePath/promptName.
type Provider struct {
	dir string
}

// New creates a provider over basePath/promptName. An empty basePath falls
// back to DefaultBasePath. The directory must already exist.
func New(basePath, promptName string) (*Provider, error) {
	if basePath == "" {
		basePath = DefaultBasePath
	}
	dir := filepath.Join(basePath, promptName)

	info, err := os.Stat(dir)
	if err != nil {
		return nil, goerr.Wrap(err, "prompt directory is not accessible", goerr.V("dir", dir))
	}
	if !info.IsDir() {
		return nil, goerr.New("prompt path is not a directory", goerr.V("dir", dir))
	}

	return &Provider{dir: dir}, nil
}

// Dir returns the resolved prompt directory.
func (p *Provider) Dir() string {
	return p.dir
}

// ListFiles returns metadata for the regular files in the prompt directory.
// Subdirectories are skipped. Read failures yield an empty list.
func (p *Provider) ListFiles(ctx context.Context) []promptic.FileInfo {
	logger := promptic.LoggerFromContext(ctx)

	entries, err := os.ReadDir(p.dir)
	if err != nil {
		logger.Warn("failed to read prompt directory", "dir", p.dir, "error", err)
		return nil
	}

	var infos []promptic.FileInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		stat, err := entry.Info()
		if err != nil {
			logger.Warn("failed to stat prompt file", "name", entry.Name(), "error", err)
			continue
		}
		infos = append(infos, promptic.FileInfo{
			Name:        filepath.Join(p.dir, entry.Name()),
			Filename:    entry.Name(),
			Size:        stat.Size(),
			CreatedAt:   stat.ModTime(),
			ModifiedAt:  stat.ModTime(),
			ContentType: contentTypeOf(entry.Name()),
		})
	}
	return infos
}

// DownloadFile reads the named file. A blank name, an absent file or a read
// failure yields nil.
func (p *Provider) DownloadFile(ctx context.Context, name string) []byte {
	if name == "" {
		return nil
	}

	data, err := os.ReadFile(filepath.Join(p.dir, name))
	if err != nil {
		logger := promptic.LoggerFromContext(ctx)
		if errors.Is(err, os.ErrNotExist) {
			logger.Debug("prompt file does not exist", "name", name)
		} else {
			logger.Warn("failed to read prompt file", "name", name, "error", err)
		}
		return nil
	}
	return data
}

// FileExists reports whether the named file exists and is not a directory.
func (p *Provider) FileExists(ctx context.Context, name string) bool {
	if name == "" {
		return false
	}
	info, err := os.Stat(filepath.Join(p.dir, name))
	return err == nil && !info.IsDir()
}

func contentTypeOf(name string) string {
	if ct, ok := contentTypes[strings.ToLower(filepath.Ext(name))]; ok {
		return ct
	}
	return "application/octet-stream"
}
