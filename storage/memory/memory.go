// Package memory provides a storage provider assembled from in-memory
// values instead of files. It backs tests and embedded prompts.
package memory

import (
	"context"
	"encoding/json"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/promptic"
)

// Provider serves a prompt directory synthesized at construction time.
type Provider struct {
	files map[string][]byte
	infos []promptic.FileInfo
}

// New builds a provider holding settings.json, system.md and, when
// userPrompt is non-empty, user.md.
func New(settings promptic.PromptSettings, systemPrompt, userPrompt string) (*Provider, error) {
	raw, err := json.Marshal(settings)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to marshal prompt settings")
	}

	now := time.Now()
	p := &Provider{files: map[string][]byte{}}

	add := func(name string, data []byte, contentType string) {
		p.files[name] = data
		p.infos = append(p.infos, promptic.FileInfo{
			Name:        name,
			Filename:    name,
			Size:        int64(len(data)),
			CreatedAt:   now,
			ModifiedAt:  now,
			ContentType: contentType,
		})
	}

	add(promptic.SettingsFileName, raw, "application/json")
	add(promptic.SystemPromptFileName, []byte(systemPrompt), "text/markdown")
	if userPrompt != "" {
		add(promptic.UserPromptFileName, []byte(userPrompt), "text/markdown")
	}

	return p, nil
}

// ListFiles returns the synthesized metadata records.
func (p *Provider) ListFiles(ctx context.Context) []promptic.FileInfo {
	infos := make([]promptic.FileInfo, len(p.infos))
	copy(infos, p.infos)
	return infos
}

// DownloadFile returns a copy of the stored bytes, or nil for an unknown
// name.
func (p *Provider) DownloadFile(ctx context.Context, name string) []byte {
	data, ok := p.files[name]
	if !ok {
		promptic.LoggerFromContext(ctx).Debug("file not found in memory provider", "name", name)
		return nil
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out
}

// FileExists reports whether the named file was synthesized.
func (p *Provider) FileExists(ctx context.Context, name string) bool {
	_, ok := p.files[name]
	return ok
}
