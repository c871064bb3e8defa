package file

import (
	"context"
	"dsclient/internal/flags"
	"dsclient/internal/types"
	"fmt"
	"os"
)

// SettingsFile serves runtime variables from a YAML (or JSON) document on
// disk, in the same shape as a defaults document. The file is read on every
// fetch, so edits show up once the provider's refresh interval passes.
type SettingsFile struct {
	path string
}

func NewSettingsFile(path string) *SettingsFile {
	return &SettingsFile{path: path}
}

func (f *SettingsFile) FetchSettings(_ context.Context) (types.Settings, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return types.Settings{}, fmt.Errorf("read settings file: %w", err)
	}
	return flags.LoadDefaultsYAML(data)
}
