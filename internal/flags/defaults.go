package flags

import (
	"dsclient/internal/types"
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

// LoadDefaultsYAML parses a defaults document of the form
//
//	flags:
//	  DataStoresV2Enabled: true
//	ints:
//	  DataStoreKeyLengthLimit: 50
//	strings: {}
//	log_levels:
//	  DataStore: 6
func LoadDefaultsYAML(data []byte) (types.Settings, error) {
	var s types.Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return types.Settings{}, fmt.Errorf("parse defaults: %w", err)
	}
	return s.Clone(), nil
}

// LoadDefaultsFile reads path and registers its values on p.
func LoadDefaultsFile(p *Provider, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read defaults: %w", err)
	}
	s, err := LoadDefaultsYAML(data)
	if err != nil {
		return err
	}
	p.RegisterDefaults(s)
	return nil
}
