package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// catalogFile is the on-disk shape of a capability file.
type catalogFile struct {
	Capabilities []Capability `yaml:"capabilities"`
}

// FromFile loads a catalog from a YAML file.
func FromFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}
	return FromYAML(data)
}

// FromYAML parses a capability list from YAML data.
func FromYAML(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse catalog yaml: %w", err)
	}

	c := New()
	for _, cap := range file.Capabilities {
		if cap.ID == "" {
			return nil, fmt.Errorf("catalog entry missing id (name: %q)", cap.Name)
		}
		c.Register(cap)
	}
	return c, nil
}
