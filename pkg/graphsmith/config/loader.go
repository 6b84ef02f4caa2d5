package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// FromYAML parses YAML into a Config.
func FromYAML(data []byte) (Config, error) {
	return decode(data, yaml.Unmarshal, "yaml")
}

// FromJSON parses JSON into a Config.
func FromJSON(data []byte) (Config, error) {
	return decode(data, json.Unmarshal, "json")
}

// FromFile loads configuration from a file. Format follows the extension;
// files without one are read as YAML.
func FromFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		return FromJSON(data)
	case ".yaml", ".yml", "":
		return FromYAML(data)
	default:
		return Config{}, fmt.Errorf("unsupported config file extension %q", ext)
	}
}

func decode(data []byte, unmarshal func([]byte, any) error, format string) (Config, error) {
	var m map[string]any
	if err := unmarshal(data, &m); err != nil {
		return Config{}, fmt.Errorf("parse %s config: %w", format, err)
	}
	return New(m), nil
}
