// Package config loads the bridge server's runtime parameters from a
// YAML/JSON/TOML file, selected by extension. Zero values mean
// "unspecified" and are replaced by cmd/kinectxr-bridge's flag/env
// defaults after Load returns.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds the bridge server's runtime parameters.
type Config struct {
	Addr        string `json:"addr" yaml:"addr" toml:"addr"`
	Mock        bool   `json:"mock" yaml:"mock" toml:"mock"`
	DeviceIndex int    `json:"device_index" yaml:"device_index" toml:"device_index"`
	LogLevel    string `json:"log_level" yaml:"log_level" toml:"log_level"`
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}
