// Package config loads the optional .prismacase.yaml settings file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultFile is read from the working directory when no path is given
const DefaultFile = ".prismacase.yaml"

// Config holds settings that would be tedious to pass as flags
type Config struct {
	// Overrides pins converted names for exact source identifiers.
	Overrides Overrides `yaml:"overrides,omitempty"`

	// SkipUnchangedMaps omits @map/@@map when casing leaves a name unchanged.
	SkipUnchangedMaps bool `yaml:"skip_unchanged_maps,omitempty"`

	// SearchPaths replaces the default schema locations.
	SearchPaths []string `yaml:"search_paths,omitempty"`

	// ExcludeModels lists models left as they are.
	ExcludeModels []string `yaml:"exclude_models,omitempty"`
}

// Overrides holds one table per identifier kind
type Overrides struct {
	// Models maps a model name to its converted name, e.g. auth_otp: OTPCode.
	Models map[string]string `yaml:"models,omitempty"`

	// Fields maps a field or index name, e.g. user_id: userID.
	Fields map[string]string `yaml:"fields,omitempty"`
}

// Load reads the config at path. A missing file is an error only when
// required is set; otherwise an empty Config is returned.
func Load(path string, required bool) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if !required && errors.Is(err, fs.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML config data. Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	var cfg Config

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the override tables and search paths
func (c *Config) Validate() error {
	var errs []error
	errs = append(errs, validateOverrides("models", c.Overrides.Models)...)
	errs = append(errs, validateOverrides("fields", c.Overrides.Fields)...)
	for _, p := range c.SearchPaths {
		if p == "" {
			errs = append(errs, errors.New("search_paths: empty path"))
		}
	}
	return errors.Join(errs...)
}

func validateOverrides(kind string, table map[string]string) []error {
	var errs []error
	for from, to := range table {
		if from == "" || to == "" {
			errs = append(errs, fmt.Errorf("overrides.%s %q -> %q: both names are required", kind, from, to))
		}
	}
	return errs
}
