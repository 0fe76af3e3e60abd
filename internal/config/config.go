// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads Baton's optional user configuration from
// ~/.config/baton/config.yaml.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tombee/baton/pkg/errors"
)

// Settings holds user preferences for baton commands.
type Settings struct {
	// Output controls how rendered definitions are written.
	Output OutputSettings `yaml:"output"`

	// Log controls structured logging defaults. Environment variables
	// (BATON_DEBUG, BATON_LOG_LEVEL) take precedence over these values.
	Log LogSettings `yaml:"log"`
}

// OutputSettings controls definition and CLI output formatting.
type OutputSettings struct {
	// Indent is the indentation used for rendered definition JSON.
	// Defaults to two spaces.
	Indent string `yaml:"indent"`

	// Color enables styled terminal output. Defaults to true; the CLI
	// still suppresses color when stdout is not a terminal.
	Color *bool `yaml:"color"`
}

// LogSettings controls structured logging defaults.
type LogSettings struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`

	// Format is text or json.
	Format string `yaml:"format"`
}

// Default returns the settings used when no config file exists.
func Default() *Settings {
	color := true
	return &Settings{
		Output: OutputSettings{
			Indent: "  ",
			Color:  &color,
		},
		Log: LogSettings{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads settings from path, or from the default XDG location when
// path is empty. A missing file is not an error: defaults are returned.
func Load(path string) (*Settings, error) {
	explicit := path != ""
	if path == "" {
		p, err := ConfigPath()
		if err != nil {
			return nil, fmt.Errorf("resolving config path: %w", err)
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return Default(), nil
		}
		return nil, &errors.ConfigError{
			Key:    path,
			Reason: "config file could not be read",
			Cause:  err,
		}
	}

	settings := Default()
	if err := yaml.Unmarshal(data, settings); err != nil {
		return nil, &errors.ConfigError{
			Key:    path,
			Reason: "config file is not valid YAML",
			Cause:  err,
		}
	}

	if settings.Output.Indent == "" {
		settings.Output.Indent = "  "
	}
	return settings, nil
}

// ColorEnabled reports whether styled output is requested by config.
func (s *Settings) ColorEnabled() bool {
	return s.Output.Color == nil || *s.Output.Color
}
