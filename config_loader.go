// config_loader.go: Configuration file loading with Argus format detection
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package pluginloader

import (
	"os"
	"path/filepath"

	"github.com/agilira/argus"
	"gopkg.in/yaml.v3"
)

// LoadConfig reads a configuration file, expands environment variables,
// applies defaults and validates the result.
//
// The format is detected from the extension by Argus. YAML is decoded with
// gopkg.in/yaml.v3; every other format Argus understands (JSON, TOML, HCL,
// INI, properties) is parsed by Argus into a map and bound through YAML.
func LoadConfig(path string) (Config, error) {
	return LoadConfigWithEnv(path, DefaultEnvConfigOptions())
}

// LoadConfigWithEnv is LoadConfig with explicit environment options.
func LoadConfigWithEnv(path string, options EnvConfigOptions) (Config, error) {
	var config Config

	clean := filepath.Clean(path)
	data, err := os.ReadFile(clean)
	if err != nil {
		return config, NewConfigFileError(clean, "cannot read file", err)
	}

	if err := parseConfig(clean, data, &config); err != nil {
		return config, err
	}

	if err := config.ApplyEnvironment(options); err != nil {
		return config, err
	}
	config.ApplyDefaults()

	if err := config.Validate(); err != nil {
		return config, err
	}
	return config, nil
}

func parseConfig(path string, data []byte, config *Config) error {
	format := argus.DetectFormat(path)

	if format == argus.FormatYAML {
		if err := yaml.Unmarshal(data, config); err != nil {
			return NewConfigParseError(path, err)
		}
		return nil
	}

	configMap, err := argus.ParseConfig(data, format)
	if err != nil {
		return NewConfigParseError(path, err)
	}
	return bindConfigMap(path, configMap, config)
}

// bindConfigMap decodes a generic map through YAML so the yaml struct tags
// apply regardless of the source format.
func bindConfigMap(path string, configMap map[string]interface{}, config *Config) error {
	if configMap == nil {
		return NewConfigParseError(path, nil)
	}
	raw, err := yaml.Marshal(configMap)
	if err != nil {
		return NewConfigParseError(path, err)
	}
	if err := yaml.Unmarshal(raw, config); err != nil {
		return NewConfigParseError(path, err)
	}
	return nil
}
