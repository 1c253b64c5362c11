// env_config.go: Environment variable expansion and overrides for Config
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package pluginloader

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// DefaultEnvPrefix prefixes every environment variable the loader reads.
const DefaultEnvPrefix = "PLUGINLOADER_"

var variablePattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(:-([^}]*))?\}`)

// EnvConfigOptions configures environment variable processing.
type EnvConfigOptions struct {
	// Prefix is tried before the bare variable name, and names the override
	// variables (PREFIX + "PLUGINS_DIR", ...).
	Prefix string `json:"prefix" yaml:"prefix"`

	// FailOnMissing turns an unset variable without default into an error.
	FailOnMissing bool `json:"fail_on_missing" yaml:"fail_on_missing"`

	// Defaults for variables that are unset and have no inline default.
	Defaults map[string]string `json:"defaults,omitempty" yaml:"defaults,omitempty"`
}

// DefaultEnvConfigOptions returns the options LoadConfig uses.
func DefaultEnvConfigOptions() EnvConfigOptions {
	return EnvConfigOptions{
		Prefix:   DefaultEnvPrefix,
		Defaults: make(map[string]string),
	}
}

// ExpandEnvironmentVariables replaces ${VAR} and ${VAR:-default} in input.
//
// Resolution order: PREFIX+VAR, VAR, inline default, options.Defaults, then
// empty (or an error with FailOnMissing).
func ExpandEnvironmentVariables(input string, options EnvConfigOptions) (string, error) {
	if input == "" || !strings.Contains(input, "${") {
		return input, nil
	}

	var firstErr error
	result := variablePattern.ReplaceAllStringFunc(input, func(match string) string {
		submatches := variablePattern.FindStringSubmatch(match)
		varName := submatches[1]
		inlineDefault := ""
		hasDefault := submatches[2] != ""
		if hasDefault {
			inlineDefault = submatches[3]
		}

		value, err := expandSingleEnvironmentVariable(varName, inlineDefault, hasDefault, options)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			return match
		}
		return value
	})

	return result, firstErr
}

func expandSingleEnvironmentVariable(varName, inlineDefault string, hasDefault bool, options EnvConfigOptions) (string, error) {
	if options.Prefix != "" {
		if value, ok := os.LookupEnv(options.Prefix + varName); ok {
			return validateEnvValue(varName, value)
		}
	}
	if value, ok := os.LookupEnv(varName); ok {
		return validateEnvValue(varName, value)
	}
	if hasDefault {
		return validateEnvValue(varName, inlineDefault)
	}
	if value, ok := options.Defaults[varName]; ok {
		return validateEnvValue(varName, value)
	}
	if options.FailOnMissing {
		return "", NewConfigValidationError(
			fmt.Sprintf("required environment variable not found: %s (also tried %s%s)", varName, options.Prefix, varName), nil)
	}
	return "", nil
}

func validateEnvValue(name, value string) (string, error) {
	if strings.Contains(value, "\x00") {
		return "", NewConfigValidationError("environment variable value contains null byte", nil).
			WithContext("variable", name)
	}
	const maxLength = 4096
	if len(value) > maxLength {
		return "", NewConfigValidationError(
			fmt.Sprintf("environment variable value too long: %d bytes (max %d)", len(value), maxLength), nil).
			WithContext("variable", name)
	}
	return value, nil
}

// ApplyEnvironment expands placeholders in the string fields of c and then
// applies the PREFIX-named overrides:
//
//	PLUGINLOADER_PLUGINS_DIR     plugins directory
//	PLUGINLOADER_EXTENSIONS      comma separated extensions
//	PLUGINLOADER_EVENTS          comma separated frame events
//	PLUGINLOADER_SCRIPT_MODULES  bool
//	PLUGINLOADER_LOG_LEVEL       log level
func (c *Config) ApplyEnvironment(options EnvConfigOptions) error {
	fields := []*string{
		&c.PluginsDir,
		&c.ExportSymbol,
		&c.NameSymbol,
		&c.RequiresSymbol,
		&c.ScriptGoPath,
		&c.LogLevel,
	}
	for _, field := range fields {
		expanded, err := ExpandEnvironmentVariables(*field, options)
		if err != nil {
			return err
		}
		*field = expanded
	}
	for i := range c.Extensions {
		expanded, err := ExpandEnvironmentVariables(c.Extensions[i], options)
		if err != nil {
			return err
		}
		c.Extensions[i] = expanded
	}

	if v, ok := os.LookupEnv(options.Prefix + "PLUGINS_DIR"); ok && v != "" {
		c.PluginsDir = v
	}
	if v, ok := os.LookupEnv(options.Prefix + "EXTENSIONS"); ok {
		c.Extensions = splitList(v)
	}
	if v, ok := os.LookupEnv(options.Prefix + "EVENTS"); ok {
		c.Events = splitList(v)
	}
	if v, ok := os.LookupEnv(options.Prefix + "SCRIPT_MODULES"); ok {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return NewConfigValidationError("invalid "+options.Prefix+"SCRIPT_MODULES value", err)
		}
		c.ScriptModules = enabled
	}
	if v, ok := os.LookupEnv(options.Prefix + "LOG_LEVEL"); ok && v != "" {
		c.LogLevel = v
	}
	return nil
}

func splitList(v string) []string {
	out := make([]string, 0)
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
