// Package config loads cosmwasm-guard's project configuration from
// .cosmwasm-guard.toml, following the teacher's viper-driven load pattern
// generalized from JSON to TOML.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/lucasamorimca/cosmwasm-guard/internal/finding"
)

// ConfigFileName is the project config file cosmwasm-guard looks for in the
// crate root.
const ConfigFileName = ".cosmwasm-guard.toml"

// GlobalConfig holds the report-wide settings.
type GlobalConfig struct {
	SeverityThreshold string `mapstructure:"severity_threshold"`
	OutputFormat      string `mapstructure:"output_format"`
}

// DetectorConfig is a per-detector override.
type DetectorConfig struct {
	Enabled  *bool  `mapstructure:"enabled"`
	Severity string `mapstructure:"severity"`
}

// SuppressionConfig lists glob patterns for files whose findings are
// dropped; matching files are still parsed and analyzed.
type SuppressionConfig struct {
	Files []string `mapstructure:"files"`
}

// Config is the fully resolved project configuration.
type Config struct {
	Global       GlobalConfig              `mapstructure:"global"`
	Detectors    map[string]DetectorConfig `mapstructure:"detectors"`
	Suppressions SuppressionConfig         `mapstructure:"suppressions"`
}

// DefaultConfig returns the configuration used when no config file exists.
func DefaultConfig() *Config {
	return &Config{
		Global: GlobalConfig{
			SeverityThreshold: "low",
			OutputFormat:      "text",
		},
		Detectors: map[string]DetectorConfig{},
	}
}

// Load reads dir/.cosmwasm-guard.toml, returning DefaultConfig() if it does
// not exist.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads the config file at the exact path given (rather than
// joining a directory with ConfigFileName), for callers that accept an
// explicit --config override. Returns DefaultConfig() if path does not
// exist.
func LoadFile(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	v.SetDefault("global.severity_threshold", "low")
	v.SetDefault("global.output_format", "text")

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// IsDetectorEnabled reports whether name is enabled, defaulting to true
// when the config has no override for it.
func (c *Config) IsDetectorEnabled(name string) bool {
	if c == nil {
		return true
	}
	d, ok := c.Detectors[name]
	if !ok || d.Enabled == nil {
		return true
	}
	return *d.Enabled
}

// SeverityThreshold parses the global severity_threshold, defaulting to
// SeverityLow (report everything except Informational findings) if unset or
// unrecognized.
func (c *Config) SeverityThreshold() finding.Severity {
	if c == nil {
		return finding.SeverityLow
	}
	sev, ok := finding.ParseSeverity(c.Global.SeverityThreshold)
	if !ok {
		return finding.SeverityLow
	}
	return sev
}

// OutputFormat returns the configured render format, defaulting to "text".
func (c *Config) OutputFormat() string {
	if c == nil || c.Global.OutputFormat == "" {
		return "text"
	}
	return strings.ToLower(c.Global.OutputFormat)
}

// DefaultTOML is the annotated starter config written by `cosmwasm-guard init`.
const DefaultTOML = `# cosmwasm-guard configuration
# See: https://github.com/lucasamorimca/cosmwasm-guard

[global]
# Minimum severity to report: "high", "medium", "low", "informational"
severity_threshold = "low"
# Output format: "text", "json", "sarif"
output_format = "text"

# Per-detector overrides
# [detectors.unsafe-unwrap]
# enabled = false

# [detectors.missing-addr-validate]
# severity = "low"

[suppressions]
# Glob patterns for files whose findings are dropped
files = ["tests/**", "examples/**"]
`
