package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/lucasamorimca/cosmwasm-guard/internal/finding"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Global.SeverityThreshold != "low" {
		t.Errorf("SeverityThreshold = %q, want %q", cfg.Global.SeverityThreshold, "low")
	}
	if cfg.Global.OutputFormat != "text" {
		t.Errorf("OutputFormat = %q, want %q", cfg.Global.OutputFormat, "text")
	}
	if !cfg.IsDetectorEnabled("any-detector") {
		t.Error("IsDetectorEnabled should default to true for unconfigured detectors")
	}
}

func TestLoad_MissingFileReturnsDefault(t *testing.T) {
	tmpDir := t.TempDir()

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Global.SeverityThreshold != "low" {
		t.Errorf("SeverityThreshold = %q, want default %q", cfg.Global.SeverityThreshold, "low")
	}
}

func TestLoad_FromFile(t *testing.T) {
	tmpDir := t.TempDir()
	content := `
[global]
severity_threshold = "medium"

[detectors.unsafe-unwrap]
enabled = false

[suppressions]
files = ["tests/**"]
`
	if err := os.WriteFile(filepath.Join(tmpDir, ConfigFileName), []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.SeverityThreshold() != finding.SeverityMedium {
		t.Errorf("SeverityThreshold() = %v, want %v", cfg.SeverityThreshold(), finding.SeverityMedium)
	}
	if cfg.IsDetectorEnabled("unsafe-unwrap") {
		t.Error("unsafe-unwrap should be disabled per config")
	}
	if !cfg.IsDetectorEnabled("missing-addr-validate") {
		t.Error("missing-addr-validate should remain enabled")
	}
	if len(cfg.Suppressions.Files) != 1 || cfg.Suppressions.Files[0] != "tests/**" {
		t.Errorf("Suppressions.Files = %v, want [tests/**]", cfg.Suppressions.Files)
	}
}

func TestSeverityThreshold_DefaultsOnUnknown(t *testing.T) {
	cfg := &Config{Global: GlobalConfig{SeverityThreshold: "not-a-severity"}}
	if got := cfg.SeverityThreshold(); got != finding.SeverityLow {
		t.Errorf("SeverityThreshold() = %v, want %v", got, finding.SeverityLow)
	}
}

func TestOutputFormat_DefaultsToText(t *testing.T) {
	cfg := &Config{}
	if got := cfg.OutputFormat(); got != "text" {
		t.Errorf("OutputFormat() = %q, want %q", got, "text")
	}
}

func TestIsDetectorEnabled_NilConfig(t *testing.T) {
	var cfg *Config
	if !cfg.IsDetectorEnabled("anything") {
		t.Error("nil Config should treat every detector as enabled")
	}
}
