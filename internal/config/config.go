// Package config loads the full GC's tuning knobs from a YAML file, the
// way the pack's tinygo-adjacent tooling loads its own build configuration.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Config holds the tuning knobs §4.2 and §4.1 reference: heap geometry,
// worker-pool sizing, and the policy overrides that make a last-resort
// collection ignore the usual heuristics.
type Config struct {
	RegionSizeBytes uint64 `yaml:"region_size_bytes"`
	NumRegions      int    `yaml:"num_regions"`
	Workers         int    `yaml:"workers"`

	// ForceProcessReferences and ForceUnloadClasses mirror §4.2: the last-
	// resort collection processes references and unloads classes unless
	// these are explicitly disabled.
	ForceProcessReferences bool `yaml:"force_process_references"`
	ForceUnloadClasses     bool `yaml:"force_unload_classes"`

	SoftRefPolicyName   string `yaml:"soft_ref_policy"`
	ClearAllSoftRefs    bool   `yaml:"clear_all_soft_refs"`

	EnableVerification bool `yaml:"enable_verification"`
}

// Default returns the configuration the demo CLI and tests use absent an
// explicit file: a modest synthetic heap and one worker per logical CPU is
// left to the caller to decide (Workers == 0 means "let the caller pick").
func Default() Config {
	return Config{
		RegionSizeBytes:        1 << 20, // 1MiB
		NumRegions:             64,
		Workers:                0,
		ForceProcessReferences: true,
		ForceUnloadClasses:     true,
		SoftRefPolicyName:      "always-clear",
		ClearAllSoftRefs:       true,
		EnableVerification:     true,
	}
}

// Load reads and parses a YAML config file. Fields the file omits keep
// their Default() values; an explicit zero region_size_bytes or num_regions
// also falls back to the default, while other explicit values (including
// false or 0) are kept as written.
func Load(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if cfg.RegionSizeBytes == 0 {
		cfg.RegionSizeBytes = Default().RegionSizeBytes
	}
	if cfg.NumRegions == 0 {
		cfg.NumRegions = Default().NumRegions
	}
	return cfg, nil
}
