// Package config loads and saves the agentcost configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/timogilvie/agentcost/internal/pricing"
)

// Config holds all agentcost configuration.
type Config struct {
	General GeneralConfig    `toml:"general"`
	Logs    LogsConfig       `toml:"logs"`
	Pricing PricingOverrides `toml:"pricing"`
}

// GeneralConfig holds general preferences.
type GeneralConfig struct {
	DefaultAgent string `toml:"default_agent"`
}

// LogsConfig overrides the agent log roots.
type LogsConfig struct {
	ClaudeDir string `toml:"claude_dir,omitempty"`
	CodexDir  string `toml:"codex_dir,omitempty"`
}

// PricingOverrides allows user-defined rates for specific models.
type PricingOverrides struct {
	Overrides map[string]ModelPricingOverride `toml:"overrides,omitempty"`
}

// ModelPricingOverride holds per-model rate overrides. Nil fields keep the
// built-in value.
type ModelPricingOverride struct {
	InputPerMTok      *float64 `toml:"input_per_mtok,omitempty"`
	OutputPerMTok     *float64 `toml:"output_per_mtok,omitempty"`
	CacheWritePerMTok *float64 `toml:"cache_write_per_mtok,omitempty"`
	CacheReadPerMTok  *float64 `toml:"cache_read_per_mtok,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		General: GeneralConfig{DefaultAgent: "claude"},
	}
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "agentcost")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "agentcost")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// Load reads the config file, returning defaults if it doesn't exist.
func Load() (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(ConfigPath())
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// Save writes the config to disk.
func Save(cfg Config) error {
	dir := ConfigDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(ConfigPath(), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}

// PricingTable overlays the configured per-model overrides onto the
// built-in default table. Overridden models that aren't in the default
// table are added as new entries.
func (c Config) PricingTable() pricing.Table {
	table := pricing.DefaultTable()
	for model, ov := range c.Pricing.Overrides {
		p := table[model]
		if ov.InputPerMTok != nil {
			p.InputPerMTok = *ov.InputPerMTok
		}
		if ov.OutputPerMTok != nil {
			p.OutputPerMTok = *ov.OutputPerMTok
		}
		if ov.CacheWritePerMTok != nil {
			p.CacheWritePerMTok = ov.CacheWritePerMTok
		}
		if ov.CacheReadPerMTok != nil {
			p.CacheReadPerMTok = ov.CacheReadPerMTok
		}
		table[model] = p
	}
	return table
}
