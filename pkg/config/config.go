// Package config resolves deskcalc configuration from defaults, an optional
// YAML config file, DESKCALC_* environment variables, and CLI flags, in
// ascending precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Defaults applied before any other configuration source.
const (
	DefaultHost         = "127.0.0.1"
	DefaultPort         = 8484
	DefaultHistoryLimit = 500
	DefaultFormat       = "table"
)

// Config holds the resolved runtime configuration.
type Config struct {
	Host          string `koanf:"host"`
	Port          int    `koanf:"port"`
	HistoryLimit  int    `koanf:"history_limit"`
	HistoryFile   string `koanf:"history_file"`
	WorksheetsDir string `koanf:"worksheets_dir"`
	Format        string `koanf:"format"`
}

// Addr returns the host:port listen address for serve mode.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Load resolves the configuration. Precedence, highest first: CLI flags,
// DESKCALC_* environment variables, the config file, built-in defaults.
// Only flags the user actually changed participate, so flag defaults never
// shadow file or environment values.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(map[string]interface{}{
		"host":           DefaultHost,
		"port":           DefaultPort,
		"history_limit":  DefaultHistoryLimit,
		"history_file":   defaultHistoryFile(),
		"worksheets_dir": "",
		"format":         DefaultFormat,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(cfgFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("DESKCALC_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "DESKCALC_"))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			key := strings.ReplaceAll(f.Name, "-", "_")
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	return &cfg, nil
}

// findConfigFile resolves the config file path: an explicit path wins, then
// deskcalc.yaml or deskcalc.yml in the working directory. Returns "" when
// no config file exists.
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range []string{"deskcalc.yaml", "deskcalc.yml"} {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// defaultHistoryFile places the REPL history file in the user's home
// directory, or disables persistent history when no home is available.
func defaultHistoryFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".deskcalc_history")
}
