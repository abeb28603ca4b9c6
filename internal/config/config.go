// SPDX-License-Identifier: MPL-2.0

package config

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/kstep/chores/internal/issue"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

const (
	// AppName is the application name and the config subdirectory.
	AppName = "chores"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "toml"
	// EnvPrefix prefixes environment overrides: CHORES_DNS_TOKEN sets dns.token.
	EnvPrefix = "CHORES"
)

// legacySources maps per-tool config files (relative to the config home) to
// the section they populate. Earlier entries for the same section win.
var legacySources = []struct {
	path    string
	section string
}{
	{"adslby/creds.toml", "adsl"},
	{"lostfilm/config.toml", "lostfilm"},
	{"pushbullet/config.toml", "pushbullet"},
	{"pushbullet/creds.toml", "pushbullet"},
	{"yadns/config.toml", "dns"},
	{"pocket/creds.toml", "pocket"},
}

// ConfigDir returns the chores configuration directory: $XDG_CONFIG_HOME/chores,
// falling back to ~/.config/chores (%APPDATA%\chores on Windows).
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	if configDirOverride != "" {
		return configDirOverride, nil
	}

	home, err := configHome()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, AppName), nil
}

func configHome() (string, error) {
	if runtime.GOOS == "windows" {
		if dir := os.Getenv("APPDATA"); dir != "" {
			return dir, nil
		}
	}
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".config"), nil
}

// FilePath returns the main config file path the options resolve to. The
// file does not need to exist.
func FilePath(opts LoadOptions) (string, error) {
	if opts.ConfigFilePath != "" {
		return string(opts.ConfigFilePath), nil
	}
	dir, err := configDirWithOverride(string(opts.ConfigDirPath))
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFileName+"."+ConfigFileExt), nil
}

// loadWithOptions merges defaults, legacy per-tool files, the main config
// file and the environment, in increasing precedence.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	if err := opts.Validate(); err != nil {
		return nil, err
	}

	cfgDir, err := configDirWithOverride(string(opts.ConfigDirPath))
	if err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigType(ConfigFileExt)

	defaults := DefaultConfig()
	defaults.Pocket.Queue = filepath.Join(filepath.Dir(cfgDir), "vimb", "queue")
	if err := setDefaults(v, defaults); err != nil {
		return nil, err
	}

	var sources []string

	if opts.ConfigFilePath != "" {
		path := string(opts.ConfigFilePath)
		if !fileExists(path) {
			return nil, issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(path).
				WithIssue(issue.ConfigLoadFailedId).
				WithSuggestion("Verify the file path passed with --config").
				WithSuggestion("Run 'chores config init' to create a default file").
				Wrap(fmt.Errorf("config file not found: %s", path)).
				BuildError()
		}
		if err := mergeFile(v, path, ""); err != nil {
			return nil, err
		}
		sources = append(sources, path)
	} else {
		mainPath := filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt)
		if fileExists(mainPath) {
			sources = append(sources, mainPath)
		}

		// The main file takes precedence over legacy files, so it is merged last.
		merged := make(map[string]bool)
		for _, src := range legacySources {
			path := filepath.Join(filepath.Dir(cfgDir), filepath.FromSlash(src.path))
			if merged[src.section] || !fileExists(path) {
				continue
			}
			if err := mergeFile(v, path, src.section); err != nil {
				return nil, err
			}
			merged[src.section] = true
			sources = append(sources, path)
		}

		if fileExists(mainPath) {
			if err := mergeFile(v, mainPath, ""); err != nil {
				return nil, err
			}
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("dns.token", EnvPrefix+"_DNS_TOKEN", "YANDEX_PDD_TOKEN"); err != nil {
		return nil, fmt.Errorf("failed to bind environment: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.Sources = sources

	return &cfg, nil
}

// setDefaults registers every key of cfg so that AutomaticEnv can resolve
// keys no file mentions.
func setDefaults(v *viper.Viper, cfg *Config) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode defaults: %w", err)
	}
	var tree map[string]any
	if err := toml.Unmarshal(data, &tree); err != nil {
		return fmt.Errorf("failed to decode defaults: %w", err)
	}
	walkDefaults(v, "", tree)
	return nil
}

func walkDefaults(v *viper.Viper, prefix string, tree map[string]any) {
	for key, val := range tree {
		if prefix != "" {
			key = prefix + "." + key
		}
		if sub, ok := val.(map[string]any); ok {
			walkDefaults(v, key, sub)
			continue
		}
		v.SetDefault(key, val)
	}
}

// mergeFile reads a TOML file and merges it into v, nested under section
// when section is not empty.
func mergeFile(v *viper.Viper, path, section string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return issue.NewErrorContext().
			WithOperation("read configuration").
			WithResource(path).
			WithIssue(issue.ConfigLoadFailedId).
			WithSuggestion("Check that the file is readable by the current user").
			Wrap(err).
			BuildError()
	}

	sub := viper.New()
	sub.SetConfigType(ConfigFileExt)
	if err := sub.ReadConfig(bytes.NewReader(data)); err != nil {
		return issue.NewErrorContext().
			WithOperation("parse configuration").
			WithResource(path).
			WithIssue(issue.ConfigLoadFailedId).
			WithSuggestion("Check that the file contains valid TOML").
			WithSuggestion("Run 'chores config dump' to see the expected layout").
			Wrap(err).
			BuildError()
	}

	settings := sub.AllSettings()
	if section != "" {
		settings = map[string]any{section: settings}
	}
	if err := v.MergeConfigMap(settings); err != nil {
		return fmt.Errorf("failed to merge config %s: %w", path, err)
	}
	return nil
}

// configDirWithOverride resolves the configuration directory, honoring
// explicit provider options before platform defaults.
func configDirWithOverride(configDirPath string) (string, error) {
	if configDirPath != "" {
		return configDirPath, nil
	}

	return ConfigDir()
}

// fileExists checks if a file exists and is not a directory
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Render encodes cfg as TOML.
func Render(cfg *Config) ([]byte, error) {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	return data, nil
}

// CreateDefaultConfig writes the default configuration to path unless a file
// already exists there. It reports whether a file was written.
func CreateDefaultConfig(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := Render(DefaultConfig())
	if err != nil {
		return false, err
	}

	header := "# chores configuration\n# Values may be overridden with CHORES_<SECTION>_<KEY> environment variables.\n\n"
	// Secrets end up in this file.
	if err := os.WriteFile(path, append([]byte(header), data...), 0o600); err != nil {
		return false, fmt.Errorf("failed to write config file: %w", err)
	}

	return true, nil
}
