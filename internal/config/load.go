package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes environment overrides, e.g. HCLSHELL_LOG_LEVEL.
const EnvPrefix = "HCLSHELL"

// Load reads configuration from path. If path is empty, uses
// DefaultConfigPath; a missing default file is not an error.
func Load(path string) (Config, error) {
	explicit := path != ""
	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return Config{}, err
		}
		path = defaultPath
	}

	cfg, err := DefaultConfig()
	if err != nil {
		return Config{}, err
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetDefault("config_version", cfg.ConfigVersion)
	v.SetDefault("prompt", cfg.Prompt)
	v.SetDefault("continuation", cfg.Continuation)
	v.SetDefault("banner", cfg.Banner)
	v.SetDefault("scrollback_lines", cfg.ScrollbackLines)
	v.SetDefault("markers.attribute", cfg.Markers.Attribute)
	v.SetDefault("markers.call_open", cfg.Markers.CallOpen)
	v.SetDefault("markers.call_close", cfg.Markers.CallClose)
	v.SetDefault("history.path", cfg.History.Path)
	v.SetDefault("history.max_entries", cfg.History.MaxEntries)
	v.SetDefault("workspace.source", cfg.Workspace.Source)
	v.SetDefault("workspace.cache_dir", cfg.Workspace.CacheDir)
	v.SetDefault("workspace.var_files", cfg.Workspace.VarFiles)
	v.SetDefault("workspace.state", cfg.Workspace.State)
	v.SetDefault("workspace.watch", cfg.Workspace.Watch)
	v.SetDefault("interpreter.backend", cfg.Interpreter.Backend)
	v.SetDefault("interpreter.terraform_bin", cfg.Interpreter.TerraformBin)
	v.SetDefault("interpreter.timeout", cfg.Interpreter.Timeout)
	v.SetDefault("log.file", cfg.Log.File)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.mode", cfg.Log.Mode)
	v.SetDefault("theme.banner", cfg.Theme.Banner)
	v.SetDefault("theme.prompt", cfg.Theme.Prompt)
	v.SetDefault("theme.input", cfg.Theme.Input)
	v.SetDefault("theme.result", cfg.Theme.Result)
	v.SetDefault("theme.error", cfg.Theme.Error)
	v.SetDefault("theme.popup", cfg.Theme.Popup)
	v.SetDefault("theme.popup_selected", cfg.Theme.PopupSelected)
	v.SetDefault("theme.tip", cfg.Theme.Tip)

	configLoaded := false
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		missing := errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)
		if !missing || explicit {
			return Config{}, err
		}
	} else {
		configLoaded = true
	}

	if configLoaded {
		if !v.InConfig("config_version") {
			return Config{}, fmt.Errorf("config_version is required; expected %d", CurrentConfigVersion)
		}
		if v.GetInt("config_version") != CurrentConfigVersion {
			return Config{}, fmt.Errorf("unsupported config_version %d; expected %d", v.GetInt("config_version"), CurrentConfigVersion)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	expandConfigEnv(&cfg)
	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validate(cfg Config) error {
	switch cfg.Interpreter.Backend {
	case BackendNative, BackendTerraform:
	default:
		return fmt.Errorf("unsupported interpreter.backend %q", cfg.Interpreter.Backend)
	}
	if d, err := time.ParseDuration(cfg.Interpreter.Timeout); err != nil || d <= 0 {
		return fmt.Errorf("interpreter.timeout must be a positive duration, got %q", cfg.Interpreter.Timeout)
	}
	for key, m := range map[string]string{
		"markers.attribute":  cfg.Markers.Attribute,
		"markers.call_open":  cfg.Markers.CallOpen,
		"markers.call_close": cfg.Markers.CallClose,
	} {
		if utf8.RuneCountInString(m) != 1 {
			return fmt.Errorf("%s must be a single character, got %q", key, m)
		}
	}
	if cfg.Prompt == "" {
		return fmt.Errorf("prompt must not be empty")
	}
	if cfg.ScrollbackLines < 0 {
		return fmt.Errorf("scrollback_lines must not be negative")
	}
	return nil
}

func expandConfigEnv(cfg *Config) {
	if cfg == nil {
		return
	}
	cfg.History.Path = expandEnv(cfg.History.Path)
	cfg.Workspace.Source = expandEnv(cfg.Workspace.Source)
	cfg.Workspace.CacheDir = expandEnv(cfg.Workspace.CacheDir)
	for i, vf := range cfg.Workspace.VarFiles {
		cfg.Workspace.VarFiles[i] = expandEnv(vf)
	}
	cfg.Workspace.State = expandEnv(cfg.Workspace.State)
	cfg.Interpreter.TerraformBin = expandEnv(cfg.Interpreter.TerraformBin)
	cfg.Log.File = expandEnv(cfg.Log.File)
}

func expandEnv(value string) string {
	if value == "" {
		return value
	}
	return os.Expand(value, func(key string) string {
		if val, ok := os.LookupEnv(key); ok && key != "" {
			return val
		}
		return "$" + key
	})
}

// WriteDefault writes the default config to the target path.
func WriteDefault(path string, overwrite bool) (string, error) {
	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return "", err
		}
		path = defaultPath
	}

	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return "", fmt.Errorf("config already exists at %s", path)
		}
	}

	cfg, err := DefaultConfig()
	if err != nil {
		return "", err
	}
	data, err := Marshal(cfg)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", err
	}
	return path, nil
}

// Marshal renders cfg as YAML.
func Marshal(cfg Config) ([]byte, error) {
	return yaml.Marshal(cfg)
}
