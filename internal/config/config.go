// Package config loads hclshell settings from YAML and the environment.
package config

import (
	"os"
	"path/filepath"
	"time"
)

// Config is the top-level configuration.
type Config struct {
	ConfigVersion   int               `mapstructure:"config_version" yaml:"config_version"`
	Prompt          string            `mapstructure:"prompt" yaml:"prompt"`
	Continuation    string            `mapstructure:"continuation" yaml:"continuation"`
	Banner          string            `mapstructure:"banner" yaml:"banner"`
	ScrollbackLines int               `mapstructure:"scrollback_lines" yaml:"scrollback_lines"`
	Markers         MarkersConfig     `mapstructure:"markers" yaml:"markers"`
	History         HistoryConfig     `mapstructure:"history" yaml:"history"`
	Workspace       WorkspaceConfig   `mapstructure:"workspace" yaml:"workspace"`
	Interpreter     InterpreterConfig `mapstructure:"interpreter" yaml:"interpreter"`
	Log             LogConfig         `mapstructure:"log" yaml:"log"`
	Theme           ThemeConfig       `mapstructure:"theme" yaml:"theme"`
}

// CurrentConfigVersion marks the supported config version.
const CurrentConfigVersion = 1

// MarkersConfig holds the characters that open overlays.
type MarkersConfig struct {
	Attribute string `mapstructure:"attribute" yaml:"attribute"`
	CallOpen  string `mapstructure:"call_open" yaml:"call_open"`
	CallClose string `mapstructure:"call_close" yaml:"call_close"`
}

// HistoryConfig controls history persistence. An empty path disables it.
type HistoryConfig struct {
	Path       string `mapstructure:"path" yaml:"path"`
	MaxEntries int    `mapstructure:"max_entries" yaml:"max_entries"`
}

// WorkspaceConfig says where bindings are loaded from. An empty State uses
// terraform.tfstate in the workspace dir when present.
type WorkspaceConfig struct {
	Source   string   `mapstructure:"source" yaml:"source"`
	CacheDir string   `mapstructure:"cache_dir" yaml:"cache_dir"`
	VarFiles []string `mapstructure:"var_files" yaml:"var_files"`
	State    string   `mapstructure:"state" yaml:"state"`
	Watch    bool     `mapstructure:"watch" yaml:"watch"`
}

// InterpreterConfig picks the evaluation backend.
type InterpreterConfig struct {
	Backend      string `mapstructure:"backend" yaml:"backend"`
	TerraformBin string `mapstructure:"terraform_bin" yaml:"terraform_bin"`
	Timeout      string `mapstructure:"timeout" yaml:"timeout"`
}

// TimeoutDuration parses Timeout. Load has already validated it.
func (c InterpreterConfig) TimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0
	}
	return d
}

// LogConfig controls the log sink. An empty file discards logs.
type LogConfig struct {
	File  string `mapstructure:"file" yaml:"file"`
	Level string `mapstructure:"level" yaml:"level"`
	Mode  string `mapstructure:"mode" yaml:"mode"`
}

// ThemeConfig holds lipgloss colors per output role.
type ThemeConfig struct {
	Banner        string `mapstructure:"banner" yaml:"banner"`
	Prompt        string `mapstructure:"prompt" yaml:"prompt"`
	Input         string `mapstructure:"input" yaml:"input"`
	Result        string `mapstructure:"result" yaml:"result"`
	Error         string `mapstructure:"error" yaml:"error"`
	Popup         string `mapstructure:"popup" yaml:"popup"`
	PopupSelected string `mapstructure:"popup_selected" yaml:"popup_selected"`
	Tip           string `mapstructure:"tip" yaml:"tip"`
}

// Backend names.
const (
	BackendNative    = "native"
	BackendTerraform = "terraform"
)

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, err
	}
	return Config{
		ConfigVersion:   CurrentConfigVersion,
		Prompt:          ">>> ",
		Continuation:    "... ",
		Banner:          "hclshell: evaluate HCL expressions. Ctrl+D exits.",
		ScrollbackLines: 5000,
		Markers: MarkersConfig{
			Attribute: ".",
			CallOpen:  "(",
			CallClose: ")",
		},
		History: HistoryConfig{
			Path:       filepath.Join(home, ".hclshell", "history"),
			MaxEntries: 1000,
		},
		Workspace: WorkspaceConfig{
			Source:   ".",
			CacheDir: filepath.Join(home, ".hclshell", "cache"),
			VarFiles: []string{},
			Watch:    true,
		},
		Interpreter: InterpreterConfig{
			Backend:      BackendNative,
			TerraformBin: "terraform",
			Timeout:      "30s",
		},
		Log: LogConfig{
			File:  "",
			Level: "info",
			Mode:  "structured",
		},
		Theme: ThemeConfig{
			Banner:        "8",
			Prompt:        "12",
			Input:         "",
			Result:        "10",
			Error:         "9",
			Popup:         "236",
			PopupSelected: "62",
			Tip:           "237",
		},
	}, nil
}

// DefaultConfigPath returns the standard config path.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".hclshell", "config.yaml"), nil
}
