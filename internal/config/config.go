// Package config handles configuration loading and management for mentor.
// It supports XDG config paths, project-level overrides, and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// ProjectConfigName is the project-level override file, searched upward
// from the working directory.
const ProjectConfigName = ".mentor.yaml"

// Config holds all configuration for mentor.
type Config struct {
	Anthropic AnthropicConfig `mapstructure:"anthropic"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Goals     GoalsConfig     `mapstructure:"goals"`
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	APIKey     string `mapstructure:"api_key"`
	Model      string `mapstructure:"model"`
	BaseURL    string `mapstructure:"base_url"`
	MaxTokens  int64  `mapstructure:"max_tokens"`
	UseBedrock bool   `mapstructure:"use_bedrock"`
	AWSRegion  string `mapstructure:"aws_region"`
	AWSProfile string `mapstructure:"aws_profile"`
}

// StorageConfig locates the goal database.
type StorageConfig struct {
	Path   string `mapstructure:"path"`
	Driver string `mapstructure:"driver"`
}

// GoalsConfig holds goal listing settings.
type GoalsConfig struct {
	ListLimit int `mapstructure:"list_limit"`
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Addr           string   `mapstructure:"addr"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// LogConfig holds debug log settings. An empty File disables logging.
type LogConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// Load loads configuration from XDG paths, project overrides, and environment variables.
// Precedence (highest to lowest):
// 1. Environment variables (ANTHROPIC_API_KEY, MENTOR_DB_PATH, MENTOR_*)
// 2. Project config (.mentor.yaml in current directory or parent)
// 3. User config (~/.config/mentor/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(getUserConfigDir())

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	if projectConfig := findProjectConfig(); projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err == nil {
			if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	return unmarshal(v)
}

// LoadFromPath loads configuration from a specific file, still honouring
// environment overrides.
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	return unmarshal(v)
}

// unmarshal applies environment overrides and decodes v.
func unmarshal(v *viper.Viper) (*Config, error) {
	bindEnv(v)

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	// Expand ${VAR} references
	cfg.Anthropic.APIKey = expandEnv(cfg.Anthropic.APIKey)
	cfg.Storage.Path = expandEnv(cfg.Storage.Path)
	cfg.Log.File = expandEnv(cfg.Log.File)

	return cfg, nil
}

// bindEnv maps environment variables onto config keys.
func bindEnv(v *viper.Viper) {
	v.BindEnv("anthropic.api_key", "ANTHROPIC_API_KEY")
	v.BindEnv("anthropic.base_url", "ANTHROPIC_BASE_URL")
	v.BindEnv("anthropic.model", "MENTOR_MODEL")
	v.BindEnv("storage.path", "MENTOR_DB_PATH")
	v.BindEnv("storage.driver", "MENTOR_DB_DRIVER")
	v.BindEnv("server.addr", "MENTOR_ADDR")
	v.BindEnv("log.file", "MENTOR_LOG_FILE")
	v.BindEnv("log.level", "MENTOR_LOG_LEVEL")
}

// Save writes cfg to the user config file.
func Save(cfg *Config) error {
	userConfigDir := getUserConfigDir()
	if err := os.MkdirAll(userConfigDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(filepath.Join(userConfigDir, "config.yaml"))

	v.Set("anthropic.api_key", cfg.Anthropic.APIKey)
	v.Set("anthropic.model", cfg.Anthropic.Model)
	v.Set("anthropic.base_url", cfg.Anthropic.BaseURL)
	v.Set("anthropic.max_tokens", cfg.Anthropic.MaxTokens)
	v.Set("anthropic.use_bedrock", cfg.Anthropic.UseBedrock)
	v.Set("anthropic.aws_region", cfg.Anthropic.AWSRegion)
	v.Set("anthropic.aws_profile", cfg.Anthropic.AWSProfile)
	v.Set("storage.path", cfg.Storage.Path)
	v.Set("storage.driver", cfg.Storage.Driver)
	v.Set("goals.list_limit", cfg.Goals.ListLimit)
	v.Set("server.addr", cfg.Server.Addr)
	v.Set("server.allowed_origins", cfg.Server.AllowedOrigins)
	v.Set("log.file", cfg.Log.File)
	v.Set("log.level", cfg.Log.Level)

	return v.WriteConfig()
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// GetProjectConfigPath returns the path to the project config file if it exists.
func GetProjectConfigPath() string {
	return findProjectConfig()
}

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("anthropic.api_key", d.Anthropic.APIKey)
	v.SetDefault("anthropic.model", d.Anthropic.Model)
	v.SetDefault("anthropic.base_url", d.Anthropic.BaseURL)
	v.SetDefault("anthropic.max_tokens", d.Anthropic.MaxTokens)
	v.SetDefault("anthropic.use_bedrock", d.Anthropic.UseBedrock)
	v.SetDefault("anthropic.aws_region", d.Anthropic.AWSRegion)
	v.SetDefault("anthropic.aws_profile", d.Anthropic.AWSProfile)

	v.SetDefault("storage.path", d.Storage.Path)
	v.SetDefault("storage.driver", d.Storage.Driver)

	v.SetDefault("goals.list_limit", d.Goals.ListLimit)

	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.allowed_origins", d.Server.AllowedOrigins)

	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("log.level", d.Log.Level)
}

// getUserConfigDir returns the XDG config directory for mentor.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "mentor")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "mentor")
	}
	return filepath.Join(home, ".config", "mentor")
}

// findProjectConfig searches for .mentor.yaml in the current directory and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ProjectConfigName)
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}

// expandEnv expands ${VAR} references in a string.
func expandEnv(s string) string {
	return os.ExpandEnv(s)
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Anthropic: AnthropicConfig{
			Model:     "claude-haiku-4-5-20251001",
			MaxTokens: 1024,
		},
		Storage: StorageConfig{
			Path:   "mentor.db",
			Driver: "sqlite",
		},
		Goals: GoalsConfig{
			ListLimit: 20,
		},
		Server: ServerConfig{
			Addr:           ":8080",
			AllowedOrigins: []string{"*"},
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}
