package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ShayCichocki/mentor/internal/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Manage configuration",
	Long: `View or modify Mentor configuration.

Without arguments, displays current configuration.
With one argument (key), displays the value for that key.
With two arguments (key value), sets the configuration value.

Configuration is stored at ~/.config/mentor/config.yaml
Project-specific overrides can be placed in .mentor.yaml`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		out := cmd.OutOrStdout()
		switch len(args) {
		case 0:
			displayAllConfig(out, cfg)
			displayConfigPaths(out)
			return nil
		case 1:
			value, err := getConfigValue(cfg, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(out, value)
			return nil
		default:
			if err := setConfigValue(cfg, args[0], args[1]); err != nil {
				return err
			}
			if err := config.Save(cfg); err != nil {
				return fmt.Errorf("save config: %w", err)
			}
			fmt.Fprintf(out, "Set %s = %s\n", args[0], args[1])
			return nil
		}
	},
}

// configKeys lists displayable keys in order.
var configKeys = []string{
	"anthropic.api_key",
	"anthropic.model",
	"anthropic.base_url",
	"anthropic.max_tokens",
	"anthropic.use_bedrock",
	"anthropic.aws_region",
	"anthropic.aws_profile",
	"storage.path",
	"storage.driver",
	"goals.list_limit",
	"server.addr",
	"server.allowed_origins",
	"log.file",
	"log.level",
}

// displayAllConfig prints all configuration values.
func displayAllConfig(w io.Writer, cfg *config.Config) {
	for _, key := range configKeys {
		value, _ := getConfigValue(cfg, key)
		fmt.Fprintf(w, "%s: %s\n", key, value)
	}
}

// displayConfigPaths prints where configuration was read from.
func displayConfigPaths(w io.Writer) {
	fmt.Fprintln(w)
	if configPathFlag != "" {
		fmt.Fprintf(w, "config file: %s\n", configPathFlag)
		return
	}
	fmt.Fprintf(w, "user config: %s\n", config.GetUserConfigPath())
	if project := config.GetProjectConfigPath(); project != "" {
		fmt.Fprintf(w, "project config: %s\n", project)
	} else {
		fmt.Fprintln(w, "project config: (none)")
	}
}

// getConfigValue retrieves a configuration value by dot-notation key.
func getConfigValue(cfg *config.Config, key string) (string, error) {
	switch strings.ToLower(key) {
	case "anthropic.api_key":
		if cfg.Anthropic.APIKey == "" {
			return "(not set)", nil
		}
		return config.MaskAPIKey(cfg.Anthropic.APIKey), nil
	case "anthropic.model":
		return cfg.Anthropic.Model, nil
	case "anthropic.base_url":
		return cfg.Anthropic.BaseURL, nil
	case "anthropic.max_tokens":
		return strconv.FormatInt(cfg.Anthropic.MaxTokens, 10), nil
	case "anthropic.use_bedrock":
		return strconv.FormatBool(cfg.Anthropic.UseBedrock), nil
	case "anthropic.aws_region":
		return cfg.Anthropic.AWSRegion, nil
	case "anthropic.aws_profile":
		return cfg.Anthropic.AWSProfile, nil
	case "storage.path":
		return cfg.Storage.Path, nil
	case "storage.driver":
		return cfg.Storage.Driver, nil
	case "goals.list_limit":
		return strconv.Itoa(cfg.Goals.ListLimit), nil
	case "server.addr":
		return cfg.Server.Addr, nil
	case "server.allowed_origins":
		return strings.Join(cfg.Server.AllowedOrigins, ","), nil
	case "log.file":
		return cfg.Log.File, nil
	case "log.level":
		return cfg.Log.Level, nil
	default:
		return "", fmt.Errorf("unknown configuration key: %s", key)
	}
}

// setConfigValue sets a configuration value by dot-notation key.
func setConfigValue(cfg *config.Config, key, value string) error {
	switch strings.ToLower(key) {
	case "anthropic.api_key":
		cfg.Anthropic.APIKey = value
	case "anthropic.model":
		cfg.Anthropic.Model = value
	case "anthropic.base_url":
		cfg.Anthropic.BaseURL = value
	case "anthropic.max_tokens":
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid value for max_tokens: %q", value)
		}
		cfg.Anthropic.MaxTokens = n
	case "anthropic.use_bedrock":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid value for use_bedrock: %w", err)
		}
		cfg.Anthropic.UseBedrock = b
	case "anthropic.aws_region":
		cfg.Anthropic.AWSRegion = value
	case "anthropic.aws_profile":
		cfg.Anthropic.AWSProfile = value
	case "storage.path":
		cfg.Storage.Path = value
	case "storage.driver":
		switch value {
		case "sqlite", "sqlite3":
			cfg.Storage.Driver = value
		default:
			return fmt.Errorf("invalid storage driver %q: use sqlite or sqlite3", value)
		}
	case "goals.list_limit":
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid value for list_limit: %q", value)
		}
		cfg.Goals.ListLimit = n
	case "server.addr":
		cfg.Server.Addr = value
	case "server.allowed_origins":
		var origins []string
		for _, o := range strings.Split(value, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		cfg.Server.AllowedOrigins = origins
	case "log.file":
		cfg.Log.File = value
	case "log.level":
		cfg.Log.Level = value
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return nil
}
