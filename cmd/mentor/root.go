package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/mentor/internal/api"
	"github.com/ShayCichocki/mentor/internal/config"
	"github.com/ShayCichocki/mentor/internal/decompose"
	"github.com/ShayCichocki/mentor/internal/logging"
	"github.com/ShayCichocki/mentor/internal/state"
)

var (
	dbPathFlag     string
	configPathFlag string
)

var rootCmd = &cobra.Command{
	Use:   "mentor",
	Short: "Goal tracker with AI task breakdown",
	Long: `Mentor keeps your goals and the small daily tasks that move them forward.

Save a goal, let the model break it into 5-10 tiny actions, then tick them
off from the command line, the interactive board or the HTTP API.

Everything is stored in a single SQLite file (mentor.db by default).`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPathFlag, "db", "", "Database file (overrides storage.path)")
	rootCmd.PersistentFlags().StringVar(&configPathFlag, "config", "", "Read configuration from this file only")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(goalCmd)
	rootCmd.AddCommand(decomposeCmd)
	rootCmd.AddCommand(taskCmd)
	rootCmd.AddCommand(progressCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(boardCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

// app bundles the configuration, store and logger shared by commands.
type app struct {
	cfg    *config.Config
	store  *state.Store
	logger *logging.DebugLogger
}

func loadConfig() (*config.Config, error) {
	if configPathFlag != "" {
		return config.LoadFromPath(configPathFlag)
	}
	return config.Load()
}

// openApp loads configuration and opens (and migrates) the database.
func openApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	path := cfg.Storage.Path
	if dbPathFlag != "" {
		path = dbPathFlag
	}
	store := state.New(path, state.WithDriver(cfg.Storage.Driver))
	if err := store.Init(); err != nil {
		return nil, fmt.Errorf("initialize database: %w", err)
	}

	logger, err := logging.New(cfg.Log.File, cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	return &app{cfg: cfg, store: store, logger: logger}, nil
}

func (a *app) Close() {
	a.logger.Close()
}

func (a *app) clientConfig() api.ClientConfig {
	return api.ClientConfig{
		Model:         anthropic.Model(a.cfg.Anthropic.Model),
		BaseURL:       a.cfg.Anthropic.BaseURL,
		MaxTokens:     a.cfg.Anthropic.MaxTokens,
		UseAWSBedrock: a.cfg.Anthropic.UseBedrock,
		AWSRegion:     a.cfg.Anthropic.AWSRegion,
		AWSProfile:    a.cfg.Anthropic.AWSProfile,
	}
}

// decompose breaks goal into subtasks with whichever credential is
// configured. It returns decompose.ErrNoCredential when there is none.
func (a *app) decompose(ctx context.Context, goal string) ([]string, error) {
	opts := []decompose.Option{
		decompose.WithLogger(a.logger),
		decompose.WithStages(decompose.DropBlank),
	}

	if a.cfg.Anthropic.UseBedrock {
		client, err := api.NewClient(a.clientConfig())
		if err != nil {
			return nil, fmt.Errorf("create bedrock client: %w", err)
		}
		d, err := decompose.New(api.NewRunner(client), opts...)
		if err != nil {
			return nil, err
		}
		return d.Decompose(ctx, goal), nil
	}

	key, err := config.GetAPIKey(a.cfg)
	if err != nil {
		return nil, decompose.ErrNoCredential
	}
	opts = append(opts, decompose.WithClientConfig(a.clientConfig()))
	return decompose.Run(ctx, key, goal, opts...)
}

// parseID parses a positive numeric id argument.
func parseID(kind, arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s id %q", kind, arg)
	}
	return id, nil
}

func parseIDs(kind string, args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := parseID(kind, arg)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
