package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/mentor/internal/config"
)

var initWithConfig bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the mentor database",
	Long: `Create (or migrate) the mentor database and check the model credential.

Examples:
  mentor init                 # Create mentor.db in the current directory
  mentor init --db ~/goals.db # Use a different file
  mentor init --with-config   # Also write a .mentor.yaml template`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initWithConfig, "with-config", false, "Create a .mentor.yaml template in the current directory")
}

func runInit(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		printStatus(cmd.OutOrStdout(), "✗", "Database could not be created", color.FgRed)
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	abs, err := filepath.Abs(a.store.Path())
	if err != nil {
		abs = a.store.Path()
	}
	printStatus(out, "✓", fmt.Sprintf("Database ready at %s", abs), color.FgGreen)

	switch config.GetAPIKeySource(a.cfg) {
	case config.KeySourceNone:
		printStatus(out, "⚠", "ANTHROPIC_API_KEY not set (needed for decompose)", color.FgYellow)
	case config.KeySourceBedrock:
		printStatus(out, "✓", "Using AWS Bedrock credentials", color.FgGreen)
	default:
		printStatus(out, "✓", "ANTHROPIC_API_KEY is set", color.FgGreen)
	}

	if initWithConfig {
		created, err := createProjectConfig(".")
		if err != nil {
			return fmt.Errorf("creating project config: %w", err)
		}
		if created {
			printStatus(out, "✓", "Created "+config.ProjectConfigName+" template", color.FgGreen)
		} else {
			printStatus(out, "•", config.ProjectConfigName+" already exists", color.FgCyan)
		}
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Next: mentor goal add \"Drink more water\"")
	return nil
}

// printStatus prints a colored status line
func printStatus(w io.Writer, symbol, message string, c color.Attribute) {
	color.New(c).Fprintf(w, "%s ", symbol)
	fmt.Fprintln(w, message)
}

// createProjectConfig writes a commented .mentor.yaml into dir unless one exists.
func createProjectConfig(dir string) (bool, error) {
	configPath := filepath.Join(dir, config.ProjectConfigName)
	if _, err := os.Stat(configPath); err == nil {
		return false, nil
	}

	template := `# Mentor project configuration
# Overrides ~/.config/mentor/config.yaml for this directory.

# anthropic:
#   api_key: ${ANTHROPIC_API_KEY}
#   model: claude-haiku-4-5-20251001
#   max_tokens: 1024
#   use_bedrock: false

# storage:
#   path: mentor.db
#   driver: sqlite

# goals:
#   list_limit: 20

# server:
#   addr: ":8080"
#   allowed_origins: ["*"]

# log:
#   file: ""
#   level: info
`
	if err := os.WriteFile(configPath, []byte(template), 0644); err != nil {
		return false, err
	}
	return true, nil
}
