package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/ShayCichocki/mentor/pkg/models"
)

var (
	exportFormat string
	exportOutput string
)

// planDocument is the exported view of one goal.
type planDocument struct {
	Goal     *models.Goal  `json:"goal" yaml:"goal"`
	Tasks    []models.Task `json:"tasks" yaml:"tasks"`
	Progress float64       `json:"progress" yaml:"progress"`
}

var exportCmd = &cobra.Command{
	Use:   "export <goal-id>",
	Short: "Export a goal and its tasks as YAML or JSON",
	Long: `Export a goal, its ordered tasks and its completion ratio.

Examples:
  mentor export 1
  mentor export 1 --format json -o plan.json`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "yaml", "Output format: yaml or json")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Write to file instead of stdout")
}

func runExport(cmd *cobra.Command, args []string) error {
	goalID, err := parseID("goal", args[0])
	if err != nil {
		return err
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	goal, err := a.store.GetGoal(goalID)
	if err != nil {
		return err
	}
	if goal == nil {
		return fmt.Errorf("goal #%d not found", goalID)
	}
	tasks, err := a.store.ListTasks(goalID)
	if err != nil {
		return err
	}
	ratio, err := a.store.CompletionRatio(goalID)
	if err != nil {
		return err
	}
	if tasks == nil {
		tasks = []models.Task{}
	}

	data, err := renderPlan(planDocument{Goal: goal, Tasks: tasks, Progress: ratio}, exportFormat)
	if err != nil {
		return err
	}

	if exportOutput != "" {
		if err := os.WriteFile(exportOutput, data, 0644); err != nil {
			return fmt.Errorf("write %s: %w", exportOutput, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", exportOutput)
		return nil
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func renderPlan(doc planDocument, format string) ([]byte, error) {
	switch format {
	case "yaml", "yml":
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		return buf.Bytes(), nil
	case "json":
		data, err := sonic.ConfigStd.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode json: %w", err)
		}
		return append(data, '\n'), nil
	default:
		return nil, fmt.Errorf("unknown format %q: use yaml or json", format)
	}
}
