package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/mwolter/daylist/internal/task"
)

// NewExportCommand returns the export subcommand.
func NewExportCommand() *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "Write the task list as YAML to a file or stdout",
		ArgsUsage: "[path]",
		Action:    runExport,
	}
}

// NewImportCommand returns the import subcommand.
func NewImportCommand() *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "Replace the task list from a YAML file",
		ArgsUsage: "<path>",
		Action:    runImport,
	}
}

func runExport(_ context.Context, cmd *cli.Command) error {
	ctrl, blobs, err := openStores()
	if err != nil {
		return err
	}
	defer blobs.Close()

	data, err := yaml.Marshal(ctrl.Tasks())
	if err != nil {
		return fmt.Errorf("marshal tasks: %w", err)
	}

	path := cmd.Args().First()
	if path == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	fmt.Printf("Exported %s.\n", path)
	return nil
}

func runImport(_ context.Context, cmd *cli.Command) error {
	path := cmd.Args().First()
	if path == "" {
		return fmt.Errorf("usage: daylist import <path>")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read import: %w", err)
	}

	var tasks []task.Task
	if err := yaml.Unmarshal(data, &tasks); err != nil {
		return fmt.Errorf("unmarshal import: %w", err)
	}

	ctrl, blobs, err := openStores()
	if err != nil {
		return err
	}
	defer blobs.Close()

	if err := ctrl.Replace(tasks); err != nil {
		return err
	}
	fmt.Printf("Imported %d tasks.\n", len(tasks))
	return nil
}
