package commands

import (
	"github.com/urfave/cli/v3"

	"github.com/mwolter/daylist/internal/config"
)

// NewRootCommand returns the top-level CLI command.
func NewRootCommand() *cli.Command {
	return &cli.Command{
		Name:  "daylist",
		Usage: "A local-first task list with attachments",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file",
				Value:   config.ConfigPath(),
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
		},
		Commands: []*cli.Command{
			NewServeCommand(),
			NewTasksCommand(),
			NewStatusCommand(),
			NewExportCommand(),
			NewImportCommand(),
			NewSweepCommand(),
		},
	}
}
