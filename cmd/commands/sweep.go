package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

// NewSweepCommand returns the sweep subcommand.
func NewSweepCommand() *cli.Command {
	return &cli.Command{
		Name:  "sweep",
		Usage: "Delete attachment blobs no task references",
		Action: func(ctx context.Context, _ *cli.Command) error {
			ctrl, blobs, err := openStores()
			if err != nil {
				return err
			}
			defer blobs.Close()

			removed, err := ctrl.SweepOrphans(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("Removed %d orphaned attachments.\n", removed)
			return nil
		},
	}
}
