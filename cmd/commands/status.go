package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/mwolter/daylist/internal/view"
)

// NewStatusCommand returns the status subcommand.
func NewStatusCommand() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show task counts",
		Action: func(_ context.Context, _ *cli.Command) error {
			ctrl, blobs, err := openStores()
			if err != nil {
				return err
			}
			defer blobs.Close()

			total, done := ctrl.Counters()
			today := view.Today()
			tasks := ctrl.Tasks()
			overdue := len(view.Filter{Mode: view.ModeOverdue}.Apply(tasks, today))
			upcoming := len(view.Filter{Mode: view.ModeUpcoming}.Apply(tasks, today))

			fmt.Printf("Tasks:    %d total, %d done\n", total, done)
			fmt.Printf("Overdue:  %d\n", overdue)
			fmt.Printf("Upcoming: %d\n", upcoming)
			return nil
		},
	}
}
