package commands

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/mwolter/daylist/internal/app"
	"github.com/mwolter/daylist/internal/blob"
	"github.com/mwolter/daylist/internal/config"
	"github.com/mwolter/daylist/internal/task"
	"github.com/mwolter/daylist/internal/view"
)

// NewTasksCommand returns the tasks subcommand.
func NewTasksCommand() *cli.Command {
	return &cli.Command{
		Name:  "tasks",
		Usage: "Manage tasks",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List tasks",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "mode",
						Usage: "Filter mode: all, today, upcoming, overdue, completed",
						Value: "all",
					},
					&cli.StringFlag{
						Name:    "search",
						Aliases: []string{"s"},
						Usage:   "Search query (case-insensitive substring)",
					},
				},
				Action: runTasksList,
			},
			{
				Name:  "add",
				Usage: "Add a task",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "text", Aliases: []string{"t"}, Usage: "Task text", Required: true},
					&cli.StringFlag{Name: "date", Aliases: []string{"d"}, Usage: "Date (YYYY-MM-DD)", Required: true},
					&cli.StringFlag{Name: "start", Usage: "Start time (HH:MM)", Required: true},
					&cli.StringFlag{Name: "end", Usage: "End time (HH:MM, optional)"},
					&cli.StringFlag{Name: "priority", Aliases: []string{"p"}, Usage: "Priority: low, medium, high", Value: "medium"},
					&cli.StringFlag{Name: "attach", Usage: "Path to a file to attach"},
				},
				Action: runTasksAdd,
			},
			{
				Name:      "show",
				Usage:     "Show task details",
				ArgsUsage: "<task_id>",
				Action:    runTasksShow,
			},
			{
				Name:  "edit",
				Usage: "Edit a task (all fields validated together)",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "text", Aliases: []string{"t"}, Usage: "Task text"},
					&cli.StringFlag{Name: "date", Aliases: []string{"d"}, Usage: "Date (YYYY-MM-DD)"},
					&cli.StringFlag{Name: "start", Usage: "Start time (HH:MM)"},
					&cli.StringFlag{Name: "end", Usage: "End time (HH:MM, empty = open-ended)"},
					&cli.StringFlag{Name: "priority", Aliases: []string{"p"}, Usage: "Priority: low, medium, high"},
				},
				ArgsUsage: "<task_id>",
				Action:    runTasksEdit,
			},
			{
				Name:      "done",
				Usage:     "Toggle a task's completed flag",
				ArgsUsage: "<task_id>",
				Action:    runTasksDone,
			},
			{
				Name:      "rm",
				Usage:     "Delete a task",
				ArgsUsage: "<task_id>",
				Action:    runTasksRemove,
			},
			{
				Name:      "open",
				Usage:     "Save a task's attachment to a temp file",
				ArgsUsage: "<task_id>",
				Action:    runTasksOpen,
			},
		},
		DefaultCommand: "list",
	}
}

// openStores builds the controller and blob store shared by the CLI
// actions. The caller must Close the returned blob store.
func openStores() (*app.Controller, *blob.SQLiteStore, error) {
	blobs, err := blob.Open(config.BlobsPath())
	if err != nil {
		return nil, nil, fmt.Errorf("open attachment store: %w", err)
	}

	store := task.NewListStore(config.TasksPath())
	ctrl, err := app.NewController(store, blobs, nil)
	if err != nil {
		blobs.Close()
		return nil, nil, err
	}
	return ctrl, blobs, nil
}

func runTasksList(_ context.Context, cmd *cli.Command) error {
	ctrl, blobs, err := openStores()
	if err != nil {
		return err
	}
	defer blobs.Close()

	f := view.Filter{
		Mode:  view.ParseMode(cmd.String("mode")),
		Query: cmd.String("search"),
	}
	visible := f.Apply(ctrl.Tasks(), view.Today())

	if len(visible) == 0 {
		fmt.Println("No tasks found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDONE\tDATE\tTIME\tPRIORITY\tTEXT")
	for _, t := range visible {
		done := " "
		if t.Completed {
			done = "x"
		}
		text := t.Text
		if t.Attachment != nil {
			text += " [" + t.Attachment.Name + "]"
		}
		timeRange := t.TimeStart
		if t.TimeEnd != "" {
			timeRange += "-" + t.TimeEnd
		}
		fmt.Fprintf(w, "%s\t[%s]\t%s\t%s\t%s\t%s\n",
			t.ID, done, t.Date, timeRange, t.Priority, text)
	}
	return w.Flush()
}

func runTasksAdd(ctx context.Context, cmd *cli.Command) error {
	ctrl, blobs, err := openStores()
	if err != nil {
		return err
	}
	defer blobs.Close()

	req := app.AddRequest{
		Text:      cmd.String("text"),
		Date:      cmd.String("date"),
		TimeStart: cmd.String("start"),
		TimeEnd:   cmd.String("end"),
		Priority:  cmd.String("priority"),
	}

	if path := cmd.String("attach"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read attachment: %w", err)
		}
		req.Upload = &app.Upload{
			Name: filepath.Base(path),
			Type: http.DetectContentType(data),
			Data: data,
		}
	}

	t, err := ctrl.Add(ctx, req)
	if err != nil {
		return err
	}
	fmt.Printf("Added %s.\n", t.ID)
	return nil
}

func runTasksShow(_ context.Context, cmd *cli.Command) error {
	taskID := cmd.Args().First()
	if taskID == "" {
		return fmt.Errorf("usage: daylist tasks show <task_id>")
	}

	ctrl, blobs, err := openStores()
	if err != nil {
		return err
	}
	defer blobs.Close()

	t, ok := ctrl.Find(taskID)
	if !ok {
		return task.ErrNotFound
	}

	fmt.Printf("ID:        %s\n", t.ID)
	fmt.Printf("Text:      %s\n", t.Text)
	fmt.Printf("Date:      %s\n", t.Date)
	if t.TimeEnd != "" {
		fmt.Printf("Time:      %s - %s\n", t.TimeStart, t.TimeEnd)
	} else {
		fmt.Printf("Time:      %s (open-ended)\n", t.TimeStart)
	}
	fmt.Printf("Priority:  %s\n", t.Priority)
	fmt.Printf("Completed: %t\n", t.Completed)
	if t.Attachment != nil {
		fmt.Printf("Attachment: %s (%s)\n", t.Attachment.Name, t.Attachment.Type)
	}
	return nil
}

func runTasksEdit(ctx context.Context, cmd *cli.Command) error {
	taskID := cmd.Args().First()
	if taskID == "" {
		return fmt.Errorf("usage: daylist tasks edit <task_id> [flags]")
	}

	ctrl, blobs, err := openStores()
	if err != nil {
		return err
	}
	defer blobs.Close()

	t, ok := ctrl.Find(taskID)
	if !ok {
		return task.ErrNotFound
	}

	// Unset flags keep the current value; the whole request is then
	// validated and applied atomically.
	req := app.EditRequest{
		Text:      t.Text,
		Date:      t.Date,
		TimeStart: t.TimeStart,
		TimeEnd:   t.TimeEnd,
		Priority:  string(t.Priority),
	}
	if cmd.IsSet("text") {
		req.Text = cmd.String("text")
	}
	if cmd.IsSet("date") {
		req.Date = cmd.String("date")
	}
	if cmd.IsSet("start") {
		req.TimeStart = cmd.String("start")
	}
	if cmd.IsSet("end") {
		req.TimeEnd = cmd.String("end")
	}
	if cmd.IsSet("priority") {
		req.Priority = cmd.String("priority")
	}

	if _, err := ctrl.Edit(ctx, taskID, req); err != nil {
		return err
	}
	fmt.Printf("Updated %s.\n", taskID)
	return nil
}

func runTasksDone(ctx context.Context, cmd *cli.Command) error {
	taskID := cmd.Args().First()
	if taskID == "" {
		return fmt.Errorf("usage: daylist tasks done <task_id>")
	}

	ctrl, blobs, err := openStores()
	if err != nil {
		return err
	}
	defer blobs.Close()

	t, err := ctrl.ToggleComplete(ctx, taskID)
	if err != nil {
		return err
	}
	state := "pending"
	if t.Completed {
		state = "done"
	}
	fmt.Printf("Task %s is now %s.\n", taskID, state)
	return nil
}

func runTasksRemove(ctx context.Context, cmd *cli.Command) error {
	taskID := cmd.Args().First()
	if taskID == "" {
		return fmt.Errorf("usage: daylist tasks rm <task_id>")
	}

	ctrl, blobs, err := openStores()
	if err != nil {
		return err
	}
	defer blobs.Close()

	if err := ctrl.Delete(ctx, taskID); err != nil {
		return err
	}
	fmt.Printf("Deleted %s.\n", taskID)
	return nil
}

func runTasksOpen(ctx context.Context, cmd *cli.Command) error {
	taskID := cmd.Args().First()
	if taskID == "" {
		return fmt.Errorf("usage: daylist tasks open <task_id>")
	}

	ctrl, blobs, err := openStores()
	if err != nil {
		return err
	}
	defer blobs.Close()

	t, ok := ctrl.Find(taskID)
	if !ok {
		return task.ErrNotFound
	}
	if t.Attachment == nil {
		return fmt.Errorf("task %s has no attachment", taskID)
	}

	rec, err := blobs.Get(ctx, t.Attachment.ID)
	if err != nil {
		return fmt.Errorf("get attachment: %w", err)
	}
	if rec == nil {
		return fmt.Errorf("attachment not found")
	}

	path := filepath.Join(os.TempDir(), rec.Name)
	if err := os.WriteFile(path, rec.Data, 0o644); err != nil {
		return fmt.Errorf("write attachment: %w", err)
	}
	fmt.Println(path)
	return nil
}
