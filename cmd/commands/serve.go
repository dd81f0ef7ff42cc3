package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/mwolter/daylist/internal/app"
	"github.com/mwolter/daylist/internal/blob"
	"github.com/mwolter/daylist/internal/config"
	"github.com/mwolter/daylist/internal/events"
	"github.com/mwolter/daylist/internal/server"
	"github.com/mwolter/daylist/internal/task"
	"github.com/mwolter/daylist/internal/view"
)

const eventBufferSize = 256

// NewServeCommand returns the serve subcommand.
func NewServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the daylist web server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Host to listen on",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Port to listen on",
			},
		},
		Action: runServe,
	}
}

func runServe(_ context.Context, cmd *cli.Command) error {
	if cmd.Bool("debug") {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// CLI flags override config
	if cmd.IsSet("host") {
		cfg.Server.Host = cmd.String("host")
	}
	if cmd.IsSet("port") {
		cfg.Server.Port = cmd.Int("port")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	bus := events.NewBus(eventBufferSize)
	defer bus.Close()

	blobs, err := blob.Open(config.BlobsPath())
	if err != nil {
		return fmt.Errorf("open attachment store: %w", err)
	}
	defer blobs.Close()

	store := task.NewListStore(config.TasksPath())
	ctrl, err := app.NewController(store, blobs, bus)
	if err != nil {
		return err
	}

	urls := view.NewURLIssuer()
	renderer := view.NewRenderer(blobs, urls, cfg.View.OpenURLTTL.Duration())

	if cfg.Sweep.Enabled {
		go func() {
			if err := ctrl.RunSweeper(ctx, cfg.Sweep.Schedule); err != nil && ctx.Err() == nil {
				slog.Error("sweeper stopped", "error", err)
			}
		}()
	}

	srv := server.NewServer(ctrl, renderer, urls, blobs, bus, cfg.Server.Host, cfg.Server.Port)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
