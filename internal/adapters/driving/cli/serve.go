package cli

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/harborline/docsift/internal/core/domain"
	"github.com/harborline/docsift/internal/core/ports/driven"
	"github.com/harborline/docsift/internal/core/services"
)

var serveInterval time.Duration

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run recurring syncs until interrupted",
	Long: `Starts the scheduler, which runs the ingestion pipeline on the
configured interval. With a filesystem source, file changes trigger an
immediate run in addition to the interval.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().DurationVar(&serveInterval, "interval", 0, "override the sync interval")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	app, err := buildApp(func(s *domain.Settings) {
		if serveInterval > 0 {
			s.Sync.Interval = serveInterval
		}
	})
	if err != nil {
		return err
	}
	defer app.Close()

	var opts []services.SchedulerOption
	if watcher, ok := app.source.(driven.WatchingSource); ok {
		opts = append(opts, services.WithWatcher(watcher))
	}
	scheduler := services.NewIntervalScheduler(
		app.pipeline, app.stateStore, app.settings.Sync.Interval, opts...)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		for result := range scheduler.Results() {
			printRunResult(cmd, &result)
		}
	}()

	cmd.Printf("Scheduler started (interval %s). Press Ctrl-C to stop.\n",
		app.settings.Sync.Interval)

	err = scheduler.Start(ctx)
	if errors.Is(err, context.Canceled) {
		cmd.Println("Shutting down...")
		err = nil
	}
	if stopErr := scheduler.Stop(); stopErr != nil && err == nil {
		err = stopErr
	}
	return err
}
