package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/harborline/docsift/internal/core/domain"
	"github.com/harborline/docsift/internal/core/ports/driving"
)

var (
	syncPath    string
	syncFormats []string
	syncMax     int
	syncSince   time.Duration
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one ingestion pass",
	Long: `Fetches from the configured source, processes the items that are new
or modified since the last committed run and loads them into the
document store. Unchanged items are skipped.`,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().StringVar(&syncPath, "path", "", "override the configured source path")
	syncCmd.Flags().StringSliceVar(&syncFormats, "format", nil, "restrict to these formats (e.g. md,pdf)")
	syncCmd.Flags().IntVar(&syncMax, "max", 0, "cap the number of fetched items")
	syncCmd.Flags().DurationVar(&syncSince, "since", 0, "only fetch items modified within this window (e.g. 24h)")
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, _ []string) error {
	app, err := buildApp(func(s *domain.Settings) {
		if syncPath != "" {
			s.Source.Path = syncPath
		}
		if len(syncFormats) > 0 {
			s.Source.Formats = syncFormats
		}
		if syncMax > 0 {
			s.Source.MaxItems = syncMax
		}
		if syncSince > 0 {
			s.Source.MaxAge = syncSince
		}
	})
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd.Printf("Syncing %s source...\n", app.settings.Source.Type)

	result, err := runWithProgress(ctx, cmd, app.pipeline)
	if errors.Is(err, domain.ErrSyncInProgress) {
		return errors.New("a sync run is already in progress")
	}
	if result != nil {
		printRunResult(cmd, result)
	}
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}
	return nil
}

// runWithProgress runs the pipeline while displaying progress updates.
func runWithProgress(
	ctx context.Context,
	cmd *cobra.Command,
	pipeline driving.Pipeline,
) (*domain.SyncRunResult, error) {
	type outcome struct {
		result *domain.SyncRunResult
		err    error
	}

	outCh := make(chan outcome, 1)
	go func() {
		result, err := pipeline.RunOnce(ctx)
		outCh <- outcome{result: result, err: err}
	}()

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	lastCount := 0
	for {
		select {
		case out := <-outCh:
			return out.result, out.err
		case <-ticker.C:
			status := pipeline.Status()
			if status.DocumentsProcessed > lastCount {
				cmd.Printf("\rProcessing... %d documents", status.DocumentsProcessed)
				lastCount = status.DocumentsProcessed
			}
		}
	}
}

// printRunResult prints the run summary.
func printRunResult(cmd *cobra.Command, result *domain.SyncRunResult) {
	if lastCount := result.Processed; lastCount > 0 {
		cmd.Print("\r")
	}

	if result.Status == domain.RunError {
		cmd.Printf("Run %s failed after %s: %s\n", result.ID, result.Duration.Round(time.Millisecond), result.Message)
		return
	}

	cmd.Printf("Run %s completed in %s\n", result.ID, result.Duration.Round(time.Millisecond))
	cmd.Printf("  items found: %d (new %d, modified %d)\n",
		result.ItemsFound, result.NewCount, result.ModifiedCount)
	cmd.Printf("  processed:   %d\n", result.Processed)
	if result.ErrorCount > 0 {
		cmd.Printf("  errors:      %d\n", result.ErrorCount)
	}
}
