package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/harborline/docsift/internal/core/domain"
)

var statusLimit int

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show recent runs and store statistics",
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().IntVar(&statusLimit, "limit", 10, "number of runs to show")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	app, err := buildApp(nil)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := cmd.Context()

	count, err := app.docStore.EstimatedCount(ctx)
	if err != nil {
		return err
	}
	cmd.Printf("Documents stored: %d\n", count)

	runs, err := app.stateStore.RunHistory(ctx, statusLimit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		cmd.Println("No runs recorded yet.")
		return nil
	}

	summary := domain.Summarise(runs)
	cmd.Printf("Recent runs: %d (%.0f%% successful)\n\n", summary.Total, summary.SuccessRate)

	for _, run := range runs {
		cmd.Printf("%s  %-7s  found %-4d new %-4d modified %-4d processed %-4d errors %-3d %s\n",
			run.Started.Local().Format(time.DateTime),
			run.Status,
			run.ItemsFound, run.NewCount, run.ModifiedCount,
			run.Processed, run.ErrorCount,
			run.Message)
	}
	return nil
}
