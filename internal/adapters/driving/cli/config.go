package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/harborline/docsift/internal/adapters/driven/config/file"
	"github.com/harborline/docsift/internal/core/domain"
)

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
	RunE:  runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	RunE:  runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	RunE:  runConfigInit,
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "overwrite an existing file")
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	store, err := file.NewSettingsStore(configDir)
	if err != nil {
		return err
	}

	settings, err := store.Load()
	if err != nil {
		return err
	}

	cmd.Printf("Config file: %s\n\n", store.Path())
	cmd.Printf("source.type      = %s\n", settings.Source.Type)
	cmd.Printf("source.path      = %s\n", settings.Source.Path)
	if len(settings.Source.Formats) > 0 {
		cmd.Printf("source.formats   = %v\n", settings.Source.Formats)
	}
	cmd.Printf("store.type       = %s\n", settings.Store.Type)
	cmd.Printf("sync.chunk_size  = %d\n", settings.Sync.ChunkSize)
	cmd.Printf("sync.overlap     = %d\n", settings.Sync.ChunkOverlap)
	cmd.Printf("sync.batch_size  = %d\n", settings.Sync.BatchSize)
	cmd.Printf("sync.interval    = %s\n", settings.Sync.Interval)
	cmd.Printf("sync.workers     = %d\n", settings.Sync.Workers)
	return nil
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	store, err := file.NewSettingsStore(configDir)
	if err != nil {
		return err
	}

	if _, err := os.Stat(store.Path()); err == nil && !configForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", store.Path())
	}

	if err := store.Save(domain.DefaultSettings()); err != nil {
		return err
	}

	cmd.Printf("Wrote default configuration to %s\n", store.Path())
	return nil
}
