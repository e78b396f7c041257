package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"carching-assistant/internal/app"
)

var syncSource string

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Rebuild the vector index from the configured sources",
	Long: `Re-ingests campaigns and Google Drive documents.
With --source all (the default) the index is deleted and recreated first.
A single source is upserted into the existing index.`,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().StringVar(&syncSource, "source", app.ScopeAll, "campaigns, drive or all")
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, _ []string) error {
	svc, err := newServices(cmd.Context())
	if err != nil {
		return err
	}
	defer svc.close()

	result, err := svc.syncer.Sync(cmd.Context(), syncSource)
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	for _, s := range result.Sources {
		cmd.Printf("%-10s %-7s documents=%d indexed=%d failed=%d chunks=%d skipped=%d\n",
			s.Source, s.Status, s.Documents, s.Indexed, s.Failed, s.Chunks, len(s.Skipped))
		if s.Error != "" {
			cmd.Printf("  error: %s\n", s.Error)
		}
		for _, f := range s.Failures {
			cmd.Printf("  failed: %s\n", f)
		}
	}
	cmd.Println(result.Message)
	if result.Failed() {
		return errors.New(result.Message)
	}
	return nil
}
