// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/pagemill/internal/ledger"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded conversion runs",
	Long: `Runs lists conversion runs recorded in the SQLite ledger of an output
directory, newest first. With --run it prints the per-document rows of
one run instead.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, _ := cmd.Flags().GetString("output-dir")
		limit, _ := cmd.Flags().GetInt("limit")
		runID, _ := cmd.Flags().GetString("run")

		store, err := ledger.Open(dir)
		if err != nil {
			return err
		}
		defer store.Close()

		if runID != "" {
			docs, err := store.DocumentsForRun(runID)
			if err != nil {
				return err
			}
			if len(docs) == 0 {
				return fmt.Errorf("no documents for run %s", runID)
			}
			for _, d := range docs {
				fmt.Printf("%-10s %s -> %s (%d pages, %d images, %s)\n",
					d.Status, d.Source, d.Output, d.Pages, d.Images, d.Duration)
			}
			return nil
		}

		runs, err := store.Runs(limit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println("no runs recorded")
			return nil
		}
		for _, r := range runs {
			fmt.Printf("%s  %s  %d documents, %d failed\n",
				r.RunID, r.StartedAt, r.Documents, r.Failed)
		}
		return nil
	},
}

func init() {
	runsCmd.Flags().String("output-dir", ".", "directory holding the conversion ledger")
	runsCmd.Flags().Int("limit", 20, "maximum number of runs to list")
	runsCmd.Flags().String("run", "", "show per-document rows for one run ID")

	rootCmd.AddCommand(runsCmd)
}
