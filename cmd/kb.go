package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/BernardOforiBoateng/chat-mrpt-sub002/internal/kb"
)

var kbCmd = &cobra.Command{
	Use:   "kb",
	Short: "Inspect the knowledge base",
}

var kbStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print knowledge base entry counts",
	RunE: func(cmd *cobra.Command, _ []string) error {
		store, err := kb.Open(cfg.KB.Path)
		if err != nil {
			return err
		}
		defer store.Close()

		entries, confirmations, err := store.Stats(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("entries: %d\nconfirmations: %d\n", entries, confirmations)
		return nil
	},
}

var kbExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export knowledge base entries as JSONL to stdout",
	RunE: func(cmd *cobra.Command, _ []string) error {
		store, err := kb.Open(cfg.KB.Path)
		if err != nil {
			return err
		}
		defer store.Close()

		return store.Export(cmd.Context(), os.Stdout)
	},
}

func init() {
	kbCmd.AddCommand(kbStatsCmd, kbExportCmd)
	rootCmd.AddCommand(kbCmd)
}
