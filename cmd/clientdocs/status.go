// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/clientdocs/internal/ledger"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the processing ledger",
	Long: `Status lists every document the pipeline has handled, most recent
first, with its outcome and share link.`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().String("ledger", "clientdocs.db", "processing ledger database")

	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	ledgerFile, _ := cmd.Flags().GetString("ledger")

	store, err := ledger.Open(ledgerFile)
	if err != nil {
		return err
	}
	defer store.Close()

	return store.Print(cmd.Context(), os.Stdout)
}
