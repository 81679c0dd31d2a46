// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/clientdocs/internal/graph"
	"github.com/pdiddy/clientdocs/internal/ledger"
	"github.com/pdiddy/clientdocs/internal/pipeline"
	"github.com/pdiddy/clientdocs/internal/register"
	"github.com/pdiddy/clientdocs/pkg/types"
)

const (
	defaultTimeout   = 60 * time.Second
	defaultUserAgent = "clientdocs/0.1"
)

var processCmd = &cobra.Command{
	Use:   "process [pdf-dir]",
	Short: "Process client PDFs: extract, validate, rename, upload, link",
	Long: `Process runs the pipeline over every PDF in the directory: the client
name is extracted from the document and validated against the register;
matching files are backed up, renamed, uploaded to OneDrive, and their
shareable links written into the register. Files whose client already has
an uploaded link are skipped.

Requires a cached access token; run 'clientdocs auth' first.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runProcess,
}

func init() {
	processCmd.Flags().String("register", "clients.xlsx", "Excel client register")
	processCmd.Flags().String("backup-dir", "", "backup directory for originals (default: <pdf-dir>/originals)")
	processCmd.Flags().String("ledger", "clientdocs.db", "processing ledger database")
	processCmd.Flags().String("token-file", defaultTokenFile, "cached access token")
	processCmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 60s)")
	processCmd.Flags().Int("max-retries", 0, "upload retry attempts (default 3)")

	rootCmd.AddCommand(processCmd)
}

func runProcess(cmd *cobra.Command, args []string) error {
	pdfDir := "pdfs"
	if len(args) == 1 {
		pdfDir = args[0]
	}

	registerFile, _ := cmd.Flags().GetString("register")
	backupDir, _ := cmd.Flags().GetString("backup-dir")
	ledgerFile, _ := cmd.Flags().GetString("ledger")
	tokenFile, _ := cmd.Flags().GetString("token-file")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	if timeout == 0 {
		timeout = defaultTimeout
	}
	maxRetries, _ := cmd.Flags().GetInt("max-retries")

	// No token, no uploads: authentication failure stops the run before
	// any file is touched.
	token, err := graph.LoadToken(tokenFile)
	if err != nil {
		return fmt.Errorf("no cached access token (run 'clientdocs auth' first): %w", err)
	}
	if !token.Valid() {
		return fmt.Errorf("cached access token expired; run 'clientdocs auth' again")
	}

	client := graph.NewClient(token.AccessToken, types.GraphConfig{
		HTTPConfig: types.HTTPConfig{Timeout: timeout, UserAgent: defaultUserAgent},
		MaxRetries: maxRetries,
	})

	reg, err := register.Open(registerFile)
	if err != nil {
		return err
	}
	defer reg.Close()

	store, err := ledger.Open(ledgerFile)
	if err != nil {
		return err
	}
	defer store.Close()

	p := pipeline.New(client, reg, store, types.ProcessConfig{
		PDFDir:       pdfDir,
		BackupDir:    backupDir,
		RegisterFile: registerFile,
		LedgerFile:   ledgerFile,
	})

	result, err := p.Run(cmd.Context(), os.Stdout)
	if err != nil {
		return err
	}
	if result.HasFailures() {
		return fmt.Errorf("%d document(s) failed processing", result.Failed)
	}
	return nil
}
