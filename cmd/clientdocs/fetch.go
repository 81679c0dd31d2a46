// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/clientdocs/internal/fetch"
	"github.com/pdiddy/clientdocs/pkg/types"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download regulator filings from the SEBI listings",
	Long: `Fetch scrapes the SEBI filing listings (rules, regulations, circulars,
and so on), writes a CSV manifest of everything found, and downloads each
new PDF into a per-category directory with a metadata sidecar. Filings
already on disk are skipped.`,
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().String("output-dir", "downloaded_data", "base directory for downloaded filings")
	fetchCmd.Flags().String("manifest", "pdf_links.csv", "CSV manifest of discovered filings")
	fetchCmd.Flags().String("cutoff", "", "skip filings issued before this date (YYYY-MM-DD)")
	fetchCmd.Flags().Duration("delay", 0, "delay between requests (default 2s)")
	fetchCmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 60s)")
	fetchCmd.Flags().Int("max-retries", 0, "download retry attempts (default 3)")

	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	outputDir, _ := cmd.Flags().GetString("output-dir")
	manifest, _ := cmd.Flags().GetString("manifest")
	cutoffStr, _ := cmd.Flags().GetString("cutoff")
	delay, _ := cmd.Flags().GetDuration("delay")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	if timeout == 0 {
		timeout = defaultTimeout
	}
	maxRetries, _ := cmd.Flags().GetInt("max-retries")

	var cutoff time.Time
	if cutoffStr != "" {
		var err error
		cutoff, err = time.Parse("2006-01-02", cutoffStr)
		if err != nil {
			return fmt.Errorf("invalid cutoff date %q (want YYYY-MM-DD): %w", cutoffStr, err)
		}
	}

	cfg := types.FetchConfig{
		HTTPConfig:   types.HTTPConfig{Timeout: timeout, UserAgent: defaultUserAgent},
		OutputDir:    outputDir,
		ManifestFile: manifest,
		Cutoff:       cutoff,
		RequestDelay: delay,
		MaxRetries:   maxRetries,
	}

	client := &http.Client{Timeout: timeout}
	result, err := fetch.Run(cmd.Context(), client, cfg, os.Stdout)
	if err != nil {
		return err
	}
	if result.HasFailures() {
		return fmt.Errorf("%d filing(s) failed to download", result.Failed)
	}
	return nil
}
