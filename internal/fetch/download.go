// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/clientdocs/internal/httputil"
	"github.com/pdiddy/clientdocs/pkg/types"
)

// manifestHeader is the column layout of the filings manifest CSV.
var manifestHeader = []string{"Category", "Title", "Issue Date", "PDF Link"}

// Result holds the outcome of a fetch run.
type Result struct {
	Found      int
	Downloaded int
	Skipped    int
	Failed     int
}

// HasFailures reports whether any download failed.
func (r Result) HasFailures() bool {
	return r.Failed > 0
}

// Run scrapes every category, writes the manifest, and downloads each new
// filing. Category scrape errors and per-file download errors are reported
// to w and counted; the run continues.
func Run(ctx context.Context, client *http.Client, cfg types.FetchConfig, w io.Writer) (Result, error) {
	scraper := NewScraper(client, cfg)
	dl := NewDownloader(client, cfg)

	manifest, err := os.Create(cfg.ManifestFile)
	if err != nil {
		return Result{}, fmt.Errorf("creating manifest %s: %w", cfg.ManifestFile, err)
	}
	defer manifest.Close()

	cw := csv.NewWriter(manifest)
	if err := cw.Write(manifestHeader); err != nil {
		return Result{}, fmt.Errorf("writing manifest header: %w", err)
	}

	names := make([]string, 0, len(Categories))
	for name := range Categories {
		names = append(names, name)
	}
	sort.Strings(names)

	var result Result
	seen := make(map[string]bool)
	for _, name := range names {
		fmt.Fprintf(w, "\nScraping %s...\n", name)
		filings, err := scraper.Category(ctx, name, Categories[name], seen, w)
		if err != nil {
			fmt.Fprintf(w, "warning: %s: %v\n", name, err)
		}

		for _, filing := range filings {
			result.Found++
			if err := cw.Write([]string{filing.Category, filing.Title, filing.IssueDate, filing.PDFURL}); err != nil {
				return result, fmt.Errorf("writing manifest row: %w", err)
			}

			skipped, err := dl.Download(ctx, filing, w)
			switch {
			case err != nil:
				fmt.Fprintf(w, "failed:  %s (%v)\n", filing.Title, err)
				result.Failed++
			case skipped:
				result.Skipped++
			default:
				result.Downloaded++
			}

			if ctx.Err() != nil {
				cw.Flush()
				return result, ctx.Err()
			}
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return result, fmt.Errorf("flushing manifest: %w", err)
	}

	fmt.Fprintf(w, "\nFetch summary: %d found, %d downloaded, %d skipped, %d failed\n",
		result.Found, result.Downloaded, result.Skipped, result.Failed)
	return result, nil
}

// Downloader fetches filing PDFs into per-category directories.
type Downloader struct {
	client *http.Client
	cfg    types.FetchConfig
}

// NewDownloader returns a Downloader using client. A zero RequestDelay
// defaults to 2s.
func NewDownloader(client *http.Client, cfg types.FetchConfig) *Downloader {
	if cfg.RequestDelay <= 0 {
		cfg.RequestDelay = 2 * time.Second
	}
	return &Downloader{client: client, cfg: cfg}
}

// Download fetches one filing PDF into OutputDir/<category>/, pausing
// RequestDelay first to stay polite. Existing files are skipped. A YAML
// sidecar records the source URL and download time.
func (d *Downloader) Download(ctx context.Context, filing types.Filing, w io.Writer) (skipped bool, err error) {
	dir := filepath.Join(d.cfg.OutputDir, safeName(filing.Category))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false, fmt.Errorf("creating %s: %w", dir, err)
	}

	fileName := safeName(filing.Title+"_"+filing.IssueDate) + ".pdf"
	destPath := filepath.Join(dir, fileName)
	if _, err := os.Stat(destPath); err == nil {
		fmt.Fprintf(w, "skipped: %s (already downloaded)\n", fileName)
		return true, nil
	}

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case <-time.After(d.cfg.RequestDelay):
	}

	req, err := http.NewRequest(http.MethodGet, filing.PDFURL, nil)
	if err != nil {
		return false, fmt.Errorf("creating request: %w", err)
	}
	if d.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", d.cfg.UserAgent)
	}
	req.Header.Set("Accept", "application/pdf")

	resp, err := httputil.DoWithRetry(ctx, d.client, req, d.cfg.MaxRetries)
	if err != nil {
		return false, fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("HTTP %d from %s", resp.StatusCode, filing.PDFURL)
	}
	contentType := strings.ToLower(resp.Header.Get("Content-Type"))
	if !strings.Contains(contentType, "application/pdf") && !strings.HasSuffix(filing.PDFURL, ".pdf") {
		return false, fmt.Errorf("%s is not a PDF (content-type %q)", filing.PDFURL, contentType)
	}

	if err := writeFile(destPath, resp.Body); err != nil {
		return false, err
	}

	if err := writeMeta(destPath, filing); err != nil {
		fmt.Fprintf(w, "warning: metadata for %s: %v\n", fileName, err)
	}

	fmt.Fprintf(w, "downloaded: %s (%s)\n", fileName, filing.Category)
	return false, nil
}

// writeFile streams body to destPath through a temp file, renaming on
// success so partial downloads never land under the final name.
func writeFile(destPath string, body io.Reader) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".fetch-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, copyErr := io.Copy(tmpFile, body)
	closeErr := tmpFile.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing download: %w", copyErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// writeMeta writes the YAML download sidecar next to the PDF.
func writeMeta(pdfPath string, filing types.Filing) error {
	meta := types.DownloadMeta{
		SourceURL:    filing.PDFURL,
		DownloadedAt: time.Now().UTC(),
		Category:     filing.Category,
		Title:        filing.Title,
	}
	data, err := yaml.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshaling metadata: %w", err)
	}
	return os.WriteFile(pdfPath+".meta.yaml", data, 0o644)
}

// safeName keeps letters, digits, spaces, hyphens, underscores, and dots.
func safeName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}
