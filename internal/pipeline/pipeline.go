// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline orchestrates the per-document processing sequence:
// extract client name, validate against the register, back up and rename,
// upload to OneDrive, write the share link back.
//
// Processing is strictly sequential. Per-document failures are reported and
// counted; the batch continues with the next file.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pdiddy/clientdocs/internal/extract"
	"github.com/pdiddy/clientdocs/internal/register"
	"github.com/pdiddy/clientdocs/pkg/types"
)

// Uploader transfers a local file to remote storage and returns a shareable
// link. internal/graph.Client implements it.
type Uploader interface {
	Upload(ctx context.Context, localPath, remoteName string) (string, error)
}

// Recorder persists document outcomes and answers link lookups.
// internal/ledger.Store implements it.
type Recorder interface {
	Record(ctx context.Context, doc types.Document) error
	ShareLink(ctx context.Context, clientName string) (string, bool, error)
}

// Result holds the outcome counts of a processing run.
type Result struct {
	Uploaded  int
	Skipped   int
	Unmatched int
	Failed    int
}

// Total returns the number of PDFs examined.
func (r Result) Total() int {
	return r.Uploaded + r.Skipped + r.Unmatched + r.Failed
}

// HasFailures reports whether any document failed.
func (r Result) HasFailures() bool {
	return r.Failed > 0
}

// Pipeline processes a directory of client PDFs.
type Pipeline struct {
	uploader Uploader
	reg      *register.Register
	recorder Recorder
	cfg      types.ProcessConfig

	// ExtractName resolves a PDF to a validated client name. Defaults to
	// the register-backed extractor; tests substitute their own.
	ExtractName func(path string) (string, error)
}

// New wires a Pipeline from its stages. BackupDir defaults to
// PDFDir/originals when unset.
func New(uploader Uploader, reg *register.Register, recorder Recorder, cfg types.ProcessConfig) *Pipeline {
	if cfg.BackupDir == "" {
		cfg.BackupDir = filepath.Join(cfg.PDFDir, "originals")
	}
	return &Pipeline{
		uploader:    uploader,
		reg:         reg,
		recorder:    recorder,
		cfg:         cfg,
		ExtractName: extract.New(reg).ClientName,
	}
}

// Run processes every .pdf file directly under PDFDir, prints per-file
// status to w, saves the register once at the end, and returns the counts.
func (p *Pipeline) Run(ctx context.Context, w io.Writer) (Result, error) {
	entries, err := os.ReadDir(p.cfg.PDFDir)
	if err != nil {
		return Result{}, fmt.Errorf("reading PDF directory %s: %w", p.cfg.PDFDir, err)
	}

	var result Result
	var linksWritten bool
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".pdf") {
			continue
		}

		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		path := filepath.Join(p.cfg.PDFDir, entry.Name())
		fmt.Fprintf(w, "processing: %s\n", entry.Name())

		wrote := p.processFile(ctx, w, path, &result)
		linksWritten = linksWritten || wrote
	}

	if linksWritten {
		// Register write failure is logged, not fatal: the links are
		// already in the ledger.
		if err := p.reg.Save(); err != nil {
			fmt.Fprintf(w, "warning: %v\n", err)
		}
	}

	fmt.Fprintf(w, "\nRun summary: %d uploaded, %d skipped, %d unmatched, %d failed (total: %d)\n",
		result.Uploaded, result.Skipped, result.Unmatched, result.Failed, result.Total())
	return result, nil
}

// processFile runs one document through the stage sequence. It reports
// whether a link was written to the register.
func (p *Pipeline) processFile(ctx context.Context, w io.Writer, path string, result *Result) bool {
	doc := types.Document{OriginalPath: path}

	name, err := p.ExtractName(path)
	if err != nil {
		if errors.Is(err, extract.ErrNameNotFound) {
			fmt.Fprintf(w, "unmatched: %s (no known client name)\n", filepath.Base(path))
			doc.Status = types.StatusUnmatched
			result.Unmatched++
		} else {
			fmt.Fprintf(w, "failed:  %s (%v)\n", filepath.Base(path), err)
			doc.Status = types.StatusFailed
			result.Failed++
		}
		p.record(ctx, w, doc)
		return false
	}
	doc.ClientName = name

	// Already uploaded on a previous run.
	if link, ok, err := p.recorder.ShareLink(ctx, name); err != nil {
		fmt.Fprintf(w, "warning: ledger lookup for %s: %v\n", name, err)
	} else if ok {
		fmt.Fprintf(w, "skipped: %s (already uploaded: %s)\n", name, link)
		doc.Status = types.StatusSkipped
		doc.ShareLink = link
		result.Skipped++
		p.record(ctx, w, doc)
		return false
	}

	backupPath, newPath, err := backupAndRename(path, p.cfg.BackupDir, name)
	if err != nil {
		fmt.Fprintf(w, "failed:  %s (%v)\n", filepath.Base(path), err)
		doc.Status = types.StatusFailed
		result.Failed++
		p.record(ctx, w, doc)
		return false
	}
	doc.BackupPath = backupPath
	doc.RenamedPath = newPath
	fmt.Fprintf(w, "renamed: %s -> %s\n", filepath.Base(path), filepath.Base(newPath))

	link, err := p.uploader.Upload(ctx, newPath, filepath.Base(newPath))
	if err != nil {
		fmt.Fprintf(w, "failed:  %s (upload: %v)\n", name, err)
		doc.Status = types.StatusFailed
		result.Failed++
		p.record(ctx, w, doc)
		return false
	}
	doc.ShareLink = link
	doc.Status = types.StatusUploaded
	result.Uploaded++
	fmt.Fprintf(w, "uploaded: %s (%s)\n", name, link)

	wrote := true
	if err := p.reg.SetLink(name, link); err != nil {
		fmt.Fprintf(w, "warning: register update for %s: %v\n", name, err)
		wrote = false
	}

	p.record(ctx, w, doc)
	return wrote
}

func (p *Pipeline) record(ctx context.Context, w io.Writer, doc types.Document) {
	doc.ProcessedAt = time.Now().UTC()
	if err := p.recorder.Record(ctx, doc); err != nil {
		fmt.Fprintf(w, "warning: ledger record for %s: %v\n", filepath.Base(doc.OriginalPath), err)
	}
}
