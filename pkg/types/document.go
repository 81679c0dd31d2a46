// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// DocumentStatus indicates the processing outcome for a client document.
type DocumentStatus string

const (
	StatusUploaded  DocumentStatus = "uploaded"
	StatusSkipped   DocumentStatus = "skipped"
	StatusUnmatched DocumentStatus = "unmatched"
	StatusFailed    DocumentStatus = "failed"
)

// Document holds the state of one client PDF as it moves through the
// pipeline: extraction, validation, rename/backup, upload, register update.
type Document struct {
	// ID is a stable identifier assigned when the document is first recorded.
	ID string `json:"id" yaml:"id"`

	// ClientName is the validated client name extracted from the PDF.
	ClientName string `json:"client_name" yaml:"client_name"`

	// OriginalPath is the path the PDF was found at.
	OriginalPath string `json:"original_path" yaml:"original_path"`

	// BackupPath is where the original was copied before renaming.
	BackupPath string `json:"backup_path,omitempty" yaml:"backup_path,omitempty"`

	// RenamedPath is the path after renaming to the client name.
	RenamedPath string `json:"renamed_path,omitempty" yaml:"renamed_path,omitempty"`

	// ShareLink is the shareable URL returned by the remote storage API.
	ShareLink string `json:"share_link,omitempty" yaml:"share_link,omitempty"`

	// Status records the final outcome for this document.
	Status DocumentStatus `json:"status" yaml:"status"`

	// ProcessedAt is when the pipeline finished with this document.
	ProcessedAt time.Time `json:"processed_at" yaml:"processed_at"`
}

// Filing describes one regulator filing discovered by the fetcher.
type Filing struct {
	// Category is the listing section the filing came from (e.g. "Circulars").
	Category string `json:"category" yaml:"category"`

	// Title is the filing title as shown in the listing.
	Title string `json:"title" yaml:"title"`

	// IssueDate is the issue date string as published (formats vary).
	IssueDate string `json:"issue_date" yaml:"issue_date"`

	// PDFURL is the resolved direct URL of the filing PDF.
	PDFURL string `json:"pdf_url" yaml:"pdf_url"`
}

// DownloadMeta is the YAML sidecar written next to each fetched filing.
type DownloadMeta struct {
	// SourceURL is the URL the PDF was downloaded from.
	SourceURL string `json:"source_url" yaml:"source_url"`

	// DownloadedAt is when the download completed.
	DownloadedAt time.Time `json:"downloaded_at" yaml:"downloaded_at"`

	// Category and Title identify the filing in the manifest.
	Category string `json:"category" yaml:"category"`
	Title    string `json:"title" yaml:"title"`
}
