// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "clientdocs/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// GraphConfig holds settings for Microsoft Graph authentication and uploads.
type GraphConfig struct {
	HTTPConfig `yaml:",inline"`

	// ClientID is the Azure application (client) ID, from APPLICATION_ID.
	ClientID string `json:"client_id,omitempty" yaml:"client_id,omitempty"`

	// ClientSecret is the confidential client secret, from CLIENT_SECRET.
	// Never serialized.
	ClientSecret string `json:"-" yaml:"-"`

	// Authority is the Microsoft identity authority URL
	// (default "https://login.microsoftonline.com/consumers/").
	Authority string `json:"authority" yaml:"authority"`

	// RedirectURI is the redirect URI registered for the auth-code flow.
	RedirectURI string `json:"redirect_uri" yaml:"redirect_uri"`

	// TokenFile is the path where the acquired token is cached between runs.
	TokenFile string `json:"token_file" yaml:"token_file"`

	// MaxRetries is the number of retry attempts for transient upload
	// failures (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// ProcessConfig holds settings for the document processing pipeline.
type ProcessConfig struct {
	// PDFDir is the directory scanned for incoming client PDFs.
	PDFDir string `json:"pdf_dir" yaml:"pdf_dir"`

	// BackupDir is where original PDFs are copied before renaming.
	// Defaults to PDFDir/originals.
	BackupDir string `json:"backup_dir" yaml:"backup_dir"`

	// RegisterFile is the Excel workbook holding the client register.
	RegisterFile string `json:"register_file" yaml:"register_file"`

	// LedgerFile is the SQLite database recording processing outcomes.
	LedgerFile string `json:"ledger_file" yaml:"ledger_file"`
}

// FetchConfig holds settings for the regulator filings fetcher.
type FetchConfig struct {
	HTTPConfig `yaml:",inline"`

	// OutputDir is the base directory for downloaded filings (one
	// subdirectory per category).
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// ManifestFile is the CSV manifest of discovered filings.
	ManifestFile string `json:"manifest_file" yaml:"manifest_file"`

	// Cutoff excludes filings issued before this date. Zero means no cutoff.
	Cutoff time.Time `json:"cutoff,omitempty" yaml:"cutoff,omitempty"`

	// PageSize is the number of listing entries requested per page (default 10).
	PageSize int `json:"page_size" yaml:"page_size"`

	// RequestDelay is the pause between listing page requests and between
	// consecutive downloads (default 2s).
	RequestDelay time.Duration `json:"request_delay" yaml:"request_delay"`

	// MaxRetries is the number of retry attempts per download (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Graph   GraphConfig   `json:"graph" yaml:"graph"`
	Process ProcessConfig `json:"process" yaml:"process"`
	Fetch   FetchConfig   `json:"fetch" yaml:"fetch"`
}
