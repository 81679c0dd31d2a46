// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ledger persists processing outcomes in a SQLite database.
//
// Every document the pipeline touches gets a row: what it was called, where
// the backup went, what it was renamed to, the share link, and the outcome.
// The pipeline consults the ledger to skip clients that already have an
// uploaded link, and the status command prints it.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/clientdocs/pkg/types"
)

// Store manages the processing ledger database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the ledger database at path, creating parent
// directories and the schema as needed.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating ledger directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening ledger: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY,
			client_name TEXT NOT NULL,
			original_path TEXT,
			backup_path TEXT,
			renamed_path TEXT,
			share_link TEXT,
			status TEXT NOT NULL,
			processed_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_client ON documents(client_name)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record inserts a document outcome. A missing ID or timestamp is filled in.
func (s *Store) Record(ctx context.Context, doc types.Document) error {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.ProcessedAt.IsZero() {
		doc.ProcessedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO documents
			(id, client_name, original_path, backup_path, renamed_path, share_link, status, processed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		doc.ID, doc.ClientName, doc.OriginalPath, doc.BackupPath,
		doc.RenamedPath, doc.ShareLink, string(doc.Status),
		doc.ProcessedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("recording document %s: %w", doc.ClientName, err)
	}
	return nil
}

// ShareLink returns the most recent uploaded link for clientName, if any.
func (s *Store) ShareLink(ctx context.Context, clientName string) (string, bool, error) {
	var link string
	err := s.db.QueryRowContext(ctx,
		`SELECT share_link FROM documents
		 WHERE client_name = ? COLLATE NOCASE AND status = ? AND share_link != ''
		 ORDER BY processed_at DESC LIMIT 1`,
		clientName, string(types.StatusUploaded)).Scan(&link)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("querying link for %s: %w", clientName, err)
	}
	return link, true, nil
}

// List returns all recorded documents, most recent first.
func (s *Store) List(ctx context.Context) ([]types.Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, client_name, original_path, backup_path, renamed_path, share_link, status, processed_at
		 FROM documents ORDER BY processed_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	defer rows.Close()

	var docs []types.Document
	for rows.Next() {
		var doc types.Document
		var status, processedAt string
		if err := rows.Scan(&doc.ID, &doc.ClientName, &doc.OriginalPath, &doc.BackupPath,
			&doc.RenamedPath, &doc.ShareLink, &status, &processedAt); err != nil {
			return nil, fmt.Errorf("scanning document row: %w", err)
		}
		doc.Status = types.DocumentStatus(status)
		if t, err := time.Parse(time.RFC3339Nano, processedAt); err == nil {
			doc.ProcessedAt = t
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// Print writes a human-readable ledger summary to w.
func (s *Store) Print(ctx context.Context, w io.Writer) error {
	docs, err := s.List(ctx)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		fmt.Fprintln(w, "ledger is empty")
		return nil
	}

	for _, doc := range docs {
		fmt.Fprintf(w, "%-10s %-30s %s\n", doc.Status, doc.ClientName,
			doc.ProcessedAt.Local().Format("2006-01-02 15:04"))
		if doc.ShareLink != "" {
			fmt.Fprintf(w, "           %s\n", doc.ShareLink)
		}
	}
	fmt.Fprintf(w, "\n%d document(s)\n", len(docs))
	return nil
}
