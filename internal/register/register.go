// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package register reads and updates the Excel client register.
//
// The register is an .xlsx workbook whose first sheet has a "Client Name"
// column. The pipeline validates extracted names against that column and
// writes shareable links into a "url" column, creating it when absent.
package register

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

const (
	nameHeader = "Client Name"
	linkHeader = "url"
)

// Register is an open client register workbook.
type Register struct {
	f     *excelize.File
	path  string
	sheet string

	// nameRows maps lowercased client names to their 1-based sheet row.
	nameRows map[string]int

	// linkCol is the 1-based column of the link header, 0 when absent.
	linkCol int

	// cols is the number of header columns currently in the sheet.
	cols int
}

// Open loads the register workbook at path. The first sheet must contain a
// "Client Name" header column.
func Open(path string) (*Register, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening register %s: %w", path, err)
	}

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("reading sheet %s: %w", sheet, err)
	}
	if len(rows) == 0 {
		f.Close()
		return nil, fmt.Errorf("register %s is empty", path)
	}

	header := rows[0]
	nameCol := 0
	linkCol := 0
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case strings.ToLower(nameHeader):
			nameCol = i + 1
		case linkHeader:
			linkCol = i + 1
		}
	}
	if nameCol == 0 {
		f.Close()
		return nil, fmt.Errorf("register %s has no %q column", path, nameHeader)
	}

	nameRows := make(map[string]int)
	for i, row := range rows[1:] {
		if nameCol-1 >= len(row) {
			continue
		}
		name := strings.TrimSpace(row[nameCol-1])
		if name != "" {
			nameRows[strings.ToLower(name)] = i + 2
		}
	}

	return &Register{
		f:        f,
		path:     path,
		sheet:    sheet,
		nameRows: nameRows,
		linkCol:  linkCol,
		cols:     len(header),
	}, nil
}

// Close releases the workbook without saving.
func (r *Register) Close() error {
	return r.f.Close()
}

// Contains reports whether name appears in the client name column.
// Matching is case-insensitive.
func (r *Register) Contains(name string) bool {
	_, ok := r.nameRows[strings.ToLower(name)]
	return ok
}

// Len returns the number of distinct client names in the register.
func (r *Register) Len() int {
	return len(r.nameRows)
}

// Link returns the stored link for name, if any.
func (r *Register) Link(name string) (string, bool) {
	if r.linkCol == 0 {
		return "", false
	}
	row, ok := r.nameRows[strings.ToLower(name)]
	if !ok {
		return "", false
	}
	cell, err := excelize.CoordinatesToCellName(r.linkCol, row)
	if err != nil {
		return "", false
	}
	v, err := r.f.GetCellValue(r.sheet, cell)
	if err != nil || v == "" {
		return "", false
	}
	return v, true
}

// SetLink writes url into the link column of the row whose client name
// matches name, creating the column header on first use.
func (r *Register) SetLink(name, url string) error {
	row, ok := r.nameRows[strings.ToLower(name)]
	if !ok {
		return fmt.Errorf("client %q not in register", name)
	}

	if r.linkCol == 0 {
		r.linkCol = r.cols + 1
		r.cols++
		headerCell, err := excelize.CoordinatesToCellName(r.linkCol, 1)
		if err != nil {
			return fmt.Errorf("link header cell: %w", err)
		}
		if err := r.f.SetCellValue(r.sheet, headerCell, linkHeader); err != nil {
			return fmt.Errorf("writing link header: %w", err)
		}
	}

	cell, err := excelize.CoordinatesToCellName(r.linkCol, row)
	if err != nil {
		return fmt.Errorf("link cell for %q: %w", name, err)
	}
	if err := r.f.SetCellValue(r.sheet, cell, url); err != nil {
		return fmt.Errorf("writing link for %q: %w", name, err)
	}
	return nil
}

// Save writes the workbook back to the path it was opened from.
func (r *Register) Save() error {
	if err := r.f.Save(); err != nil {
		return fmt.Errorf("saving register %s: %w", r.path, err)
	}
	return nil
}
