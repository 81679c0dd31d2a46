// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract pulls client names out of PDF documents.
//
// Text extraction uses ledongthuc/pdf (BSD-3, pure Go, no CGO). Name
// detection is heuristic: addressee marker lines ("To:", "Dear", "Attn:")
// are checked first, then the opening lines of the document. A candidate
// only counts when it matches a known client name, so extraction and
// validation succeed or fail together.
package extract

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrNameNotFound indicates the PDF was readable but no line matched a
// known client name.
var ErrNameNotFound = errors.New("no matching client name found")

// headLines is how many opening lines are checked for a bare client name.
const headLines = 5

// markers introduce an addressee; the client name is expected on the
// following line.
var markers = []string{"to:", "to,", "dear", "attention:", "attn:"}

// NameSet reports whether a client name is known. Lookups are
// case-insensitive on the caller's side: Contains receives the candidate
// unchanged.
type NameSet interface {
	Contains(name string) bool
}

// Extractor extracts validated client names from PDFs.
type Extractor struct {
	known NameSet
}

// New returns an Extractor that validates candidates against known.
func New(known NameSet) *Extractor {
	return &Extractor{known: known}
}

// ClientName reads the first page of the PDF at path and returns the
// validated client name. It returns ErrNameNotFound (wrapped) when the text
// is readable but no candidate matches, and other errors for unreadable
// files.
func (e *Extractor) ClientName(path string) (string, error) {
	lines, err := firstPageLines(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}

	name, ok := e.findName(lines)
	if !ok {
		return "", fmt.Errorf("%s: %w", path, ErrNameNotFound)
	}
	return name, nil
}

// findName applies the name heuristics to the extracted lines.
func (e *Extractor) findName(lines []string) (string, bool) {
	// Marker lines: the candidate is the line after the marker.
	for i, line := range lines {
		lower := strings.ToLower(line)
		for _, marker := range markers {
			if strings.Contains(lower, marker) && i+1 < len(lines) {
				candidate := cleanCandidate(lines[i+1])
				if candidate != "" && e.known.Contains(candidate) {
					return candidate, true
				}
			}
		}
	}

	// Fall back to the opening lines themselves.
	head := lines
	if len(head) > headLines {
		head = head[:headLines]
	}
	for _, line := range head {
		candidate := cleanCandidate(line)
		if candidate != "" && e.known.Contains(candidate) {
			return candidate, true
		}
	}

	return "", false
}

// cleanCandidate strips punctuation that commonly trails an addressee line.
func cleanCandidate(s string) string {
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", "")
	return strings.TrimSpace(s)
}

// firstPageLines extracts the first page of the PDF as trimmed, non-empty
// lines.
func firstPageLines(path string) ([]string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	if r.NumPage() < 1 {
		return nil, errors.New("pdf has no pages")
	}

	page := r.Page(1)
	if page.V.IsNull() {
		return nil, errors.New("first page is empty")
	}

	text, err := page.GetPlainText(nil)
	if err != nil {
		return nil, fmt.Errorf("extract text: %w", err)
	}

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, nil
}
