// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubNames is a NameSet over a fixed, lowercased list.
type stubNames map[string]bool

func (s stubNames) Contains(name string) bool {
	return s[strings.ToLower(name)]
}

var knownClients = stubNames{
	"john doe":   true,
	"acme corp":  true,
	"jane smith": true,
}

func TestFindName(t *testing.T) {
	e := New(knownClients)

	tests := []struct {
		name   string
		lines  []string
		want   string
		wantOK bool
	}{
		{
			name:   "marker followed by name",
			lines:  []string{"Invoice #42", "To:", "John Doe", "123 Main St"},
			want:   "John Doe",
			wantOK: true,
		},
		{
			name:   "dear marker",
			lines:  []string{"Dear Sir,", "Acme Corp,", "Regarding your order"},
			want:   "Acme Corp",
			wantOK: true,
		},
		{
			name:   "attn marker with trailing punctuation",
			lines:  []string{"ATTN:", "Jane Smith.", "Billing department"},
			want:   "Jane Smith",
			wantOK: true,
		},
		{
			name:   "bare name in opening lines",
			lines:  []string{"John Doe", "Statement of account"},
			want:   "John Doe",
			wantOK: true,
		},
		{
			name:   "name beyond opening lines without marker is missed",
			lines:  []string{"a", "b", "c", "d", "e", "John Doe"},
			wantOK: false,
		},
		{
			name:   "unknown addressee",
			lines:  []string{"To:", "Nobody We Know"},
			wantOK: false,
		},
		{
			name:   "marker on last line",
			lines:  []string{"Some heading", "To:"},
			wantOK: false,
		},
		{
			name:   "empty input",
			lines:  nil,
			wantOK: false,
		},
		{
			name:   "case-insensitive match preserves original casing",
			lines:  []string{"to:", "JOHN DOE"},
			want:   "JOHN DOE",
			wantOK: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := e.findName(tt.lines)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCleanCandidate(t *testing.T) {
	assert.Equal(t, "John Doe", cleanCandidate("  John Doe.  "))
	assert.Equal(t, "Acme Corp", cleanCandidate("Acme Corp,"))
	assert.Equal(t, "", cleanCandidate(" ., "))
}

func TestClientNameUnreadableFile(t *testing.T) {
	e := New(knownClients)
	_, err := e.ClientName("testdata/does-not-exist.pdf")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNameNotFound)
}
