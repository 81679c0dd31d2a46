// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ledger

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/clientdocs/pkg/types"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordAndList(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first := types.Document{
		ClientName:   "John Doe",
		OriginalPath: "pdfs/doc1.pdf",
		RenamedPath:  "pdfs/John Doe.pdf",
		ShareLink:    "https://1drv.example/s/abc",
		Status:       types.StatusUploaded,
		ProcessedAt:  time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	require.NoError(t, s.Record(ctx, first))
	require.NoError(t, s.Record(ctx, types.Document{
		ClientName:   "Unknown Sender",
		OriginalPath: "pdfs/doc2.pdf",
		Status:       types.StatusUnmatched,
		ProcessedAt:  time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
	}))

	docs, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 2)

	// Most recent first.
	assert.Equal(t, "Unknown Sender", docs[0].ClientName)
	assert.Equal(t, types.StatusUnmatched, docs[0].Status)
	assert.Equal(t, "John Doe", docs[1].ClientName)
	assert.Equal(t, "https://1drv.example/s/abc", docs[1].ShareLink)
	assert.NotEmpty(t, docs[1].ID, "missing ID should be filled in")
}

func TestShareLink(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, ok, err := s.ShareLink(ctx, "John Doe")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Record(ctx, types.Document{
		ClientName:  "John Doe",
		ShareLink:   "https://1drv.example/s/v1",
		Status:      types.StatusUploaded,
		ProcessedAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}))
	require.NoError(t, s.Record(ctx, types.Document{
		ClientName:  "John Doe",
		ShareLink:   "https://1drv.example/s/v2",
		Status:      types.StatusUploaded,
		ProcessedAt: time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC),
	}))
	// Failed rows never satisfy a link lookup.
	require.NoError(t, s.Record(ctx, types.Document{
		ClientName: "Acme Corp",
		Status:     types.StatusFailed,
	}))

	link, ok, err := s.ShareLink(ctx, "john doe")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "https://1drv.example/s/v2", link)

	_, ok, err = s.ShareLink(ctx, "Acme Corp")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPrint(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	var buf bytes.Buffer
	require.NoError(t, s.Print(ctx, &buf))
	assert.Contains(t, buf.String(), "ledger is empty")

	require.NoError(t, s.Record(ctx, types.Document{
		ClientName: "John Doe",
		ShareLink:  "https://1drv.example/s/abc",
		Status:     types.StatusUploaded,
	}))

	buf.Reset()
	require.NoError(t, s.Print(ctx, &buf))
	out := buf.String()
	assert.Contains(t, out, "John Doe")
	assert.Contains(t, out, "https://1drv.example/s/abc")
	assert.Contains(t, out, "1 document(s)")
}
