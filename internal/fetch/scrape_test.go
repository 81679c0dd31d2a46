// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/clientdocs/internal/httputil"
	"github.com/pdiddy/clientdocs/pkg/types"
)

func init() {
	httputil.RetryBaseDelay = 1 * time.Millisecond
}

func TestPaginatedURL(t *testing.T) {
	got, err := paginatedURL("https://example.com/listing?sid=1&ssid=7", 3, 10)
	require.NoError(t, err)

	u, err := url.Parse(got)
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "20", q.Get("start"))
	assert.Equal(t, "10", q.Get("length"))
	assert.Equal(t, "normal", q.Get("bm"))
	assert.Equal(t, "1", q.Get("sid"), "original parameters preserved")
	assert.Equal(t, "7", q.Get("ssid"))
}

func TestTotalPages(t *testing.T) {
	tests := []struct {
		name string
		html string
		want int
	}{
		{
			name: "entries counter",
			html: `<div class="dataTables_info">Showing 1 to 10 of 42 entries</div>`,
			want: 5,
		},
		{
			name: "exact multiple",
			html: `<div class="dataTables_info">Showing 1 to 10 of 20 entries</div>`,
			want: 2,
		},
		{
			name: "no counter",
			html: `<p>nothing here</p>`,
			want: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := goquery.NewDocumentFromReader(strings.NewReader(tt.html))
			require.NoError(t, err)
			assert.Equal(t, tt.want, totalPages(doc, 10))
		})
	}
}

func TestParseIssueDate(t *testing.T) {
	tests := []struct {
		input string
		want  time.Time
		ok    bool
	}{
		{"15-03-2023", time.Date(2023, 3, 15, 0, 0, 0, 0, time.UTC), true},
		{"2023-03-15", time.Date(2023, 3, 15, 0, 0, 0, 0, time.UTC), true},
		{"15/03/2023", time.Date(2023, 3, 15, 0, 0, 0, 0, time.UTC), true},
		{"Mar 15, 2023", time.Date(2023, 3, 15, 0, 0, 0, 0, time.UTC), true},
		{"2023", time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), true},
		{"not a date", time.Time{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := parseIssueDate(tt.input)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.True(t, got.Equal(tt.want), "got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSafeName(t *testing.T) {
	assert.Equal(t, "Master Circular 2023-01.pdf", safeName("Master Circular 2023-01.pdf"))
	assert.Equal(t, "ab_c", safeName(`a/b\_c?`))
	assert.Equal(t, "", safeName("///"))
}

const listingPageHTML = `<html><body>
<div class="dataTables_info">Showing 1 to 10 of 12 entries</div>
<table id="sample_1">
<tr><th>Date</th><th>Title</th></tr>
<tr><td>01-02-2023</td><td><a href="/sebi_data/attachdocs/abc.pdf">Circular One</a></td></tr>
<tr><td>15-12-2022</td><td><a href="/sebi_data/attachdocs/old.pdf">Old Circular</a></td></tr>
<tr><td>05-03-2023</td><td><a href="/doc/viewer.html">Viewer Circular</a></td></tr>
<tr><td>05-03-2023</td><td><a href="/sebi_data/attachdocs/abc.pdf">Duplicate Circular</a></td></tr>
</table></body></html>`

const emptyListingHTML = `<html><body>
<table id="sample_1"><tr><th>Date</th><th>Title</th></tr></table>
</body></html>`

const viewerHTML = `<html><body>
<iframe src="/viewer?file=/sebi_data/attachdocs/xyz.pdf"></iframe>
</body></html>`

func TestCategory(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/listing":
			if r.URL.Query().Get("start") == "0" {
				fmt.Fprint(w, listingPageHTML)
				return
			}
			fmt.Fprint(w, emptyListingHTML)
		case r.URL.Path == "/doc/viewer.html":
			fmt.Fprint(w, viewerHTML)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer ts.Close()

	s := NewScraper(ts.Client(), types.FetchConfig{
		Cutoff:       time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		RequestDelay: time.Millisecond,
	})
	s.baseURL = ts.URL

	var out bytes.Buffer
	seen := make(map[string]bool)
	filings, err := s.Category(context.Background(), "Circulars", ts.URL+"/listing", seen, &out)
	require.NoError(t, err)

	// Old Circular is before the cutoff, Duplicate Circular repeats a URL.
	require.Len(t, filings, 2)

	assert.Equal(t, "Circular One", filings[0].Title)
	assert.Equal(t, "01-02-2023", filings[0].IssueDate)
	assert.Equal(t, ts.URL+"/sebi_data/attachdocs/abc.pdf", filings[0].PDFURL)

	assert.Equal(t, "Viewer Circular", filings[1].Title)
	assert.Equal(t, ts.URL+"/sebi_data/attachdocs/xyz.pdf", filings[1].PDFURL,
		"PDF resolved through the viewer iframe")
}

func TestCategoryNoCutoffKeepsEverything(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/listing":
			if r.URL.Query().Get("start") == "0" {
				fmt.Fprint(w, listingPageHTML)
				return
			}
			fmt.Fprint(w, emptyListingHTML)
		case "/doc/viewer.html":
			fmt.Fprint(w, viewerHTML)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer ts.Close()

	s := NewScraper(ts.Client(), types.FetchConfig{RequestDelay: time.Millisecond})
	s.baseURL = ts.URL

	var out bytes.Buffer
	filings, err := s.Category(context.Background(), "Circulars", ts.URL+"/listing", map[string]bool{}, &out)
	require.NoError(t, err)
	assert.Len(t, filings, 3)
}
