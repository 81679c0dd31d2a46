// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/clientdocs/internal/httputil"
	"github.com/pdiddy/clientdocs/pkg/types"
)

func init() {
	httputil.RetryBaseDelay = 1 * time.Millisecond
}

// newTestClient points a Client at the given test server.
func newTestClient(ts *httptest.Server) *Client {
	c := NewClient("test-token", types.GraphConfig{
		HTTPConfig: types.HTTPConfig{Timeout: 5 * time.Second, UserAgent: "clientdocs/test"},
		MaxRetries: 3,
	})
	c.baseURL = ts.URL
	c.httpClient = ts.Client()
	return c
}

func writeTempFile(t *testing.T, name string, size int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	data := make([]byte, size)
	for i := range data {
		data[i] = byte('a' + i%26)
	}
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestUploadSmall(t *testing.T) {
	var gotAuth, gotPath string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPut && strings.Contains(r.URL.Path, ":/content"):
			gotAuth = r.Header.Get("Authorization")
			gotPath = r.URL.EscapedPath()
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(map[string]string{"id": "item-1", "name": "John Doe.pdf"})
		case r.Method == http.MethodPost && strings.Contains(r.URL.Path, "/items/item-1/createLink"):
			json.NewEncoder(w).Encode(map[string]any{
				"link": map[string]string{"webUrl": "https://1drv.example/s/abc"},
			})
		default:
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer ts.Close()

	c := newTestClient(ts)
	path := writeTempFile(t, "doc1.pdf", 1024)

	link, err := c.Upload(context.Background(), path, "John Doe.pdf")
	require.NoError(t, err)
	assert.Equal(t, "https://1drv.example/s/abc", link)
	assert.Equal(t, "Bearer test-token", gotAuth)
	assert.Contains(t, gotPath, "John%20Doe.pdf")
}

func TestUploadRetriesTransientFailure(t *testing.T) {
	var putCalls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPut:
			if atomic.AddInt32(&putCalls, 1) <= 2 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			json.NewEncoder(w).Encode(map[string]string{"id": "item-2"})
		case r.Method == http.MethodPost:
			json.NewEncoder(w).Encode(map[string]any{
				"link": map[string]string{"webUrl": "https://1drv.example/s/def"},
			})
		}
	}))
	defer ts.Close()

	c := newTestClient(ts)
	path := writeTempFile(t, "doc2.pdf", 512)

	link, err := c.Upload(context.Background(), path, "")
	require.NoError(t, err)
	assert.Equal(t, "https://1drv.example/s/def", link)
	assert.Equal(t, int32(3), atomic.LoadInt32(&putCalls))
}

func TestUploadExhaustsRetries(t *testing.T) {
	var putCalls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&putCalls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	c := newTestClient(ts)
	path := writeTempFile(t, "doc3.pdf", 512)

	_, err := c.Upload(context.Background(), path, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 500")
	// maxRetries=3 means 4 attempts total.
	assert.Equal(t, int32(4), atomic.LoadInt32(&putCalls))
}

func TestUploadRejectsEmptyFile(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("no request expected, got %s %s", r.Method, r.URL.Path)
	}))
	defer ts.Close()

	c := newTestClient(ts)
	path := filepath.Join(t.TempDir(), "empty.pdf")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	_, err := c.Upload(context.Background(), path, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty file")
}

func TestUploadSessionChunks(t *testing.T) {
	const fileSize = 5 << 20 // 2 chunks at 3.2 MiB

	var mu atomic.Int32
	var ranges []string
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.Contains(r.URL.Path, ":/createUploadSession"):
			json.NewEncoder(w).Encode(map[string]string{"uploadUrl": srv.URL + "/session"})
		case r.URL.Path == "/session":
			mu.Add(1)
			ranges = append(ranges, r.Header.Get("Content-Range"))
			if strings.HasSuffix(r.Header.Get("Content-Range"), fmt.Sprintf("%d/%d", fileSize-1, fileSize)) {
				json.NewEncoder(w).Encode(map[string]string{"id": "big-1"})
				return
			}
			w.WriteHeader(http.StatusAccepted)
		case strings.Contains(r.URL.Path, "/createLink"):
			json.NewEncoder(w).Encode(map[string]any{
				"link": map[string]string{"webUrl": "https://1drv.example/s/big"},
			})
		default:
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
	}))
	defer srv.Close()

	c := newTestClient(srv)
	path := writeTempFile(t, "big.pdf", fileSize)

	link, err := c.Upload(context.Background(), path, "big.pdf")
	require.NoError(t, err)
	assert.Equal(t, "https://1drv.example/s/big", link)

	require.Equal(t, int32(2), mu.Load())
	assert.Equal(t, fmt.Sprintf("bytes 0-%d/%d", sessionChunkSize-1, fileSize), ranges[0])
	assert.Equal(t, fmt.Sprintf("bytes %d-%d/%d", sessionChunkSize, fileSize-1, fileSize), ranges[1])
}
