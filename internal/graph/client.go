// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/clientdocs/internal/httputil"
	"github.com/pdiddy/clientdocs/pkg/types"
)

const (
	defaultBaseURL = "https://graph.microsoft.com/v1.0"

	// simpleUploadLimit is Graph's size cap for single-request uploads.
	simpleUploadLimit = 4 << 20

	// sessionChunkSize must be a multiple of 320 KiB per the upload
	// session contract.
	sessionChunkSize = 10 * 320 * 1024
)

// Client uploads files to the signed-in user's OneDrive and creates
// shareable links. Transient failures (transport errors, 429, 5xx) are
// retried with backoff before an upload is reported failed.
type Client struct {
	httpClient *http.Client
	token      string
	baseURL    string
	userAgent  string
	maxRetries int
}

// NewClient returns a Client that authenticates requests with token.
func NewClient(token string, cfg types.GraphConfig) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		token:      token,
		baseURL:    defaultBaseURL,
		userAgent:  cfg.UserAgent,
		maxRetries: cfg.MaxRetries,
	}
}

// driveItem is the subset of the Graph driveItem resource we read back.
type driveItem struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// shareLink is the createLink response.
type shareLink struct {
	Link struct {
		WebURL string `json:"webUrl"`
	} `json:"link"`
}

// Upload transfers the file at localPath to the drive root under remoteName
// (the local basename when empty) and returns an anonymous view link. The
// remote file is created or overwritten.
func (c *Client) Upload(ctx context.Context, localPath, remoteName string) (string, error) {
	info, err := os.Stat(localPath)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", localPath, err)
	}
	if info.Size() == 0 {
		return "", fmt.Errorf("refusing to upload empty file %s", localPath)
	}
	if remoteName == "" {
		remoteName = filepath.Base(localPath)
	}

	var item driveItem
	if info.Size() <= simpleUploadLimit {
		item, err = c.uploadSmall(ctx, localPath, remoteName)
	} else {
		item, err = c.uploadSession(ctx, localPath, remoteName, info.Size())
	}
	if err != nil {
		return "", fmt.Errorf("uploading %s: %w", remoteName, err)
	}

	link, err := c.createLink(ctx, item.ID)
	if err != nil {
		return "", fmt.Errorf("creating share link for %s: %w", remoteName, err)
	}
	return link, nil
}

// uploadSmall puts the whole file in one request.
func (c *Client) uploadSmall(ctx context.Context, localPath, remoteName string) (driveItem, error) {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return driveItem{}, fmt.Errorf("reading %s: %w", localPath, err)
	}

	uploadURL := fmt.Sprintf("%s/me/drive/root:/%s:/content", c.baseURL, url.PathEscape(remoteName))
	req, err := http.NewRequest(http.MethodPut, uploadURL, bytes.NewReader(data))
	if err != nil {
		return driveItem{}, fmt.Errorf("creating upload request: %w", err)
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := httputil.DoWithRetry(ctx, c.httpClient, req, c.maxRetries)
	if err != nil {
		return driveItem{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return driveItem{}, statusError(resp)
	}

	var item driveItem
	if err := json.NewDecoder(resp.Body).Decode(&item); err != nil {
		return driveItem{}, fmt.Errorf("parsing upload response: %w", err)
	}
	return item, nil
}

// uploadSession streams the file through a Graph upload session in
// 3.2 MiB chunks. Each chunk is retried independently.
func (c *Client) uploadSession(ctx context.Context, localPath, remoteName string, size int64) (driveItem, error) {
	sessionURL, err := c.createUploadSession(ctx, remoteName)
	if err != nil {
		return driveItem{}, err
	}

	f, err := os.Open(localPath)
	if err != nil {
		return driveItem{}, fmt.Errorf("opening %s: %w", localPath, err)
	}
	defer f.Close()

	buf := make([]byte, sessionChunkSize)
	var item driveItem
	for offset := int64(0); offset < size; {
		n, err := io.ReadFull(f, buf)
		if err == io.ErrUnexpectedEOF || err == io.EOF {
			// final, short chunk
		} else if err != nil {
			return driveItem{}, fmt.Errorf("reading chunk at %d: %w", offset, err)
		}
		if n == 0 {
			break
		}
		chunk := buf[:n]

		req, err := http.NewRequest(http.MethodPut, sessionURL, bytes.NewReader(chunk))
		if err != nil {
			return driveItem{}, fmt.Errorf("creating chunk request: %w", err)
		}
		// The session URL is pre-authenticated; no bearer token here.
		req.Header.Set("Content-Range",
			fmt.Sprintf("bytes %d-%d/%d", offset, offset+int64(n)-1, size))
		if c.userAgent != "" {
			req.Header.Set("User-Agent", c.userAgent)
		}

		resp, err := httputil.DoWithRetry(ctx, c.httpClient, req, c.maxRetries)
		if err != nil {
			return driveItem{}, fmt.Errorf("chunk at %d: %w", offset, err)
		}

		switch resp.StatusCode {
		case http.StatusAccepted:
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
		case http.StatusOK, http.StatusCreated:
			decodeErr := json.NewDecoder(resp.Body).Decode(&item)
			resp.Body.Close()
			if decodeErr != nil {
				return driveItem{}, fmt.Errorf("parsing final chunk response: %w", decodeErr)
			}
		default:
			err := statusError(resp)
			resp.Body.Close()
			return driveItem{}, fmt.Errorf("chunk at %d: %w", offset, err)
		}

		offset += int64(n)
	}

	if item.ID == "" {
		return driveItem{}, fmt.Errorf("upload session finished without a drive item")
	}
	return item, nil
}

// createUploadSession opens a resumable upload session for remoteName,
// overwriting any existing item.
func (c *Client) createUploadSession(ctx context.Context, remoteName string) (string, error) {
	body, err := json.Marshal(map[string]any{
		"item": map[string]any{
			"@microsoft.graph.conflictBehavior": "replace",
		},
	})
	if err != nil {
		return "", fmt.Errorf("encoding session request: %w", err)
	}

	sessionURL := fmt.Sprintf("%s/me/drive/root:/%s:/createUploadSession", c.baseURL, url.PathEscape(remoteName))
	req, err := http.NewRequest(http.MethodPost, sessionURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating session request: %w", err)
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := httputil.DoWithRetry(ctx, c.httpClient, req, c.maxRetries)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", statusError(resp)
	}

	var session struct {
		UploadURL string `json:"uploadUrl"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return "", fmt.Errorf("parsing session response: %w", err)
	}
	if session.UploadURL == "" {
		return "", fmt.Errorf("upload session response had no uploadUrl")
	}
	return session.UploadURL, nil
}

// createLink asks Graph for an anonymous view link to the uploaded item.
func (c *Client) createLink(ctx context.Context, itemID string) (string, error) {
	body, err := json.Marshal(map[string]string{
		"type":  "view",
		"scope": "anonymous",
	})
	if err != nil {
		return "", fmt.Errorf("encoding link request: %w", err)
	}

	linkURL := fmt.Sprintf("%s/me/drive/items/%s/createLink", c.baseURL, url.PathEscape(itemID))
	req, err := http.NewRequest(http.MethodPost, linkURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating link request: %w", err)
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := httputil.DoWithRetry(ctx, c.httpClient, req, c.maxRetries)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", statusError(resp)
	}

	var link shareLink
	if err := json.NewDecoder(resp.Body).Decode(&link); err != nil {
		return "", fmt.Errorf("parsing link response: %w", err)
	}
	if link.Link.WebURL == "" {
		return "", fmt.Errorf("createLink response had no webUrl")
	}
	return link.Link.WebURL, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.token)
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
}

// statusError summarizes a non-success Graph response, including a snippet
// of the body, which carries the Graph error code.
func statusError(resp *http.Response) error {
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	msg := strings.TrimSpace(string(snippet))
	if msg == "" {
		return fmt.Errorf("graph API returned HTTP %d", resp.StatusCode)
	}
	return fmt.Errorf("graph API returned HTTP %d: %s", resp.StatusCode, msg)
}
