// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch discovers and downloads regulator filings from the SEBI
// website: paginated listing pages per category, PDF links resolved through
// intermediate HTML pages where needed, a CSV manifest, and per-file
// download metadata sidecars.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/pdiddy/clientdocs/internal/httputil"
	"github.com/pdiddy/clientdocs/pkg/types"
)

const (
	siteBase   = "https://www.sebi.gov.in"
	listingSel = "table#sample_1"
)

// Categories maps filing section names to their listing URLs.
var Categories = map[string]string{
	"Legal":                siteBase + "/sebiweb/home/HomeAction.do?doListingLegal=yes&sid=1&ssid=2&smid=0",
	"Rules":                siteBase + "/sebiweb/home/HomeAction.do?doListing=yes&sid=1&ssid=2&smid=0",
	"Regulations":          siteBase + "/sebiweb/home/HomeAction.do?doListing=yes&sid=1&ssid=3&smid=0",
	"Advisory":             siteBase + "/sebiweb/home/HomeAction.do?doListing=yes&sid=1&ssid=96&smid=0",
	"Circulars":            siteBase + "/sebiweb/home/HomeAction.do?doListing=yes&sid=1&ssid=7&smid=0",
	"Master Circulars":     siteBase + "/sebiweb/home/HomeAction.do?doListing=yes&sid=1&ssid=6&smid=0",
	"Guidelines":           siteBase + "/sebiweb/home/HomeAction.do?doListing=yes&sid=1&ssid=85&smid=0",
	"Gazette Notification": siteBase + "/sebiweb/home/HomeAction.do?doListing=yes&sid=1&ssid=82&smid=0",
}

// issueDateFormats are the date layouts seen across listing sections.
var issueDateFormats = []string{
	"02-01-2006",
	"2006-01-02",
	"02/01/2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2006",
}

var (
	entriesRe   = regexp.MustCompile(`of (\d+) entries`)
	attachdocRe = regexp.MustCompile(`/?sebi_data/attachdocs/[^"']+\.pdf`)
)

// Scraper walks the paginated listing pages of one or more categories.
type Scraper struct {
	client  *http.Client
	cfg     types.FetchConfig
	baseURL string
}

// NewScraper returns a Scraper using client. Zero config fields get
// defaults: page size 10, request delay 2s.
func NewScraper(client *http.Client, cfg types.FetchConfig) *Scraper {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 10
	}
	if cfg.RequestDelay <= 0 {
		cfg.RequestDelay = 2 * time.Second
	}
	return &Scraper{client: client, cfg: cfg, baseURL: siteBase}
}

// Category scrapes every listing page of one category and returns the
// filings issued on or after the configured cutoff. seen deduplicates PDF
// URLs across categories.
func (s *Scraper) Category(ctx context.Context, name, listingURL string, seen map[string]bool, w io.Writer) ([]types.Filing, error) {
	firstURL, err := paginatedURL(listingURL, 1, s.cfg.PageSize)
	if err != nil {
		return nil, fmt.Errorf("building listing URL: %w", err)
	}
	doc, err := s.getDocument(ctx, firstURL)
	if err != nil {
		return nil, fmt.Errorf("fetching first page of %s: %w", name, err)
	}
	total := totalPages(doc, s.cfg.PageSize)

	var filings []types.Filing
	for page := 1; page <= total; page++ {
		if page > 1 {
			select {
			case <-ctx.Done():
				return filings, ctx.Err()
			case <-time.After(s.cfg.RequestDelay):
			}

			pageURL, err := paginatedURL(listingURL, page, s.cfg.PageSize)
			if err != nil {
				return filings, fmt.Errorf("building page %d URL: %w", page, err)
			}
			doc, err = s.getDocument(ctx, pageURL)
			if err != nil {
				fmt.Fprintf(w, "warning: page %d of %s: %v\n", page, name, err)
				continue
			}
		}
		fmt.Fprintf(w, "scraping page %d/%d of %s\n", page, total, name)

		rows := doc.Find(listingSel + " tr")
		if rows.Length() <= 1 {
			break
		}

		rows.Each(func(i int, row *goquery.Selection) {
			if i == 0 {
				return // header row
			}
			cols := row.Find("td")
			if cols.Length() < 2 {
				return
			}

			issueDate := strings.TrimSpace(cols.Eq(0).Text())
			if !s.afterCutoff(issueDate, w) {
				return
			}

			title := strings.TrimSpace(cols.Eq(1).Text())
			href, ok := cols.Eq(1).Find("a").Attr("href")
			if !ok {
				return
			}

			pdfURL := s.resolveEntry(ctx, href, w)
			if pdfURL == "" || seen[pdfURL] {
				return
			}
			seen[pdfURL] = true

			filings = append(filings, types.Filing{
				Category:  name,
				Title:     title,
				IssueDate: issueDate,
				PDFURL:    pdfURL,
			})
		})
	}

	return filings, nil
}

// resolveEntry turns a listing link into a direct PDF URL. HTML links are
// fetched and searched for the embedded PDF.
func (s *Scraper) resolveEntry(ctx context.Context, href string, w io.Writer) string {
	abs := s.absoluteURL(href)
	switch {
	case strings.HasSuffix(abs, ".pdf"):
		return abs
	case strings.HasSuffix(abs, ".html"):
		pdfURL, err := s.pdfFromPage(ctx, abs)
		if err != nil {
			fmt.Fprintf(w, "warning: resolving %s: %v\n", abs, err)
			return ""
		}
		return pdfURL
	default:
		return ""
	}
}

// pdfFromPage extracts the PDF URL embedded in a filing's HTML page: an
// iframe viewer ("file=" parameter), a direct .pdf anchor, or an attachdocs
// path in the raw markup.
func (s *Scraper) pdfFromPage(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequest(http.MethodGet, pageURL, nil)
	if err != nil {
		return "", err
	}
	s.setHeaders(req)

	resp, err := httputil.DoWithRetry(ctx, s.client, req, s.cfg.MaxRetries)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d from %s", resp.StatusCode, pageURL)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return "", fmt.Errorf("parsing %s: %w", pageURL, err)
	}

	if src, ok := doc.Find("iframe").Attr("src"); ok {
		if i := strings.LastIndex(src, "file="); i >= 0 {
			return s.absoluteURL(src[i+len("file="):]), nil
		}
		if strings.HasSuffix(src, ".pdf") {
			return s.absoluteURL(src), nil
		}
	}

	var anchorURL string
	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		if strings.HasSuffix(href, ".pdf") {
			anchorURL = s.absoluteURL(href)
			return false
		}
		return true
	})
	if anchorURL != "" {
		return anchorURL, nil
	}

	if m := attachdocRe.FindString(string(body)); m != "" {
		return s.absoluteURL(m), nil
	}

	return "", fmt.Errorf("no PDF found in %s", pageURL)
}

// afterCutoff reports whether a listing date string passes the cutoff.
// Unparseable dates are included, with a warning.
func (s *Scraper) afterCutoff(dateStr string, w io.Writer) bool {
	if s.cfg.Cutoff.IsZero() {
		return true
	}
	t, ok := parseIssueDate(dateStr)
	if !ok {
		fmt.Fprintf(w, "warning: could not parse date %q\n", dateStr)
		return true
	}
	return !t.Before(s.cfg.Cutoff)
}

func (s *Scraper) getDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequest(http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	s.setHeaders(req)

	resp, err := httputil.DoWithRetry(ctx, s.client, req, s.cfg.MaxRetries)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d from %s", resp.StatusCode, pageURL)
	}

	return goquery.NewDocumentFromReader(resp.Body)
}

func (s *Scraper) setHeaders(req *http.Request) {
	if s.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", s.cfg.UserAgent)
	}
}

// absoluteURL resolves a possibly relative link against the site base.
func (s *Scraper) absoluteURL(href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "http") {
		return href
	}
	if !strings.HasPrefix(href, "/") {
		href = "/" + href
	}
	return s.baseURL + href
}

// paginatedURL adds the server-side pagination parameters to a listing URL.
func paginatedURL(listingURL string, page, pageSize int) (string, error) {
	u, err := url.Parse(listingURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("start", strconv.Itoa((page-1)*pageSize))
	q.Set("length", strconv.Itoa(pageSize))
	q.Set("bm", "normal")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// totalPages reads the listing's "Showing 1 to 10 of N entries" counter.
// A missing counter means a single page.
func totalPages(doc *goquery.Document, pageSize int) int {
	text := doc.Find("div.dataTables_info").Text()
	m := entriesRe.FindStringSubmatch(text)
	if m == nil {
		return 1
	}
	total, err := strconv.Atoi(m[1])
	if err != nil || total <= 0 {
		return 1
	}
	return (total + pageSize - 1) / pageSize
}

// parseIssueDate tries the known listing date layouts. A bare year is
// pinned to January 1st.
func parseIssueDate(dateStr string) (time.Time, bool) {
	dateStr = strings.TrimSpace(dateStr)
	for _, layout := range issueDateFormats {
		t, err := time.Parse(layout, dateStr)
		if err != nil {
			continue
		}
		return t, true
	}
	return time.Time{}, false
}
