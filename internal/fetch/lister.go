package fetch

import (
	"context"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
)

const listTimeout = 60 * time.Second

// Directory listing pages should never approach this.
const maxListingBytes = 8 << 20

var hrefPattern = regexp.MustCompile(`(?i)href="([^"]+)"`)

// HTTPLister enumerates archive directory pages over HTTP. It scans
// anchor hrefs, which is how these plain-index archives are meant to be
// walked.
type HTTPLister struct {
	http *http.Client
}

// NewHTTPLister builds a lister. A nil client gets a default with a
// listing timeout.
func NewHTTPLister(client *http.Client) *HTTPLister {
	if client == nil {
		client = &http.Client{Timeout: listTimeout}
	}
	return &HTTPLister{http: client}
}

// List returns the absolute file URLs directly under dir. A missing
// directory means no files, not a failure. Archives are sparse.
func (l *HTTPLister) List(ctx context.Context, dir string) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, dir, nil)
	if err != nil {
		return nil, fmt.Errorf("build listing request: %w", err)
	}
	resp, err := l.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list %s: status %d", dir, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxListingBytes))
	if err != nil {
		return nil, fmt.Errorf("read listing %s: %w", dir, err)
	}

	base, err := url.Parse(dir)
	if err != nil {
		return nil, fmt.Errorf("bad directory URL %q: %w", dir, err)
	}
	prefix := strings.TrimSuffix(base.String(), "/") + "/"

	var out []string
	for _, m := range hrefPattern.FindAllStringSubmatch(string(body), -1) {
		href := html.UnescapeString(m[1])
		if href == "" || strings.HasPrefix(href, "?") || strings.HasPrefix(href, "#") {
			continue
		}
		ref, err := url.Parse(href)
		if err != nil {
			continue
		}
		u := base.ResolveReference(ref)
		u.RawQuery = ""
		u.Fragment = ""
		abs := u.String()

		// Keep plain files under dir. Sort lines, parent links and
		// subdirectories all fall out here.
		if strings.HasSuffix(abs, "/") || !strings.HasPrefix(abs, prefix) {
			continue
		}
		out = append(out, abs)
	}
	return out, nil
}
