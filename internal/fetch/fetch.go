// Package fetch downloads the files behind search records and lists
// archive directories for the scraper sources.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gosimple/slug"
	"golang.org/x/sync/errgroup"

	"github.com/helio-search/helio/internal/atomicfile"
	"github.com/helio-search/helio/internal/client"
)

const (
	downloadTimeout = 15 * time.Minute
	defaultParallel = 4
)

// Ledger is the subset of the history store the downloader needs. A nil
// Ledger disables skip-existing and recording.
type Ledger interface {
	Fetched(url string) (string, bool, error)
	RecordFetch(url, path string, size int64) error
}

// Options configures a Downloader.
type Options struct {
	// Dir is the directory downloads land in.
	Dir string
	// Parallel bounds concurrent downloads. Zero means a default.
	Parallel int
	// HTTPClient overrides the default client, mainly for tests.
	HTTPClient *http.Client
	// Ledger records completed downloads and answers skip checks.
	Ledger Ledger
}

// Downloader fetches record files into a local directory tree.
type Downloader struct {
	dir      string
	parallel int
	http     *http.Client
	ledger   Ledger
}

// New builds a Downloader from opts.
func New(opts Options) *Downloader {
	d := &Downloader{
		dir:      strings.TrimSpace(opts.Dir),
		parallel: opts.Parallel,
		http:     opts.HTTPClient,
		ledger:   opts.Ledger,
	}
	if d.parallel <= 0 {
		d.parallel = defaultParallel
	}
	if d.http == nil {
		d.http = &http.Client{Timeout: downloadTimeout}
	}
	return d
}

// Result is the outcome for one record.
type Result struct {
	URL     string
	Path    string
	Size    int64
	Skipped bool
	Err     error
}

// Summary holds per-record outcomes in record order.
type Summary struct {
	Results []Result
}

// Paths returns the local files in record order, skipped ones included.
func (s *Summary) Paths() []string {
	var out []string
	for _, r := range s.Results {
		if r.Err == nil {
			out = append(out, r.Path)
		}
	}
	return out
}

// Errs returns the failures in record order.
func (s *Summary) Errs() []error {
	var out []error
	for _, r := range s.Results {
		if r.Err != nil {
			out = append(out, r.Err)
		}
	}
	return out
}

// Bytes returns the total bytes written, skipped files excluded.
func (s *Summary) Bytes() int64 {
	var n int64
	for _, r := range s.Results {
		if r.Err == nil && !r.Skipped {
			n += r.Size
		}
	}
	return n
}

// Fetch downloads every record's file. Failures land in their result
// slot instead of aborting the batch. Records sharing a URL download
// once; the rest are marked skipped.
func (d *Downloader) Fetch(ctx context.Context, records []client.Record) (*Summary, error) {
	if d.dir == "" {
		return nil, errors.New("download directory is required")
	}
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create download directory: %w", err)
	}

	sum := &Summary{Results: make([]Result, len(records))}

	seen := make(map[string]int, len(records))
	dups := make(map[int]int)
	var g errgroup.Group
	g.SetLimit(d.parallel)
	for i, rec := range records {
		slot := &sum.Results[i]
		slot.URL = rec.URL

		if rec.URL == "" {
			slot.Err = errors.New("record has no download URL")
			continue
		}
		if first, dup := seen[rec.URL]; dup {
			dups[i] = first
			continue
		}
		seen[rec.URL] = i

		dest, err := d.destination(rec)
		if err != nil {
			slot.Err = err
			continue
		}
		slot.Path = dest

		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				slot.Err = err
				return nil
			}
			slot.Size, slot.Skipped, slot.Err = d.fetchOne(ctx, rec.URL, dest)
			return nil
		})
	}
	// Every task owns its slot, so Wait only synchronizes.
	_ = g.Wait()

	// Duplicates share the first occurrence's outcome.
	for i, first := range dups {
		sum.Results[i].Path = sum.Results[first].Path
		sum.Results[i].Err = sum.Results[first].Err
		sum.Results[i].Skipped = sum.Results[first].Err == nil
	}
	return sum, nil
}

// destination maps a record to <dir>/<instrument-slug>/<basename>.
func (d *Downloader) destination(rec client.Record) (string, error) {
	u, err := url.Parse(rec.URL)
	if err != nil {
		return "", fmt.Errorf("bad record URL %q: %w", rec.URL, err)
	}
	base := path.Base(u.Path)
	if base == "" || base == "." || base == "/" {
		return "", fmt.Errorf("no file name in %q", rec.URL)
	}

	sub := slug.Make(rec.Instrument)
	if sub == "" {
		sub = "misc"
	}
	return filepath.Join(d.dir, sub, base), nil
}

func (d *Downloader) fetchOne(ctx context.Context, fileURL, dest string) (int64, bool, error) {
	if d.ledger != nil {
		prior, ok, err := d.ledger.Fetched(fileURL)
		if err != nil {
			return 0, false, fmt.Errorf("check fetch history: %w", err)
		}
		if ok {
			// Re-download if the recorded file is gone.
			if st, statErr := os.Stat(prior); statErr == nil {
				return st.Size(), true, nil
			}
		}
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return 0, false, fmt.Errorf("create instrument directory: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return 0, false, fmt.Errorf("build download request: %w", err)
	}
	resp, err := d.http.Do(req)
	if err != nil {
		return 0, false, fmt.Errorf("download %s: %w", fileURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, false, fmt.Errorf("download %s: status %d", fileURL, resp.StatusCode)
	}

	n, err := atomicfile.WriteReader(dest, resp.Body, 0o644)
	if err != nil {
		return n, false, fmt.Errorf("write %s: %w", dest, err)
	}

	if d.ledger != nil {
		if err := d.ledger.RecordFetch(fileURL, dest, n); err != nil {
			return n, false, fmt.Errorf("record fetch: %w", err)
		}
	}
	return n, false, nil
}
