package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/helio-search/helio/internal/config"
	"github.com/helio-search/helio/internal/ledger"
)

func setupFetchGlobals(t *testing.T, c *config.Config) (dataDir, downloadDir string) {
	t.Helper()

	prevCfg := cfg
	prevDataDir := resolvedDataDir
	prevJSON := jsonOutput
	prevDir := fetchDir
	prevJobs := fetchJobs
	t.Cleanup(func() {
		cfg = prevCfg
		resolvedDataDir = prevDataDir
		jsonOutput = prevJSON
		fetchDir = prevDir
		fetchJobs = prevJobs
	})

	dataDir = t.TempDir()
	downloadDir = t.TempDir()
	cfg = c
	resolvedDataDir = dataDir
	jsonOutput = true
	fetchDir = downloadDir
	fetchJobs = 0
	fetchCmd.SetContext(context.Background())
	return dataDir, downloadDir
}

// fetchArchiveServers stands up a file host and a search endpoint whose
// records point at it.
func fetchArchiveServers(t *testing.T, fileStatus int) (search, files *httptest.Server) {
	t.Helper()

	files = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fileStatus != http.StatusOK {
			http.Error(w, "unavailable", fileStatus)
			return
		}
		switch r.URL.Path {
		case "/aia_1.fits":
			_, _ = w.Write([]byte("payload-one\n"))
		case "/aia_2.fits":
			_, _ = w.Write([]byte("payload-two-longer\n"))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(files.Close)

	search = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"records": [
			{"start": "20110607000000", "end": "20110607000012", "instrument": "AIA",
			 "source": "SDO", "provider": "JSOC", "physobs": "intensity",
			 "fileid": "aia_171_1", "url": "%s/aia_1.fits"},
			{"start": "20110607001200", "end": "20110607001212", "instrument": "AIA",
			 "source": "SDO", "provider": "JSOC", "physobs": "intensity",
			 "fileid": "aia_171_2", "url": "%s/aia_2.fits"}
		]}`, files.URL, files.URL)
	}))
	t.Cleanup(search.Close)
	return search, files
}

type fetchEnvelope struct {
	OK   bool `json:"ok"`
	Data struct {
		Query string `json:"query"`
		Dir   string `json:"dir"`
		Bytes int64  `json:"bytes"`
		Files []struct {
			URL     string `json:"url"`
			Path    string `json:"path"`
			Size    int64  `json:"size"`
			Skipped bool   `json:"skipped"`
			Error   string `json:"error"`
		} `json:"files"`
	} `json:"data"`
	Error    *ErrorInfo `json:"error"`
	Warnings []Warning  `json:"warnings"`
	Meta     *Meta      `json:"meta"`
}

func TestFetchCommandDownloadsSearchResults(t *testing.T) {
	searchSrv, _ := fetchArchiveServers(t, http.StatusOK)
	dataDir, downloadDir := setupFetchGlobals(t, &config.Config{
		VSO: config.EndpointConfig{Endpoint: searchSrv.URL},
	})

	// Only the federation accepts a bare time query, so nothing else is
	// contacted.
	out := captureStdout(t, func() {
		if err := fetchCmd.RunE(fetchCmd, []string{"time:2011-06-07"}); err != nil {
			t.Fatalf("fetchCmd.RunE: %v", err)
		}
	})

	var resp fetchEnvelope
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("parse output: %v; out=%s", err, out)
	}
	if !resp.OK {
		t.Fatalf("expected ok=true; out=%s", out)
	}
	if resp.Data.Dir != downloadDir {
		t.Errorf("dir = %q, want %q", resp.Data.Dir, downloadDir)
	}
	if len(resp.Data.Files) != 2 {
		t.Fatalf("len(files) = %d, want 2", len(resp.Data.Files))
	}
	wantBytes := int64(len("payload-one\n") + len("payload-two-longer\n"))
	if resp.Data.Bytes != wantBytes {
		t.Errorf("bytes = %d, want %d", resp.Data.Bytes, wantBytes)
	}
	for _, f := range resp.Data.Files {
		if f.Error != "" || f.Skipped {
			t.Errorf("file %s: error=%q skipped=%t, want a fresh download", f.URL, f.Error, f.Skipped)
		}
	}
	if resp.Meta == nil || resp.Meta.Count != 2 {
		t.Errorf("meta = %+v, want count 2", resp.Meta)
	}

	// Files land under <dir>/<instrument-slug>/.
	onDisk := filepath.Join(downloadDir, "aia", "aia_1.fits")
	content, err := os.ReadFile(onDisk)
	if err != nil {
		t.Fatalf("read downloaded file: %v", err)
	}
	if string(content) != "payload-one\n" {
		t.Errorf("file content = %q, want the served payload", content)
	}

	// The ledger remembers every download.
	led, err := ledger.Open(dataDir)
	if err != nil {
		t.Fatalf("ledger.Open: %v", err)
	}
	defer led.Close()
	if path, ok, err := led.Fetched(resp.Data.Files[0].URL); err != nil || !ok || path != resp.Data.Files[0].Path {
		t.Errorf("Fetched(%s) = %q, %t, %v; want the recorded path", resp.Data.Files[0].URL, path, ok, err)
	}

	// A second fetch of the same query skips everything.
	out = captureStdout(t, func() {
		if err := fetchCmd.RunE(fetchCmd, []string{"time:2011-06-07"}); err != nil {
			t.Fatalf("fetchCmd.RunE (second): %v", err)
		}
	})
	var again fetchEnvelope
	if err := json.Unmarshal([]byte(out), &again); err != nil {
		t.Fatalf("parse second output: %v; out=%s", err, out)
	}
	if again.Data.Bytes != 0 {
		t.Errorf("second fetch bytes = %d, want 0", again.Data.Bytes)
	}
	for _, f := range again.Data.Files {
		if !f.Skipped {
			t.Errorf("file %s not skipped on refetch", f.URL)
		}
	}
}

func TestFetchCommandAllDownloadsFailed(t *testing.T) {
	searchSrv, _ := fetchArchiveServers(t, http.StatusInternalServerError)
	setupFetchGlobals(t, &config.Config{
		VSO: config.EndpointConfig{Endpoint: searchSrv.URL},
	})

	out := captureStdout(t, func() {
		if err := fetchCmd.RunE(fetchCmd, []string{"time:2011-06-07"}); err != nil {
			t.Fatalf("expected JSON error envelope, got Go error: %v", err)
		}
	})

	var resp fetchEnvelope
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("parse output: %v; out=%s", err, out)
	}
	if resp.OK {
		t.Fatalf("expected ok=false when every download fails; out=%s", out)
	}
	if resp.Error == nil || resp.Error.Code != ErrFetchFailed {
		t.Fatalf("error = %+v, want code %s", resp.Error, ErrFetchFailed)
	}
	if resp.Error.Details == nil {
		t.Error("expected per-file failures in error details")
	}
}

func TestFetchCommandNoRetrievableFiles(t *testing.T) {
	searchSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"records": [
			{"start": "20110607000000", "end": "20110607000012", "instrument": "AIA",
			 "source": "SDO", "provider": "JSOC", "physobs": "intensity", "url": ""}
		]}`))
	}))
	t.Cleanup(searchSrv.Close)
	setupFetchGlobals(t, &config.Config{
		VSO: config.EndpointConfig{Endpoint: searchSrv.URL},
	})

	out := captureStdout(t, func() {
		if err := fetchCmd.RunE(fetchCmd, []string{"time:2011-06-07"}); err != nil {
			t.Fatalf("fetchCmd.RunE: %v", err)
		}
	})

	var resp fetchEnvelope
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("parse output: %v; out=%s", err, out)
	}
	if !resp.OK {
		t.Fatalf("expected ok=true with zero files; out=%s", out)
	}
	if len(resp.Data.Files) != 0 {
		t.Errorf("len(files) = %d, want 0", len(resp.Data.Files))
	}
	foundNoURL := false
	for _, w := range resp.Warnings {
		if w.Code == WarnNoURL {
			foundNoURL = true
		}
	}
	if !foundNoURL {
		t.Errorf("warnings = %v, want a %s warning", resp.Warnings, WarnNoURL)
	}
}
