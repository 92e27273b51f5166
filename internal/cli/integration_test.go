//go:build integration

package cli_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/helio-search/helio/internal/testutil"
)

// startArchive stands up a fake federation endpoint plus a file host and
// builds an environment whose config points helio at them.
func startArchive(t *testing.T) (*testutil.TestEnv, *httptest.Server) {
	t.Helper()

	files := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
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

	vso := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"records": [
			{"start": "20110607000000", "end": "20110607000012", "instrument": "AIA",
			 "source": "SDO", "provider": "JSOC", "physobs": "intensity",
			 "wavemin": 171, "wavemax": 171, "waveunit": "Angstrom",
			 "fileid": "aia_171_1", "url": "%s/aia_1.fits"},
			{"start": "20110607001200", "end": "20110607001212", "instrument": "AIA",
			 "source": "SDO", "provider": "JSOC", "physobs": "intensity",
			 "wavemin": 171, "wavemax": 171, "waveunit": "Angstrom",
			 "fileid": "aia_171_2", "url": "%s/aia_2.fits"}
		]}`, files.URL, files.URL)
	}))
	t.Cleanup(vso.Close)

	env := testutil.NewTestEnv(t).
		WithConfig(fmt.Sprintf("[vso]\nendpoint = %q\n", vso.URL)).
		Build()
	return env, files
}

// TestIntegration_SearchRecordsHistory runs a search against the fake
// federation and checks it lands in history.
func TestIntegration_SearchRecordsHistory(t *testing.T) {
	env, _ := startArchive(t)

	result := env.RunCLI("search", "time:2011-06-07 wavelength:171")
	result.MustSucceed(t)
	result.AssertResultCount(t, "records", 2)
	if got := result.DataInt("total"); got != 2 {
		t.Errorf("total = %d, want 2", got)
	}
	searchID := result.DataString("search_id")
	if searchID == "" {
		t.Fatalf("expected a search_id\nRaw: %s", result.RawJSON)
	}
	rec := result.DataList("records")[0].(map[string]interface{})
	if rec["instrument"] != "AIA" || rec["client"] != "VSO" {
		t.Errorf("record = %v, want an AIA record from VSO", rec)
	}

	history := env.RunCLI("history")
	history.MustSucceed(t)
	history.AssertResultCount(t, "searches", 1)
	entry := history.DataList("searches")[0].(map[string]interface{})
	if entry["id"] != searchID {
		t.Errorf("history id = %v, want %s", entry["id"], searchID)
	}

	show := env.RunCLI("history", "show", "1")
	show.MustSucceed(t)
	branches := show.DataList("branches")
	if len(branches) != 1 {
		t.Fatalf("len(branches) = %d, want 1\nRaw: %s", len(branches), show.RawJSON)
	}
	branch := branches[0].(map[string]interface{})
	if branch["client"] != "VSO" {
		t.Errorf("branch client = %v, want VSO", branch["client"])
	}
}

// TestIntegration_FetchDownloadsAndSkips downloads the search results,
// then refetches and expects everything to be skipped.
func TestIntegration_FetchDownloadsAndSkips(t *testing.T) {
	env, _ := startArchive(t)

	result := env.RunCLI("fetch", "time:2011-06-07")
	result.MustSucceed(t)
	result.AssertResultCount(t, "files", 2)
	if got := result.DataString("dir"); got != env.DownloadDir() {
		t.Errorf("dir = %q, want %q", got, env.DownloadDir())
	}
	env.AssertFileExists(filepath.Join("data", "files", "aia", "aia_1.fits"))
	env.AssertFileContains(filepath.Join("data", "files", "aia", "aia_1.fits"), "payload-one")

	again := env.RunCLI("fetch", "time:2011-06-07")
	again.MustSucceed(t)
	if got := again.DataInt("bytes"); got != 0 {
		t.Errorf("refetch bytes = %d, want 0", got)
	}
	for _, f := range again.DataList("files") {
		file := f.(map[string]interface{})
		if file["skipped"] != true {
			t.Errorf("file %v not skipped on refetch", file["url"])
		}
	}
}

// TestIntegration_QueryErrors checks the stable error codes agents rely
// on.
func TestIntegration_QueryErrors(t *testing.T) {
	env := testutil.NewTestEnv(t).Build()

	env.RunCLI("search", "orbit:low").MustFail(t, "QUERY_INVALID")
	env.RunCLI("search", "--client", "nonesuch", "time:2011-06-07").MustFail(t, "INVALID_INPUT")
	// Without a time criterion no archive client accepts the query.
	env.RunCLI("search", "instrument:aia").MustFail(t, "NO_CLIENT")
}

// TestIntegration_ClientListings exercises clients and attrs, including
// the disabled_clients config knob.
func TestIntegration_ClientListings(t *testing.T) {
	env := testutil.NewTestEnv(t).Build()

	clients := env.RunCLI("clients")
	clients.MustSucceed(t)
	names := map[string]bool{}
	for _, c := range clients.DataList("clients") {
		names[c.(map[string]interface{})["name"].(string)] = true
	}
	for _, want := range []string{"EVE", "XRS", "VSO", "JSOC"} {
		if !names[want] {
			t.Errorf("clients missing %s\nRaw: %s", want, clients.RawJSON)
		}
	}

	trimmed := testutil.NewTestEnv(t).
		WithConfig("disabled_clients = [\"vso\", \"jsoc\"]\n").
		Build()
	clients = trimmed.RunCLI("clients")
	clients.MustSucceed(t)
	for _, c := range clients.DataList("clients") {
		name := c.(map[string]interface{})["name"].(string)
		if name == "VSO" || name == "JSOC" {
			t.Errorf("disabled client %s still listed", name)
		}
	}

	attrs := env.RunCLI("attrs", "instrument")
	attrs.MustSucceed(t)
	criteria, ok := attrs.Data["criteria"].(map[string]interface{})
	if !ok {
		t.Fatalf("no criteria in attrs output\nRaw: %s", attrs.RawJSON)
	}
	values, ok := criteria["instrument"].([]interface{})
	if !ok || len(values) == 0 {
		t.Fatalf("no instrument values\nRaw: %s", attrs.RawJSON)
	}

	env.RunCLI("attrs", "orbit").MustFail(t, "INVALID_INPUT")
}

// TestIntegration_DocsAndVersion smoke-tests the informational commands.
func TestIntegration_DocsAndVersion(t *testing.T) {
	env := testutil.NewTestEnv(t).Build()

	docs := env.RunCLI("docs")
	docs.MustSucceed(t)
	docs.AssertResultCount(t, "topics", 3)

	guide := env.RunCLI("docs", "search-syntax")
	guide.MustSucceed(t)
	if guide.DataString("topic") != "search-syntax" {
		t.Errorf("topic = %q, want search-syntax", guide.DataString("topic"))
	}

	env.RunCLI("docs", "nonesuch").MustFail(t, "TOPIC_NOT_FOUND")

	version := env.RunCLI("version")
	version.MustSucceed(t)
	if version.DataString("version") == "" {
		t.Errorf("expected a version\nRaw: %s", version.RawJSON)
	}
}

// TestIntegration_ConfigLifecycle covers config show and init.
func TestIntegration_ConfigLifecycle(t *testing.T) {
	env := testutil.NewTestEnv(t).
		WithConfig("parallel = 2\n").
		Build()

	show := env.RunCLI("config")
	show.MustSucceed(t)
	if show.Data["exists"] != true {
		t.Errorf("exists = %v, want true\nRaw: %s", show.Data["exists"], show.RawJSON)
	}
	if got := show.DataInt("parallel"); got != 2 {
		t.Errorf("parallel = %d, want 2", got)
	}

	// init leaves an existing file alone.
	existing := env.RunCLI("config", "init")
	existing.MustSucceed(t)
	if existing.Data["created"] != false {
		t.Errorf("created = %v, want false", existing.Data["created"])
	}
	env.AssertFileContains("config.toml", "parallel = 2")

	// A fresh path gets the commented template.
	if err := os.Remove(env.ConfigPath); err != nil {
		t.Fatalf("remove config: %v", err)
	}
	created := env.RunCLI("config", "init")
	created.MustSucceed(t)
	if created.Data["created"] != true {
		t.Errorf("created = %v, want true", created.Data["created"])
	}
	env.AssertFileContains("config.toml", "# helio configuration")
}
