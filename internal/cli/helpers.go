package cli

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/helio-search/helio/internal/client"
	"github.com/helio-search/helio/internal/config"
	"github.com/helio-search/helio/internal/fetch"
	"github.com/helio-search/helio/internal/jsoc"
	"github.com/helio-search/helio/internal/ledger"
	"github.com/helio-search/helio/internal/parse"
	"github.com/helio-search/helio/internal/query"
	"github.com/helio-search/helio/internal/search"
	"github.com/helio-search/helio/internal/sources"
	"github.com/helio-search/helio/internal/ui"
	"github.com/helio-search/helio/internal/vso"
)

// newGrammar returns the query grammar with every client extension
// registered on top of the shared criterion keys.
func newGrammar() *parse.Grammar {
	g := parse.DefaultGrammar()
	sources.RegisterKeys(g)
	jsoc.RegisterKeys(g)
	return g
}

// parseQueryArgs joins the command arguments into one query string and
// parses it. A nil attr means the failure is already reported; callers
// return the error as is. In JSON mode the envelope details carry the
// byte offset of the failure.
func parseQueryArgs(args []string) (query.Attr, string, error) {
	input := strings.Join(args, " ")
	q, err := newGrammar().Query(input)
	if err == nil {
		return q, input, nil
	}

	const hint = "Run 'helio docs search-syntax' for the query grammar"
	var perr *parse.Error
	if errors.As(err, &perr) {
		return nil, input, handleErrorWithDetails(ErrQueryInvalid, err.Error(), hint,
			map[string]interface{}{"pos": perr.Pos})
	}
	return nil, input, handleError(ErrQueryInvalid, err, hint)
}

// newRegistry builds the archive client registry from config: the
// built-in sources first, then VSO and JSOC, minus disabled clients.
func newRegistry(cfg *config.Config) *client.Registry {
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout()}
	lister := fetch.NewHTTPLister(httpClient)

	registry := client.NewRegistry()
	for _, c := range sources.All(lister) {
		if cfg.ClientEnabled(c.Info().Name) {
			registry.Add(c)
		}
	}
	if cfg.ClientEnabled("VSO") {
		registry.Add(vso.New(vso.Options{Endpoint: cfg.VSO.Endpoint, HTTPClient: httpClient}))
	}
	if cfg.ClientEnabled("JSOC") {
		registry.Add(jsoc.New(jsoc.Options{Endpoint: cfg.JSOC.Endpoint, HTTPClient: httpClient}))
	}
	return registry
}

// openLedger opens the history ledger under the data directory. History
// is best-effort: on failure the CLI warns and runs without it.
func openLedger() *ledger.Ledger {
	led, err := ledger.Open(getDataDir())
	if err != nil {
		if !isJSONOutput() {
			fmt.Fprintln(os.Stderr, ui.Warningf("history disabled: %v", err))
		}
		return nil
	}
	return led
}

// recordSearch stores the outcome of one search. A nil ledger or a
// write failure costs only the history entry, never the results.
func recordSearch(led *ledger.Ledger, input string, resp *search.Response) string {
	if led == nil {
		return ""
	}
	outcomes := make([]ledger.BranchOutcome, 0, len(resp.Branches))
	for _, b := range resp.Branches {
		o := ledger.BranchOutcome{
			Branch:  b.Branch.String(),
			Client:  b.Client,
			Records: len(b.Records),
		}
		if b.Err != nil {
			o.Err = b.Err.Error()
		}
		outcomes = append(outcomes, o)
	}
	id, err := led.RecordSearch(input, outcomes)
	if err != nil {
		if !isJSONOutput() {
			fmt.Fprintln(os.Stderr, ui.Warningf("history not recorded: %v", err))
		}
		return ""
	}
	return id
}

func formatRecords(records []client.Record) []map[string]interface{} {
	formatted := make([]map[string]interface{}, len(records))
	for i, rec := range records {
		row := map[string]interface{}{
			"start":      rec.Start.UTC().Format(time.RFC3339),
			"end":        rec.End.UTC().Format(time.RFC3339),
			"instrument": rec.Instrument,
			"source":     rec.Source,
			"provider":   rec.Provider,
			"physobs":    rec.Physobs,
			"wavelength": rec.Wavelength,
			"url":        rec.URL,
			"client":     rec.Client,
		}
		if len(rec.Extra) > 0 {
			row["extra"] = rec.Extra
		}
		formatted[i] = row
	}
	return formatted
}

// formatBytes renders a byte count for summary lines, e.g. "1.2 MB".
func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}
