package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/helio-search/helio/internal/client"
	"github.com/helio-search/helio/internal/fetch"
	"github.com/helio-search/helio/internal/search"
	"github.com/helio-search/helio/internal/ui"
)

var (
	fetchDir  string
	fetchJobs int
)

var fetchCmd = &cobra.Command{
	Use:   "fetch <query>",
	Short: "Search the archives and download the result files",
	Long: `Search the archives, then download every distinct file the search
returned. Files land under the download directory in one folder per
instrument, and files already on disk from an earlier fetch are skipped.

  helio fetch "time:2011-06-07 instrument:aia wavelength:171" --dir ./data`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		q, input, err := parseQueryArgs(args)
		if q == nil {
			return err
		}

		cfg := getConfig()
		svc := search.New(newRegistry(cfg), search.Options{Parallel: cfg.Parallel})

		var spinner *ui.Spinner
		if !jsonOutput {
			spinner = ui.NewSpinner("Searching archives")
			spinner.Start()
		}
		resp, err := svc.Search(cmd.Context(), q)
		if spinner != nil {
			spinner.Stop()
		}
		if err != nil {
			return handleError(ErrQueryInvalid, err, "")
		}

		led := openLedger()
		if led != nil {
			defer led.Close()
		}
		recordSearch(led, input, resp)

		if allBranchesFailed(resp) {
			return handleErrorWithDetails(ErrSearchFailed,
				"every archive search failed: "+joinBranchErrors(resp), "", branchWarnings(resp))
		}
		if !jsonOutput {
			for _, b := range resp.Branches {
				if b.Err != nil {
					fmt.Fprintln(os.Stderr, ui.Warningf("%v", b.Err))
				}
			}
		}

		records, withoutURL := downloadable(resp.Records())
		if !jsonOutput && withoutURL > 0 {
			fmt.Fprintln(os.Stderr, ui.Warningf("%d %s carry no file URL and were skipped",
				withoutURL, plural(withoutURL, "record", "records")))
		}
		if len(records) == 0 {
			if isJSONOutput() {
				outputSuccessWithWarnings(map[string]interface{}{
					"query": input,
					"files": []interface{}{},
				}, append(branchWarnings(resp), noURLWarnings(withoutURL)...), nil)
				return nil
			}
			fmt.Printf("No files to fetch for: %s\n", input)
			return nil
		}

		// Download directory precedence: --dir flag, then download_dir
		// from config, then files/ under the data directory.
		dir := fetchDir
		if dir == "" {
			if cfg.DownloadDir != "" {
				dir = cfg.DownloadDirPath()
			} else {
				dir = filepath.Join(getDataDir(), "files")
			}
		}
		jobs := fetchJobs
		if jobs <= 0 {
			jobs = cfg.Parallel
		}

		// The ledger interface value must stay nil when the ledger is
		// unavailable; a typed nil would still be consulted.
		var fetchLedger fetch.Ledger
		if led != nil {
			fetchLedger = led
		}
		downloader := fetch.New(fetch.Options{
			Dir:      dir,
			Parallel: jobs,
			Ledger:   fetchLedger,
		})

		if !jsonOutput {
			spinner = ui.NewSpinner(fmt.Sprintf("Downloading %d %s", len(records), plural(len(records), "file", "files")))
			spinner.Start()
		}
		summary, err := downloader.Fetch(cmd.Context(), records)
		if spinner != nil {
			spinner.Stop()
		}
		if err != nil {
			return handleError(ErrFetchFailed, err, "")
		}

		failed := len(summary.Errs())
		if failed == len(summary.Results) {
			return handleErrorWithDetails(ErrFetchFailed,
				fmt.Sprintf("all %d downloads failed", failed), "", fetchWarnings(summary))
		}

		if isJSONOutput() {
			outputSuccessWithWarnings(map[string]interface{}{
				"query": input,
				"dir":   dir,
				"bytes": summary.Bytes(),
				"files": formatFetchResults(summary),
			}, append(branchWarnings(resp), fetchWarnings(summary)...),
				&Meta{Count: len(summary.Results) - failed})
			return nil
		}

		for _, r := range summary.Results {
			switch {
			case r.Err != nil:
				fmt.Fprintln(os.Stderr, ui.Errorf("%s: %v", r.URL, r.Err))
			case r.Skipped:
				fmt.Printf("  %s (already fetched)\n", ui.FilePath(r.Path))
			default:
				fmt.Printf("  %s\n", ui.FilePath(r.Path))
			}
		}
		if failed > 0 {
			fmt.Fprintln(os.Stderr, ui.Warningf("%d of %d downloads failed", failed, len(summary.Results)))
		}
		fetched := len(summary.Results) - failed
		fmt.Println(ui.Successf("Fetched %d %s (%s) to %s",
			fetched, plural(fetched, "file", "files"), formatBytes(summary.Bytes()), dir))
		return nil
	},
}

// downloadable filters out records without a retrievable URL, counting
// what was dropped.
func downloadable(records []client.Record) ([]client.Record, int) {
	out := make([]client.Record, 0, len(records))
	dropped := 0
	for _, rec := range records {
		if strings.TrimSpace(rec.URL) == "" {
			dropped++
			continue
		}
		out = append(out, rec)
	}
	return out, dropped
}

func noURLWarnings(n int) []Warning {
	if n == 0 {
		return nil
	}
	return []Warning{{
		Code:    WarnNoURL,
		Message: fmt.Sprintf("%d records carry no file URL and were skipped", n),
	}}
}

func fetchWarnings(summary *fetch.Summary) []Warning {
	var out []Warning
	for _, r := range summary.Results {
		if r.Err == nil {
			continue
		}
		out = append(out, Warning{
			Code:    WarnDownloadFailed,
			Message: fmt.Sprintf("%s: %v", r.URL, r.Err),
		})
	}
	return out
}

func formatFetchResults(summary *fetch.Summary) []map[string]interface{} {
	formatted := make([]map[string]interface{}, len(summary.Results))
	for i, r := range summary.Results {
		row := map[string]interface{}{
			"url": r.URL,
		}
		if r.Err != nil {
			row["error"] = r.Err.Error()
		} else {
			row["path"] = r.Path
			row["size"] = r.Size
			row["skipped"] = r.Skipped
		}
		formatted[i] = row
	}
	return formatted
}

func init() {
	fetchCmd.Flags().StringVarP(&fetchDir, "dir", "d", "", "Download directory (defaults to <data-dir>/files)")
	fetchCmd.Flags().IntVarP(&fetchJobs, "jobs", "j", 0, "Concurrent downloads (defaults to the config parallel setting)")
	rootCmd.AddCommand(fetchCmd)
}
