package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/helio-search/helio/internal/client"
	"github.com/helio-search/helio/internal/search"
	"github.com/helio-search/helio/internal/ui"
)

var (
	searchClient string
	searchLimit  int
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the solar archives",
	Long: `Search every archive client that accepts the query.

A query combines criteria with '&' and '|'; adjacent criteria conjoin
implicitly. Every '|' alternative becomes its own archive request:

  helio search "time:2011-06-07 instrument:aia wavelength:171"
  helio search "time:2011-06-07 & (instrument:eve | instrument:lyra)"

Run 'helio docs search-syntax' for the full grammar.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		q, input, err := parseQueryArgs(args)
		if q == nil {
			return err
		}

		registry := newRegistry(getConfig())
		if searchClient != "" {
			c, ok := registry.Lookup(searchClient)
			if !ok {
				return handleErrorMsg(ErrInvalidInput,
					fmt.Sprintf("unknown client %q", searchClient),
					"Run 'helio clients' to list the archive clients")
			}
			registry = client.NewRegistry(c)
		}
		svc := search.New(registry, search.Options{Parallel: getConfig().Parallel})

		var spinner *ui.Spinner
		if !jsonOutput {
			spinner = ui.NewSpinner("Searching archives")
			spinner.Start()
		}
		started := time.Now()
		resp, err := svc.Search(cmd.Context(), q)
		elapsed := time.Since(started)
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
		searchID := recordSearch(led, input, resp)

		if allBranchesFailed(resp) {
			if allNoClient(resp) {
				return handleErrorMsg(ErrNoClient, joinBranchErrors(resp),
					"Archive clients need a time criterion; run 'helio clients' to see what each accepts")
			}
			return handleErrorWithDetails(ErrSearchFailed,
				"every archive search failed: "+joinBranchErrors(resp), "", branchWarnings(resp))
		}

		records := resp.Records()
		total := len(records)
		if searchLimit > 0 && len(records) > searchLimit {
			records = records[:searchLimit]
		}

		if isJSONOutput() {
			outputSuccessWithWarnings(map[string]interface{}{
				"query":     input,
				"search_id": searchID,
				"total":     total,
				"records":   formatRecords(records),
			}, branchWarnings(resp), &Meta{Count: len(records), QueryTimeMs: elapsed.Milliseconds()})
			return nil
		}

		for _, b := range resp.Branches {
			if b.Err != nil {
				fmt.Fprintln(os.Stderr, ui.Warningf("%v", b.Err))
			}
		}

		if total == 0 {
			fmt.Printf("No records found for: %s\n", input)
			return nil
		}

		display := ui.NewDisplayContext()
		fmt.Println(ui.RecordsTable(display, records))
		if len(records) < total {
			fmt.Println(ui.Hint(fmt.Sprintf("Showing %d of %d records; raise --limit to see more.", len(records), total)))
		}
		fmt.Println(ui.Successf("%d %s in %.1fs", total, plural(total, "record", "records"), elapsed.Seconds()))
		return nil
	},
}

// allBranchesFailed reports whether no branch of a non-empty response
// produced records without error.
func allBranchesFailed(resp *search.Response) bool {
	if len(resp.Branches) == 0 {
		return false
	}
	for _, b := range resp.Branches {
		if b.Err == nil {
			return false
		}
	}
	return true
}

// allNoClient reports whether every branch failed for want of a client
// rather than from an archive error.
func allNoClient(resp *search.Response) bool {
	for _, b := range resp.Branches {
		if !errors.Is(b.Err, search.ErrNoClient) {
			return false
		}
	}
	return len(resp.Branches) > 0
}

func joinBranchErrors(resp *search.Response) string {
	msgs := make([]string, 0, len(resp.Branches))
	for _, err := range resp.Errs() {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// branchWarnings flattens branch failures for the JSON envelope.
func branchWarnings(resp *search.Response) []Warning {
	var out []Warning
	for _, b := range resp.Branches {
		if b.Err == nil {
			continue
		}
		code := WarnBranchFailed
		if errors.Is(b.Err, search.ErrNoClient) {
			code = WarnNoClient
		}
		out = append(out, Warning{
			Code:    code,
			Message: b.Err.Error(),
			Branch:  b.Branch.String(),
			Client:  b.Client,
		})
	}
	return out
}

func plural(n int, singular, plural string) string {
	if n == 1 {
		return singular
	}
	return plural
}

func init() {
	searchCmd.Flags().StringVarP(&searchClient, "client", "c", "", "Search only the named client")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "Maximum number of records to show (0 = all)")
	rootCmd.AddCommand(searchCmd)
}
