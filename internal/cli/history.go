package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/helio-search/helio/internal/ledger"
	"github.com/helio-search/helio/internal/timerange"
	"github.com/helio-search/helio/internal/ui"
)

var (
	historyClient string
	historySince  string
	historyLimit  int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show past searches",
	Long: `Show past searches, newest first.

  helio history --since yesterday
  helio history --client vso --limit 10`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		filter := ledger.HistoryFilter{
			Client: historyClient,
			Limit:  historyLimit,
		}
		if historySince != "" {
			since, err := timerange.ParseTimeArg(historySince, time.Now())
			if err != nil {
				return handleError(ErrInvalidInput, err, "Use a timestamp like 2011-06-07, or now/today/yesterday")
			}
			filter.Since = since
		}

		led, err := ledger.Open(getDataDir())
		if err != nil {
			return handleError(ErrLedger, err, "")
		}
		defer led.Close()

		entries, err := led.History(filter)
		if err != nil {
			return handleError(ErrLedger, err, "")
		}

		if isJSONOutput() {
			outputSuccess(map[string]interface{}{
				"searches": formatHistory(entries),
			}, &Meta{Count: len(entries)})
			return nil
		}

		if len(entries) == 0 {
			fmt.Println("No searches recorded yet.")
			return nil
		}

		fmt.Printf("%s %s\n", ui.Header("Search history"), ui.Count(len(entries), "search", "searches"))
		display := ui.NewDisplayContext()
		fmt.Println(ui.HistoryTable(display, entries))
		fmt.Println(ui.Hint("Run 'helio history show <num>' for the per-archive breakdown."))
		return nil
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <num|id>",
	Short: "Show one past search with its per-archive breakdown",
	Long: `Show one past search with its per-archive breakdown.

Accepts a row number from 'helio history' (1 is the most recent search)
or a full search id.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		led, err := ledger.Open(getDataDir())
		if err != nil {
			return handleError(ErrLedger, err, "")
		}
		defer led.Close()

		entry, err := findHistoryEntry(led, args[0])
		if err != nil {
			return handleError(ErrInvalidInput, err, "Run 'helio history' to list recorded searches")
		}

		branches, err := led.Branches(entry.ID)
		if err != nil {
			return handleError(ErrLedger, err, "")
		}

		if isJSONOutput() {
			list := make([]map[string]interface{}, 0, len(branches))
			for _, b := range branches {
				row := map[string]interface{}{
					"branch":  b.Branch,
					"client":  b.Client,
					"records": b.Records,
				}
				if b.Err != "" {
					row["error"] = b.Err
				}
				list = append(list, row)
			}
			outputSuccess(map[string]interface{}{
				"search":   formatHistoryEntry(entry),
				"branches": list,
			}, &Meta{Count: len(branches)})
			return nil
		}

		fmt.Printf("%s %s\n", ui.Header(entry.Query), ui.Count(entry.Records, "record", "records"))
		fmt.Printf("%s  id %s\n\n", entry.At.Local().Format("2006-01-02 15:04:05"), entry.ID)
		table := ui.NewTable(4)
		for _, b := range branches {
			outcome := strconv.Itoa(b.Records)
			if b.Err != "" {
				outcome = "failed"
			}
			table.AddRow(b.Branch, b.Client, outcome, b.Err)
		}
		fmt.Print(table.String())
		return nil
	},
}

// findHistoryEntry resolves a search reference: a 1-based row number
// into the newest-first listing, or a full search id.
func findHistoryEntry(led *ledger.Ledger, ref string) (ledger.SearchEntry, error) {
	ref = strings.TrimSpace(ref)

	if num, err := strconv.Atoi(ref); err == nil {
		if num < 1 {
			return ledger.SearchEntry{}, fmt.Errorf("row number must be 1 or higher")
		}
		entries, err := led.History(ledger.HistoryFilter{Limit: num})
		if err != nil {
			return ledger.SearchEntry{}, err
		}
		if num > len(entries) {
			return ledger.SearchEntry{}, fmt.Errorf("only %d searches recorded", len(entries))
		}
		return entries[num-1], nil
	}

	entries, err := led.History(ledger.HistoryFilter{})
	if err != nil {
		return ledger.SearchEntry{}, err
	}
	for _, e := range entries {
		if e.ID == ref {
			return e, nil
		}
	}
	return ledger.SearchEntry{}, fmt.Errorf("no search with id %q", ref)
}

func formatHistoryEntry(e ledger.SearchEntry) map[string]interface{} {
	return map[string]interface{}{
		"id":       e.ID,
		"query":    e.Query,
		"branches": e.Branches,
		"records":  e.Records,
		"at":       e.At.UTC().Format(time.RFC3339),
	}
}

func formatHistory(entries []ledger.SearchEntry) []map[string]interface{} {
	formatted := make([]map[string]interface{}, len(entries))
	for i, e := range entries {
		formatted[i] = formatHistoryEntry(e)
	}
	return formatted
}

func init() {
	historyCmd.Flags().StringVarP(&historyClient, "client", "c", "", "Only searches that touched the named client")
	historyCmd.Flags().StringVar(&historySince, "since", "", "Only searches at or after this time")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 0, "Maximum number of searches to show (0 = all)")
	historyCmd.AddCommand(historyShowCmd)
	rootCmd.AddCommand(historyCmd)
}
