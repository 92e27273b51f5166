package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/helio-search/helio/internal/client"
	"github.com/helio-search/helio/internal/ui"
)

var attrsCmd = &cobra.Command{
	Use:   "attrs [criterion]",
	Short: "List documented values for search criteria",
	Long: `List the values the archive clients document for search criteria.

Without an argument every documented criterion is shown; with one, just
that criterion:

  helio attrs
  helio attrs instrument

The lists are descriptive. Archives accept values beyond what they
document, VSO in particular.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		vocab := newRegistry(getConfig()).Vocabulary()

		byName := make(map[string][]client.ValueDesc, len(vocab))
		names := make([]string, 0, len(vocab))
		for t, values := range vocab {
			name := strings.ToLower(t.Name())
			byName[name] = values
			names = append(names, name)
		}
		sort.Strings(names)

		if len(args) == 1 {
			name := strings.ToLower(strings.TrimSpace(args[0]))
			if _, ok := byName[name]; !ok {
				return handleErrorMsg(ErrInvalidInput,
					fmt.Sprintf("no documented values for criterion %q (documented: %s)", name, strings.Join(names, ", ")),
					"Run 'helio attrs' to list them all")
			}
			names = []string{name}
		}

		if isJSONOutput() {
			criteria := make(map[string]interface{}, len(names))
			for _, name := range names {
				values := make([]map[string]interface{}, 0, len(byName[name]))
				for _, v := range byName[name] {
					values = append(values, map[string]interface{}{"value": v.Value, "desc": v.Desc})
				}
				criteria[name] = values
			}
			outputSuccess(map[string]interface{}{"criteria": criteria}, &Meta{Count: len(names)})
			return nil
		}

		for i, name := range names {
			if i > 0 {
				fmt.Println()
			}
			fmt.Printf("%s %s\n", ui.Header(name), ui.Count(len(byName[name]), "value", "values"))
			table := ui.NewTable(2)
			for _, v := range byName[name] {
				table.AddRow(v.Value, v.Desc)
			}
			fmt.Print(table.String())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(attrsCmd)
}
