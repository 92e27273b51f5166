package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/helio-search/helio/internal/ui"
)

var clientsCmd = &cobra.Command{
	Use:   "clients",
	Short: "List the archive clients",
	Long: `List the archive clients searches fan out to, in search order.

Clients named in disabled_clients in config.toml are left out.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		clients := newRegistry(getConfig()).All()

		if isJSONOutput() {
			list := make([]map[string]interface{}, 0, len(clients))
			for _, c := range clients {
				info := c.Info()
				list = append(list, map[string]interface{}{
					"name":  info.Name,
					"about": info.About,
				})
			}
			outputSuccess(map[string]interface{}{"clients": list}, &Meta{Count: len(list)})
			return nil
		}

		table := ui.NewTable(2)
		for _, c := range clients {
			info := c.Info()
			table.AddRow(info.Name, info.About)
		}
		fmt.Print(table.String())
		fmt.Println()
		fmt.Println(ui.Hint("Run 'helio attrs' to see the values each criterion documents."))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(clientsCmd)
}
