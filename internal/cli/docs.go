package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/helio-search/helio/docs"
	"github.com/helio-search/helio/internal/ui"
)

// Injection points for tests.
var (
	docsDisplayContext = ui.NewDisplayContext
	docsMarkdownRender = ui.RenderMarkdown
)

var docsCmd = &cobra.Command{
	Use:   "docs [topic]",
	Short: "Read the bundled guides",
	Long: `Read the guides bundled into the helio binary.

Without an argument the topics are listed; with one, that guide is
rendered:

  helio docs
  helio docs search-syntax`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return runDocsList()
		}
		return runDocsShow(args[0])
	},
}

func runDocsList() error {
	topics, err := docs.Topics()
	if err != nil {
		return handleError(ErrInternal, err, "")
	}

	if isJSONOutput() {
		list := make([]map[string]interface{}, 0, len(topics))
		for _, t := range topics {
			list = append(list, map[string]interface{}{
				"id":    t.ID,
				"title": t.Title,
			})
		}
		outputSuccess(map[string]interface{}{"topics": list}, &Meta{Count: len(list)})
		return nil
	}

	fmt.Println(ui.Header("Guides"))
	table := ui.NewTable(2)
	for _, t := range topics {
		table.AddRow(t.ID, t.Title)
	}
	fmt.Print(table.String())
	fmt.Println()
	fmt.Println(ui.Hint("Run 'helio docs <topic>' to read one."))
	return nil
}

func runDocsShow(id string) error {
	content, err := docs.Load(id)
	if err != nil {
		return handleError(ErrTopicNotFound, err, "Run 'helio docs' to list the topics")
	}

	if isJSONOutput() {
		outputSuccess(map[string]interface{}{
			"topic":   strings.ToLower(strings.TrimSuffix(strings.TrimSpace(id), ".md")),
			"content": string(content),
		}, nil)
		return nil
	}

	rendered := string(content)
	display := docsDisplayContext()
	if display.IsTTY {
		if out, renderErr := docsMarkdownRender(rendered, display.TermWidth); renderErr == nil {
			rendered = out
		}
	}
	fmt.Print(rendered)
	if !strings.HasSuffix(rendered, "\n") {
		fmt.Println()
	}
	return nil
}

func init() {
	rootCmd.AddCommand(docsCmd)
}
