// Command helio searches federated solar physics archives and
// downloads the files they return.
package main

import (
	"os"

	"github.com/helio-search/helio/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
