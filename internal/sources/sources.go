// Package sources implements the built-in archive clients. Each source
// is a Generic client configured from the embedded manifest plus, where
// an archive needs it, hooks defined in its own file.
package sources

import (
	"github.com/helio-search/helio/internal/client"
	"github.com/helio-search/helio/internal/scraper"
)

// All returns the built-in clients in registry order. Sources that
// resolve files by directory listing receive the lister; passing nil
// leaves them searchable only for archives that never list.
func All(lister scraper.Lister) []client.Client {
	return []client.Client{
		NewEVE(),
		NewXRS(lister),
		NewNoRH(),
		NewLYRA(),
		NewSWEPAM(),
		NewEPAM(),
		NewMAG(),
		NewSIS(),
		NewGBM(),
		NewBBSO(lister),
		NewKanzelhohe(lister),
	}
}
