package sources

import (
	"strconv"
	"strings"

	"github.com/helio-search/helio/internal/client"
	"github.com/helio-search/helio/internal/query"
)

// NewEVE returns the LASP EVE quicklook client. The archive only serves
// the level 0CS space-weather product, so the level criterion is
// required and checked up front.
func NewEVE() *Generic {
	g := fromManifest("eve")
	g.handles = func(branch *query.And) bool {
		level, ok := client.LevelOf(branch)
		return ok && eveLevel(level)
	}
	return g
}

// eveLevel accepts "0cs" or anything parsing to integer zero.
func eveLevel(level string) bool {
	if strings.EqualFold(level, "0cs") {
		return true
	}
	n, err := strconv.Atoi(level)
	return err == nil && n == 0
}
