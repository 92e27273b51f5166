package sources

import (
	"strings"

	"github.com/helio-search/helio/internal/attrs"
	"github.com/helio-search/helio/internal/client"
	"github.com/helio-search/helio/internal/query"
	"github.com/helio-search/helio/internal/scraper"
)

// NewBBSO returns the Big Bear Solar Observatory H-alpha client. Files
// are stamped to the second, so the archive is always resolved by
// directory listing. Level must be fl (flat-field) or fr (fully
// reduced).
func NewBBSO(lister scraper.Lister) *Generic {
	g := fromManifest("bbso")
	g.lister = lister
	g.handles = func(branch *query.And) bool {
		level, ok := client.LevelOf(branch)
		return ok && (strings.EqualFold(level, "fl") || strings.EqualFold(level, "fr"))
	}
	g.decorate = func(rec *client.Record, _ *request) {
		rec.Wavelength = attrs.Angstroms(6562.8).String()
	}
	return g
}
