package sources

import (
	"fmt"
	"strconv"

	"github.com/helio-search/helio/internal/attrs"
	"github.com/helio-search/helio/internal/client"
	"github.com/helio-search/helio/internal/parse"
	"github.com/helio-search/helio/internal/query"
	"github.com/helio-search/helio/internal/scraper"
)

// SatelliteNumber selects a specific GOES spacecraft. It lives here
// rather than in attrs because only the GOES archive understands it.
type SatelliteNumber struct{ attrs.Simple }

// NewSatelliteNumber wraps a satellite number, e.g. "15".
func NewSatelliteNumber(n string) SatelliteNumber {
	return SatelliteNumber{attrs.NewSimple(n)}
}

func (s SatelliteNumber) String() string { return "satellitenumber:" + s.Value() }

// RegisterKeys adds the GOES criterion keys to a grammar.
func RegisterKeys(g *parse.Grammar) {
	g.Register("satellitenumber", func(value string) (query.Attr, error) {
		if _, err := strconv.Atoi(value); err != nil {
			return nil, fmt.Errorf("satellite number must be numeric, got %q", value)
		}
		return NewSatelliteNumber(value), nil
	})
}

// NewXRS returns the GOES X-ray Sensor client. File names carry the
// satellite digits, so results need a directory listing unless some
// other archive convention pins them; a satellitenumber criterion
// narrows the listing to one spacecraft.
func NewXRS(lister scraper.Lister) *Generic {
	g := fromManifest("xrs")
	g.lister = lister
	g.decorate = func(rec *client.Record, req *request) {
		// The default leaves the digits as a regex; only a pinned
		// satellite is worth recording.
		n := req.fields["satellitenumber"]
		if _, err := strconv.Atoi(n); err != nil {
			return
		}
		if rec.Extra == nil {
			rec.Extra = make(map[string]string)
		}
		rec.Extra["satellitenumber"] = n
	}
	return g
}
