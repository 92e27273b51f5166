package sources

import (
	"errors"
	"fmt"
	"math"

	"github.com/helio-search/helio/internal/attrs"
	"github.com/helio-search/helio/internal/client"
	"github.com/helio-search/helio/internal/query"
	"github.com/helio-search/helio/internal/scraper"
)

// kanzProducts maps the patrol wavelengths to their archive layout. The
// H-alpha camera uploads into a rolling recent/ tree; the Ca-II K and
// white light cameras keep day directories with a processed/ stage.
// Field values may carry date codes, which the scraper expands after
// substitution.
var kanzProducts = []struct {
	angstroms float64
	prefix    string
	product   string
}{
	{6563, "halpha2k/recent/%Y/", "halph_fr"},
	{32768, "caiia/%Y/%Y%m%d/processed/", "caiik_fi"},
	{5460, "phokada/%Y/%Y%m%d/processed/", "bband_fi"},
}

// NewKanzelhohe returns the Kanzelhohe Observatory client. The patrol
// wavelength selects both the product directory and the file stem, and
// files are stamped to the second, so queries resolve by directory
// listing.
func NewKanzelhohe(lister scraper.Lister) *Generic {
	g := fromManifest("kanzelhohe")
	g.lister = lister
	g.walker.AddApplier(kanzWave, attrs.Wavelength{})
	g.prepare = func(req *request) error {
		if req.fields["product"] == "" {
			return errors.New("a wavelength of 6563A, 32768A or 5460A is required")
		}
		return nil
	}
	g.decorate = func(rec *client.Record, req *request) {
		for _, p := range kanzProducts {
			if p.product == req.fields["product"] {
				rec.Wavelength = attrs.Angstroms(p.angstroms).String()
			}
		}
	}
	return g
}

func kanzWave(_ *query.Walker, node query.Attr, acc any) error {
	w := node.(attrs.Wavelength)
	if !w.IsPoint() {
		return errors.New("wavelength must be a single line, not a range")
	}
	req := acc.(*request)
	ang := w.Min().InAngstroms()
	for _, p := range kanzProducts {
		if math.Abs(ang-p.angstroms) < 0.5 {
			req.fields["prefix"] = p.prefix
			req.fields["product"] = p.product
			return nil
		}
	}
	return fmt.Errorf("no product at %s, the archive serves 6563A, 32768A and 5460A", w.Min())
}
