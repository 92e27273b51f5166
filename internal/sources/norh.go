package sources

import (
	"errors"
	"fmt"
	"math"

	"github.com/helio-search/helio/internal/attrs"
	"github.com/helio-search/helio/internal/client"
	"github.com/helio-search/helio/internal/query"
)

// NewNoRH returns the Nobeyama Radioheliograph client. The archive keeps
// 17GHz correlation data in tca files and 34GHz in tcz files; a
// wavelength criterion picks between them and is rejected otherwise, so
// queries cannot silently fall through to the wrong product.
func NewNoRH() *Generic {
	g := fromManifest("norh")
	g.walker.AddApplier(norhFreq, attrs.Wavelength{})
	g.prepare = func(req *request) error {
		if req.fields["freq"] == "" {
			return errors.New("a wavelength of 17GHz or 34GHz is required")
		}
		return nil
	}
	g.decorate = func(rec *client.Record, req *request) {
		switch req.fields["freq"] {
		case "tca":
			rec.Wavelength = attrs.Gigahertz(17).String()
		case "tcz":
			rec.Wavelength = attrs.Gigahertz(34).String()
		}
	}
	return g
}

func norhFreq(_ *query.Walker, node query.Attr, acc any) error {
	w := node.(attrs.Wavelength)
	if !w.IsPoint() {
		return errors.New("wavelength must be a single frequency, not a range")
	}
	req := acc.(*request)
	switch ghz := w.Min().InGHz(); {
	case math.Abs(ghz-17) < 0.01:
		req.fields["freq"] = "tca"
	case math.Abs(ghz-34) < 0.01:
		req.fields["freq"] = "tcz"
	default:
		return fmt.Errorf("no data at %s, the archive serves 17GHz and 34GHz", w.Min())
	}
	return nil
}
