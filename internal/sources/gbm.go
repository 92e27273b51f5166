package sources

import (
	"fmt"
	"strconv"
	"strings"
)

// NewGBM returns the Fermi Gamma-Ray Burst Monitor client. Detector n5
// and the cspec resolution are used unless the query narrows them.
func NewGBM() *Generic {
	g := fromManifest("gbm")
	g.prepare = func(req *request) error {
		d := req.fields["detector"]
		if _, err := strconv.Atoi(d); err == nil {
			d = "n" + d
			req.fields["detector"] = d
		}
		if !validDetector(d) {
			return fmt.Errorf("detector must be n0 through n11, got %q", d)
		}
		if r := req.fields["resolution"]; r != "cspec" && r != "ctime" {
			return fmt.Errorf("resolution must be cspec or ctime, got %q", r)
		}
		return nil
	}
	return g
}

func validDetector(d string) bool {
	if !strings.HasPrefix(d, "n") {
		return false
	}
	n, err := strconv.Atoi(d[1:])
	return err == nil && n >= 0 && n <= 11
}
