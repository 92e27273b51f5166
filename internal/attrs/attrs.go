// Package attrs defines the shared search criteria understood across
// archive clients: observation time, instrument, wavelength, processing
// level, and friends. Client packages add their own criteria the same way
// these are built, by embedding query.Leaf (or Simple for plain
// string-valued ones).
package attrs

import (
	"fmt"
	"time"

	"github.com/helio-search/helio/internal/query"
	"github.com/helio-search/helio/internal/timerange"
)

// Simple is the embeddable base for string-valued criteria. A walker
// handler registered for Simple covers every criterion built on it, which
// lets clients map the whole family to request parameters in one place.
type Simple struct {
	query.Leaf
	value string
}

// Value returns the criterion value as given.
func (s Simple) Value() string { return s.value }

// NewSimple wraps a value for embedding in criterion types defined
// outside this package.
func NewSimple(value string) Simple { return Simple{value: value} }

// Instrument restricts results to one instrument, matched
// case-insensitively by clients.
type Instrument struct{ Simple }

func NewInstrument(name string) Instrument { return Instrument{NewSimple(name)} }

func (i Instrument) String() string { return "instrument:" + i.Value() }

// Level restricts results to a data processing level such as "1" or "0cs".
type Level struct{ Simple }

func NewLevel(level string) Level { return Level{NewSimple(level)} }

func (l Level) String() string { return "level:" + l.Value() }

// Detector restricts results to a single detector of an instrument.
type Detector struct{ Simple }

func NewDetector(name string) Detector { return Detector{NewSimple(name)} }

func (d Detector) String() string { return "detector:" + d.Value() }

// Resolution restricts results to a named resolution of a dataset.
type Resolution struct{ Simple }

func NewResolution(name string) Resolution { return Resolution{NewSimple(name)} }

func (r Resolution) String() string { return "resolution:" + r.Value() }

// Source restricts results to an observatory or spacecraft.
type Source struct{ Simple }

func NewSource(name string) Source { return Source{NewSimple(name)} }

func (s Source) String() string { return "source:" + s.Value() }

// Physobs restricts results to a physical observable such as
// "intensity" or "irradiance".
type Physobs struct{ Simple }

func NewPhysobs(name string) Physobs { return Physobs{NewSimple(name)} }

func (p Physobs) String() string { return "physobs:" + p.Value() }

// Provider restricts results to the organization serving the data.
type Provider struct{ Simple }

func NewProvider(name string) Provider { return Provider{NewSimple(name)} }

func (p Provider) String() string { return "provider:" + p.Value() }

// Time restricts results to an observation time range.
type Time struct {
	query.Leaf
	r timerange.Range
}

func NewTime(r timerange.Range) Time { return Time{r: r} }

// TimeStrings builds a Time from two timestamp strings.
func TimeStrings(start, end string) (Time, error) {
	r, err := timerange.Parse(start, end)
	if err != nil {
		return Time{}, fmt.Errorf("time criterion: %w", err)
	}
	return Time{r: r}, nil
}

// Range returns the requested interval.
func (t Time) Range() timerange.Range { return t.r }

func (t Time) String() string { return "time:" + t.r.String() }

// Sample requests at most one result per cadence interval.
type Sample struct {
	query.Leaf
	cadence time.Duration
}

func NewSample(cadence time.Duration) Sample { return Sample{cadence: cadence} }

// Cadence returns the minimum spacing between results.
func (s Sample) Cadence() time.Duration { return s.cadence }

func (s Sample) String() string { return "sample:" + s.cadence.String() }
