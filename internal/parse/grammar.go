package parse

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/helio-search/helio/internal/attrs"
	"github.com/helio-search/helio/internal/query"
	"github.com/helio-search/helio/internal/timerange"
)

// Builder turns a criterion value into a leaf attr.
type Builder func(value string) (query.Attr, error)

// Grammar maps criterion keys to builders. Client packages register
// their extension keys on top of DefaultGrammar before parsing.
type Grammar struct {
	keys map[string]Builder
}

// NewGrammar returns a grammar with no keys.
func NewGrammar() *Grammar {
	return &Grammar{keys: make(map[string]Builder)}
}

// Register binds a builder to a key, replacing any previous binding.
// Keys are matched case-insensitively.
func (g *Grammar) Register(key string, b Builder) {
	g.keys[strings.ToLower(key)] = b
}

// Keys returns the registered keys in sorted order.
func (g *Grammar) Keys() []string {
	out := make([]string, 0, len(g.keys))
	for k := range g.keys {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (g *Grammar) build(key, value string) (query.Attr, error) {
	b, ok := g.keys[strings.ToLower(key)]
	if !ok {
		return nil, fmt.Errorf("unknown criterion %q (known: %s)", key, strings.Join(g.Keys(), ", "))
	}
	return b(value)
}

// DefaultGrammar returns a grammar with the shared criterion keys bound.
func DefaultGrammar() *Grammar {
	g := NewGrammar()
	g.Register("time", buildTime)
	g.Register("instrument", simpleBuilder(func(v string) query.Attr { return attrs.NewInstrument(v) }))
	g.Register("level", simpleBuilder(func(v string) query.Attr { return attrs.NewLevel(v) }))
	g.Register("detector", simpleBuilder(func(v string) query.Attr { return attrs.NewDetector(v) }))
	g.Register("resolution", simpleBuilder(func(v string) query.Attr { return attrs.NewResolution(v) }))
	g.Register("source", simpleBuilder(func(v string) query.Attr { return attrs.NewSource(v) }))
	g.Register("physobs", simpleBuilder(func(v string) query.Attr { return attrs.NewPhysobs(v) }))
	g.Register("provider", simpleBuilder(func(v string) query.Attr { return attrs.NewProvider(v) }))
	g.Register("wavelength", buildWavelength)
	g.Register("sample", buildSample)
	return g
}

func simpleBuilder(mk func(string) query.Attr) Builder {
	return func(value string) (query.Attr, error) {
		if value == "" {
			return nil, fmt.Errorf("empty value")
		}
		return mk(value), nil
	}
}

// buildTime accepts "start..end" or a single timestamp meaning the
// following 24 hours.
func buildTime(value string) (query.Attr, error) {
	start, end, ranged := strings.Cut(value, "..")
	if !ranged {
		t, err := timerange.ParseTime(value)
		if err != nil {
			return nil, fmt.Errorf("time: %w", err)
		}
		return attrs.NewTime(timerange.New(t, t.Add(24*time.Hour))), nil
	}
	t, err := attrs.TimeStrings(start, end)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// buildWavelength accepts "171", "171a", "17.1nm", "17ghz" or a
// "min..max" pair. A unit on either bound applies to a bare other bound;
// no unit at all means angstroms.
func buildWavelength(value string) (query.Attr, error) {
	lo, hi, ranged := strings.Cut(value, "..")
	if !ranged {
		q, err := parseQuantity(value, attrs.Angstrom)
		if err != nil {
			return nil, err
		}
		return attrs.NewWavelength(q, q), nil
	}

	unit := attrs.Angstrom
	if _, u, ok := splitUnit(hi); ok {
		unit = u
	} else if _, u, ok := splitUnit(lo); ok {
		unit = u
	}
	min, err := parseQuantity(lo, unit)
	if err != nil {
		return nil, err
	}
	max, err := parseQuantity(hi, unit)
	if err != nil {
		return nil, err
	}
	return attrs.NewWavelength(min, max), nil
}

func buildSample(value string) (query.Attr, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return nil, fmt.Errorf("sample: invalid duration %q", value)
	}
	if d <= 0 {
		return nil, fmt.Errorf("sample: duration must be positive")
	}
	return attrs.NewSample(d), nil
}

// splitUnit strips a recognized unit suffix, reporting whether one was
// present.
func splitUnit(s string) (string, attrs.Unit, bool) {
	lower := strings.ToLower(s)
	switch {
	case strings.HasSuffix(lower, "ghz"):
		return s[:len(s)-3], attrs.GHz, true
	case strings.HasSuffix(lower, "nm"):
		return s[:len(s)-2], attrs.Nanometer, true
	case strings.HasSuffix(lower, "angstrom"):
		return s[:len(s)-8], attrs.Angstrom, true
	case strings.HasSuffix(lower, "a"):
		return s[:len(s)-1], attrs.Angstrom, true
	}
	return s, attrs.Angstrom, false
}

func parseQuantity(s string, fallback attrs.Unit) (attrs.Quantity, error) {
	num, unit, ok := splitUnit(strings.TrimSpace(s))
	if !ok {
		unit = fallback
	}
	v, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return attrs.Quantity{}, fmt.Errorf("wavelength: invalid quantity %q", s)
	}
	return attrs.Quantity{Value: v, Unit: unit}, nil
}
