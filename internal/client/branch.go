package client

import (
	"reflect"
	"strings"

	"github.com/helio-search/helio/internal/attrs"
	"github.com/helio-search/helio/internal/query"
	"github.com/helio-search/helio/internal/timerange"
)

// CheckAttrTypes reports whether a branch carries every required
// criterion type and nothing outside required plus optional. Types are
// given as prototype values, the same way walker handlers register.
func CheckAttrTypes(branch *query.And, required, optional []query.Attr) bool {
	req := typeSet(required)
	opt := typeSet(optional)
	present := make(map[reflect.Type]bool, len(branch.Attrs))
	for _, a := range branch.Attrs {
		t := query.TypeOf(a)
		if !req[t] && !opt[t] {
			return false
		}
		present[t] = true
	}
	for t := range req {
		if !present[t] {
			return false
		}
	}
	return true
}

func typeSet(protos []query.Attr) map[reflect.Type]bool {
	set := make(map[reflect.Type]bool, len(protos))
	for _, p := range protos {
		set[query.TypeOf(p)] = true
	}
	return set
}

// InstrumentIs reports whether the branch requests one of the named
// instruments, matched case-insensitively.
func InstrumentIs(branch *query.And, names ...string) bool {
	for _, a := range branch.Attrs {
		inst, ok := a.(attrs.Instrument)
		if !ok {
			continue
		}
		for _, name := range names {
			if strings.EqualFold(inst.Value(), name) {
				return true
			}
		}
	}
	return false
}

// TimeOf returns the branch's time criterion, if present.
func TimeOf(branch *query.And) (timerange.Range, bool) {
	for _, a := range branch.Attrs {
		if t, ok := a.(attrs.Time); ok {
			return t.Range(), true
		}
	}
	return timerange.Range{}, false
}

// LevelOf returns the branch's level criterion value, if present.
func LevelOf(branch *query.And) (string, bool) {
	for _, a := range branch.Attrs {
		if l, ok := a.(attrs.Level); ok {
			return l.Value(), true
		}
	}
	return "", false
}

// WavelengthOf returns the branch's wavelength criterion, if present.
func WavelengthOf(branch *query.And) (attrs.Wavelength, bool) {
	for _, a := range branch.Attrs {
		if w, ok := a.(attrs.Wavelength); ok {
			return w, true
		}
	}
	return attrs.Wavelength{}, false
}

// SampleOf returns the branch's sampling cadence, if present.
func SampleOf(branch *query.And) (attrs.Sample, bool) {
	for _, a := range branch.Attrs {
		if s, ok := a.(attrs.Sample); ok {
			return s, true
		}
	}
	return attrs.Sample{}, false
}
