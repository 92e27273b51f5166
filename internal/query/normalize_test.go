package query

import (
	"reflect"
	"testing"
)

// branchLeaves flattens a normalized Or into per-branch leaf slices,
// failing the test if the canonical shape is violated.
func branchLeaves(t *testing.T, or *Or) [][]Attr {
	t.Helper()
	out := make([][]Attr, 0, len(or.Attrs))
	for i, child := range or.Attrs {
		and, ok := child.(*And)
		if !ok {
			t.Fatalf("branch %d is %T, want *And", i, child)
		}
		for j, leaf := range and.Attrs {
			switch leaf.(type) {
			case *And, *Or:
				t.Fatalf("branch %d child %d is %T, want leaf", i, j, leaf)
			}
		}
		out = append(out, and.Attrs)
	}
	return out
}

func TestNormalizeBareLeafWraps(t *testing.T) {
	a := instrument{name: "aia"}
	got := Normalize(a)
	want := &Or{Attrs: []Attr{&And{Attrs: []Attr{a}}}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Normalize(leaf) = %v, want %v", got, want)
	}
}

func TestNormalizeLeafConjunction(t *testing.T) {
	a := instrument{name: "aia"}
	ts := timeSpan{start: "t1", end: "t2"}
	got := Normalize(AllOf(a, ts))
	branches := branchLeaves(t, got)
	if len(branches) != 1 {
		t.Fatalf("branches = %d, want 1", len(branches))
	}
	if !reflect.DeepEqual(branches[0], []Attr{a, ts}) {
		t.Errorf("branch = %v, want [%v %v]", branches[0], a, ts)
	}
}

func TestNormalizeDistribution(t *testing.T) {
	a := instrument{name: "aia"}
	b := instrument{name: "hmi"}
	c := instrument{name: "eit"}
	d := instrument{name: "mdi"}
	ts := timeSpan{start: "t1", end: "t2"}
	lv := level{n: 2}

	tests := []struct {
		name string
		in   Attr
		want [][]Attr
	}{
		{
			name: "single or distributes",
			in:   AllOf(ts, AnyOf(a, b)),
			want: [][]Attr{{ts, a}, {ts, b}},
		},
		{
			name: "leaves keep their position around the expansion",
			in:   AllOf(ts, AnyOf(a, b), lv),
			want: [][]Attr{{ts, a, lv}, {ts, b, lv}},
		},
		{
			name: "two ors produce the full product in left-to-right order",
			in:   AllOf(AnyOf(a, b), AnyOf(c, d)),
			want: [][]Attr{{a, c}, {a, d}, {b, c}, {b, d}},
		},
		{
			name: "or branch that is itself a conjunction splices its leaves",
			in:   AllOf(ts, AnyOf(AllOf(a, lv), b)),
			want: [][]Attr{{ts, a, lv}, {ts, b}},
		},
		{
			name: "duplicate branches are preserved, not deduplicated",
			in:   AllOf(ts, &Or{Attrs: []Attr{a, a}}),
			want: [][]Attr{{ts, a}, {ts, a}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := branchLeaves(t, Normalize(tt.in))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("branches = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNormalizeFlattensNestedDisjunctions(t *testing.T) {
	a := instrument{name: "aia"}
	b := instrument{name: "hmi"}
	c := instrument{name: "eit"}

	// Hand-built nesting; AnyOf would have flattened this at construction.
	in := &Or{Attrs: []Attr{&Or{Attrs: []Attr{a, b}}, c}}
	got := branchLeaves(t, Normalize(in))
	want := [][]Attr{{a}, {b}, {c}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("branches = %v, want %v", got, want)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	a := instrument{name: "aia"}
	b := instrument{name: "hmi"}
	ts := timeSpan{start: "t1", end: "t2"}
	lv := level{n: 1}

	tests := []struct {
		name string
		in   Attr
	}{
		{name: "bare leaf", in: a},
		{name: "flat and", in: AllOf(a, ts)},
		{name: "and over or", in: AllOf(ts, AnyOf(a, b))},
		{name: "or of ands", in: AnyOf(AllOf(a, ts), AllOf(b, ts))},
		{name: "deep mix", in: AllOf(AnyOf(a, AllOf(b, lv)), AnyOf(ts, lv))},
		{name: "empty and", in: &And{}},
		{name: "empty or", in: &Or{}},
		{name: "nil", in: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			once := Normalize(tt.in)
			twice := Normalize(once)
			if !reflect.DeepEqual(once, twice) {
				t.Errorf("Normalize not idempotent:\nonce  = %v\ntwice = %v", once, twice)
			}
		})
	}
}

func TestNormalizeShapeInvariant(t *testing.T) {
	a := instrument{name: "aia"}
	b := instrument{name: "hmi"}
	ts := timeSpan{start: "t1", end: "t2"}
	lv := level{n: 1}

	trees := []Attr{
		a,
		AllOf(a, ts),
		AnyOf(a, b),
		AllOf(ts, AnyOf(a, b), lv),
		AnyOf(AllOf(a, AnyOf(ts, lv)), b),
		AllOf(AnyOf(a, b), AnyOf(ts, lv)),
	}

	for _, tree := range trees {
		// branchLeaves fails the test on any shape violation.
		branchLeaves(t, Normalize(tree))
	}
}

func TestNormalizeDoesNotMutateInput(t *testing.T) {
	a := instrument{name: "aia"}
	b := instrument{name: "hmi"}
	ts := timeSpan{start: "t1", end: "t2"}

	in := AllOf(ts, AnyOf(a, b))
	before := Sprint(in)
	Normalize(in)
	if after := Sprint(in); after != before {
		t.Errorf("input mutated: before %q, after %q", before, after)
	}
}

func TestNormalizeScenarios(t *testing.T) {
	aia := instrument{name: "AIA"}
	hmi := instrument{name: "HMI"}
	ts := timeSpan{start: "t1", end: "t2"}

	t.Run("or of ands is already canonical", func(t *testing.T) {
		in := AnyOf(AllOf(aia, ts), AllOf(hmi, ts))
		got := branchLeaves(t, Normalize(in))
		want := [][]Attr{{aia, ts}, {hmi, ts}}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("branches = %v, want %v", got, want)
		}
	})

	t.Run("and over or distributes the shared time", func(t *testing.T) {
		in := AllOf(ts, AnyOf(aia, hmi))
		got := branchLeaves(t, Normalize(in))
		want := [][]Attr{{ts, aia}, {ts, hmi}}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("branches = %v, want %v", got, want)
		}
	})
}
