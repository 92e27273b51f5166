// Package query implements the helio query algebra: typed search criteria
// that combine with AND/OR and normalize to OR-of-ANDs, plus a dispatch
// walker that compiles query trees into client-specific request forms.
package query

import (
	"fmt"
	"strings"
)

// Attr is a node in a query tree: either a leaf criterion or one of the
// combinators And/Or. Leaf types live outside this package; they satisfy
// the interface by embedding Leaf.
type Attr interface {
	attrNode()
}

// Leaf marks a type as a leaf criterion. Embed it in any struct to make
// that struct usable in query trees:
//
//	type Series struct {
//		query.Leaf
//		Name string
//	}
//
// The algebra never inspects leaves; they are opaque values carried through
// flattening and normalization and interpreted only by walkers.
type Leaf struct{}

func (Leaf) attrNode() {}

// And is a conjunction of attrs. Construct with AllOf; the child order is
// the order the attrs were given and is preserved by Normalize.
type And struct {
	Attrs []Attr
}

func (*And) attrNode() {}

// Or is a disjunction of attrs. Construct with AnyOf.
type Or struct {
	Attrs []Attr
}

func (*Or) attrNode() {}

// AllOf combines attrs conjunctively. Nested And children are spliced into
// the result so And never directly contains And; Or children are kept
// intact for Normalize to distribute. Returns nil for no attrs and the
// single attr unchanged for one.
func AllOf(attrs ...Attr) Attr {
	switch len(attrs) {
	case 0:
		return nil
	case 1:
		return attrs[0]
	}
	out := make([]Attr, 0, len(attrs))
	for _, a := range attrs {
		if inner, ok := a.(*And); ok {
			out = append(out, inner.Attrs...)
			continue
		}
		out = append(out, a)
	}
	return &And{Attrs: out}
}

// AnyOf combines attrs disjunctively. Nested Or children are spliced into
// the result so Or never directly contains Or. Returns nil for no attrs
// and the single attr unchanged for one.
func AnyOf(attrs ...Attr) Attr {
	switch len(attrs) {
	case 0:
		return nil
	case 1:
		return attrs[0]
	}
	out := make([]Attr, 0, len(attrs))
	for _, a := range attrs {
		if inner, ok := a.(*Or); ok {
			out = append(out, inner.Attrs...)
			continue
		}
		out = append(out, a)
	}
	return &Or{Attrs: out}
}

// String renders the conjunction as "a & b & c" for display and history.
func (a *And) String() string {
	return joinAttrs(a.Attrs, " & ")
}

// String renders the disjunction as "x | y" with parenthesized And children.
func (o *Or) String() string {
	parts := make([]string, len(o.Attrs))
	for i, child := range o.Attrs {
		if _, ok := child.(*And); ok {
			parts[i] = "(" + Sprint(child) + ")"
			continue
		}
		parts[i] = Sprint(child)
	}
	return strings.Join(parts, " | ")
}

// Sprint renders any attr. Leaves without a Stringer fall back to %v.
func Sprint(a Attr) string {
	if a == nil {
		return ""
	}
	if s, ok := a.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%v", a)
}

func joinAttrs(attrs []Attr, sep string) string {
	parts := make([]string, len(attrs))
	for i, a := range attrs {
		parts[i] = Sprint(a)
	}
	return strings.Join(parts, sep)
}
