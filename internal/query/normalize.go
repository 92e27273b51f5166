package query

// Normalize rewrites a query tree into its canonical OR-of-ANDs form: an
// Or whose every child is an And containing only leaves. The result always
// carries the full wrapping, so a bare leaf comes back as an Or of one And
// of one leaf. Branch order follows the Cartesian-product generation order
// for distributed Ands and insertion order everywhere else; no branches
// are deduplicated or reordered.
//
// Normalize is pure and idempotent. The input tree is never mutated.
func Normalize(a Attr) *Or {
	switch n := a.(type) {
	case nil:
		return &Or{}
	case *Or:
		var branches []Attr
		for _, child := range n.Attrs {
			branches = append(branches, Normalize(child).Attrs...)
		}
		return &Or{Attrs: branches}
	case *And:
		return distribute(n)
	default:
		return &Or{Attrs: []Attr{&And{Attrs: []Attr{a}}}}
	}
}

// distribute expands an And over its Or children: one output branch per
// combination of picking a single alternative from each Or, left to right,
// with leaf children kept in position. Children are normalized first, so
// hand-built nesting (And inside And) flattens on the way through.
func distribute(and *And) *Or {
	product := [][]Attr{nil}
	for _, child := range and.Attrs {
		sub := Normalize(child)
		next := make([][]Attr, 0, len(product)*len(sub.Attrs))
		for _, part := range product {
			for _, branch := range sub.Attrs {
				alt := branch.(*And)
				merged := make([]Attr, 0, len(part)+len(alt.Attrs))
				merged = append(merged, part...)
				merged = append(merged, alt.Attrs...)
				next = append(next, merged)
			}
		}
		product = next
	}
	branches := make([]Attr, len(product))
	for i, attrs := range product {
		branches[i] = &And{Attrs: attrs}
	}
	return &Or{Attrs: branches}
}
