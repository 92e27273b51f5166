package query

import (
	"fmt"
	"reflect"
)

// CreatorFunc builds a client-specific value from a node. Creators for Or
// nodes conventionally return one result per branch; creators for And
// nodes allocate a fresh accumulator and apply their children into it.
type CreatorFunc func(w *Walker, node Attr) (any, error)

// ApplierFunc folds a node into an accumulator owned by the enclosing
// And creator.
type ApplierFunc func(w *Walker, node Attr, acc any) error

// ConverterFunc rewrites a node into a replacement attr. The walker then
// re-dispatches the original operation on the replacement's type, which is
// how heterogeneous leaf types funnel into one intermediate representation.
type ConverterFunc func(node Attr) (Attr, error)

// Walker dispatches query nodes to handlers registered per node type.
// Each client adapter constructs and owns its walker; there is no shared
// package-level instance. Resolution tries the node's exact type first,
// then the types it embeds, nearest embedding level first, so a handler
// registered for an embedded base (attrs.Simple, or Leaf itself as a
// catch-all) covers every type built on it.
//
// A walker holds no per-call state; Create and Apply are safe to call
// from concurrent goroutines once registration is done.
type Walker struct {
	creators map[reflect.Type]CreatorFunc
	appliers map[reflect.Type]ApplierFunc
}

// NewWalker returns an empty walker.
func NewWalker() *Walker {
	return &Walker{
		creators: make(map[reflect.Type]CreatorFunc),
		appliers: make(map[reflect.Type]ApplierFunc),
	}
}

// AddCreator registers fn as the creator for each proto's type.
// Re-registering a type replaces the previous handler.
func (w *Walker) AddCreator(fn CreatorFunc, protos ...Attr) {
	for _, p := range protos {
		w.creators[keyType(p)] = fn
	}
}

// AddApplier registers fn as the applier for each proto's type.
func (w *Walker) AddApplier(fn ApplierFunc, protos ...Attr) {
	for _, p := range protos {
		w.appliers[keyType(p)] = fn
	}
}

// AddConverter registers fn as both creator and applier for each proto's
// type. On dispatch the node is converted and the operation re-dispatched
// on the converted node.
func (w *Walker) AddConverter(fn ConverterFunc, protos ...Attr) {
	w.AddCreator(func(w *Walker, node Attr) (any, error) {
		conv, err := fn(node)
		if err != nil {
			return nil, err
		}
		return w.Create(conv)
	}, protos...)
	w.AddApplier(func(w *Walker, node Attr, acc any) error {
		conv, err := fn(node)
		if err != nil {
			return err
		}
		return w.Apply(conv, acc)
	}, protos...)
}

// Create resolves the creator for node's type and invokes it. A node type
// with no creator at any embedding level yields a DispatchError, which
// callers must propagate: it means the client adapter's registrations are
// incomplete, not that the query is invalid.
func (w *Walker) Create(node Attr) (any, error) {
	fn, ok := lookup(w.creators, keyType(node))
	if !ok {
		return nil, &DispatchError{Op: "create", Type: reflect.TypeOf(node)}
	}
	return fn(w, node)
}

// Apply resolves the applier for node's type and invokes it against acc.
func (w *Walker) Apply(node Attr, acc any) error {
	fn, ok := lookup(w.appliers, keyType(node))
	if !ok {
		return &DispatchError{Op: "apply", Type: reflect.TypeOf(node)}
	}
	return fn(w, node, acc)
}

// CreateAs invokes Create and asserts the result to T.
func CreateAs[T any](w *Walker, node Attr) (T, error) {
	var zero T
	v, err := w.Create(node)
	if err != nil {
		return zero, err
	}
	out, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("query: creator for %T returned %T, want %T", node, v, zero)
	}
	return out, nil
}

// DispatchError reports a node type with no registered handler.
type DispatchError struct {
	Op   string       // "create" or "apply"
	Type reflect.Type // dynamic type of the unhandled node
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("query: no %s handler registered for node type %v", e.Op, e.Type)
}

func lookup[F any](table map[reflect.Type]F, t reflect.Type) (F, bool) {
	if fn, ok := table[t]; ok {
		return fn, true
	}
	for _, anc := range embeddedTypes(t) {
		if fn, ok := table[anc]; ok {
			return fn, true
		}
	}
	var zero F
	return zero, false
}

// TypeOf returns the canonical type key a node dispatches under. Client
// packages key their vocabularies and capability checks by the same rule
// so the two stay aligned.
func TypeOf(a Attr) reflect.Type { return keyType(a) }

// keyType canonicalizes a node's dynamic type for table lookup: pointer
// types dereference to their element so And{} and &And{} register the
// same entry.
func keyType(a Attr) reflect.Type {
	t := reflect.TypeOf(a)
	if t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

// embeddedTypes returns the anonymous struct fields reachable from t in
// breadth-first order: direct embeds in field order, then their embeds.
func embeddedTypes(t reflect.Type) []reflect.Type {
	if t == nil || t.Kind() != reflect.Struct {
		return nil
	}
	var out []reflect.Type
	level := []reflect.Type{t}
	for len(level) > 0 {
		var next []reflect.Type
		for _, lt := range level {
			for i := 0; i < lt.NumField(); i++ {
				f := lt.Field(i)
				if !f.Anonymous {
					continue
				}
				ft := f.Type
				if ft.Kind() == reflect.Pointer {
					ft = ft.Elem()
				}
				if ft.Kind() != reflect.Struct {
					continue
				}
				out = append(out, ft)
				next = append(next, ft)
			}
		}
		level = next
	}
	return out
}
