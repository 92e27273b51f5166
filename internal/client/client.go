// Package client defines the boundary between the query algebra and the
// archive adapters: the Client interface each archive implements, the
// Record rows searches return, and the vocabulary metadata clients expose
// for documentation.
package client

import (
	"context"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/helio-search/helio/internal/query"
)

// Record is one search result row. URL points at the retrievable file;
// Extra carries client-specific fields extracted from it.
type Record struct {
	Start      time.Time
	End        time.Time
	Instrument string
	Source     string
	Provider   string
	Physobs    string
	Wavelength string
	URL        string
	Client     string
	Extra      map[string]string
}

// Info describes a client for listings.
type Info struct {
	Name  string
	About string
}

// Client is one searchable archive. CanHandle is consulted per normalized
// branch; Search is invoked only for branches the client accepted and may
// run concurrently with searches on other clients.
type Client interface {
	Info() Info
	CanHandle(branch *query.And) bool
	Search(ctx context.Context, branch *query.And) ([]Record, error)
	Values() Vocabulary
}

// ValueDesc documents one accepted criterion value.
type ValueDesc struct {
	Value string
	Desc  string
}

// Vocabulary maps criterion types to the values a client documents for
// them. It is descriptive metadata for listings and docs; nothing in the
// search path validates against it.
type Vocabulary map[reflect.Type][]ValueDesc

// Merge combines vocabularies, deduplicating by value per criterion type
// (first description wins) and sorting values for stable display.
func Merge(vocabs ...Vocabulary) Vocabulary {
	out := make(Vocabulary)
	seen := make(map[reflect.Type]map[string]bool)
	for _, v := range vocabs {
		for t, values := range v {
			if seen[t] == nil {
				seen[t] = make(map[string]bool)
			}
			for _, vd := range values {
				if seen[t][vd.Value] {
					continue
				}
				seen[t][vd.Value] = true
				out[t] = append(out[t], vd)
			}
		}
	}
	for t := range out {
		sort.Slice(out[t], func(i, j int) bool {
			return out[t][i].Value < out[t][j].Value
		})
	}
	return out
}

// Registry is an ordered, caller-constructed set of clients. Order is
// search order; there is no package-level shared registry.
type Registry struct {
	clients []Client
}

// NewRegistry builds a registry over the given clients.
func NewRegistry(clients ...Client) *Registry {
	return &Registry{clients: append([]Client(nil), clients...)}
}

// Add appends a client to the registry.
func (r *Registry) Add(c Client) {
	r.clients = append(r.clients, c)
}

// All returns the clients in registration order.
func (r *Registry) All() []Client {
	return append([]Client(nil), r.clients...)
}

// Lookup finds a client by name, case-insensitively.
func (r *Registry) Lookup(name string) (Client, bool) {
	for _, c := range r.clients {
		if strings.EqualFold(c.Info().Name, name) {
			return c, true
		}
	}
	return nil, false
}

// HandlersFor returns the clients accepting the branch, in registration
// order.
func (r *Registry) HandlersFor(branch *query.And) []Client {
	var out []Client
	for _, c := range r.clients {
		if c.CanHandle(branch) {
			out = append(out, c)
		}
	}
	return out
}

// Vocabulary merges the vocabularies of all registered clients.
func (r *Registry) Vocabulary() Vocabulary {
	vocabs := make([]Vocabulary, 0, len(r.clients))
	for _, c := range r.clients {
		vocabs = append(vocabs, c.Values())
	}
	return Merge(vocabs...)
}
