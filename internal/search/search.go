// Package search federates one query across the registered archive
// clients: normalize, pair every branch with the clients that accept
// it, run the pairs concurrently, and reassemble results in query
// order.
package search

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/helio-search/helio/internal/client"
	"github.com/helio-search/helio/internal/query"
)

// ErrNoClient marks a branch no registered client accepts.
var ErrNoClient = errors.New("no client can handle this query")

const defaultParallel = 4

// Options configures a Service. Zero values select defaults.
type Options struct {
	// Parallel bounds concurrent client searches.
	Parallel int
}

// Service runs federated searches over a registry.
type Service struct {
	registry *client.Registry
	parallel int
}

// New returns a Service over the registry.
func New(registry *client.Registry, opts Options) *Service {
	parallel := opts.Parallel
	if parallel <= 0 {
		parallel = defaultParallel
	}
	return &Service{registry: registry, parallel: parallel}
}

// BranchResult is the outcome of one branch on one client. A branch no
// client accepts yields a single result with an empty Client and
// ErrNoClient wrapped in Err.
type BranchResult struct {
	Branch  *query.And
	Client  string
	Records []client.Record
	Err     error
}

// Response collects branch results in query order: branches in
// normalized order and, within a branch served by several clients,
// clients in registration order. Completion order never shows through.
type Response struct {
	Branches []BranchResult
}

// Records flattens the successful results, preserving response order.
func (r *Response) Records() []client.Record {
	var out []client.Record
	for _, b := range r.Branches {
		out = append(out, b.Records...)
	}
	return out
}

// Errs returns the branch errors in response order.
func (r *Response) Errs() []error {
	var out []error
	for _, b := range r.Branches {
		if b.Err != nil {
			out = append(out, b.Err)
		}
	}
	return out
}

// Search normalizes q and fans its branches out. Failures of individual
// branches land in their BranchResult and never abort siblings; a
// cancelled context stops issuing new requests, recording the
// cancellation in the slots still pending.
func (s *Service) Search(ctx context.Context, q query.Attr) (*Response, error) {
	or := query.Normalize(q)
	if len(or.Attrs) == 0 {
		return nil, errors.New("empty query")
	}

	type task struct {
		slot   int
		branch *query.And
		client client.Client
	}

	resp := &Response{}
	var tasks []task
	for _, b := range or.Attrs {
		branch := b.(*query.And)
		handlers := s.registry.HandlersFor(branch)
		if len(handlers) == 0 {
			resp.Branches = append(resp.Branches, BranchResult{
				Branch: branch,
				Err:    fmt.Errorf("%w: %s", ErrNoClient, branch),
			})
			continue
		}
		for _, c := range handlers {
			tasks = append(tasks, task{
				slot:   len(resp.Branches),
				branch: branch,
				client: c,
			})
			resp.Branches = append(resp.Branches, BranchResult{
				Branch: branch,
				Client: c.Info().Name,
			})
		}
	}

	var g errgroup.Group
	g.SetLimit(s.parallel)
	for _, tk := range tasks {
		g.Go(func() error {
			slot := &resp.Branches[tk.slot]
			if err := ctx.Err(); err != nil {
				slot.Err = err
				return nil
			}
			slot.Records, slot.Err = tk.client.Search(ctx, tk.branch)
			return nil
		})
	}
	// Each task writes only its own slot; Wait just synchronizes.
	_ = g.Wait()

	return resp, nil
}
