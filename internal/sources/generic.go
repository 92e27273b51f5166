package sources

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/helio-search/helio/internal/attrs"
	"github.com/helio-search/helio/internal/client"
	"github.com/helio-search/helio/internal/query"
	"github.com/helio-search/helio/internal/scraper"
	"github.com/helio-search/helio/internal/timerange"
)

// request is what a walker distills out of one branch: the time range to
// cover, pattern substitutions drawn from string-valued criteria, and an
// optional sampling cadence.
type request struct {
	rng     timerange.Range
	fields  map[string]string
	cadence time.Duration
}

// timesFunc recovers the interval a file URL covers.
type timesFunc func(url string) (start, end time.Time, ok bool)

// Generic serves pattern-based archives. The manifest supplies the
// declarative parts; sources that need more than pattern expansion hook
// in behavior through the function fields.
type Generic struct {
	info     client.Info
	meta     Metadata
	pattern  string
	defaults map[string]string
	required []query.Attr
	optional []query.Attr
	accepts  []string
	earliest time.Time
	vocab    client.Vocabulary
	lister   scraper.Lister

	// handles adds value-level checks on top of the criterion-type and
	// instrument checks in CanHandle.
	handles func(branch *query.And) bool
	// prepare runs after extraction and defaults, before URL building.
	prepare func(req *request) error
	// buildURLs replaces pattern expansion entirely; urlTimes then
	// supplies the file intervals.
	buildURLs func(ctx context.Context, req *request) ([]string, error)
	urlTimes  timesFunc
	// decorate touches up each record before it is returned.
	decorate func(rec *client.Record, req *request)

	walker *query.Walker
}

// fromManifest builds the client skeleton for a manifest key. A missing
// key is a programming error: every constructor is covered by tests.
func fromManifest(key string) *Generic {
	def := manifest.Sources[key]
	if def == nil {
		panic(fmt.Sprintf("sources: no manifest entry %q", key))
	}
	g := &Generic{
		info:     client.Info{Name: def.Name, About: def.About},
		meta:     def.Metadata,
		pattern:  def.Pattern,
		defaults: def.Defaults,
		required: protosFor(def.Required),
		optional: protosFor(def.Optional),
		accepts:  def.Instruments,
		vocab:    def.vocabulary(),
	}
	if def.Earliest != "" {
		g.earliest, _ = timerange.ParseTime(def.Earliest)
	}
	g.walker = newRequestWalker()
	return g
}

// newRequestWalker builds the branch-to-request dispatcher. The Simple
// applier covers every string-valued criterion at once, including ones
// defined outside the attrs package; sources override individual types
// by registering their own handlers on top.
func newRequestWalker() *query.Walker {
	w := query.NewWalker()
	w.AddCreator(func(w *query.Walker, node query.Attr) (any, error) {
		req := &request{fields: make(map[string]string)}
		for _, child := range node.(*query.And).Attrs {
			if err := w.Apply(child, req); err != nil {
				return nil, err
			}
		}
		return req, nil
	}, &query.And{})
	w.AddApplier(func(_ *query.Walker, node query.Attr, acc any) error {
		acc.(*request).rng = node.(attrs.Time).Range()
		return nil
	}, attrs.Time{})
	w.AddApplier(func(_ *query.Walker, node query.Attr, acc any) error {
		acc.(*request).cadence = node.(attrs.Sample).Cadence()
		return nil
	}, attrs.Sample{})
	w.AddApplier(func(_ *query.Walker, node query.Attr, acc any) error {
		name := strings.ToLower(query.TypeOf(node).Name())
		value := node.(interface{ Value() string }).Value()
		acc.(*request).fields[name] = strings.ToLower(value)
		return nil
	}, attrs.Simple{})
	return w
}

// Info implements client.Client.
func (g *Generic) Info() client.Info { return g.info }

// Values implements client.Client.
func (g *Generic) Values() client.Vocabulary { return g.vocab }

// CanHandle implements client.Client.
func (g *Generic) CanHandle(branch *query.And) bool {
	if !client.CheckAttrTypes(branch, g.required, g.optional) {
		return false
	}
	if !client.InstrumentIs(branch, g.accepts...) {
		return false
	}
	if g.handles != nil && !g.handles(branch) {
		return false
	}
	return true
}

// Search implements client.Client.
func (g *Generic) Search(ctx context.Context, branch *query.And) ([]client.Record, error) {
	req, err := query.CreateAs[*request](g.walker, branch)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", g.info.Name, err)
	}
	for k, v := range g.defaults {
		if _, ok := req.fields[k]; !ok {
			req.fields[k] = v
		}
	}
	if req.rng.IsZero() {
		return nil, fmt.Errorf("%s: a time criterion is required", g.info.Name)
	}
	if g.prepare != nil {
		if err := g.prepare(req); err != nil {
			return nil, fmt.Errorf("%s: %w", g.info.Name, err)
		}
	}
	if !g.earliest.IsZero() && req.rng.Start().Before(g.earliest) {
		return nil, fmt.Errorf("%s: no data before %s", g.info.Name, g.earliest.Format("2006-01-02"))
	}

	urls, times, err := g.locate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", g.info.Name, err)
	}
	urls = thin(urls, times, req.cadence)

	records := make([]client.Record, 0, len(urls))
	for _, u := range urls {
		rec := client.Record{
			Instrument: g.meta.Instrument,
			Source:     g.meta.Source,
			Provider:   g.meta.Provider,
			Physobs:    g.meta.Physobs,
			URL:        u,
			Client:     g.info.Name,
		}
		if times != nil {
			if start, end, ok := times(u); ok {
				rec.Start, rec.End = start, end
			}
		}
		if g.decorate != nil {
			g.decorate(&rec, req)
		}
		records = append(records, rec)
	}
	return records, nil
}

// locate turns a request into file URLs. Determined patterns at hour
// cadence or coarser generate candidates directly; anything finer or
// regex-bearing goes through directory listing.
func (g *Generic) locate(ctx context.Context, req *request) ([]string, timesFunc, error) {
	if g.buildURLs != nil {
		urls, err := g.buildURLs(ctx, req)
		return urls, g.urlTimes, err
	}
	scr, err := scraper.New(g.pattern, req.fields)
	if err != nil {
		return nil, nil, err
	}
	times := func(u string) (time.Time, time.Time, bool) {
		start, ok := scr.ExtractTime(u)
		if !ok {
			return time.Time{}, time.Time{}, false
		}
		return start, fileEnd(start, scr.Cadence()), true
	}
	if scr.Determined() && scr.Cadence() >= time.Hour {
		return scr.Candidates(req.rng), times, nil
	}
	if g.lister == nil {
		return nil, nil, errors.New("archive requires directory listing but no lister is configured")
	}
	urls, err := scr.FileList(ctx, req.rng, g.lister)
	return urls, times, err
}

// fileEnd closes the interval a file covers given the archive cadence.
func fileEnd(start time.Time, cadence time.Duration) time.Time {
	if cadence <= time.Second {
		return start
	}
	return start.Add(cadence - time.Second)
}

// thin drops files spaced closer than the requested cadence, keeping the
// first of each window.
func thin(urls []string, times timesFunc, cadence time.Duration) []string {
	if cadence <= 0 || times == nil || len(urls) == 0 {
		return urls
	}
	out := make([]string, 0, len(urls))
	var last time.Time
	kept := false
	for _, u := range urls {
		start, _, ok := times(u)
		if !ok {
			out = append(out, u)
			continue
		}
		if !kept || !start.Before(last.Add(cadence)) {
			out = append(out, u)
			last = start
			kept = true
		}
	}
	return out
}
