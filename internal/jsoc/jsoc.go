// Package jsoc queries the Joint Science Operations Center export
// service for SDO and SOHO series data. Unlike the pattern archives,
// JSOC is addressed by series name, so the criterion types that select
// a series live here rather than in attrs.
package jsoc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/helio-search/helio/internal/attrs"
	"github.com/helio-search/helio/internal/client"
	"github.com/helio-search/helio/internal/parse"
	"github.com/helio-search/helio/internal/query"
)

const (
	// DefaultEndpoint is the production export service.
	DefaultEndpoint = "http://jsoc.stanford.edu/cgi-bin/ajax/jsoc_fetch"

	requestTimeout = 60 * time.Second

	// taiLayout renders instants the way series keywords do; the wire
	// format appends a literal _TAI suffix.
	taiLayout = "2006.01.02_15:04:05"
)

// Series names the dataseries to export, e.g. "hmi.m_45s".
type Series struct{ attrs.Simple }

func NewSeries(name string) Series { return Series{attrs.NewSimple(name)} }

func (s Series) String() string { return "series:" + s.Value() }

// Segment selects one data segment of a series, e.g. "image".
type Segment struct{ attrs.Simple }

func NewSegment(name string) Segment { return Segment{attrs.NewSimple(name)} }

func (s Segment) String() string { return "segment:" + s.Value() }

// Protocol selects the export file format, "fits" or "as-is".
type Protocol struct{ attrs.Simple }

func NewProtocol(name string) Protocol { return Protocol{attrs.NewSimple(name)} }

func (p Protocol) String() string { return "protocol:" + p.Value() }

// Notify carries the registered email address exports are billed to.
type Notify struct{ attrs.Simple }

func NewNotify(addr string) Notify { return Notify{attrs.NewSimple(addr)} }

func (n Notify) String() string { return "notify:" + n.Value() }

// RegisterKeys adds the export criterion keys to a grammar.
func RegisterKeys(g *parse.Grammar) {
	g.Register("series", func(value string) (query.Attr, error) {
		if !strings.Contains(value, ".") {
			return nil, fmt.Errorf("series must be <family>.<name>, got %q", value)
		}
		return NewSeries(value), nil
	})
	g.Register("segment", func(value string) (query.Attr, error) {
		if value == "" {
			return nil, fmt.Errorf("empty value")
		}
		return NewSegment(value), nil
	})
	g.Register("protocol", func(value string) (query.Attr, error) {
		v := strings.ToLower(value)
		if v != "fits" && v != "as-is" {
			return nil, fmt.Errorf("protocol must be fits or as-is, got %q", value)
		}
		return NewProtocol(v), nil
	})
	g.Register("notify", func(value string) (query.Attr, error) {
		if !strings.Contains(value, "@") {
			return nil, fmt.Errorf("notify must be an email address, got %q", value)
		}
		return NewNotify(value), nil
	})
}

// Options configures a Client. The zero value selects the production
// endpoint and a default HTTP client.
type Options struct {
	Endpoint   string
	HTTPClient *http.Client
}

// Client talks to the export service. Construct with New.
type Client struct {
	endpoint string
	http     *http.Client
	walker   *query.Walker
}

// New returns a Client over the given options.
func New(opts Options) *Client {
	endpoint := strings.TrimSpace(opts.Endpoint)
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: requestTimeout}
	}
	return &Client{
		endpoint: endpoint,
		http:     httpClient,
		walker:   newBodyWalker(),
	}
}

// Info implements client.Client.
func (c *Client) Info() client.Info {
	return client.Info{
		Name:  "JSOC",
		About: "Joint Science Operations Center export service, addressed by series name.",
	}
}

var (
	jsocRequired = []query.Attr{attrs.Time{}, Series{}}
	jsocOptional = []query.Attr{
		Segment{}, Protocol{}, Notify{},
		attrs.Wavelength{}, attrs.Sample{},
	}
)

// CanHandle accepts branches that name a series.
func (c *Client) CanHandle(branch *query.And) bool {
	return client.CheckAttrTypes(branch, jsocRequired, jsocOptional)
}

// BuildBody compiles a branch into the export request document.
func (c *Client) BuildBody(branch *query.And) (map[string]any, error) {
	body, err := query.CreateAs[map[string]any](c.walker, branch)
	if err != nil {
		return nil, err
	}
	if _, ok := body["series"]; !ok {
		return nil, errors.New("a series criterion is required")
	}
	if _, ok := body["protocol"]; !ok {
		body["protocol"] = "as-is"
	}
	return body, nil
}

// Search posts the request and maps the response rows to records.
func (c *Client) Search(ctx context.Context, branch *query.And) ([]client.Record, error) {
	body, err := c.BuildBody(branch)
	if err != nil {
		return nil, fmt.Errorf("JSOC: %w", err)
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("JSOC: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("JSOC: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("JSOC: search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("JSOC: search: status %d", resp.StatusCode)
	}

	var out exportResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("JSOC: decode response: %w", err)
	}
	if out.Status != "" && out.Status != "ok" {
		return nil, fmt.Errorf("JSOC: server rejected the request: %s", out.Error)
	}

	records := make([]client.Record, 0, len(out.Records))
	for i, row := range out.Records {
		rec, err := row.toRecord()
		if err != nil {
			return nil, fmt.Errorf("JSOC: record %d: %w", i, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// Values documents well known series and the export knobs.
func (c *Client) Values() client.Vocabulary {
	return client.Vocabulary{
		query.TypeOf(Series{}): {
			{Value: "hmi.m_45s", Desc: "HMI line of sight magnetograms at 45s cadence."},
			{Value: "hmi.ic_45s", Desc: "HMI continuum intensity at 45s cadence."},
			{Value: "aia.lev1_euv_12s", Desc: "AIA level 1 EUV images at 12s cadence."},
			{Value: "aia.lev1_uv_24s", Desc: "AIA level 1 UV images at 24s cadence."},
			{Value: "mdi.fd_m_96m_lev182", Desc: "MDI full disk magnetograms at 96m cadence."},
		},
		query.TypeOf(Protocol{}): {
			{Value: "as-is", Desc: "Export the stored files unchanged (default)."},
			{Value: "fits", Desc: "Re-pack segments as FITS with headers."},
		},
		query.TypeOf(Segment{}): {
			{Value: "image", Desc: "The primary image segment."},
			{Value: "magnetogram", Desc: "HMI magnetogram segment."},
			{Value: "continuum", Desc: "HMI continuum segment."},
		},
	}
}

func newBodyWalker() *query.Walker {
	w := query.NewWalker()

	w.AddCreator(func(w *query.Walker, node query.Attr) (any, error) {
		body := map[string]any{}
		for _, child := range node.(*query.And).Attrs {
			if err := w.Apply(child, body); err != nil {
				return nil, err
			}
		}
		return body, nil
	}, &query.And{})

	w.AddApplier(func(_ *query.Walker, node query.Attr, acc any) error {
		r := node.(attrs.Time).Range()
		body := acc.(map[string]any)
		body["start"] = r.Start().Format(taiLayout) + "_TAI"
		body["end"] = r.End().Format(taiLayout) + "_TAI"
		return nil
	}, attrs.Time{})
	w.AddApplier(func(_ *query.Walker, node query.Attr, acc any) error {
		wl := node.(attrs.Wavelength)
		if !wl.IsPoint() {
			return errors.New("wavelength must name one channel, not a range")
		}
		acc.(map[string]any)["wavelength"] = wl.Min().InAngstroms()
		return nil
	}, attrs.Wavelength{})
	w.AddApplier(func(_ *query.Walker, node query.Attr, acc any) error {
		acc.(map[string]any)["sample"] = int(node.(attrs.Sample).Cadence() / time.Second)
		return nil
	}, attrs.Sample{})

	// Series, Segment, Protocol and Notify all embed Simple, so one
	// applier keyed on the embedded base covers the family.
	w.AddApplier(func(_ *query.Walker, node query.Attr, acc any) error {
		name := strings.ToLower(query.TypeOf(node).Name())
		acc.(map[string]any)[name] = node.(interface{ Value() string }).Value()
		return nil
	}, attrs.Simple{})
	return w
}

// exportResponse is the JSON document the service returns.
type exportResponse struct {
	Status  string       `json:"status"`
	Error   string       `json:"error"`
	Records []wireRecord `json:"records"`
}

// wireRecord is one export row. t_rec and wavelnth follow the series
// keyword spellings.
type wireRecord struct {
	TRec     string  `json:"t_rec"`
	Series   string  `json:"series"`
	Segment  string  `json:"segment"`
	Wavelnth float64 `json:"wavelnth"`
	URL      string  `json:"url"`
}

// familySources maps a series family to the observatory it flies on.
var familySources = map[string]string{
	"hmi":  "SDO",
	"aia":  "SDO",
	"mdi":  "SOHO",
	"iris": "IRIS",
}

func (r wireRecord) toRecord() (client.Record, error) {
	stamp := strings.TrimSuffix(r.TRec, "_TAI")
	start, err := time.ParseInLocation(taiLayout, stamp, time.UTC)
	if err != nil {
		return client.Record{}, fmt.Errorf("bad t_rec %q", r.TRec)
	}

	family, _, _ := strings.Cut(r.Series, ".")
	rec := client.Record{
		Start:      start,
		End:        start,
		Instrument: strings.ToUpper(family),
		Source:     familySources[strings.ToLower(family)],
		Provider:   "JSOC",
		URL:        r.URL,
		Client:     "JSOC",
	}
	if r.Wavelnth > 0 {
		rec.Wavelength = attrs.Angstroms(r.Wavelnth).String()
	}
	if r.Series != "" {
		rec.Extra = map[string]string{"series": r.Series}
		if r.Segment != "" {
			rec.Extra["segment"] = r.Segment
		}
	}
	return rec, nil
}
