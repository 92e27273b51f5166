// Package vso queries the Virtual Solar Observatory, a federated index
// over dozens of solar data providers. Branches compile to GET
// parameters: every criterion converts to a params node and one applier
// merges them, so the walker tables stay small no matter how many
// criterion types exist.
package vso

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/helio-search/helio/internal/attrs"
	"github.com/helio-search/helio/internal/client"
	"github.com/helio-search/helio/internal/query"
)

const (
	// DefaultEndpoint is the production search service.
	DefaultEndpoint = "https://vso.nascom.nasa.gov/cgi-bin/search"

	requestTimeout = 60 * time.Second

	// stampLayout is the compact timestamp the service uses on the wire,
	// both in tstart/tend and in record times.
	stampLayout = "20060102150405"
)

// Options configures a Client. The zero value selects the production
// endpoint and a default HTTP client.
type Options struct {
	Endpoint   string
	HTTPClient *http.Client
}

// Client searches the federation. Construct with New.
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
		walker:   newParamWalker(),
	}
}

// Info implements client.Client.
func (c *Client) Info() client.Info {
	return client.Info{
		Name:  "VSO",
		About: "Virtual Solar Observatory, a federated index over solar data providers.",
	}
}

var (
	vsoRequired = []query.Attr{attrs.Time{}}
	vsoOptional = []query.Attr{
		attrs.Instrument{}, attrs.Source{}, attrs.Provider{}, attrs.Physobs{},
		attrs.Level{}, attrs.Detector{}, attrs.Resolution{},
		attrs.Wavelength{}, attrs.Sample{},
	}
)

// CanHandle accepts any branch made of the shared criteria. The
// federation indexes far more instruments than the direct archive
// clients, so a time criterion alone is a valid query.
func (c *Client) CanHandle(branch *query.And) bool {
	return client.CheckAttrTypes(branch, vsoRequired, vsoOptional)
}

// BuildParams compiles a branch into the GET parameters the service
// understands.
func (c *Client) BuildParams(branch *query.And) (url.Values, error) {
	return query.CreateAs[url.Values](c.walker, branch)
}

// Search issues the query and maps the response rows to records.
func (c *Client) Search(ctx context.Context, branch *query.And) ([]client.Record, error) {
	values, err := c.BuildParams(branch)
	if err != nil {
		return nil, fmt.Errorf("VSO: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+values.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("VSO: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("VSO: search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("VSO: search: status %d", resp.StatusCode)
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("VSO: decode response: %w", err)
	}

	records := make([]client.Record, 0, len(body.Records))
	for i, row := range body.Records {
		rec, err := row.toRecord()
		if err != nil {
			return nil, fmt.Errorf("VSO: record %d: %w", i, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// Values documents commonly queried criteria. The federation is open
// ended; this is descriptive, not a validation list.
func (c *Client) Values() client.Vocabulary {
	return client.Vocabulary{
		query.TypeOf(attrs.Physobs{}): {
			{Value: "intensity", Desc: "Brightness of the observed emission."},
			{Value: "irradiance", Desc: "Power per unit area at the observer."},
			{Value: "los_magnetic_field", Desc: "Line of sight magnetic field strength."},
			{Value: "vector_magnetic_field", Desc: "Full vector magnetic field."},
		},
		query.TypeOf(attrs.Provider{}): {
			{Value: "JSOC", Desc: "Joint Science Operations Center at Stanford."},
			{Value: "SDAC", Desc: "Solar Data Analysis Center at Goddard."},
			{Value: "NSO", Desc: "National Solar Observatory archives."},
		},
	}
}

// params is the intermediate node every criterion converts to: a
// fragment of GET parameters ready to merge.
type params struct {
	query.Leaf
	v url.Values
}

func newParamWalker() *query.Walker {
	w := query.NewWalker()

	w.AddCreator(func(w *query.Walker, node query.Attr) (any, error) {
		acc := url.Values{}
		for _, child := range node.(*query.And).Attrs {
			if err := w.Apply(child, acc); err != nil {
				return nil, err
			}
		}
		return acc, nil
	}, &query.And{})

	w.AddCreator(func(_ *query.Walker, node query.Attr) (any, error) {
		return node.(params).v, nil
	}, params{})
	w.AddApplier(func(_ *query.Walker, node query.Attr, acc any) error {
		dst := acc.(url.Values)
		for k, vs := range node.(params).v {
			dst[k] = append(dst[k], vs...)
		}
		return nil
	}, params{})

	w.AddConverter(timeParams, attrs.Time{})
	w.AddConverter(waveParams, attrs.Wavelength{})
	w.AddConverter(sampleParams, attrs.Sample{})
	w.AddConverter(simpleParams, attrs.Simple{})
	return w
}

func timeParams(node query.Attr) (query.Attr, error) {
	r := node.(attrs.Time).Range()
	return params{v: url.Values{
		"tstart": {r.Start().Format(stampLayout)},
		"tend":   {r.End().Format(stampLayout)},
	}}, nil
}

func waveParams(node query.Attr) (query.Attr, error) {
	w := node.(attrs.Wavelength)
	return params{v: url.Values{
		"wavemin":  {formatNumber(w.Min().InAngstroms())},
		"wavemax":  {formatNumber(w.Max().InAngstroms())},
		"waveunit": {"Angstrom"},
	}}, nil
}

func sampleParams(node query.Attr) (query.Attr, error) {
	s := node.(attrs.Sample)
	return params{v: url.Values{
		"sample": {strconv.Itoa(int(s.Cadence() / time.Second))},
	}}, nil
}

// simpleParams names the parameter after the criterion type, so
// Instrument becomes instrument=... and any future Simple-based
// criterion maps with no code here.
func simpleParams(node query.Attr) (query.Attr, error) {
	name := strings.ToLower(query.TypeOf(node).Name())
	value := node.(interface{ Value() string }).Value()
	return params{v: url.Values{name: {value}}}, nil
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// searchResponse is the JSON document the search endpoint returns.
type searchResponse struct {
	Records []wireRecord `json:"records"`
}

// wireRecord is one provider row.
type wireRecord struct {
	Start      string  `json:"start"`
	End        string  `json:"end"`
	Instrument string  `json:"instrument"`
	Source     string  `json:"source"`
	Provider   string  `json:"provider"`
	Physobs    string  `json:"physobs"`
	WaveMin    float64 `json:"wavemin"`
	WaveMax    float64 `json:"wavemax"`
	WaveUnit   string  `json:"waveunit"`
	FileID     string  `json:"fileid"`
	Size       int64   `json:"size"`
	URL        string  `json:"url"`
}

func (r wireRecord) toRecord() (client.Record, error) {
	start, err := time.ParseInLocation(stampLayout, r.Start, time.UTC)
	if err != nil {
		return client.Record{}, fmt.Errorf("bad start time %q", r.Start)
	}
	end := start
	if r.End != "" {
		end, err = time.ParseInLocation(stampLayout, r.End, time.UTC)
		if err != nil {
			return client.Record{}, fmt.Errorf("bad end time %q", r.End)
		}
	}

	rec := client.Record{
		Start:      start,
		End:        end,
		Instrument: r.Instrument,
		Source:     r.Source,
		Provider:   r.Provider,
		Physobs:    r.Physobs,
		Wavelength: waveString(r.WaveMin, r.WaveMax, r.WaveUnit),
		URL:        r.URL,
		Client:     "VSO",
	}
	if r.FileID != "" {
		rec.Extra = map[string]string{"fileid": r.FileID}
		if r.Size > 0 {
			rec.Extra["size"] = strconv.FormatInt(r.Size, 10)
		}
	}
	return rec, nil
}

// waveString renders the spectral coverage of a row. Providers that
// report no wavelength leave it empty.
func waveString(min, max float64, unit string) string {
	if min == 0 && max == 0 {
		return ""
	}
	q := attrs.Angstroms
	if strings.EqualFold(unit, "ghz") {
		q = attrs.Gigahertz
	}
	if min == max {
		return q(min).String()
	}
	return q(min).String() + ".." + q(max).String()
}
