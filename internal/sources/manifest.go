package sources

import (
	_ "embed"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/helio-search/helio/internal/attrs"
	"github.com/helio-search/helio/internal/client"
	"github.com/helio-search/helio/internal/query"
	"github.com/helio-search/helio/internal/timerange"
)

//go:embed manifest.yaml
var manifestYAML []byte

// Manifest is the catalogue of built-in archives loaded from
// manifest.yaml. Everything declarative about a source lives here; the
// per-source Go files add only behavior.
type Manifest struct {
	Sources map[string]*SourceDef `yaml:"sources"`
}

// SourceDef describes one archive.
type SourceDef struct {
	Name        string                `yaml:"name"`
	About       string                `yaml:"about"`
	Instruments []string              `yaml:"instruments"`
	Metadata    Metadata              `yaml:"metadata"`
	Pattern     string                `yaml:"pattern,omitempty"`
	Defaults    map[string]string     `yaml:"defaults,omitempty"`
	Earliest    string                `yaml:"earliest,omitempty"`
	Required    []string              `yaml:"required"`
	Optional    []string              `yaml:"optional,omitempty"`
	Values      map[string][]ValueDef `yaml:"values,omitempty"`
}

// Metadata carries the fixed record fields a source stamps on results.
type Metadata struct {
	Source     string `yaml:"source"`
	Provider   string `yaml:"provider"`
	Instrument string `yaml:"instrument"`
	Physobs    string `yaml:"physobs"`
}

// ValueDef documents one accepted criterion value.
type ValueDef struct {
	Value string `yaml:"value"`
	Desc  string `yaml:"desc"`
}

// attrProtos maps manifest criterion keys to leaf prototypes, aligned
// with the default grammar keys plus this package's extensions.
var attrProtos = map[string]query.Attr{
	"time":            attrs.Time{},
	"instrument":      attrs.Instrument{},
	"wavelength":      attrs.Wavelength{},
	"level":           attrs.Level{},
	"sample":          attrs.Sample{},
	"detector":        attrs.Detector{},
	"resolution":      attrs.Resolution{},
	"source":          attrs.Source{},
	"physobs":         attrs.Physobs{},
	"provider":        attrs.Provider{},
	"satellitenumber": SatelliteNumber{},
}

func loadManifest() (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(manifestYAML, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	if len(m.Sources) == 0 {
		return nil, fmt.Errorf("manifest defines no sources")
	}
	for key, def := range m.Sources {
		if err := def.validate(); err != nil {
			return nil, fmt.Errorf("manifest source %q: %w", key, err)
		}
	}
	return &m, nil
}

func (d *SourceDef) validate() error {
	if d.Name == "" {
		return fmt.Errorf("missing name")
	}
	if len(d.Instruments) == 0 {
		return fmt.Errorf("no accepted instruments")
	}
	if d.Metadata.Instrument == "" {
		return fmt.Errorf("missing metadata instrument")
	}
	if len(d.Required) == 0 {
		return fmt.Errorf("no required criteria")
	}
	for _, key := range append(append([]string{}, d.Required...), d.Optional...) {
		if _, ok := attrProtos[key]; !ok {
			return fmt.Errorf("unknown criterion key %q", key)
		}
	}
	for key := range d.Values {
		if _, ok := attrProtos[key]; !ok {
			return fmt.Errorf("values for unknown criterion key %q", key)
		}
	}
	if d.Earliest != "" {
		if _, err := timerange.ParseTime(d.Earliest); err != nil {
			return fmt.Errorf("bad earliest date: %w", err)
		}
	}
	return nil
}

func protosFor(keys []string) []query.Attr {
	out := make([]query.Attr, 0, len(keys))
	for _, key := range keys {
		out = append(out, attrProtos[key])
	}
	return out
}

func (d *SourceDef) vocabulary() client.Vocabulary {
	if len(d.Values) == 0 {
		return nil
	}
	vocab := make(client.Vocabulary, len(d.Values))
	keys := make([]string, 0, len(d.Values))
	for key := range d.Values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		t := query.TypeOf(attrProtos[key])
		for _, v := range d.Values[key] {
			vocab[t] = append(vocab[t], client.ValueDesc{Value: v.Value, Desc: v.Desc})
		}
	}
	return vocab
}

// manifest is parsed once at startup; the file is embedded, so a failure
// here is a build defect caught by the manifest tests.
var manifest = func() *Manifest {
	m, err := loadManifest()
	if err != nil {
		panic(err)
	}
	return m
}()
