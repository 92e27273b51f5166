package sources

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/helio-search/helio/internal/attrs"
	"github.com/helio-search/helio/internal/query"
)

func timeAttr(t *testing.T, start, end string) attrs.Time {
	t.Helper()
	a, err := attrs.TimeStrings(start, end)
	if err != nil {
		t.Fatalf("TimeStrings(%q, %q): %v", start, end, err)
	}
	return a
}

func branch(parts ...query.Attr) *query.And {
	return &query.And{Attrs: parts}
}

func urlsOf(t *testing.T, c *Generic, b *query.And) []string {
	t.Helper()
	records, err := c.Search(context.Background(), b)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	urls := make([]string, len(records))
	for i, rec := range records {
		urls[i] = rec.URL
	}
	return urls
}

// fakeLister serves canned directory listings.
type fakeLister struct {
	entries map[string][]string
	calls   []string
}

func (f *fakeLister) List(_ context.Context, dir string) ([]string, error) {
	f.calls = append(f.calls, dir)
	return f.entries[dir], nil
}

// unsupported is a criterion no built-in source understands. It embeds
// the bare leaf marker, so the Simple catch-all does not cover it.
type unsupported struct{ query.Leaf }

func TestSearchUnsupportedCriterion(t *testing.T) {
	b := branch(
		timeAttr(t, "2016-01-01", "2016-01-02"),
		attrs.NewInstrument("eve"),
		attrs.NewLevel("0cs"),
		unsupported{},
	)
	_, err := NewEVE().Search(context.Background(), b)
	var derr *query.DispatchError
	if !errors.As(err, &derr) {
		t.Fatalf("Search error = %v, want DispatchError", err)
	}
	if !strings.Contains(derr.Error(), "unsupported") {
		t.Errorf("error %q does not name the criterion type", derr.Error())
	}
}

func TestSearchRequiresTime(t *testing.T) {
	b := branch(attrs.NewInstrument("eve"), attrs.NewLevel("0cs"))
	_, err := NewEVE().Search(context.Background(), b)
	if err == nil || !strings.Contains(err.Error(), "time") {
		t.Errorf("Search error = %v, want time requirement", err)
	}
}

func TestSearchWithoutListerFails(t *testing.T) {
	b := branch(
		timeAttr(t, "2016-05-18", "2016-05-19"),
		attrs.NewInstrument("bbso"),
		attrs.NewLevel("fr"),
	)
	_, err := NewBBSO(nil).Search(context.Background(), b)
	if err == nil || !strings.Contains(err.Error(), "lister") {
		t.Errorf("Search error = %v, want lister requirement", err)
	}
}

func TestSampleThinning(t *testing.T) {
	b := branch(
		timeAttr(t, "2012-07-07", "2012-07-14"),
		attrs.NewInstrument("eve"),
		attrs.NewLevel("0cs"),
		attrs.NewSample(48*time.Hour),
	)
	urls := urlsOf(t, NewEVE(), b)
	if len(urls) != 4 {
		t.Fatalf("got %d urls, want 4: %v", len(urls), urls)
	}
	for i, day := range []string{"20120707", "20120709", "20120711", "20120713"} {
		if !strings.Contains(urls[i], day) {
			t.Errorf("urls[%d] = %q, want day %s", i, urls[i], day)
		}
	}
}

func TestRecordMetadata(t *testing.T) {
	b := branch(
		timeAttr(t, "2012-04-21", "2012-04-21"),
		attrs.NewInstrument("eve"),
		attrs.NewLevel("0cs"),
	)
	records, err := NewEVE().Search(context.Background(), b)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	rec := records[0]
	if rec.Source != "SDO" || rec.Provider != "LASP" || rec.Physobs != "irradiance" {
		t.Errorf("metadata = %s/%s/%s, want SDO/LASP/irradiance",
			rec.Source, rec.Provider, rec.Physobs)
	}
	if rec.Client != "EVE" || rec.Instrument != "eve" {
		t.Errorf("client/instrument = %s/%s, want EVE/eve", rec.Client, rec.Instrument)
	}
	wantStart := time.Date(2012, 4, 21, 0, 0, 0, 0, time.UTC)
	wantEnd := time.Date(2012, 4, 21, 23, 59, 59, 0, time.UTC)
	if !rec.Start.Equal(wantStart) || !rec.End.Equal(wantEnd) {
		t.Errorf("span = %v ~ %v, want %v ~ %v", rec.Start, rec.End, wantStart, wantEnd)
	}
}
