package ledger

import (
	"testing"
	"time"
)

func openTemp(t *testing.T) *Ledger {
	t.Helper()
	l, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

func TestRecordSearchAndHistory(t *testing.T) {
	l := openTemp(t)

	id, err := l.RecordSearch("time:2011-06-07 instrument:aia", []BranchOutcome{
		{Branch: "time:2011-06-07 & instrument:aia", Client: "VSO", Records: 12},
		{Branch: "time:2011-06-07 & instrument:eve", Client: "EVE", Records: 0, Err: "status 502"},
	})
	if err != nil {
		t.Fatalf("RecordSearch: %v", err)
	}
	if id == "" {
		t.Fatal("RecordSearch returned an empty id")
	}

	entries, err := l.History(HistoryFilter{})
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	e := entries[0]
	if e.ID != id {
		t.Errorf("entry id = %q, want %q", e.ID, id)
	}
	if e.Query != "time:2011-06-07 instrument:aia" {
		t.Errorf("entry query = %q", e.Query)
	}
	if e.Branches != 2 {
		t.Errorf("entry branches = %d, want 2", e.Branches)
	}
	if e.Records != 12 {
		t.Errorf("entry records = %d, want 12", e.Records)
	}
	if time.Since(e.At) > time.Minute {
		t.Errorf("entry time %v is stale", e.At)
	}

	branches, err := l.Branches(id)
	if err != nil {
		t.Fatalf("Branches: %v", err)
	}
	if len(branches) != 2 {
		t.Fatalf("got %d branches, want 2", len(branches))
	}
	if branches[0].Client != "VSO" || branches[0].Records != 12 || branches[0].Err != "" {
		t.Errorf("first branch = %+v", branches[0])
	}
	if branches[1].Client != "EVE" || branches[1].Err != "status 502" {
		t.Errorf("second branch = %+v", branches[1])
	}
}

func TestHistoryFilters(t *testing.T) {
	l := openTemp(t)

	record := func(query string, clients ...string) string {
		t.Helper()
		var branches []BranchOutcome
		for _, c := range clients {
			branches = append(branches, BranchOutcome{Branch: query, Client: c, Records: 1})
		}
		id, err := l.RecordSearch(query, branches)
		if err != nil {
			t.Fatalf("RecordSearch(%q): %v", query, err)
		}
		return id
	}

	record("time:2011-06-07 instrument:aia", "VSO")
	record("time:2014-01-01 series:hmi.m_45s", "JSOC")
	last := record("time:2011-06-07", "VSO", "XRS")

	entries, err := l.History(HistoryFilter{})
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}
	if entries[0].ID != last {
		t.Errorf("newest entry is %q, want %q", entries[0].ID, last)
	}

	entries, err = l.History(HistoryFilter{Client: "vso"})
	if err != nil {
		t.Fatalf("History by client: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("client filter got %d entries, want 2", len(entries))
	}

	entries, err = l.History(HistoryFilter{Limit: 1})
	if err != nil {
		t.Fatalf("History with limit: %v", err)
	}
	if len(entries) != 1 || entries[0].ID != last {
		t.Fatalf("limit 1 got %d entries, first %q", len(entries), entries[0].ID)
	}

	entries, err = l.History(HistoryFilter{Since: time.Now().Add(time.Hour)})
	if err != nil {
		t.Fatalf("History since future: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("future cutoff got %d entries, want 0", len(entries))
	}

	entries, err = l.History(HistoryFilter{Since: time.Now().Add(-time.Hour)})
	if err != nil {
		t.Fatalf("History since past: %v", err)
	}
	if len(entries) != 3 {
		t.Errorf("past cutoff got %d entries, want 3", len(entries))
	}
}

func TestFetchLedger(t *testing.T) {
	l := openTemp(t)

	if _, ok, err := l.Fetched("http://example.org/a.fits"); err != nil || ok {
		t.Fatalf("Fetched before recording = %v, %v", ok, err)
	}

	if err := l.RecordFetch("http://example.org/a.fits", "/data/aia/a.fits", 2048); err != nil {
		t.Fatalf("RecordFetch: %v", err)
	}
	path, ok, err := l.Fetched("http://example.org/a.fits")
	if err != nil {
		t.Fatalf("Fetched: %v", err)
	}
	if !ok || path != "/data/aia/a.fits" {
		t.Errorf("Fetched = %q, %v", path, ok)
	}

	// Recording the same URL again replaces the old row.
	if err := l.RecordFetch("http://example.org/a.fits", "/data/aia/a2.fits", 4096); err != nil {
		t.Fatalf("RecordFetch again: %v", err)
	}
	path, ok, err = l.Fetched("http://example.org/a.fits")
	if err != nil {
		t.Fatalf("Fetched after replace: %v", err)
	}
	if !ok || path != "/data/aia/a2.fits" {
		t.Errorf("Fetched after replace = %q, %v", path, ok)
	}
}

func TestReopen(t *testing.T) {
	dir := t.TempDir()

	l, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	id, err := l.RecordSearch("time:2011-06-07", []BranchOutcome{{Branch: "time:2011-06-07", Client: "VSO", Records: 3}})
	if err != nil {
		t.Fatalf("RecordSearch: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	l, err = Open(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer l.Close()

	entries, err := l.History(HistoryFilter{})
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(entries) != 1 || entries[0].ID != id {
		t.Fatalf("history after reopen = %+v", entries)
	}
}
