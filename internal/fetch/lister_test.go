package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
)

func TestListerScansIndexPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/halpha2k/recent/2015/" {
			http.NotFound(w, r)
			return
		}
		// The usual Apache index page shape.
		fmt.Fprintf(w, `<html><body>
			<a href="?C=M;O=A">Last modified</a>
			<a href="/halpha2k/recent/">Parent Directory</a>
			<a href="kanz_halph_fr_20150110_102629.fts.gz">kanz_halph_fr_20150110_102629.fts.gz</a>
			<a href="kanz_halph_fr_20150110_113524.fts.gz">kanz_halph_fr_20150110_113524.fts.gz</a>
			<a href="thumbs/">thumbs/</a>
			<a href="http://other.example.org/stray.fits">stray</a>
			<a href="#top">top</a>
		</body></html>`)
	}))
	defer srv.Close()

	l := NewHTTPLister(srv.Client())
	got, err := l.List(context.Background(), srv.URL+"/halpha2k/recent/2015/")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []string{
		srv.URL + "/halpha2k/recent/2015/kanz_halph_fr_20150110_102629.fts.gz",
		srv.URL + "/halpha2k/recent/2015/kanz_halph_fr_20150110_113524.fts.gz",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("List = %v, want %v", got, want)
	}
}

func TestListerMissingDirectoryIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(http.NotFound))
	defer srv.Close()

	l := NewHTTPLister(srv.Client())
	got, err := l.List(context.Background(), srv.URL+"/caiia/2015/20150230/")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("List = %v, want none", got)
	}
}

func TestListerServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down for maintenance", http.StatusInternalServerError)
	}))
	defer srv.Close()

	l := NewHTTPLister(srv.Client())
	_, err := l.List(context.Background(), srv.URL+"/halpha2k/recent/2015/")
	if err == nil || !strings.Contains(err.Error(), "status 500") {
		t.Errorf("error = %v, want status 500", err)
	}
}
