package docs

import (
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gmtext "github.com/yuin/goldmark/text"
)

// Topic is one bundled guide.
type Topic struct {
	ID    string
	Title string
	Path  string
}

// Topics lists the bundled guides sorted by id. Titles come from each
// file's first level-one heading.
func Topics() ([]Topic, error) {
	entries, err := fs.ReadDir(FS, "guide")
	if err != nil {
		return nil, fmt.Errorf("read bundled guides: %w", err)
	}

	var out []Topic
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		p := path.Join("guide", e.Name())
		raw, err := fs.ReadFile(FS, p)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
		id := strings.TrimSuffix(e.Name(), ".md")
		title := extractTitle(raw)
		if title == "" {
			title = id
		}
		out = append(out, Topic{ID: id, Title: title, Path: p})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Load returns the raw markdown for one topic id.
func Load(id string) ([]byte, error) {
	id = strings.ToLower(strings.TrimSuffix(strings.TrimSpace(id), ".md"))
	raw, err := fs.ReadFile(FS, path.Join("guide", id+".md"))
	if err != nil {
		return nil, fmt.Errorf("unknown topic %q", id)
	}
	return raw, nil
}

// extractTitle returns the text of the first level-one heading.
func extractTitle(source []byte) string {
	doc := goldmark.New().Parser().Parse(gmtext.NewReader(source))
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		h, ok := n.(*ast.Heading)
		if !ok || h.Level != 1 {
			continue
		}
		var sb strings.Builder
		for c := h.FirstChild(); c != nil; c = c.NextSibling() {
			if t, ok := c.(*ast.Text); ok {
				sb.Write(t.Segment.Value(source))
			}
		}
		if title := strings.TrimSpace(sb.String()); title != "" {
			return title
		}
	}
	return ""
}
