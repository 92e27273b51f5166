// Package scraper expands archive URL patterns over time ranges and
// recognizes the files they produce.
//
// Patterns mix literal URL text, strftime-style date codes, and optional
// regex fragments for parts the pattern cannot determine:
//
//	http://proba2.oma.be/lyra/data/bsd/%Y/%m/%d/lyra_%Y%m%d-000000_lev{level}_std.fits
//
// {name} placeholders are substituted at construction. Fully determined
// patterns generate candidate URLs directly; patterns with regex
// fragments, or with sub-hour date codes in the file part, are resolved
// by listing directories through a Lister and matching the entries.
package scraper

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/helio-search/helio/internal/timerange"
)

// Lister enumerates the file URLs under a directory URL. The HTTP
// implementation lives in the fetch package; tests use fakes.
type Lister interface {
	List(ctx context.Context, dir string) ([]string, error)
}

// Scraper holds one compiled URL pattern.
type Scraper struct {
	pattern string
	regex   *regexp.Regexp
	codes   []byte // date codes in pattern order
	groups  []int  // submatch index per code
}

// codeWidths maps a date code to the digit count it matches and emits.
var codeWidths = map[byte]int{
	'Y': 4, 'y': 2, 'm': 2, 'd': 2, 'j': 3, 'H': 2, 'M': 2, 'S': 2,
}

var placeholderRe = regexp.MustCompile(`\{[a-zA-Z][a-zA-Z0-9_]*\}`)

// New builds a scraper, substituting {name} placeholders from fields.
func New(pattern string, fields map[string]string) (*Scraper, error) {
	for k, v := range fields {
		pattern = strings.ReplaceAll(pattern, "{"+k+"}", v)
	}
	if left := placeholderRe.FindString(pattern); left != "" {
		return nil, fmt.Errorf("scraper: unsubstituted placeholder %s in pattern", left)
	}

	s := &Scraper{pattern: pattern}
	var re strings.Builder
	re.WriteString("^")
	for i := 0; i < len(pattern); i++ {
		if pattern[i] == '%' && i+1 < len(pattern) {
			if w, ok := codeWidths[pattern[i+1]]; ok {
				// Named groups keep extraction stable when the pattern
				// carries capturing groups of its own.
				fmt.Fprintf(&re, `(?P<t%d>\d{%d})`, len(s.codes), w)
				s.codes = append(s.codes, pattern[i+1])
				i++
				continue
			}
		}
		re.WriteByte(pattern[i])
	}
	re.WriteString("$")

	rx, err := regexp.Compile(re.String())
	if err != nil {
		return nil, fmt.Errorf("scraper: bad pattern %q: %w", pattern, err)
	}
	s.regex = rx
	for i := range s.codes {
		s.groups = append(s.groups, rx.SubexpIndex("t"+strconv.Itoa(i)))
	}
	return s, nil
}

// Pattern returns the pattern after placeholder substitution.
func (s *Scraper) Pattern() string { return s.pattern }

// Determined reports whether instantiating the date codes fully fixes the
// URL, i.e. the pattern carries no regex fragments of its own.
func (s *Scraper) Determined() bool {
	return !strings.ContainsAny(s.stripped(), `()[]{}*+?|\`)
}

// stripped returns the pattern with date codes removed.
func (s *Scraper) stripped() string {
	var b strings.Builder
	for i := 0; i < len(s.pattern); i++ {
		if s.pattern[i] == '%' && i+1 < len(s.pattern) {
			if _, ok := codeWidths[s.pattern[i+1]]; ok {
				i++
				continue
			}
		}
		b.WriteByte(s.pattern[i])
	}
	return b.String()
}

// stepKind orders date codes from coarsest to finest.
type stepKind int

const (
	stepYear stepKind = iota
	stepMonth
	stepDay
	stepHour
	stepMinute
	stepSecond
)

func kindOf(codes []byte) stepKind {
	kind := stepYear
	for _, c := range codes {
		k := stepYear
		switch c {
		case 'm':
			k = stepMonth
		case 'd', 'j':
			k = stepDay
		case 'H':
			k = stepHour
		case 'M':
			k = stepMinute
		case 'S':
			k = stepSecond
		}
		if k > kind {
			kind = k
		}
	}
	return kind
}

// Cadence returns the approximate spacing between pattern instants,
// derived from the finest date code present. Months and years use
// nominal lengths; stepping is calendar-exact internally.
func (s *Scraper) Cadence() time.Duration {
	switch kindOf(s.codes) {
	case stepSecond:
		return time.Second
	case stepMinute:
		return time.Minute
	case stepHour:
		return time.Hour
	case stepDay:
		return 24 * time.Hour
	case stepMonth:
		return 30 * 24 * time.Hour
	default:
		return 365 * 24 * time.Hour
	}
}

func floor(t time.Time, kind stepKind) time.Time {
	y, mo, d := t.Date()
	h, mi, sec := t.Clock()
	switch kind {
	case stepYear:
		return time.Date(y, 1, 1, 0, 0, 0, 0, time.UTC)
	case stepMonth:
		return time.Date(y, mo, 1, 0, 0, 0, 0, time.UTC)
	case stepDay:
		return time.Date(y, mo, d, 0, 0, 0, 0, time.UTC)
	case stepHour:
		return time.Date(y, mo, d, h, 0, 0, 0, time.UTC)
	case stepMinute:
		return time.Date(y, mo, d, h, mi, 0, 0, time.UTC)
	default:
		return time.Date(y, mo, d, h, mi, sec, 0, time.UTC)
	}
}

func advance(t time.Time, kind stepKind) time.Time {
	switch kind {
	case stepYear:
		return t.AddDate(1, 0, 0)
	case stepMonth:
		return t.AddDate(0, 1, 0)
	case stepDay:
		return t.AddDate(0, 0, 1)
	case stepHour:
		return t.Add(time.Hour)
	case stepMinute:
		return t.Add(time.Minute)
	default:
		return t.Add(time.Second)
	}
}

// instantiate renders the pattern at one instant.
func instantiate(pattern string, t time.Time) string {
	var b strings.Builder
	for i := 0; i < len(pattern); i++ {
		if pattern[i] == '%' && i+1 < len(pattern) {
			code := pattern[i+1]
			if _, ok := codeWidths[code]; ok {
				switch code {
				case 'Y':
					fmt.Fprintf(&b, "%04d", t.Year())
				case 'y':
					fmt.Fprintf(&b, "%02d", t.Year()%100)
				case 'm':
					fmt.Fprintf(&b, "%02d", int(t.Month()))
				case 'd':
					fmt.Fprintf(&b, "%02d", t.Day())
				case 'j':
					fmt.Fprintf(&b, "%03d", t.YearDay())
				case 'H':
					fmt.Fprintf(&b, "%02d", t.Hour())
				case 'M':
					fmt.Fprintf(&b, "%02d", t.Minute())
				case 'S':
					fmt.Fprintf(&b, "%02d", t.Second())
				}
				i++
				continue
			}
		}
		b.WriteByte(pattern[i])
	}
	return b.String()
}

// Candidates generates the URLs a determined pattern takes across the
// range, one per pattern instant, starting at the instant covering the
// range start.
func (s *Scraper) Candidates(r timerange.Range) []string {
	kind := kindOf(s.codes)
	var out []string
	for t := floor(r.Start(), kind); !t.After(r.End()); t = advance(t, kind) {
		out = append(out, instantiate(s.pattern, t))
	}
	return out
}

// Dirs returns the distinct directory URLs the pattern touches across
// the range, for listing. The directory part is the pattern up to its
// last slash.
func (s *Scraper) Dirs(r timerange.Range) []string {
	idx := strings.LastIndex(s.pattern, "/")
	if idx < 0 {
		return nil
	}
	dirPattern := s.pattern[:idx+1]
	kind := kindOf(codesIn(dirPattern))
	var out []string
	for t := floor(r.Start(), kind); !t.After(r.End()); t = advance(t, kind) {
		dir := instantiate(dirPattern, t)
		if len(out) == 0 || out[len(out)-1] != dir {
			out = append(out, dir)
		}
	}
	return out
}

func codesIn(pattern string) []byte {
	var out []byte
	for i := 0; i < len(pattern); i++ {
		if pattern[i] == '%' && i+1 < len(pattern) {
			if _, ok := codeWidths[pattern[i+1]]; ok {
				out = append(out, pattern[i+1])
				i++
			}
		}
	}
	return out
}

// Match reports whether url is an instantiation of the pattern.
func (s *Scraper) Match(url string) bool {
	return s.regex.MatchString(url)
}

// ExtractTime recovers the instant encoded in a matching URL. Missing
// month and day default to January 1; a day-of-year code overrides both.
func (s *Scraper) ExtractTime(url string) (time.Time, bool) {
	m := s.regex.FindStringSubmatch(url)
	if m == nil {
		return time.Time{}, false
	}
	var (
		year          = -1
		month         = 1
		day           = 1
		yday          = 0
		hour, min, ss int
	)
	for i, code := range s.codes {
		v := atoi(m[s.groups[i]])
		switch code {
		case 'Y':
			year = v
		case 'y':
			if v >= 69 {
				year = 1900 + v
			} else {
				year = 2000 + v
			}
		case 'm':
			month = v
		case 'd':
			day = v
		case 'j':
			yday = v
		case 'H':
			hour = v
		case 'M':
			min = v
		case 'S':
			ss = v
		}
	}
	if year < 0 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, hour, min, ss, 0, time.UTC)
	if yday > 0 {
		t = time.Date(year, 1, 1, hour, min, ss, 0, time.UTC).AddDate(0, 0, yday-1)
	}
	return t, true
}

// atoi parses a digit run already validated by the regex.
func atoi(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		n = n*10 + int(s[i]-'0')
	}
	return n
}

// FileList resolves the pattern across a range by listing its
// directories and keeping entries that match the pattern and fall inside
// the range.
func (s *Scraper) FileList(ctx context.Context, r timerange.Range, lister Lister) ([]string, error) {
	var out []string
	for _, dir := range s.Dirs(r) {
		entries, err := lister.List(ctx, dir)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", dir, err)
		}
		for _, url := range entries {
			if !s.Match(url) {
				continue
			}
			if t, ok := s.ExtractTime(url); ok && !r.Contains(t) {
				continue
			}
			out = append(out, url)
		}
	}
	return out, nil
}
