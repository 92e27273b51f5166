// Package buildinfo carries version metadata injected at link time.
//
// Release builds pass, for each variable:
//
//	-ldflags "-X github.com/helio-search/helio/internal/buildinfo.Version=v1.2.3"
//
// In a binary built without these flags the variables stay empty and the
// version command falls back to runtime/debug build info.
package buildinfo

var (
	Version string
	Commit  string
	Date    string
)
