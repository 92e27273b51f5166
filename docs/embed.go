package docs

import "embed"

// FS contains the Markdown guides bundled into the helio binary.
//
//go:embed guide
var FS embed.FS
