// Package features embeds the default agenda feature files so the runner
// works without any files on disk.
package features

import "embed"

// FS holds the bundled feature files at its root.
//
//go:embed *.feature
var FS embed.FS
