package version

import (
	_ "embed"
	"strings"
)

//go:embed VERSION
var versionContent string

// Commit is the git revision stamped in at build time via -ldflags.
var Commit = ""

// Get returns the current version, with whitespace trimmed.
func Get() string {
	v := strings.TrimSpace(versionContent)
	if Commit != "" {
		v += "+" + Commit
	}
	return v
}
