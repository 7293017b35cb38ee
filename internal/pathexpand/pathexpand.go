// Package pathexpand expands a leading "~" in a rule's target path against
// the remote home directory, the only directory that matters for a path a
// probe will evaluate on the far end of the connection.
package pathexpand

import (
	"path"
	"strings"
)

// Expand rewrites a leading "~" or "~/..." in p into homeDir, the remote
// user's home directory as reported by the connected shell. A homeDir of ""
// (not yet fetched) leaves p unchanged.
func Expand(p, homeDir string) string {
	if homeDir == "" {
		return p
	}
	switch {
	case p == "~":
		return homeDir
	case strings.HasPrefix(p, "~/"):
		return path.Join(homeDir, p[2:])
	default:
		return p
	}
}
