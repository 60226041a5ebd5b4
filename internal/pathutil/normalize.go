// Package pathutil canonicalizes virtual filesystem paths and answers
// prefix/ancestor questions against granted path sets.
package pathutil

import "strings"

// Normalize turns an arbitrary caller-supplied path into a canonical relative
// path: backslashes become separators, NUL bytes are removed, and empty, "."
// and ".." segments are dropped. Traversal attempts are silently stripped
// rather than rejected, so "a/../../etc" comes back as "a/etc".
func Normalize(path string) string {
	path = strings.ReplaceAll(path, "\x00", "")
	path = strings.ReplaceAll(path, "\\", "/")

	parts := strings.Split(path, "/")
	safe := make([]string, 0, len(parts))
	for _, part := range parts {
		if part == "" || part == "." || part == ".." {
			continue
		}
		safe = append(safe, part)
	}
	return strings.Join(safe, "/")
}
