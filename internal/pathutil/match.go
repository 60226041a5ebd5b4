package pathutil

import "strings"

// Wildcard matches every path when present in a prefix set.
const Wildcard = "*"

// trim removes trailing separators so "clients/acme/" and "clients/acme"
// compare equal.
func trim(p string) string {
	return strings.TrimRight(p, "/")
}

// Equals reports whether two paths are the same after trailing-separator
// trimming.
func Equals(p, g string) bool {
	return trim(p) == trim(g)
}

// IsDescendantOrEqual reports whether p equals, or lies strictly under, one
// of the granted prefixes. This is the disclosure predicate: a true result
// means the item is actually within the caller's granted subtree. The
// wildcard short-circuits to true.
func IsDescendantOrEqual(p string, prefixes []string) bool {
	pn := trim(p)
	for _, prefix := range prefixes {
		if prefix == Wildcard {
			return true
		}
		gn := trim(prefix)
		if pn == gn {
			return true
		}
		if pn != "" && strings.HasPrefix(pn+"/", gn+"/") {
			return true
		}
	}
	return false
}

// IsReachable reports whether p is disclosed by one of the prefixes, or is
// an ancestor of one (so the caller can navigate down toward a granted
// subtree). The empty path is the root and reaches every grant. This is the
// navigation predicate; do not use it to decide what a caller may see.
func IsReachable(p string, prefixes []string) bool {
	pn := trim(p)
	for _, prefix := range prefixes {
		if prefix == Wildcard {
			return true
		}
		gn := trim(prefix)
		if pn == gn {
			return true
		}
		if pn != "" && strings.HasPrefix(pn+"/", gn+"/") {
			return true
		}
		if pn == "" || strings.HasPrefix(gn+"/", pn+"/") {
			return true
		}
	}
	return false
}
