// Package pathutil keeps metrics path labels bounded. The API surface is a
// fixed set of routes, but anything on the open internet gets probed by
// scanners, and every probed URL would otherwise become a new label value.
package pathutil

import "strings"

// knownPaths is the closed set of routes worth tracking individually.
var knownPaths = map[string]struct{}{
	"/api/connection/validate": {},
	"/api/topics/sitemap":      {},
	"/api/topics/posts":        {},
	"/api/topics/feeds":        {},
	"/api/generate":            {},
	"/healthz":                 {},
	"/metrics":                 {},
	"/ready":                   {},
	"/live":                    {},
}

// OtherPath is the label every unknown path collapses into.
const OtherPath = "/other"

// NormalizePath maps a request path onto a bounded label set: known routes
// keep their path, everything else collapses into OtherPath so scanner
// traffic cannot explode metrics cardinality.
//
// Examples:
//
//	NormalizePath("/api/generate")         // "/api/generate"
//	NormalizePath("/api/generate/")        // "/api/generate"
//	NormalizePath("/api/generate?x=1")     // "/api/generate"
//	NormalizePath("/wp-admin/setup.php")   // "/other"
func NormalizePath(route string) string {
	if i := strings.IndexByte(route, '?'); i >= 0 {
		route = route[:i]
	}

	// Trailing slash goes too, except on the bare root.
	if len(route) > 1 && route[len(route)-1] == '/' {
		route = route[:len(route)-1]
	}

	if _, ok := knownPaths[route]; ok {
		return route
	}
	return OtherPath
}
