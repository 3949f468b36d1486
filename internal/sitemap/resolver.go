// Package sitemap expands sitemap and sitemap-index documents into the flat
// set of content URLs they transitively describe. Nested indexes are walked
// recursively with a shared visited set, so cyclic or duplicate references
// terminate; any single document that fails to fetch or parse degrades to an
// empty contribution instead of aborting its siblings.
package sitemap

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"sync"

	"golang.org/x/net/html/charset"
	"golang.org/x/sync/errgroup"

	"contentforge/internal/webfetch"
)

// DefaultMaxConcurrency bounds the recursive fan-out into child sitemaps.
const DefaultMaxConcurrency = 4

// Fetcher retrieves one document, falling back across routes as needed.
// *webfetch.Client satisfies this.
type Fetcher interface {
	Fetch(ctx context.Context, target string, opts webfetch.RequestOptions) (*webfetch.Response, error)
}

// Resolver walks sitemap trees.
type Resolver struct {
	fetcher        Fetcher
	maxConcurrency int
}

// NewResolver creates a resolver around the given fetcher. maxConcurrency
// values below 1 fall back to DefaultMaxConcurrency.
func NewResolver(fetcher Fetcher, maxConcurrency int) *Resolver {
	if maxConcurrency < 1 {
		maxConcurrency = DefaultMaxConcurrency
	}
	return &Resolver{fetcher: fetcher, maxConcurrency: maxConcurrency}
}

// Resolve returns the de-duplicated, sorted content URLs described by the
// sitemap at sitemapURL, following nested sitemap indexes. One visited set is
// threaded through the whole call: a URL is fetched at most once and
// self-references terminate. Failures below the root degrade to empty
// contributions; only a top-level failure to fetch (including a malformed
// URL) is returned as an error. A root document that fetches but does not
// parse resolves to an empty list.
func (r *Resolver) Resolve(ctx context.Context, sitemapURL string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("resolve aborted: %w", err)
	}

	visited := newVisitSet()
	visited.visit(sitemapURL)

	resp, err := r.fetchDocument(ctx, sitemapURL)
	if err != nil {
		return nil, fmt.Errorf("fetch sitemap %s: %w", sitemapURL, err)
	}

	urls := r.expandDocument(ctx, sitemapURL, resp, visited)
	return dedupeSorted(urls), nil
}

// expand handles one node below the root: failures degrade to empty.
func (r *Resolver) expand(ctx context.Context, nodeURL string, visited *visitSet) []string {
	if ctx.Err() != nil {
		return nil
	}

	resp, err := r.fetchDocument(ctx, nodeURL)
	if err != nil {
		slog.Warn("sitemap node fetch failed",
			slog.String("url", nodeURL), slog.Any("error", err))
		return nil
	}
	return r.expandDocument(ctx, nodeURL, resp, visited)
}

func (r *Resolver) expandDocument(ctx context.Context, nodeURL string, resp *webfetch.Response, visited *visitSet) []string {
	if !resp.Success() {
		slog.Warn("sitemap node returned non-success status",
			slog.String("url", nodeURL),
			slog.Int("status", resp.StatusCode))
		return nil
	}

	doc, err := parseDocument(resp.Body)
	if err != nil {
		slog.Warn("sitemap node did not parse",
			slog.String("url", nodeURL), slog.Any("error", err))
		return nil
	}

	if doc.isIndex {
		return r.expandChildren(ctx, doc.locs, visited)
	}

	slog.Debug("sitemap leaf resolved",
		slog.String("url", nodeURL),
		slog.Int("count", len(doc.locs)))
	return doc.locs
}

// expandChildren fans out into the children of a sitemap index. Concurrency
// is bounded; the shared visited set guarantees each URL is fetched once.
func (r *Resolver) expandChildren(ctx context.Context, children []string, visited *visitSet) []string {
	grp, grpCtx := errgroup.WithContext(ctx)
	grp.SetLimit(r.maxConcurrency)

	var gatherMu sync.Mutex
	var all []string

	for _, child := range children {
		if !visited.visit(child) {
			slog.Debug("sitemap node already visited, skipping",
				slog.String("url", child))
			continue
		}
		grp.Go(func() error {
			urls := r.expand(grpCtx, child, visited)
			gatherMu.Lock()
			all = append(all, urls...)
			gatherMu.Unlock()
			// Sibling branches never abort each other.
			return nil
		})
	}

	_ = grp.Wait()
	return all
}

func (r *Resolver) fetchDocument(ctx context.Context, docURL string) (*webfetch.Response, error) {
	header := http.Header{}
	header.Set("Accept", "application/xml, text/xml;q=0.9, */*;q=0.8")
	return r.fetcher.Fetch(ctx, docURL, webfetch.RequestOptions{Header: header})
}

type document struct {
	isIndex bool
	locs    []string
}

type locEntry struct {
	Loc string `xml:"loc"`
}

// parseDocument classifies the root element and collects <loc> texts.
// Anything other than a sitemapindex or urlset root is an error.
func parseDocument(data []byte) (*document, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.CharsetReader = charset.NewReaderLabel

	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("parse sitemap XML: %w", err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		switch start.Name.Local {
		case "sitemapindex":
			var idx struct {
				Sitemaps []locEntry `xml:"sitemap"`
			}
			if err := dec.DecodeElement(&idx, &start); err != nil {
				return nil, fmt.Errorf("parse sitemap index: %w", err)
			}
			return &document{isIndex: true, locs: collectLocs(idx.Sitemaps)}, nil
		case "urlset":
			var set struct {
				URLs []locEntry `xml:"url"`
			}
			if err := dec.DecodeElement(&set, &start); err != nil {
				return nil, fmt.Errorf("parse urlset: %w", err)
			}
			return &document{locs: collectLocs(set.URLs)}, nil
		default:
			return nil, fmt.Errorf("unrecognized root element <%s>", start.Name.Local)
		}
	}
}

func collectLocs(entries []locEntry) []string {
	locs := make([]string, 0, len(entries))
	for _, e := range entries {
		if loc := strings.TrimSpace(e.Loc); loc != "" {
			locs = append(locs, loc)
		}
	}
	return locs
}

func dedupeSorted(urls []string) []string {
	seen := make(map[string]bool, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if !seen[u] {
			seen[u] = true
			out = append(out, u)
		}
	}
	sort.Strings(out)
	return out
}

// visitSet tracks which sitemap URLs this resolution has already claimed.
// It is confined to one top-level Resolve call.
type visitSet struct {
	mu   sync.Mutex
	seen map[string]bool
}

func newVisitSet() *visitSet {
	return &visitSet{seen: make(map[string]bool)}
}

// visit marks a URL and reports whether this was its first visit.
func (v *visitSet) visit(url string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.seen[url] {
		return false
	}
	v.seen[url] = true
	return true
}
