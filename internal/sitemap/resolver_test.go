package sitemap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"contentforge/internal/webfetch"
)

func urlsetDoc(locs ...string) string {
	doc := `<?xml version="1.0" encoding="UTF-8"?><urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">`
	for _, loc := range locs {
		doc += "<url><loc>" + loc + "</loc></url>"
	}
	return doc + "</urlset>"
}

func indexDoc(locs ...string) string {
	doc := `<?xml version="1.0" encoding="UTF-8"?><sitemapindex xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">`
	for _, loc := range locs {
		doc += "<sitemap><loc>" + loc + "</loc></sitemap>"
	}
	return doc + "</sitemapindex>"
}

type fakeDoc struct {
	status int
	body   string
	fail   error
}

// fakeFetcher serves canned documents and records every fetch.
type fakeFetcher struct {
	mu    sync.Mutex
	docs  map[string]fakeDoc
	calls map[string]int
}

func newFakeFetcher(docs map[string]fakeDoc) *fakeFetcher {
	return &fakeFetcher{docs: docs, calls: make(map[string]int)}
}

func (f *fakeFetcher) Fetch(_ context.Context, target string, _ webfetch.RequestOptions) (*webfetch.Response, error) {
	f.mu.Lock()
	f.calls[target]++
	doc, ok := f.docs[target]
	f.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("no route to %s", target)
	}
	if doc.fail != nil {
		return nil, doc.fail
	}
	status := doc.status
	if status == 0 {
		status = http.StatusOK
	}
	return &webfetch.Response{StatusCode: status, Body: []byte(doc.body), Via: "direct"}, nil
}

func (f *fakeFetcher) callCount(target string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[target]
}

func resolve(t *testing.T, fetcher Fetcher, url string) []string {
	t.Helper()
	urls, err := NewResolver(fetcher, 0).Resolve(context.Background(), url)
	if err != nil {
		t.Fatalf("Resolve(%s): %v", url, err)
	}
	return urls
}

func TestResolve_PlainURLSet(t *testing.T) {
	fetcher := newFakeFetcher(map[string]fakeDoc{
		"https://site.test/sitemap.xml": {body: urlsetDoc(
			"https://site.test/a",
			"https://site.test/b",
			"https://site.test/c",
		)},
	})

	urls := resolve(t, fetcher, "https://site.test/sitemap.xml")

	want := []string{"https://site.test/a", "https://site.test/b", "https://site.test/c"}
	if diff := cmp.Diff(want, urls); diff != "" {
		t.Errorf("unexpected URL set (-want +got):\n%s", diff)
	}
}

func TestResolve_IndexUnionsChildren(t *testing.T) {
	fetcher := newFakeFetcher(map[string]fakeDoc{
		"https://site.test/sitemap_index.xml": {body: indexDoc(
			"https://site.test/posts.xml",
			"https://site.test/pages.xml",
		)},
		"https://site.test/posts.xml": {body: urlsetDoc(
			"https://site.test/p1", "https://site.test/p2", "https://site.test/p3",
		)},
		"https://site.test/pages.xml": {body: urlsetDoc(
			"https://site.test/g1", "https://site.test/g2", "https://site.test/g3",
			"https://site.test/g4", "https://site.test/g5",
		)},
	})

	urls := resolve(t, fetcher, "https://site.test/sitemap_index.xml")

	if len(urls) != 8 {
		t.Fatalf("expected 8 unique URLs, got %d: %v", len(urls), urls)
	}
	want := []string{
		"https://site.test/g1", "https://site.test/g2", "https://site.test/g3",
		"https://site.test/g4", "https://site.test/g5",
		"https://site.test/p1", "https://site.test/p2", "https://site.test/p3",
	}
	sort.Strings(want)
	if diff := cmp.Diff(want, urls); diff != "" {
		t.Errorf("unexpected union (-want +got):\n%s", diff)
	}
}

func TestResolve_SelfReferencingIndexTerminates(t *testing.T) {
	const root = "https://site.test/sitemap_index.xml"
	fetcher := newFakeFetcher(map[string]fakeDoc{
		root: {body: indexDoc(
			root, // erroneous self reference
			"https://site.test/posts.xml",
		)},
		"https://site.test/posts.xml": {body: urlsetDoc("https://site.test/p1", "https://site.test/p2")},
	})

	urls := resolve(t, fetcher, root)

	want := []string{"https://site.test/p1", "https://site.test/p2"}
	if diff := cmp.Diff(want, urls); diff != "" {
		t.Errorf("expected only non-self children (-want +got):\n%s", diff)
	}
	if got := fetcher.callCount(root); got != 1 {
		t.Errorf("self-referencing index fetched %d times, want 1", got)
	}
}

func TestResolve_CyclicIndexesTerminate(t *testing.T) {
	a := "https://site.test/a.xml"
	b := "https://site.test/b.xml"
	fetcher := newFakeFetcher(map[string]fakeDoc{
		a: {body: indexDoc(b, "https://site.test/leafs.xml")},
		b: {body: indexDoc(a)},
		"https://site.test/leafs.xml": {body: urlsetDoc("https://site.test/x")},
	})

	urls := resolve(t, fetcher, a)

	want := []string{"https://site.test/x"}
	if diff := cmp.Diff(want, urls); diff != "" {
		t.Errorf("cycle resolution wrong (-want +got):\n%s", diff)
	}
	if got := fetcher.callCount(a); got != 1 {
		t.Errorf("cycle entry fetched %d times, want 1", got)
	}
}

func TestResolve_NestedIndexes(t *testing.T) {
	fetcher := newFakeFetcher(map[string]fakeDoc{
		"https://site.test/root.xml":  {body: indexDoc("https://site.test/inner.xml")},
		"https://site.test/inner.xml": {body: indexDoc("https://site.test/leaf.xml")},
		"https://site.test/leaf.xml":  {body: urlsetDoc("https://site.test/deep")},
	})

	urls := resolve(t, fetcher, "https://site.test/root.xml")

	want := []string{"https://site.test/deep"}
	if diff := cmp.Diff(want, urls); diff != "" {
		t.Errorf("nested index resolution wrong (-want +got):\n%s", diff)
	}
}

func TestResolve_FailedChildDegradesToEmpty(t *testing.T) {
	fetcher := newFakeFetcher(map[string]fakeDoc{
		"https://site.test/index.xml": {body: indexDoc(
			"https://site.test/broken.xml",
			"https://site.test/garbled.xml",
			"https://site.test/strange.xml",
			"https://site.test/good.xml",
		)},
		"https://site.test/broken.xml":  {status: http.StatusInternalServerError, body: "boom"},
		"https://site.test/garbled.xml": {body: "<urlset><url><loc>unclosed"},
		"https://site.test/strange.xml": {body: "<html><body>not a sitemap</body></html>"},
		"https://site.test/good.xml":    {body: urlsetDoc("https://site.test/ok")},
	})

	urls := resolve(t, fetcher, "https://site.test/index.xml")

	want := []string{"https://site.test/ok"}
	if diff := cmp.Diff(want, urls); diff != "" {
		t.Errorf("sibling isolation broken (-want +got):\n%s", diff)
	}
}

func TestResolve_DuplicateLeafURLsAreUnioned(t *testing.T) {
	fetcher := newFakeFetcher(map[string]fakeDoc{
		"https://site.test/index.xml": {body: indexDoc(
			"https://site.test/one.xml",
			"https://site.test/two.xml",
		)},
		"https://site.test/one.xml": {body: urlsetDoc("https://site.test/shared", "https://site.test/a")},
		"https://site.test/two.xml": {body: urlsetDoc("https://site.test/shared", "https://site.test/b")},
	})

	urls := resolve(t, fetcher, "https://site.test/index.xml")

	want := []string{"https://site.test/a", "https://site.test/b", "https://site.test/shared"}
	if diff := cmp.Diff(want, urls); diff != "" {
		t.Errorf("expected union semantics (-want +got):\n%s", diff)
	}
}

func TestResolve_TopLevelFetchErrorPropagates(t *testing.T) {
	fetchErr := errors.New("all routes failed")
	fetcher := newFakeFetcher(map[string]fakeDoc{
		"https://site.test/sitemap.xml": {fail: fetchErr},
	})

	_, err := NewResolver(fetcher, 0).Resolve(context.Background(), "https://site.test/sitemap.xml")

	if !errors.Is(err, fetchErr) {
		t.Errorf("expected top-level fetch error to propagate, got %v", err)
	}
}

func TestResolve_TopLevelBadDocumentResolvesEmpty(t *testing.T) {
	tests := map[string]fakeDoc{
		"non-success status": {status: http.StatusNotFound, body: "gone"},
		"malformed XML":      {body: "<urlset><url>"},
		"unknown root":       {body: "<feed><entry/></feed>"},
	}

	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			fetcher := newFakeFetcher(map[string]fakeDoc{
				"https://site.test/sitemap.xml": doc,
			})

			urls, err := NewResolver(fetcher, 0).Resolve(context.Background(), "https://site.test/sitemap.xml")
			if err != nil {
				t.Fatalf("expected graceful empty result, got error %v", err)
			}
			if len(urls) != 0 {
				t.Errorf("expected empty result, got %v", urls)
			}
		})
	}
}

func TestResolve_DeclaredLegacyCharset(t *testing.T) {
	body := `<?xml version="1.0" encoding="ISO-8859-1"?><urlset><url><loc>https://site.test/latin</loc></url></urlset>`
	fetcher := newFakeFetcher(map[string]fakeDoc{
		"https://site.test/sitemap.xml": {body: body},
	})

	urls := resolve(t, fetcher, "https://site.test/sitemap.xml")

	want := []string{"https://site.test/latin"}
	if diff := cmp.Diff(want, urls); diff != "" {
		t.Errorf("legacy charset document not resolved (-want +got):\n%s", diff)
	}
}

func TestResolve_ContextAlreadyCanceled(t *testing.T) {
	fetcher := newFakeFetcher(map[string]fakeDoc{
		"https://site.test/sitemap.xml": {body: urlsetDoc("https://site.test/a")},
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewResolver(fetcher, 0).Resolve(ctx, "https://site.test/sitemap.xml")

	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if fetcher.callCount("https://site.test/sitemap.xml") != 0 {
		t.Error("no fetch may be issued on a pre-cancelled context")
	}
}

func TestParseDocument_WhitespaceAroundLocs(t *testing.T) {
	doc, err := parseDocument([]byte("<urlset><url><loc>\n  https://site.test/a  \n</loc></url></urlset>"))
	if err != nil {
		t.Fatalf("parseDocument: %v", err)
	}
	if doc.isIndex {
		t.Error("urlset root misclassified as index")
	}
	want := []string{"https://site.test/a"}
	if diff := cmp.Diff(want, doc.locs); diff != "" {
		t.Errorf("loc trimming wrong (-want +got):\n%s", diff)
	}
}
