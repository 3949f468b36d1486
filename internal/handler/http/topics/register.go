package topics

import (
	"net/http"
	"time"

	topicsUC "contentforge/internal/usecase/topics"
)

// Defaults carries the configured discovery sources. Query parameters on the
// individual endpoints override them per request.
type Defaults struct {
	SitemapURL string
	FeedURLs   []string
	StaleAfter time.Duration
}

// Register registers the topic discovery endpoints with the given mux.
// Each endpoint returns assignments ready to be forwarded to the generate
// endpoint.
func Register(mux *http.ServeMux, svc *topicsUC.Discovery, defaults Defaults) {
	mux.Handle("GET /api/topics/sitemap", SitemapHandler{Svc: svc, DefaultURL: defaults.SitemapURL})
	mux.Handle("GET /api/topics/posts", PostsHandler{Svc: svc, StaleAfter: defaults.StaleAfter})
	mux.Handle("GET /api/topics/feeds", FeedsHandler{Svc: svc, DefaultURLs: defaults.FeedURLs})
}
