package topics

import (
	"errors"
	"net/http"

	"contentforge/internal/handler/http/respond"
	topicsUC "contentforge/internal/usecase/topics"
)

// SitemapHandler derives new-topic assignments from a sitemap. The sitemap
// URL comes from the url query parameter, falling back to the configured
// default.
type SitemapHandler struct {
	Svc        *topicsUC.Discovery
	DefaultURL string
}

func (h SitemapHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sitemapURL := r.URL.Query().Get("url")
	if sitemapURL == "" {
		sitemapURL = h.DefaultURL
	}
	if sitemapURL == "" {
		respond.Fail(w, http.StatusBadRequest,
			errors.New("sitemap url required: pass ?url= or configure a default"))
		return
	}

	list, err := h.Svc.FromSitemap(r.Context(), sitemapURL)
	if err != nil {
		respond.Fail(w, http.StatusBadGateway, respond.NewUserError(
			http.StatusBadGateway,
			"sitemap discovery failed; check the url and that the site is reachable",
			err))
		return
	}
	respond.Write(w, http.StatusOK, assignmentsFromTopics(list))
}
