package topics

import (
	"errors"
	"net/http"

	"contentforge/internal/handler/http/respond"
	topicsUC "contentforge/internal/usecase/topics"
)

// FeedsHandler derives new-topic assignments from RSS/Atom feeds. Feed URLs
// come from repeated url query parameters, falling back to the configured
// defaults.
type FeedsHandler struct {
	Svc         *topicsUC.Discovery
	DefaultURLs []string
}

func (h FeedsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	feedURLs := r.URL.Query()["url"]
	if len(feedURLs) == 0 {
		feedURLs = h.DefaultURLs
	}
	if len(feedURLs) == 0 {
		respond.Fail(w, http.StatusBadRequest,
			errors.New("feed url required: pass ?url= or configure defaults"))
		return
	}

	list, err := h.Svc.FromFeeds(r.Context(), feedURLs)
	if err != nil {
		respond.Fail(w, http.StatusBadGateway, respond.NewUserError(
			http.StatusBadGateway,
			"feed discovery failed; check the feed urls",
			err))
		return
	}
	respond.Write(w, http.StatusOK, assignmentsFromTopics(list))
}
