package topics

import (
	"fmt"
	"net/http"
	"time"

	"contentforge/internal/handler/http/respond"
	topicsUC "contentforge/internal/usecase/topics"
)

// PostsHandler lists existing CMS posts as rewrite assignments. Posts that
// have gone unmodified for longer than the staleness window are flagged; the
// stale_after query parameter (a Go duration such as 1440h) overrides the
// configured window per request.
type PostsHandler struct {
	Svc        *topicsUC.Discovery
	StaleAfter time.Duration
}

func (h PostsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	staleAfter := h.StaleAfter
	if raw := r.URL.Query().Get("stale_after"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			respond.Fail(w, http.StatusBadRequest,
				fmt.Errorf("invalid stale_after %q: use a Go duration such as 1440h", raw))
			return
		}
		staleAfter = d
	}

	assignments, err := h.Svc.FromPosts(r.Context(), staleAfter)
	if err != nil {
		respond.Fail(w, http.StatusBadGateway, respond.NewUserError(
			http.StatusBadGateway,
			"listing cms posts failed; check the connection settings",
			err))
		return
	}

	out := make([]AssignmentDTO, 0, len(assignments))
	for _, a := range assignments {
		out = append(out, NewAssignmentDTO(a))
	}
	respond.Write(w, http.StatusOK, out)
}
