// Package generate exposes the synchronous batch generation endpoint. The
// wizard posts selected assignments and waits for the full run report, so
// the server's request timeout has to cover a whole batch.
package generate

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"contentforge/internal/domain/entity"
	"contentforge/internal/handler/http/respond"
	"contentforge/internal/usecase/pipeline"
)

// maxBatchSize bounds one synchronous run. Larger batches belong in the
// worker's scheduled runs.
const maxBatchSize = 25

// Handler runs one generation batch per request.
type Handler struct{ Svc *pipeline.Runner }

func (h Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Fail(w, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}

	if len(req.Assignments) == 0 {
		respond.Fail(w, http.StatusBadRequest,
			errors.New("at least one assignment required"))
		return
	}
	if len(req.Assignments) > maxBatchSize {
		respond.Fail(w, http.StatusBadRequest,
			fmt.Errorf("batch cannot be larger than %d assignments", maxBatchSize))
		return
	}

	status, err := parseStatus(req.Status)
	if err != nil {
		respond.Fail(w, http.StatusBadRequest, err)
		return
	}

	assignments := make([]entity.Assignment, 0, len(req.Assignments))
	for i, dto := range req.Assignments {
		a, err := dto.Assignment()
		if err != nil {
			wrapped := fmt.Errorf("assignments[%d]: %w", i, err)
			respond.Fail(w, http.StatusBadRequest, respond.NewUserError(
				http.StatusBadRequest, wrapped.Error(), wrapped))
			return
		}
		assignments = append(assignments, a)
	}

	report, err := h.Svc.Run(r.Context(), assignments, pipeline.Options{
		DryRun: req.DryRun,
		Delay:  time.Duration(req.DelaySeconds) * time.Second,
		Status: status,
	})
	if err != nil {
		// Run errors mean the pipeline could not start at all; per-item
		// failures come back inside the report instead.
		respond.Fail(w, http.StatusConflict, respond.NewUserError(
			http.StatusConflict, err.Error(), err))
		return
	}

	respond.Write(w, http.StatusOK, NewReportDTO(report))
}

// parseStatus validates the requested publish status against the vocabulary
// the content plan accepts. Empty means the pipeline default (draft).
func parseStatus(raw string) (entity.PostStatus, error) {
	switch raw {
	case "", string(entity.PostStatusDraft), string(entity.PostStatusPublish),
		string(entity.PostStatusPending), string(entity.PostStatusPrivate):
		return entity.PostStatus(raw), nil
	default:
		return "", fmt.Errorf("%w: status %q must be draft, publish, pending, or private",
			entity.ErrInvalidInput, raw)
	}
}

// Register registers the generation endpoint with the given mux.
func Register(mux *http.ServeMux, svc *pipeline.Runner) {
	mux.Handle("POST /api/generate", Handler{Svc: svc})
}
