package generate

import (
	"time"

	"contentforge/internal/domain/entity"
	"contentforge/internal/handler/http/topics"
	"contentforge/internal/usecase/pipeline"
)

// Request is the body of one generation run. Assignments are the rows the
// wizard selected from the discovery endpoints, in the order they should
// run.
type Request struct {
	Assignments []topics.AssignmentDTO `json:"assignments"`

	// DryRun generates drafts without touching the CMS.
	DryRun bool `json:"dry_run"`

	// Status is the CMS status for published drafts: draft (default),
	// publish, pending, or private.
	Status string `json:"status,omitempty"`

	// DelaySeconds paces consecutive generations; the pipeline default
	// applies when zero.
	DelaySeconds int `json:"delay_seconds,omitempty"`
}

// DraftDTO is the wire form of a generated draft. ContentHTML is included
// so dry runs give the wizard something to review.
type DraftDTO struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	ContentHTML string    `json:"content_html"`
	Excerpt     string    `json:"excerpt,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
	Categories  []string  `json:"categories,omitempty"`
	Model       string    `json:"model,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
}

// PublishedDTO is the wire form of a post the run wrote to the CMS.
type PublishedDTO struct {
	ID     int64  `json:"id"`
	Link   string `json:"link,omitempty"`
	Status string `json:"status"`
}

// ItemDTO is the settled outcome of one assignment.
type ItemDTO struct {
	Index   int    `json:"index"`
	Label   string `json:"label"`
	Kind    string `json:"kind"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`

	Draft     *DraftDTO     `json:"draft,omitempty"`
	Published *PublishedDTO `json:"published,omitempty"`
}

// ReportDTO is the wire form of one completed run.
type ReportDTO struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	DurationMS int64     `json:"duration_ms"`
	DryRun     bool      `json:"dry_run"`
	Status     string    `json:"status"`

	Total     int `json:"total"`
	Generated int `json:"generated"`
	Published int `json:"published"`
	Failed    int `json:"failed"`

	Items []ItemDTO `json:"items"`
}

// NewReportDTO converts a pipeline report to its wire form.
func NewReportDTO(report *pipeline.Report) ReportDTO {
	dto := ReportDTO{
		RunID:      report.RunID,
		StartedAt:  report.StartedAt,
		DurationMS: report.Duration.Milliseconds(),
		DryRun:     report.DryRun,
		Status:     report.Status(),
		Total:      report.Total(),
		Generated:  report.Generated,
		Published:  report.Published,
		Failed:     report.Failed,
		Items:      make([]ItemDTO, 0, len(report.Items)),
	}

	for _, item := range report.Items {
		itemDTO := ItemDTO{
			Index:   item.Index,
			Label:   item.Assignment.Label(),
			Kind:    string(item.Assignment.Kind),
			Success: item.Success,
		}
		if item.Err != nil {
			itemDTO.Error = item.Err.Error()
		}
		if item.Draft != nil {
			itemDTO.Draft = draftDTO(item.Draft)
		}
		if item.Post != nil {
			itemDTO.Published = &PublishedDTO{
				ID:     item.Post.ID,
				Link:   item.Post.Link,
				Status: string(item.Post.Status),
			}
		}
		dto.Items = append(dto.Items, itemDTO)
	}

	return dto
}

func draftDTO(d *entity.Draft) *DraftDTO {
	return &DraftDTO{
		ID:          d.ID,
		Title:       d.Title,
		Slug:        d.Slug,
		ContentHTML: d.ContentHTML,
		Excerpt:     d.Excerpt,
		Tags:        d.Tags,
		Categories:  d.Categories,
		Model:       d.Model,
		GeneratedAt: d.GeneratedAt,
	}
}
