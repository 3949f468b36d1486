package entity

import (
	"strings"
	"time"
)

// Draft is a generated article ready for review or publication.
type Draft struct {
	// ID is assigned by the pipeline for correlation across logs and reports.
	ID          string
	Title       string
	Slug        string
	ContentHTML string
	Excerpt     string
	Tags        []string
	Categories  []string

	// Model records which AI model produced the draft.
	Model       string
	GeneratedAt time.Time
}

// Validate checks that the draft is publishable.
func (d *Draft) Validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return &ValidationError{Field: "title", Message: "is required"}
	}
	if strings.TrimSpace(d.ContentHTML) == "" {
		return &ValidationError{Field: "content", Message: "is required"}
	}
	if d.Slug != "" {
		if err := ValidateSlug(d.Slug); err != nil {
			return err
		}
	}
	return nil
}
