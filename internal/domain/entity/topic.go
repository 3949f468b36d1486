// Package entity contains the domain types shared across the pipeline:
// topics to write about, posts already on the CMS, and generated drafts.
package entity

import "strings"

// TopicSource identifies where a candidate topic came from.
type TopicSource string

const (
	// TopicSourceSitemap marks topics derived from sitemap content URLs.
	TopicSourceSitemap TopicSource = "sitemap"

	// TopicSourcePosts marks topics derived from existing CMS posts.
	TopicSourcePosts TopicSource = "posts"

	// TopicSourceFeed marks topics derived from RSS/Atom feed items.
	TopicSourceFeed TopicSource = "feed"

	// TopicSourcePlan marks topics supplied explicitly by a content plan.
	TopicSourcePlan TopicSource = "plan"
)

// Topic is one candidate subject for article generation.
type Topic struct {
	Title     string
	Slug      string
	Source    TopicSource
	SourceURL string
	Keywords  []string
}

// Validate checks that the topic carries enough information to be drafted.
func (t *Topic) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return &ValidationError{Field: "title", Message: "is required"}
	}
	if t.Slug != "" {
		if err := ValidateSlug(t.Slug); err != nil {
			return err
		}
	}
	return nil
}
