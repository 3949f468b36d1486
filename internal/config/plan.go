package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"contentforge/internal/domain/entity"
	pkgconfig "contentforge/internal/pkg/config"
	"contentforge/internal/utils/text"
)

// Plan is the YAML content plan: which topics to write, how to publish
// them, and when scheduled runs fire.
type Plan struct {
	Defaults PlanDefaults `yaml:"defaults"`
	Schedule PlanSchedule `yaml:"schedule"`
	Topics   []PlanTopic  `yaml:"topics"`
	Rewrites PlanRewrites `yaml:"rewrites"`
}

// PlanDefaults applies to every generated post unless a topic overrides it.
type PlanDefaults struct {
	// Status posts are created with. Empty means draft.
	Status     string   `yaml:"status"`
	Categories []string `yaml:"categories"`
	Tags       []string `yaml:"tags"`
}

// PlanSchedule overrides the worker's scheduling environment when set.
type PlanSchedule struct {
	Cron     string `yaml:"cron"`
	Timezone string `yaml:"timezone"`
}

// PlanTopic is one planned article.
type PlanTopic struct {
	Title    string   `yaml:"title"`
	Slug     string   `yaml:"slug"`
	Keywords []string `yaml:"keywords"`
}

// PlanRewrites controls stale-post rewriting during scheduled runs.
type PlanRewrites struct {
	Enabled bool `yaml:"enabled"`

	// StaleAfterDays marks posts unmodified for this many days as rewrite
	// candidates. Zero falls back to 90.
	StaleAfterDays int `yaml:"stale_after_days"`
}

// StaleAfter returns the rewrite threshold as a duration.
func (r *PlanRewrites) StaleAfter() time.Duration {
	days := r.StaleAfterDays
	if days <= 0 {
		days = 90
	}
	return time.Duration(days) * 24 * time.Hour
}

// LoadPlan loads and validates a content plan from a YAML file.
// The path parameter is expected to come from a trusted source (command-line
// argument or environment), never from request input.
func LoadPlan(path string) (*Plan, error) {
	// #nosec G304 -- path is provided by trusted source (CLI arg or env), not user input
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read content plan: %w", err)
	}

	var plan Plan
	if err := yaml.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("parse content plan: %w", err)
	}

	if err := plan.Validate(); err != nil {
		return nil, fmt.Errorf("content plan validation failed: %w", err)
	}

	return &plan, nil
}

// Validate checks the loaded plan.
func (p *Plan) Validate() error {
	switch p.Defaults.Status {
	case "", string(entity.PostStatusDraft), string(entity.PostStatusPublish),
		string(entity.PostStatusPending), string(entity.PostStatusPrivate):
	default:
		return fmt.Errorf("defaults.status %q is not a valid post status", p.Defaults.Status)
	}

	if p.Schedule.Cron != "" {
		if err := pkgconfig.ValidateCronSchedule(p.Schedule.Cron); err != nil {
			return fmt.Errorf("schedule.cron: %w", err)
		}
	}
	if p.Schedule.Timezone != "" {
		if err := pkgconfig.ValidateTimezone(p.Schedule.Timezone); err != nil {
			return fmt.Errorf("schedule.timezone: %w", err)
		}
	}

	for i, topic := range p.Topics {
		if topic.Title == "" {
			return fmt.Errorf("topics[%d]: title is required", i)
		}
		if topic.Slug != "" {
			if err := entity.ValidateSlug(topic.Slug); err != nil {
				return fmt.Errorf("topics[%d]: %w", i, err)
			}
		}
	}

	if p.Rewrites.StaleAfterDays < 0 {
		return fmt.Errorf("rewrites.stale_after_days must not be negative")
	}

	return nil
}

// Status returns the publish status generated posts should carry.
func (p *Plan) Status() entity.PostStatus {
	if p.Defaults.Status == "" {
		return entity.PostStatusDraft
	}
	return entity.PostStatus(p.Defaults.Status)
}

// Assignments converts the planned topics into new-topic assignments, in
// plan order. Topics without an explicit slug get one derived from the
// title.
func (p *Plan) Assignments() []entity.Assignment {
	assignments := make([]entity.Assignment, 0, len(p.Topics))
	for _, planned := range p.Topics {
		slug := planned.Slug
		if slug == "" {
			slug = text.Slugify(planned.Title)
		}
		assignments = append(assignments, entity.NewTopicAssignment(entity.Topic{
			Title:    planned.Title,
			Slug:     slug,
			Source:   entity.TopicSourcePlan,
			Keywords: planned.Keywords,
		}))
	}
	return assignments
}
