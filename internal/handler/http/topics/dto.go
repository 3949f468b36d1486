package topics

import (
	"fmt"
	"time"

	"contentforge/internal/domain/entity"
)

// TopicDTO is the wire form of a discovered topic.
type TopicDTO struct {
	Title     string   `json:"title"`
	Slug      string   `json:"slug"`
	Source    string   `json:"source,omitempty"`
	SourceURL string   `json:"source_url,omitempty"`
	Keywords  []string `json:"keywords,omitempty"`
}

// PostDTO is the wire form of an existing CMS post inside a rewrite
// assignment.
type PostDTO struct {
	ID       int64     `json:"id"`
	Title    string    `json:"title"`
	Slug     string    `json:"slug,omitempty"`
	Link     string    `json:"link,omitempty"`
	Status   string    `json:"status,omitempty"`
	Modified time.Time `json:"modified,omitempty"`
}

// AssignmentDTO is the wire form of one unit of pipeline work. The discovery
// endpoints return it, and the generate endpoint accepts it back unchanged,
// so the wizard can forward selected rows as-is. Exactly one of Topic or
// Post is set, selected by Kind.
type AssignmentDTO struct {
	Kind  string    `json:"kind"`
	Topic *TopicDTO `json:"topic,omitempty"`
	Post  *PostDTO  `json:"post,omitempty"`
}

// NewAssignmentDTO converts a domain assignment to its wire form.
func NewAssignmentDTO(a entity.Assignment) AssignmentDTO {
	dto := AssignmentDTO{Kind: string(a.Kind)}
	if a.Topic != nil {
		dto.Topic = &TopicDTO{
			Title:     a.Topic.Title,
			Slug:      a.Topic.Slug,
			Source:    string(a.Topic.Source),
			SourceURL: a.Topic.SourceURL,
			Keywords:  a.Topic.Keywords,
		}
	}
	if a.Post != nil {
		dto.Post = &PostDTO{
			ID:       a.Post.ID,
			Title:    a.Post.Title,
			Slug:     a.Post.Slug,
			Link:     a.Post.Link,
			Status:   string(a.Post.Status),
			Modified: a.Post.Modified,
		}
	}
	return dto
}

// Assignment converts the wire form back to a validated domain assignment.
func (d AssignmentDTO) Assignment() (entity.Assignment, error) {
	a := entity.Assignment{Kind: entity.AssignmentKind(d.Kind)}
	if d.Topic != nil {
		a.Topic = &entity.Topic{
			Title:     d.Topic.Title,
			Slug:      d.Topic.Slug,
			Source:    entity.TopicSource(d.Topic.Source),
			SourceURL: d.Topic.SourceURL,
			Keywords:  d.Topic.Keywords,
		}
		if a.Topic.Source == "" {
			a.Topic.Source = entity.TopicSourcePlan
		}
	}
	if d.Post != nil {
		a.Post = &entity.Post{
			ID:       d.Post.ID,
			Title:    d.Post.Title,
			Slug:     d.Post.Slug,
			Link:     d.Post.Link,
			Status:   entity.PostStatus(d.Post.Status),
			Modified: d.Post.Modified,
		}
	}
	if err := a.Validate(); err != nil {
		return entity.Assignment{}, fmt.Errorf("assignment %q: %w", a.Label(), err)
	}
	return a, nil
}

// assignmentsFromTopics wraps discovered topics as new-topic assignments.
func assignmentsFromTopics(list []entity.Topic) []AssignmentDTO {
	out := make([]AssignmentDTO, 0, len(list))
	for _, t := range list {
		out = append(out, NewAssignmentDTO(entity.NewTopicAssignment(t)))
	}
	return out
}
