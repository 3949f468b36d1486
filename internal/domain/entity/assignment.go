package entity

import "fmt"

// AssignmentKind discriminates what the pipeline should do for one work item.
type AssignmentKind string

const (
	// AssignmentNewTopic asks the generator to write a fresh article.
	AssignmentNewTopic AssignmentKind = "new_topic"
	// AssignmentRewrite asks the generator to rework an existing post.
	AssignmentRewrite AssignmentKind = "rewrite"
)

// Assignment is one unit of pipeline work. Exactly one of Topic or Post is
// set, selected by Kind.
type Assignment struct {
	Kind  AssignmentKind
	Topic *Topic
	Post  *Post
}

// NewTopicAssignment builds an assignment for writing a fresh article.
func NewTopicAssignment(topic Topic) Assignment {
	return Assignment{Kind: AssignmentNewTopic, Topic: &topic}
}

// RewriteAssignment builds an assignment for reworking an existing post.
func RewriteAssignment(post Post) Assignment {
	return Assignment{Kind: AssignmentRewrite, Post: &post}
}

// Validate checks that the assignment carries the payload its kind requires.
func (a *Assignment) Validate() error {
	switch a.Kind {
	case AssignmentNewTopic:
		if a.Topic == nil {
			return &ValidationError{Field: "topic", Message: "is required for new_topic assignments"}
		}
		return a.Topic.Validate()
	case AssignmentRewrite:
		if a.Post == nil {
			return &ValidationError{Field: "post", Message: "is required for rewrite assignments"}
		}
		if a.Post.ID == 0 {
			return &ValidationError{Field: "post.id", Message: "is required for rewrite assignments"}
		}
		return nil
	default:
		return &ValidationError{Field: "kind", Message: fmt.Sprintf("unknown assignment kind %q", a.Kind)}
	}
}

// Label returns a short human-readable identifier for logs and reports.
func (a *Assignment) Label() string {
	switch a.Kind {
	case AssignmentNewTopic:
		if a.Topic != nil {
			return fmt.Sprintf("new: %s", a.Topic.Title)
		}
	case AssignmentRewrite:
		if a.Post != nil {
			return fmt.Sprintf("rewrite: %s (#%d)", a.Post.Title, a.Post.ID)
		}
	}
	return string(a.Kind)
}
