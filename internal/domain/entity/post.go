package entity

import "time"

// PostStatus mirrors the status vocabulary of the CMS.
type PostStatus string

const (
	PostStatusPublish PostStatus = "publish"
	PostStatusDraft   PostStatus = "draft"
	PostStatusPending PostStatus = "pending"
	PostStatusFuture  PostStatus = "future"
	PostStatusPrivate PostStatus = "private"
)

// Post is a content item that already exists on the CMS, as topic discovery
// and rewrite flows see it.
type Post struct {
	ID       int64
	Title    string
	Slug     string
	Link     string
	Status   PostStatus
	Modified time.Time
	Excerpt  string
}

// StaleSince reports whether the post has gone unmodified for longer than
// maxAge as of now. Stale published posts are rewrite candidates.
func (p *Post) StaleSince(now time.Time, maxAge time.Duration) bool {
	if p.Modified.IsZero() || maxAge <= 0 {
		return false
	}
	return now.Sub(p.Modified) > maxAge
}
