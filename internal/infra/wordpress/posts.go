package wordpress

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"contentforge/internal/domain/entity"
	"contentforge/internal/webfetch"
)

// postListFields keeps list responses slim; the body is only fetched for a
// single post when a rewrite needs it.
const postListFields = "id,slug,status,link,modified_gmt,title,excerpt"

// maxListPages bounds ListAllPosts against sites with runaway archives.
const maxListPages = 50

type renderedField struct {
	Rendered string `json:"rendered"`
}

// wirePost mirrors the wp/v2 post resource.
type wirePost struct {
	ID          int64         `json:"id"`
	Slug        string        `json:"slug"`
	Status      string        `json:"status"`
	Link        string        `json:"link"`
	ModifiedGMT string        `json:"modified_gmt"`
	Title       renderedField `json:"title"`
	Content     renderedField `json:"content"`
	Excerpt     renderedField `json:"excerpt"`
}

// modifiedGMTLayout is the zone-less timestamp format of *_gmt fields.
const modifiedGMTLayout = "2006-01-02T15:04:05"

func (w *wirePost) toEntity() entity.Post {
	modified, err := time.Parse(modifiedGMTLayout, w.ModifiedGMT)
	if err != nil {
		modified = time.Time{}
	}

	return entity.Post{
		ID:       w.ID,
		Title:    w.Title.Rendered,
		Slug:     w.Slug,
		Link:     w.Link,
		Status:   entity.PostStatus(w.Status),
		Modified: modified.UTC(),
		Excerpt:  w.Excerpt.Rendered,
	}
}

// ListPostsOptions controls one page of the post listing.
type ListPostsOptions struct {
	// Page is 1-based. Zero means the first page.
	Page int

	// PerPage defaults to 20; the API caps it at 100.
	PerPage int

	// Status filters by post status. Empty lists published posts; other
	// statuses require credentials.
	Status entity.PostStatus
}

// PostList is one page of posts plus the collection totals reported by the
// X-WP-Total and X-WP-TotalPages headers.
type PostList struct {
	Posts      []entity.Post
	Total      int
	TotalPages int
}

// ListPosts fetches one page of posts.
func (c *Client) ListPosts(ctx context.Context, opts ListPostsOptions) (*PostList, error) {
	result, err := c.execute(ctx, "list posts", func() (interface{}, error) {
		return c.fetchPostsPage(ctx, opts)
	})
	if err != nil {
		return nil, err
	}
	return result.(*PostList), nil
}

func (c *Client) fetchPostsPage(ctx context.Context, opts ListPostsOptions) (*PostList, error) {
	page := opts.Page
	if page < 1 {
		page = 1
	}
	perPage := opts.PerPage
	if perPage < 1 {
		perPage = 20
	}
	if perPage > 100 {
		perPage = 100
	}

	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("per_page", strconv.Itoa(perPage))
	query.Set("_fields", postListFields)
	if opts.Status != "" {
		query.Set("status", string(opts.Status))
	}

	resp, err := c.doRequest(ctx, http.MethodGet, "/wp-json/wp/v2/posts", query, nil)
	if err != nil {
		return nil, err
	}

	var wire []wirePost
	if err := decode("list posts", resp, &wire); err != nil {
		return nil, err
	}

	posts := make([]entity.Post, 0, len(wire))
	for _, w := range wire {
		posts = append(posts, w.toEntity())
	}

	return &PostList{
		Posts:      posts,
		Total:      headerInt(resp, "X-WP-Total"),
		TotalPages: headerInt(resp, "X-WP-TotalPages"),
	}, nil
}

// ListAllPosts walks every page of the listing for one status. The page count
// is bounded; a site reporting more pages than the bound yields a truncated
// list and a warning from the caller's logs via the returned total.
func (c *Client) ListAllPosts(ctx context.Context, status entity.PostStatus) ([]entity.Post, error) {
	var all []entity.Post

	for page := 1; page <= maxListPages; page++ {
		list, err := c.ListPosts(ctx, ListPostsOptions{Page: page, PerPage: 100, Status: status})
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", page, err)
		}
		all = append(all, list.Posts...)

		if list.TotalPages > 0 && page >= list.TotalPages {
			break
		}
		if len(list.Posts) == 0 {
			break
		}
	}

	return all, nil
}

// PostContent is a single post including its rendered body.
type PostContent struct {
	Post        entity.Post
	ContentHTML string
}

// GetPost fetches one post with its rendered content, which rewrite
// assignments use as source material.
func (c *Client) GetPost(ctx context.Context, id int64) (*PostContent, error) {
	result, err := c.execute(ctx, fmt.Sprintf("get post %d", id), func() (interface{}, error) {
		query := url.Values{}
		query.Set("_fields", postListFields+",content")

		resp, err := c.doRequest(ctx, http.MethodGet, fmt.Sprintf("/wp-json/wp/v2/posts/%d", id), query, nil)
		if err != nil {
			return nil, err
		}

		var wire wirePost
		if err := decode("get post", resp, &wire); err != nil {
			return nil, err
		}
		return &PostContent{Post: wire.toEntity(), ContentHTML: wire.Content.Rendered}, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*PostContent), nil
}

// PostParams is the write payload for creating or updating a post. Zero
// fields are omitted, so an update only touches what it names.
type PostParams struct {
	Title      string            `json:"title,omitempty"`
	Slug       string            `json:"slug,omitempty"`
	Content    string            `json:"content,omitempty"`
	Excerpt    string            `json:"excerpt,omitempty"`
	Status     entity.PostStatus `json:"status,omitempty"`
	Categories []int             `json:"categories,omitempty"`
	Tags       []int             `json:"tags,omitempty"`
}

// CreatePost publishes a new post. Credentials are required.
func (c *Client) CreatePost(ctx context.Context, params PostParams) (*entity.Post, error) {
	if c.auth == nil {
		return nil, fmt.Errorf("creating posts requires credentials: configure an application password or JWT")
	}

	result, err := c.execute(ctx, "create post", func() (interface{}, error) {
		resp, err := c.doRequest(ctx, http.MethodPost, "/wp-json/wp/v2/posts", nil, params)
		if err != nil {
			return nil, err
		}

		var wire wirePost
		if err := decode("create post", resp, &wire); err != nil {
			return nil, err
		}
		post := wire.toEntity()
		return &post, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*entity.Post), nil
}

// UpdatePost modifies an existing post. Credentials are required.
func (c *Client) UpdatePost(ctx context.Context, id int64, params PostParams) (*entity.Post, error) {
	if c.auth == nil {
		return nil, fmt.Errorf("updating posts requires credentials: configure an application password or JWT")
	}

	result, err := c.execute(ctx, fmt.Sprintf("update post %d", id), func() (interface{}, error) {
		resp, err := c.doRequest(ctx, http.MethodPost, fmt.Sprintf("/wp-json/wp/v2/posts/%d", id), nil, params)
		if err != nil {
			return nil, err
		}

		var wire wirePost
		if err := decode("update post", resp, &wire); err != nil {
			return nil, err
		}
		post := wire.toEntity()
		return &post, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*entity.Post), nil
}

func headerInt(resp *webfetch.Response, name string) int {
	value, err := strconv.Atoi(resp.Header.Get(name))
	if err != nil {
		return 0
	}
	return value
}
