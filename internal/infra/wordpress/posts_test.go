package wordpress

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contentforge/internal/domain/entity"
	"contentforge/internal/webfetch"
)

func TestWirePost_ToEntity(t *testing.T) {
	wire := wirePost{
		ID:          42,
		Slug:        "hello-world",
		Status:      "publish",
		Link:        "https://example.com/hello-world/",
		ModifiedGMT: "2026-02-10T08:30:00",
		Title:       renderedField{Rendered: "Hello World"},
		Excerpt:     renderedField{Rendered: "<p>Intro.</p>"},
	}

	post := wire.toEntity()

	assert.Equal(t, int64(42), post.ID)
	assert.Equal(t, "Hello World", post.Title)
	assert.Equal(t, entity.PostStatusPublish, post.Status)
	assert.Equal(t, time.Date(2026, 2, 10, 8, 30, 0, 0, time.UTC), post.Modified)
}

func TestWirePost_ToEntity_BadTimestamp(t *testing.T) {
	wire := wirePost{ID: 1, ModifiedGMT: "not-a-date"}

	post := wire.toEntity()

	assert.True(t, post.Modified.IsZero())
}

func TestListPosts(t *testing.T) {
	header := http.Header{}
	header.Set("X-WP-Total", "57")
	header.Set("X-WP-TotalPages", "3")
	fetcher := &stubFetcher{handler: func(string, webfetch.RequestOptions) (*webfetch.Response, error) {
		return &webfetch.Response{
			StatusCode: http.StatusOK,
			Header:     header,
			Body: []byte(`[
				{"id":1,"slug":"first","status":"publish","title":{"rendered":"First"},"modified_gmt":"2026-01-05T10:00:00"},
				{"id":2,"slug":"second","status":"publish","title":{"rendered":"Second"},"modified_gmt":"2026-01-06T11:00:00"}
			]`),
			Via: "direct",
		}, nil
	}}
	client := newTestClient(t, fetcher, nil)

	list, err := client.ListPosts(context.Background(), ListPostsOptions{PerPage: 20})

	require.NoError(t, err)
	assert.Equal(t, 57, list.Total)
	assert.Equal(t, 3, list.TotalPages)
	require.Len(t, list.Posts, 2)
	assert.Equal(t, "First", list.Posts[0].Title)
	assert.Equal(t, "second", list.Posts[1].Slug)
}

func TestListPosts_StatusFilterRequested(t *testing.T) {
	fetcher := &stubFetcher{handler: func(string, webfetch.RequestOptions) (*webfetch.Response, error) {
		return jsonResponse(http.StatusOK, `[]`), nil
	}}
	client := newTestClient(t, fetcher, NewAppPasswordAuth("writer", "secret"))

	_, err := client.ListPosts(context.Background(), ListPostsOptions{Status: entity.PostStatusDraft})

	require.NoError(t, err)
	assert.Contains(t, fetcher.requests[0].Target, "status=draft")
}

func TestListAllPosts_WalksEveryPage(t *testing.T) {
	pages := map[string]string{
		"&page=1&": `[{"id":1,"slug":"a","status":"publish","title":{"rendered":"A"}},
			{"id":2,"slug":"b","status":"publish","title":{"rendered":"B"}}]`,
		"&page=2&": `[{"id":3,"slug":"c","status":"publish","title":{"rendered":"C"}}]`,
	}
	fetcher := &stubFetcher{handler: func(target string, _ webfetch.RequestOptions) (*webfetch.Response, error) {
		header := http.Header{}
		header.Set("X-WP-Total", "3")
		header.Set("X-WP-TotalPages", "2")
		for marker, body := range pages {
			if strings.Contains(target, marker) {
				return &webfetch.Response{StatusCode: http.StatusOK, Header: header, Body: []byte(body), Via: "direct"}, nil
			}
		}
		t.Fatalf("unexpected request %s", target)
		return nil, nil
	}}
	client := newTestClient(t, fetcher, nil)

	posts, err := client.ListAllPosts(context.Background(), entity.PostStatusPublish)

	require.NoError(t, err)
	assert.Len(t, posts, 3)
	// TotalPages stops the walk; no third request.
	assert.Len(t, fetcher.requests, 2)
}

func TestListAllPosts_StopsOnEmptyPage(t *testing.T) {
	// A site not reporting totals ends the walk at the first empty page.
	fetcher := &stubFetcher{handler: func(target string, _ webfetch.RequestOptions) (*webfetch.Response, error) {
		if strings.Contains(target, "&page=1&") {
			return jsonResponse(http.StatusOK, `[{"id":1,"slug":"a","status":"publish","title":{"rendered":"A"}}]`), nil
		}
		return jsonResponse(http.StatusOK, `[]`), nil
	}}
	client := newTestClient(t, fetcher, nil)

	posts, err := client.ListAllPosts(context.Background(), entity.PostStatusPublish)

	require.NoError(t, err)
	assert.Len(t, posts, 1)
	assert.Len(t, fetcher.requests, 2)
}

func TestGetPost(t *testing.T) {
	fetcher := &stubFetcher{handler: func(string, webfetch.RequestOptions) (*webfetch.Response, error) {
		return jsonResponse(http.StatusOK,
			`{"id":7,"slug":"guide","status":"publish","title":{"rendered":"Guide"},"content":{"rendered":"<p>Body.</p>"}}`), nil
	}}
	client := newTestClient(t, fetcher, nil)

	content, err := client.GetPost(context.Background(), 7)

	require.NoError(t, err)
	assert.Equal(t, int64(7), content.Post.ID)
	assert.Equal(t, "<p>Body.</p>", content.ContentHTML)
	assert.Contains(t, fetcher.requests[0].Target, "/wp-json/wp/v2/posts/7")
	assert.Contains(t, fetcher.requests[0].Target, "content")
}

func TestCreatePost_RequiresCredentials(t *testing.T) {
	client := newTestClient(t, &stubFetcher{}, nil)

	_, err := client.CreatePost(context.Background(), PostParams{Title: "T"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires credentials")
}

func TestUpdatePost_RequiresCredentials(t *testing.T) {
	client := newTestClient(t, &stubFetcher{}, nil)

	_, err := client.UpdatePost(context.Background(), 5, PostParams{Status: entity.PostStatusDraft})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires credentials")
}

func TestCreatePost_SendsPayload(t *testing.T) {
	fetcher := &stubFetcher{handler: func(string, webfetch.RequestOptions) (*webfetch.Response, error) {
		return jsonResponse(http.StatusCreated,
			`{"id":101,"slug":"fresh","status":"draft","title":{"rendered":"Fresh"}}`), nil
	}}
	client := newTestClient(t, fetcher, NewAppPasswordAuth("writer", "secret"))

	post, err := client.CreatePost(context.Background(), PostParams{
		Title:      "Fresh",
		Slug:       "fresh",
		Content:    "<p>Body.</p>",
		Status:     entity.PostStatusDraft,
		Categories: []int{3},
	})

	require.NoError(t, err)
	assert.Equal(t, int64(101), post.ID)

	req := fetcher.requests[0]
	assert.Equal(t, http.MethodPost, req.Opts.Method)
	body := string(req.Opts.Body)
	assert.Contains(t, body, `"status":"draft"`)
	assert.Contains(t, body, `"categories":[3]`)
	assert.NotContains(t, body, `"tags"`)
}

func TestUpdatePost_TargetsPostID(t *testing.T) {
	fetcher := &stubFetcher{handler: func(string, webfetch.RequestOptions) (*webfetch.Response, error) {
		return jsonResponse(http.StatusOK,
			`{"id":5,"slug":"guide","status":"publish","title":{"rendered":"Guide"}}`), nil
	}}
	client := newTestClient(t, fetcher, NewAppPasswordAuth("writer", "secret"))

	_, err := client.UpdatePost(context.Background(), 5, PostParams{Content: "<p>New body.</p>"})

	require.NoError(t, err)
	assert.Contains(t, fetcher.requests[0].Target, "/wp-json/wp/v2/posts/5")
}
