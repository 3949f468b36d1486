package generate_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"contentforge/internal/domain/entity"
	"contentforge/internal/handler/http/generate"
	"contentforge/internal/infra/wordpress"
	"contentforge/internal/usecase/pipeline"
)

/* ───────── スタブ ───────── */

type stubGenerator struct {
	fail  error
	calls int
}

func (s *stubGenerator) GenerateDraft(_ context.Context, a entity.Assignment, _ string) (*entity.Draft, error) {
	s.calls++
	if s.fail != nil {
		return nil, s.fail
	}
	d := &entity.Draft{
		ID:          fmt.Sprintf("draft-%d", s.calls),
		Title:       a.Label(),
		ContentHTML: "<p>generated body</p>",
		Excerpt:     "generated excerpt",
		Model:       "stub-model",
		GeneratedAt: time.Now(),
	}
	if a.Topic != nil {
		d.Title = a.Topic.Title
	}
	return d, nil
}

type stubPublisher struct {
	created []wordpress.PostParams
	updated map[int64]wordpress.PostParams
}

func (s *stubPublisher) CreatePost(_ context.Context, params wordpress.PostParams) (*entity.Post, error) {
	s.created = append(s.created, params)
	post := entity.Post{ID: int64(100 + len(s.created)), Title: params.Title, Status: params.Status}
	post.Link = "https://blog.example.com/?p=" + params.Slug
	return &post, nil
}

func (s *stubPublisher) UpdatePost(_ context.Context, id int64, params wordpress.PostParams) (*entity.Post, error) {
	if s.updated == nil {
		s.updated = make(map[int64]wordpress.PostParams)
	}
	s.updated[id] = params
	return &entity.Post{ID: id, Title: params.Title, Status: params.Status}, nil
}

// 以下は未使用だが、インターフェース満たすために実装
func (s *stubPublisher) GetPost(_ context.Context, _ int64) (*wordpress.PostContent, error) {
	return nil, errors.New("not found")
}
func (s *stubPublisher) ListCategories(_ context.Context) ([]wordpress.Term, error) {
	return nil, nil
}
func (s *stubPublisher) ListTags(_ context.Context) ([]wordpress.Term, error) {
	return nil, nil
}

// postGenerate は JSON ボディを投げ、ステータス検証まで済ませて返す
func postGenerate(t *testing.T, h http.Handler, body string, wantStatus int) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/generate", strings.NewReader(body))
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)
	if resp.Code != wantStatus {
		t.Fatalf("status code = %d, want %d: %s", resp.Code, wantStatus, resp.Body.String())
	}
	return resp
}

func decodeReport(t *testing.T, resp *httptest.ResponseRecorder) generate.ReportDTO {
	t.Helper()
	var report generate.ReportDTO
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return report
}

/* ───────── ハンドラ検証 ───────── */

func TestHandler_DryRun(t *testing.T) {
	gen := &stubGenerator{}
	handler := generate.Handler{Svc: &pipeline.Runner{Generator: gen}}

	resp := postGenerate(t, handler, `{
		"assignments": [{"kind": "new_topic", "topic": {"title": "Choosing A CRM", "slug": "choosing-a-crm"}}],
		"dry_run": true
	}`, http.StatusOK)
	report := decodeReport(t, resp)

	// 結果の検証
	if !report.DryRun {
		t.Error("report.DryRun = false, want true")
	}
	if report.Status != "success" {
		t.Errorf("report.Status = %q, want %q", report.Status, "success")
	}
	if report.Total != 1 || report.Generated != 1 || report.Published != 0 {
		t.Errorf("counts = total %d generated %d published %d, want 1/1/0",
			report.Total, report.Generated, report.Published)
	}
	if report.RunID == "" {
		t.Error("report.RunID should not be empty")
	}
	if len(report.Items) != 1 {
		t.Fatalf("items length = %d, want 1", len(report.Items))
	}

	item := report.Items[0]
	if !item.Success {
		t.Errorf("item.Success = false, want true: %s", item.Error)
	}
	if item.Draft == nil {
		t.Fatal("item.Draft is nil; dry runs must return the draft for review")
	}
	if item.Draft.ContentHTML == "" {
		t.Error("item.Draft.ContentHTML should carry the generated body")
	}
	if item.Published != nil {
		t.Error("item.Published should be nil on a dry run")
	}
}

func TestHandler_LiveRunPublishes(t *testing.T) {
	gen := &stubGenerator{}
	pub := &stubPublisher{}
	handler := generate.Handler{Svc: &pipeline.Runner{Generator: gen, Publisher: pub}}

	resp := postGenerate(t, handler, `{
		"assignments": [{"kind": "new_topic", "topic": {"title": "Email Automation"}}],
		"status": "publish"
	}`, http.StatusOK)
	report := decodeReport(t, resp)

	if report.Published != 1 {
		t.Errorf("report.Published = %d, want 1", report.Published)
	}
	if len(report.Items) != 1 || report.Items[0].Published == nil {
		t.Fatalf("items = %+v, want one published item", report.Items)
	}
	if report.Items[0].Published.Status != "publish" {
		t.Errorf("published status = %q, want %q", report.Items[0].Published.Status, "publish")
	}
	if len(pub.created) != 1 {
		t.Fatalf("publisher created %d posts, want 1", len(pub.created))
	}
}

func TestHandler_RewriteUpdatesExistingPost(t *testing.T) {
	gen := &stubGenerator{}
	pub := &stubPublisher{}
	handler := generate.Handler{Svc: &pipeline.Runner{Generator: gen, Publisher: pub}}

	postGenerate(t, handler, `{
		"assignments": [{"kind": "rewrite", "post": {"id": 42, "title": "Old Guide"}}]
	}`, http.StatusOK)

	if _, ok := pub.updated[42]; !ok {
		t.Fatalf("updated posts = %v, want post 42 updated", pub.updated)
	}
	if len(pub.created) != 0 {
		t.Errorf("publisher created %d posts, want 0 for a rewrite", len(pub.created))
	}
}

func TestHandler_EmptyAssignments(t *testing.T) {
	handler := generate.Handler{Svc: &pipeline.Runner{Generator: &stubGenerator{}}}

	postGenerate(t, handler, `{"assignments": [], "dry_run": true}`, http.StatusBadRequest)
}

func TestHandler_BatchTooLarge(t *testing.T) {
	gen := &stubGenerator{}
	handler := generate.Handler{Svc: &pipeline.Runner{Generator: gen}}

	items := make([]string, 0, 26)
	for i := range 26 {
		items = append(items, fmt.Sprintf(`{"kind": "new_topic", "topic": {"title": "Topic %d"}}`, i))
	}
	body := fmt.Sprintf(`{"assignments": [%s], "dry_run": true}`, strings.Join(items, ","))

	postGenerate(t, handler, body, http.StatusBadRequest)

	if gen.calls != 0 {
		t.Error("generator should not run for an oversized batch")
	}
}

func TestHandler_InvalidAssignment(t *testing.T) {
	gen := &stubGenerator{}
	handler := generate.Handler{Svc: &pipeline.Runner{Generator: gen}}

	postGenerate(t, handler, `{
		"assignments": [{"kind": "summarize"}],
		"dry_run": true
	}`, http.StatusBadRequest)

	if gen.calls != 0 {
		t.Error("generator should not run for invalid assignments")
	}
}

func TestHandler_InvalidStatus(t *testing.T) {
	handler := generate.Handler{Svc: &pipeline.Runner{Generator: &stubGenerator{}}}

	postGenerate(t, handler, `{
		"assignments": [{"kind": "new_topic", "topic": {"title": "T"}}],
		"status": "live"
	}`, http.StatusBadRequest)
}

func TestHandler_GeneratorFailureReportedPerItem(t *testing.T) {
	gen := &stubGenerator{fail: errors.New("model overloaded")}
	handler := generate.Handler{Svc: &pipeline.Runner{Generator: gen}}

	// 個別の失敗はレポートに載せて200で返す
	resp := postGenerate(t, handler, `{
		"assignments": [{"kind": "new_topic", "topic": {"title": "Doomed"}}],
		"dry_run": true
	}`, http.StatusOK)
	report := decodeReport(t, resp)

	if report.Status != "failure" {
		t.Errorf("report.Status = %q, want %q", report.Status, "failure")
	}
	if report.Failed != 1 {
		t.Errorf("report.Failed = %d, want 1", report.Failed)
	}
	if len(report.Items) != 1 || report.Items[0].Error == "" {
		t.Fatalf("items = %+v, want one failed item with an error message", report.Items)
	}
}

func TestHandler_LiveRunWithoutPublisher(t *testing.T) {
	handler := generate.Handler{Svc: &pipeline.Runner{Generator: &stubGenerator{}}}

	// パイプラインが開始できない場合は409
	postGenerate(t, handler, `{
		"assignments": [{"kind": "new_topic", "topic": {"title": "T"}}]
	}`, http.StatusConflict)
}
