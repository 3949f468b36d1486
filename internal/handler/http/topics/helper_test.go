package topics_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"contentforge/internal/handler/http/topics"
)

// doGet はハンドラに GET を投げ、ステータス検証まで済ませて返す
func doGet(t *testing.T, h http.Handler, target string, wantStatus int) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)
	if resp.Code != wantStatus {
		t.Fatalf("status code = %d, want %d: %s", resp.Code, wantStatus, resp.Body.String())
	}
	return resp
}

func decodeAssignments(t *testing.T, resp *httptest.ResponseRecorder) []topics.AssignmentDTO {
	t.Helper()
	var got []topics.AssignmentDTO
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return got
}
