package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// perform runs one request through the handler and captures the response.
func perform(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, req)
	return rw
}

func TestNewCORSPolicy(t *testing.T) {
	cases := map[string]struct {
		allowed []string
		wantErr string
	}{
		"valid localhost origin":      {allowed: []string{"http://localhost:5173"}},
		"valid https origin":          {allowed: []string{"https://wizard.example.com"}},
		"multiple origins":            {allowed: []string{"http://localhost:5173", "https://wizard.example.com"}},
		"empty list rejected":         {allowed: []string{}, wantErr: "at least one allowed origin"},
		"blank entries only rejected": {allowed: []string{"", "  "}, wantErr: "at least one allowed origin"},
		"non-http scheme rejected":    {allowed: []string{"ftp://example.com"}, wantErr: "http or https"},
		"path rejected":               {allowed: []string{"http://localhost:5173/app"}, wantErr: "must not include path"},
		"query string rejected":       {allowed: []string{"http://localhost:5173?x=1"}, wantErr: "must not include query string"},
		"fragment rejected":           {allowed: []string{"http://localhost:5173#top"}, wantErr: "must not include fragment"},
		"trailing slash rejected":     {allowed: []string{"http://localhost:5173/"}, wantErr: "trailing slash"},
	}

	for name, tt := range cases {
		t.Run(name, func(t *testing.T) {
			p, err := NewCORSPolicy(tt.allowed)

			if tt.wantErr != "" {
				if err == nil {
					t.Fatalf("expected error containing %q, got nil", tt.wantErr)
				}
				if !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("error = %q, want it to contain %q", err.Error(), tt.wantErr)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(p.AllowedOrigins) == 0 {
				t.Error("expected at least one origin in the policy")
			}
			if !p.AllowCredentials {
				t.Error("expected AllowCredentials to default to true")
			}
			if p.MaxAge != 86400 {
				t.Errorf("MaxAge = %d, want 86400", p.MaxAge)
			}
			if len(p.AllowedMethods) == 0 || len(p.AllowedHeaders) == 0 {
				t.Error("expected default methods and headers")
			}
		})
	}
}

func TestNewCORSPolicyNormalizesCase(t *testing.T) {
	p, err := NewCORSPolicy([]string{"http://LOCALHOST:5173"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.AllowedOrigins[0] != "http://localhost:5173" {
		t.Errorf("origin = %q, want lowercase form", p.AllowedOrigins[0])
	}
}

func TestCORS(t *testing.T) {
	p, err := NewCORSPolicy([]string{"http://localhost:5173"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 素通りすれば暗黙の200になる
	passthrough := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})
	handler := CORS(p)(passthrough)

	t.Run("same-origin request passes through untouched", func(t *testing.T) {
		rw := perform(handler, httptest.NewRequest(http.MethodGet, "/api/topics/posts", nil))

		if rw.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rw.Code)
		}
		if got := rw.Header().Get("Access-Control-Allow-Origin"); got != "" {
			t.Errorf("unexpected Allow-Origin header %q for same-origin request", got)
		}
	})

	t.Run("allowed origin is echoed with credentials", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/topics/posts", nil)
		req.Header.Set("Origin", "http://localhost:5173")
		rw := perform(handler, req)

		if rw.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rw.Code)
		}
		if got := rw.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
			t.Errorf("Allow-Origin = %q, want echoed origin", got)
		}
		if got := rw.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
			t.Errorf("Allow-Credentials = %q, want true", got)
		}
	})

	t.Run("allowed origin match is case-insensitive", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/topics/posts", nil)
		req.Header.Set("Origin", "http://LocalHost:5173")
		rw := perform(handler, req)

		if got := rw.Header().Get("Access-Control-Allow-Origin"); got != "http://LocalHost:5173" {
			t.Errorf("Allow-Origin = %q, want echoed origin", got)
		}
	})

	t.Run("disallowed origin gets no CORS headers", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/topics/posts", nil)
		req.Header.Set("Origin", "http://evil.example.com")
		rw := perform(handler, req)

		// Request still reaches the handler; the browser blocks the response.
		if rw.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rw.Code)
		}
		if got := rw.Header().Get("Access-Control-Allow-Origin"); got != "" {
			t.Errorf("unexpected Allow-Origin header %q for disallowed origin", got)
		}
	})

	t.Run("preflight returns 204 with policy headers", func(t *testing.T) {
		called := false
		inner := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			called = true
		})

		req := httptest.NewRequest(http.MethodOptions, "/api/generate", nil)
		req.Header.Set("Origin", "http://localhost:5173")
		req.Header.Set("Access-Control-Request-Method", "PUT")
		rw := perform(CORS(p)(inner), req)

		if rw.Code != http.StatusNoContent {
			t.Errorf("status = %d, want 204", rw.Code)
		}
		if called {
			t.Error("preflight should not reach the next handler")
		}
		if got := rw.Header().Get("Access-Control-Allow-Methods"); !strings.Contains(got, "PUT") {
			t.Errorf("Allow-Methods = %q, want it to contain PUT", got)
		}
		if got := rw.Header().Get("Access-Control-Allow-Headers"); !strings.Contains(got, "Authorization") {
			t.Errorf("Allow-Headers = %q, want it to contain Authorization", got)
		}
		if got := rw.Header().Get("Access-Control-Max-Age"); got != "86400" {
			t.Errorf("Max-Age = %q, want 86400", got)
		}
	})

	t.Run("preflight from disallowed origin is not answered", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/generate", nil)
		req.Header.Set("Origin", "http://evil.example.com")
		rw := perform(handler, req)

		if got := rw.Header().Get("Access-Control-Allow-Methods"); got != "" {
			t.Errorf("unexpected Allow-Methods %q for disallowed preflight", got)
		}
	})
}
