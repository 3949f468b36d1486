package pathutil

import (
	"testing"
)

func TestNormalizePath_RouteLabels(t *testing.T) {
	tests := map[string]struct {
		rawPath string
		want    string
	}{
		// Known routes pass through unchanged
		"connection validate": {"/api/connection/validate", "/api/connection/validate"},
		"topics sitemap":      {"/api/topics/sitemap", "/api/topics/sitemap"},
		"topics posts":        {"/api/topics/posts", "/api/topics/posts"},
		"topics feeds":        {"/api/topics/feeds", "/api/topics/feeds"},
		"generate":            {"/api/generate", "/api/generate"},
		"healthz":             {"/healthz", "/healthz"},
		"metrics":             {"/metrics", "/metrics"},

		// Query parameters and trailing slashes are stripped first
		"known route with query params":             {"/api/topics/sitemap?url=https://example.com/sitemap.xml", "/api/topics/sitemap"},
		"known route with trailing slash":           {"/api/generate/", "/api/generate"},
		"known route with trailing slash and query": {"/api/topics/posts/?stale_after=720h", "/api/topics/posts"},

		// Everything else collapses into the other bucket
		"root path":                       {"/", OtherPath},
		"scanner probing wordpress admin": {"/wp-admin/setup-config.php", OtherPath},
		"scanner probing env file":        {"/.env", OtherPath},
		"unknown api subpath":             {"/api/topics/unknown", OtherPath},
		"known route with extra segment":  {"/api/generate/123", OtherPath},
		"empty path":                      {"", OtherPath},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			if got := NormalizePath(tc.rawPath); got != tc.want {
				t.Errorf("NormalizePath(%q) = %q, want %q", tc.rawPath, got, tc.want)
			}
		})
	}
}

func TestNormalizePath_CardinalityBound(t *testing.T) {
	// ランダムなパスが何種類来てもラベルは既知ルート+1に収まる
	probes := []string{
		"/wp-login.php",
		"/admin",
		"/.git/config",
		"/api/v2/users/1",
		"/api/v2/users/2",
		"/vendor/phpunit/phpunit/src/Util/PHP/eval-stdin.php",
	}

	labels := make(map[string]struct{})
	for _, p := range probes {
		labels[NormalizePath(p)] = struct{}{}
	}

	if len(labels) != 1 {
		t.Errorf("probe paths produced %d labels, want 1 (%v)", len(labels), labels)
	}
	if _, ok := labels[OtherPath]; !ok {
		t.Errorf("probe paths should normalize to %q", OtherPath)
	}
}

func BenchmarkNormalizePath_Known(b *testing.B) {
	for i := 0; i < b.N; i++ {
		NormalizePath("/api/topics/sitemap?url=https://example.com/sitemap.xml")
	}
}

func BenchmarkNormalizePath_Unknown(b *testing.B) {
	for i := 0; i < b.N; i++ {
		NormalizePath("/wp-admin/setup-config.php")
	}
}
