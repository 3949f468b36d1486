package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// staticIPSource は常に同じIPを返すテスト用スタブ。
type staticIPSource struct{ ip string }

func (s staticIPSource) ClientIP(*http.Request) (string, error) {
	return s.ip, nil
}

// failingIPSource は抽出エラーを再現する。
type failingIPSource struct{}

func (failingIPSource) ClientIP(*http.Request) (string, error) {
	return "", errors.New("ip source unavailable")
}

func serveOnce(h http.Handler, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/generate", nil)
	if remoteAddr != "" {
		req.RemoteAddr = remoteAddr
	}
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)
	return resp
}

func TestRateLimiterAdmitsUpToLimit(t *testing.T) {
	lim := NewRateLimiter(3, time.Minute, staticIPSource{ip: "198.51.100.7"})
	h := lim.Limit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))

	for i := 1; i <= 3; i++ {
		if rw := serveOnce(h, ""); rw.Code != http.StatusAccepted {
			t.Fatalf("request %d: status = %d, want %d", i, rw.Code, http.StatusAccepted)
		}
	}

	rw := serveOnce(h, "")
	if rw.Code != http.StatusTooManyRequests {
		t.Fatalf("over-limit request: status = %d, want %d", rw.Code, http.StatusTooManyRequests)
	}
	if body := rw.Body.String(); body != "Too Many Requests\n" {
		t.Errorf("over-limit body = %q", body)
	}
}

func TestRateLimiterCountsClientsSeparately(t *testing.T) {
	lim := NewRateLimiter(2, time.Minute, PeerAddrSource{})

	for i := range 2 {
		if !lim.admit("203.0.113.10") {
			t.Fatalf("client A request %d should be admitted", i+1)
		}
	}
	if lim.admit("203.0.113.10") {
		t.Fatal("client A should be over its limit")
	}

	// 別IPのウィンドウは独立している
	if !lim.admit("203.0.113.11") {
		t.Fatal("client B should not be affected by client A's usage")
	}
}

func TestRateLimiterWindowSlides(t *testing.T) {
	lim := NewRateLimiter(2, 100*time.Millisecond, PeerAddrSource{})

	if !lim.admit("192.0.2.1") || !lim.admit("192.0.2.1") {
		t.Fatal("first two requests should be admitted")
	}
	if lim.admit("192.0.2.1") {
		t.Fatal("third request inside the window should be rejected")
	}

	time.Sleep(250 * time.Millisecond)

	if !lim.admit("192.0.2.1") {
		t.Fatal("request after the window expired should be admitted again")
	}
}

func TestAllowPrunesExpiredTimestamps(t *testing.T) {
	lim := NewRateLimiter(2, time.Minute, PeerAddrSource{})

	stale := time.Now().Add(-2 * time.Minute)
	lim.mu.Lock()
	lim.seen["192.0.2.50"] = []time.Time{stale, stale, stale}
	lim.mu.Unlock()

	if !lim.admit("192.0.2.50") {
		t.Fatal("stale timestamps should not count against the limit")
	}

	lim.mu.Lock()
	remaining := len(lim.seen["192.0.2.50"])
	lim.mu.Unlock()
	if remaining != 1 {
		t.Errorf("timestamps after prune = %d, want 1 (the fresh request)", remaining)
	}
}

func TestEvictIdleForgetsStaleClients(t *testing.T) {
	lim := NewRateLimiter(5, 50*time.Millisecond, PeerAddrSource{})

	for _, ip := range []string{"203.0.113.1", "203.0.113.2", "203.0.113.3"} {
		lim.admit(ip)
	}
	time.Sleep(80 * time.Millisecond)
	lim.admit("203.0.113.4") // まだウィンドウ内

	lim.EvictIdle()

	lim.mu.Lock()
	defer lim.mu.Unlock()
	if len(lim.seen) != 1 {
		t.Fatalf("tracked IPs after cleanup = %d, want 1", len(lim.seen))
	}
	if _, ok := lim.seen["203.0.113.4"]; !ok {
		t.Error("the active client should survive cleanup")
	}
}

func TestRateLimiterConcurrentAdmissionIsExact(t *testing.T) {
	const limit, goroutines = 50, 100
	lim := NewRateLimiter(limit, time.Minute, PeerAddrSource{})

	results := make(chan bool, goroutines)
	for range goroutines {
		go func() { results <- lim.admit("198.51.100.99") }()
	}

	admitted := 0
	for range goroutines {
		if <-results {
			admitted++
		}
	}
	if admitted != limit {
		t.Errorf("admitted = %d, want exactly %d", admitted, limit)
	}
}

func TestMiddlewareFallsBackToRemoteAddrOnSourceError(t *testing.T) {
	lim := NewRateLimiter(1, time.Minute, failingIPSource{})
	h := lim.Limit(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	if rw := serveOnce(h, "203.0.113.77:4444"); rw.Code != http.StatusOK {
		t.Fatalf("fallback request: status = %d, want %d", rw.Code, http.StatusOK)
	}

	// フォールバック先のIPで実際にカウントされていること
	if rw := serveOnce(h, "203.0.113.77:4444"); rw.Code != http.StatusTooManyRequests {
		t.Errorf("second request: status = %d, want %d (limit applies to RemoteAddr)",
			rw.Code, http.StatusTooManyRequests)
	}
}

func TestMiddlewareRejectsWhenNoUsableIP(t *testing.T) {
	lim := NewRateLimiter(10, time.Minute, failingIPSource{})
	h := lim.Limit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not run without a client IP")
	}))

	rw := serveOnce(h, "no-port-no-ip")
	if rw.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rw.Code, http.StatusInternalServerError)
	}
}

func BenchmarkAllow(b *testing.B) {
	lim := NewRateLimiter(1<<20, time.Millisecond, PeerAddrSource{})
	b.ReportAllocs()
	for b.Loop() {
		lim.admit("198.51.100.1")
	}
}
