package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func TestLimiter_Window(t *testing.T) {
	c := &clock{t: time.Date(2024, 3, 7, 10, 0, 0, 0, time.UTC)}
	rl := NewLimiter(Config{RequestsPerMinute: 2, Now: c.now})
	defer rl.Stop()

	if !rl.Allow("a") || !rl.Allow("a") {
		t.Fatal("first two requests should pass")
	}
	if rl.Allow("a") {
		t.Fatal("third request in the window should be rejected")
	}
	if !rl.Allow("b") {
		t.Fatal("other clients have their own window")
	}

	c.advance(20 * time.Second)
	if got := rl.RetryAfter("a"); got != 40*time.Second {
		t.Fatalf("RetryAfter = %v, want 40s", got)
	}

	c.advance(40 * time.Second)
	if !rl.Allow("a") {
		t.Fatal("window should have reset")
	}
}

func TestLimiter_Cleanup(t *testing.T) {
	c := &clock{t: time.Date(2024, 3, 7, 10, 0, 0, 0, time.UTC)}
	rl := NewLimiter(Config{Now: c.now})
	defer rl.Stop()

	rl.Allow("a")
	c.advance(30 * time.Second)
	rl.Allow("b")
	c.advance(45 * time.Second)

	rl.cleanupStaleEntries()
	if n := rl.ActiveClients(); n != 1 {
		t.Fatalf("ActiveClients = %d, want 1", n)
	}
	rl.Stop()
	rl.Stop()
}

func TestMiddleware(t *testing.T) {
	rl := NewLimiter(Config{RequestsPerMinute: 1})
	defer rl.Stop()

	var retry time.Duration
	h := rl.Middleware(nil, func(w http.ResponseWriter, _ *http.Request, d time.Duration) {
		retry = d
		w.WriteHeader(http.StatusTooManyRequests)
	})(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))

	send := func(addr string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/sync", nil)
		req.RemoteAddr = addr
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr.Code
	}

	if code := send("10.0.0.1:5000"); code != http.StatusAccepted {
		t.Fatalf("first request status = %d", code)
	}
	if code := send("10.0.0.1:5001"); code != http.StatusTooManyRequests {
		t.Fatalf("same host on another port should share the limit, status = %d", code)
	}
	if retry <= 0 || retry > time.Minute {
		t.Fatalf("retry = %v", retry)
	}
	if code := send("10.0.0.2:5000"); code != http.StatusAccepted {
		t.Fatalf("other host status = %d", code)
	}
}
