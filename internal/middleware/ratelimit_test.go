// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"net/http"
	"net/http/httptest"
	"net/netip"
	"testing"
	"time"
)

// manualClock is a settable time source.
type manualClock struct{ t time.Time }

func (c *manualClock) Now() time.Time          { return c.t }
func (c *manualClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter(t *testing.T, limit int, period time.Duration) (*RateLimiter, *manualClock) {
	t.Helper()
	clock := &manualClock{t: time.Date(2031, 1, 1, 12, 0, 0, 0, time.UTC)}
	rl := NewRateLimiter(limit, period)
	rl.now = clock.Now
	t.Cleanup(rl.Stop)
	return rl, clock
}

func TestRateLimiterAllow(t *testing.T) {
	rl, _ := newTestLimiter(t, 3, time.Minute)

	for i := range 3 {
		if ok, _ := rl.allow("203.0.113.7"); !ok {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	ok, retry := rl.allow("203.0.113.7")
	if ok {
		t.Fatal("4th request should be limited")
	}
	if retry != time.Minute {
		t.Errorf("retryAfter = %v, want 1m", retry)
	}
	if ok, _ := rl.allow("198.51.100.1"); !ok {
		t.Error("another client should be allowed")
	}
}

func TestRateLimiterWindowSlides(t *testing.T) {
	rl, clock := newTestLimiter(t, 2, time.Minute)

	rl.allow("ip")
	clock.Advance(30 * time.Second)
	rl.allow("ip")

	if ok, retry := rl.allow("ip"); ok || retry != 30*time.Second {
		t.Fatalf("allow = %v, retry %v; want limited for 30s", ok, retry)
	}

	// The first hit leaves the window; one slot frees up.
	clock.Advance(31 * time.Second)
	if ok, _ := rl.allow("ip"); !ok {
		t.Error("should be allowed once the oldest hit expires")
	}
	if ok, _ := rl.allow("ip"); ok {
		t.Error("window should be full again")
	}
}

func TestRateLimiterMiddleware(t *testing.T) {
	rl, _ := newTestLimiter(t, 2, time.Minute)
	handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	post := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/bookings", nil)
		req.RemoteAddr = "192.0.2.10:40000"
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr
	}

	for i := range 2 {
		if rr := post(); rr.Code != http.StatusCreated {
			t.Fatalf("request %d: status %d", i+1, rr.Code)
		}
	}

	rr := post()
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rr.Code)
	}
	if got := rr.Header().Get("Retry-After"); got != "60" {
		t.Errorf("Retry-After = %q, want 60", got)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestRateLimiterSweep(t *testing.T) {
	rl, clock := newTestLimiter(t, 10, time.Minute)

	rl.allow("idle")
	clock.Advance(45 * time.Second)
	rl.allow("active")
	clock.Advance(30 * time.Second)

	rl.sweep()

	rl.mu.RLock()
	_, idle := rl.clients["idle"]
	_, active := rl.clients["active"]
	rl.mu.RUnlock()

	if idle {
		t.Error("idle client should be forgotten")
	}
	if !active {
		t.Error("active client should be kept")
	}
}

func TestClientIP(t *testing.T) {
	trusted, err := ParseTrustedProxies([]string{"10.0.0.0/8", "192.168.1.1"})
	if err != nil {
		t.Fatalf("ParseTrustedProxies: %v", err)
	}

	tests := []struct {
		name       string
		trusted    bool
		xff        string
		xri        string
		remoteAddr string
		want       string
	}{
		{name: "no trust ignores forwarded", xff: "203.0.113.5", remoteAddr: "198.51.100.7:1234", want: "198.51.100.7"},
		{name: "untrusted peer cannot spoof", trusted: true, xff: "203.0.113.5", remoteAddr: "198.51.100.7:1234", want: "198.51.100.7"},
		{name: "trusted peer single hop", trusted: true, xff: "203.0.113.5", remoteAddr: "192.168.1.1:1234", want: "203.0.113.5"},
		{name: "spoofed leftmost hop ignored", trusted: true, xff: "1.2.3.4, 203.0.113.5, 10.1.2.3", remoteAddr: "10.0.0.9:80", want: "203.0.113.5"},
		{name: "all hops trusted", trusted: true, xff: "10.9.9.9, 10.1.2.3", remoteAddr: "10.0.0.9:80", want: "10.9.9.9"},
		{name: "real ip from trusted peer", trusted: true, xri: " 203.0.113.6 ", remoteAddr: "192.168.1.1:1234", want: "203.0.113.6"},
		{name: "remote addr", remoteAddr: "192.168.1.1:1234", want: "192.168.1.1"},
		{name: "remote addr ipv6", remoteAddr: "[2001:db8::1]:443", want: "2001:db8::1"},
		{name: "remote addr without port", remoteAddr: "192.168.1.1", want: "192.168.1.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				req.Header.Set("X-Real-IP", tt.xri)
			}
			var prefixes []netip.Prefix
			if tt.trusted {
				prefixes = trusted
			}
			if got := clientIP(req, prefixes); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseTrustedProxies(t *testing.T) {
	if _, err := ParseTrustedProxies([]string{"not-an-ip"}); err == nil {
		t.Error("bad address accepted")
	}
	if _, err := ParseTrustedProxies([]string{"10.0.0.0/33"}); err == nil {
		t.Error("bad prefix accepted")
	}
	got, err := ParseTrustedProxies([]string{"::ffff:10.0.0.1", "172.16.5.0/12"})
	if err != nil {
		t.Fatalf("ParseTrustedProxies: %v", err)
	}
	if got[0].String() != "10.0.0.1/32" || got[1].String() != "172.16.0.0/12" {
		t.Errorf("prefixes = %v", got)
	}
}

func TestRateLimiterSpoofedForwardedFor(t *testing.T) {
	rl, _ := newTestLimiter(t, 1, time.Minute)
	handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	// A direct client rotating X-Forwarded-For still counts as one address.
	for i, xff := range []string{"1.1.1.1", "2.2.2.2"} {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = "198.51.100.7:5000"
		req.Header.Set("X-Forwarded-For", xff)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if i == 1 && rr.Code != http.StatusTooManyRequests {
			t.Errorf("rotated header bypassed the limit: status %d", rr.Code)
		}
	}
}
