// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"fmt"
	"math"
	"net"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"sync"
	"time"
)

// window holds the request times of one client inside the current window.
type window struct {
	mu   sync.Mutex
	hits []time.Time
}

// prune drops hits older than cutoff.
func (w *window) prune(cutoff time.Time) {
	keep := w.hits[:0]
	for _, ts := range w.hits {
		if ts.After(cutoff) {
			keep = append(keep, ts)
		}
	}
	w.hits = keep
}

// RateLimiter limits requests per client IP with a sliding window. The
// server runs one for the public submission endpoints and another for the
// login form, so enquiry traffic cannot use up the login budget.
type RateLimiter struct {
	mu      sync.RWMutex
	clients map[string]*window
	limit   int
	period  time.Duration
	trusted []netip.Prefix
	now     func() time.Time
	stopCh  chan struct{}
}

// NewRateLimiter allows limit requests per period for each client and starts
// a janitor goroutine that forgets idle clients. Call Stop on shutdown.
func NewRateLimiter(limit int, period time.Duration) *RateLimiter {
	rl := &RateLimiter{
		clients: make(map[string]*window),
		limit:   limit,
		period:  period,
		now:     time.Now,
		stopCh:  make(chan struct{}),
	}

	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				rl.sweep()
			case <-rl.stopCh:
				return
			}
		}
	}()

	return rl
}

// TrustProxies makes the limiter read the client address from forwarding
// headers, but only on requests whose peer is inside one of the prefixes.
func (rl *RateLimiter) TrustProxies(prefixes []netip.Prefix) *RateLimiter {
	rl.trusted = prefixes
	return rl
}

// Stop terminates the janitor goroutine.
func (rl *RateLimiter) Stop() {
	close(rl.stopCh)
}

func (rl *RateLimiter) entry(key string) *window {
	rl.mu.RLock()
	w, ok := rl.clients[key]
	rl.mu.RUnlock()
	if ok {
		return w
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if w, ok = rl.clients[key]; !ok {
		w = &window{}
		rl.clients[key] = w
	}
	return w
}

// allow records a hit for key and reports whether it fits in the window.
// When it does not, retryAfter is the time until the oldest hit expires.
func (rl *RateLimiter) allow(key string) (ok bool, retryAfter time.Duration) {
	w := rl.entry(key)
	now := rl.now()

	w.mu.Lock()
	defer w.mu.Unlock()

	w.prune(now.Add(-rl.period))
	if len(w.hits) >= rl.limit {
		return false, w.hits[0].Add(rl.period).Sub(now)
	}
	w.hits = append(w.hits, now)
	return true, 0
}

// sweep removes clients with no hits in the current window.
func (rl *RateLimiter) sweep() {
	cutoff := rl.now().Add(-rl.period)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, w := range rl.clients {
		w.mu.Lock()
		w.prune(cutoff)
		idle := len(w.hits) == 0
		w.mu.Unlock()
		if idle {
			delete(rl.clients, key)
		}
	}
}

// Middleware rejects over-limit clients with 429, a Retry-After header and
// a JSON error body.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ok, retry := rl.allow(clientIP(r, rl.trusted))
		if !ok {
			secs := int(math.Ceil(retry.Seconds()))
			if secs < 1 {
				secs = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(secs))
			writeJSONError(w, http.StatusTooManyRequests, "Too many requests, please try again later")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ParseTrustedProxies turns CIDR blocks or bare addresses into prefixes.
func ParseTrustedProxies(entries []string) ([]netip.Prefix, error) {
	prefixes := make([]netip.Prefix, 0, len(entries))
	for _, e := range entries {
		if !strings.Contains(e, "/") {
			addr, err := netip.ParseAddr(e)
			if err != nil {
				return nil, fmt.Errorf("trusted proxy %q: %w", e, err)
			}
			addr = addr.Unmap()
			prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
			continue
		}
		p, err := netip.ParsePrefix(e)
		if err != nil {
			return nil, fmt.Errorf("trusted proxy %q: %w", e, err)
		}
		prefixes = append(prefixes, p.Masked())
	}
	return prefixes, nil
}

// clientIP returns the peer address of r. Forwarding headers count only
// when the peer is a trusted proxy; then the rightmost X-Forwarded-For hop
// that is not itself trusted wins, falling back to X-Real-IP.
func clientIP(r *http.Request, trusted []netip.Prefix) string {
	peer := peerIP(r)
	if !isTrusted(peer, trusted) {
		return peer
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		for i := len(hops) - 1; i >= 0; i-- {
			hop := strings.TrimSpace(hops[i])
			if hop == "" {
				continue
			}
			if i == 0 || !isTrusted(hop, trusted) {
				return hop
			}
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	return peer
}

// peerIP is RemoteAddr without its port.
func peerIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func isTrusted(ip string, trusted []netip.Prefix) bool {
	if len(trusted) == 0 {
		return false
	}
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range trusted {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}
