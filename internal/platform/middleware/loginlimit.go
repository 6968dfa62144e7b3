// Copyright (c) 2026 Learnio. All rights reserved.
// Author: quang.dang.dev@gmail.com

package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/quangdang46/learnio/internal/platform/constants"
)

// # Login Rate Limiting

// loginWindow tracks attempts for one client address inside the current
// fixed window.
type loginWindow struct {
	count       int
	windowStart time.Time
}

// LoginRateLimiter is a fixed-window request counter keyed by client address.
//
// It guards the login entry point only: 15 attempts per 15-minute window.
// The counter resets when a window elapses — it does not slide. This is a
// coarse denial-of-service guard, not a security primitive; it is IP-keyed
// and therefore bypassable by address rotation, which is accepted in scope.
type LoginRateLimiter struct {
	mu      sync.Mutex
	windows map[string]*loginWindow
	window  time.Duration
	ceiling int
	now     func() time.Time
}

// NewLoginRateLimiter creates a limiter with the platform's login policy.
func NewLoginRateLimiter() *LoginRateLimiter {
	return NewLoginRateLimiterWithClock(
		constants.LoginRateLimitWindow,
		constants.LoginRateLimitCeiling,
		time.Now,
	)
}

// NewLoginRateLimiterWithClock creates a limiter with an injected clock and
// policy. Used by tests to cross window boundaries deterministically.
func NewLoginRateLimiterWithClock(window time.Duration, ceiling int, now func() time.Time) *LoginRateLimiter {
	return &LoginRateLimiter{
		windows: make(map[string]*loginWindow),
		window:  window,
		ceiling: ceiling,
		now:     now,
	}
}

// Allow records an attempt for the client address and reports whether it is
// within the window ceiling.
func (limiter *LoginRateLimiter) Allow(clientIP string) bool {
	limiter.mu.Lock()
	defer limiter.mu.Unlock()

	currentTime := limiter.now()
	entry, found := limiter.windows[clientIP]

	// Fresh client or elapsed window: start counting from scratch
	if !found || currentTime.Sub(entry.windowStart) >= limiter.window {
		limiter.windows[clientIP] = &loginWindow{count: 1, windowStart: currentTime}
		return true
	}

	entry.count++
	return entry.count <= limiter.ceiling
}

// StartCleanup launches a background sweep of elapsed windows so that idle
// client addresses do not accumulate in memory.
func (limiter *LoginRateLimiter) StartCleanup(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(constants.RateLimitCleanupInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				limiter.mu.Lock()
				currentTime := limiter.now()
				for ip, entry := range limiter.windows {
					if currentTime.Sub(entry.windowStart) >= limiter.window {
						delete(limiter.windows, ip)
					}
				}
				limiter.mu.Unlock()
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Middleware wraps a handler with the fixed-window check.
//
// On exceeding the ceiling the request is rejected with 429 and never
// reaches the authentication service.
func (limiter *LoginRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		clientIP := RealIP(request)

		if !limiter.Allow(clientIP) {
			writeError(writer, http.StatusTooManyRequests, "RATE_LIMITED",
				"Too many requests, please try again later.")
			return
		}

		next.ServeHTTP(writer, request)
	})
}
