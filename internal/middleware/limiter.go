package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"marketplace-be/internal/auth"
	"marketplace-be/internal/utils"

	"golang.org/x/time/rate"
)

// Rate Limit Tiers
const (
	// Login / register / refresh (Strict)
	limitStrict = rate.Limit(2)
	burstStrict = 5

	// General (Default)
	limitGeneral = rate.Limit(10)
	burstGeneral = 20

	// Frontend-heavy apps
	limitFrontend = rate.Limit(20)
	burstFrontend = 40

	// Internal / trusted services
	limitInternal = rate.Limit(100)
	burstInternal = 200

	visitorTTL      = 3 * time.Minute
	cleanupInterval = time.Minute
)

var strictPaths = map[string]bool{
	"/auth/login":    true,
	"/auth/register": true,
	"/auth/refresh":  true,
}

// visitor holds the rate limiter and the last time it was seen.
type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per identity and tier.
type RateLimiter struct {
	internalSecret string
	tokens         *auth.TokenManager

	mu       sync.Mutex
	visitors map[string]*visitor
}

// NewRateLimiter starts a cleanup loop that exits when ctx is done.
// The limiter runs ahead of authentication, so it reads the access token
// itself through tokens to key requests by user. A nil tokens falls back
// to device and IP keys.
func NewRateLimiter(ctx context.Context, internalSecret string, tokens *auth.TokenManager) *RateLimiter {
	rl := &RateLimiter{
		internalSecret: internalSecret,
		tokens:         tokens,
		visitors:       make(map[string]*visitor),
	}
	go rl.cleanupLoop(ctx)
	return rl
}

func (rl *RateLimiter) getVisitor(key string, r rate.Limit, b int) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, exists := rl.visitors[key]
	if !exists {
		limiter := rate.NewLimiter(r, b)
		rl.visitors[key] = &visitor{limiter, time.Now()}
		return limiter
	}

	v.lastSeen = time.Now()
	return v.limiter
}

func (rl *RateLimiter) cleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.evict(time.Now().Add(-visitorTTL))
		}
	}
}

// evict drops visitors not seen since cutoff.
func (rl *RateLimiter) evict(cutoff time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, v := range rl.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(rl.visitors, key)
		}
	}
}

func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limit, burst, tier := rl.resolveRateTier(r)

		// e.g. "user:1:strict", so one identity has separate quotas per tier
		key := fmt.Sprintf("%s:%s", rl.identity(r), tier)

		if !rl.getVisitor(key, limit, burst).Allow() {
			utils.WriteJSONError(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) identity(r *http.Request) string {
	if userID, ok := utils.GetUserIDFromContext(r.Context()); ok {
		return fmt.Sprintf("user:%d", userID)
	}
	if rl.tokens != nil {
		if tok := auth.ExtractAccessToken(r); tok != "" {
			// an invalid token is keyed like an anonymous caller
			if claims, err := rl.tokens.Parse(tok, auth.TokenAccess); err == nil {
				return fmt.Sprintf("user:%d", claims.UserID)
			}
		}
	}
	if deviceID := r.Header.Get("X-Device-ID"); deviceID != "" {
		return "device:" + deviceID
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}
	return "ip:" + ip
}

func (rl *RateLimiter) resolveRateTier(r *http.Request) (rate.Limit, int, string) {
	if rl.internalSecret != "" && r.Header.Get("X-Service-Auth") == rl.internalSecret {
		return limitInternal, burstInternal, "internal"
	}
	if strictPaths[r.URL.Path] {
		return limitStrict, burstStrict, "strict"
	}
	if r.Header.Get("X-Client-Type") == "frontend-heavy" {
		return limitFrontend, burstFrontend, "frontend"
	}
	return limitGeneral, burstGeneral, "general"
}
