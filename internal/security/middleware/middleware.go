package middleware

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"net/http"
	"time"

	"github.com/yourorg/taskboard/internal/domain"
	"github.com/yourorg/taskboard/internal/security/audit"
	"github.com/yourorg/taskboard/internal/security/auth"
	"github.com/yourorg/taskboard/internal/security/ratelimit"
	"github.com/yourorg/taskboard/internal/service"
	"github.com/yourorg/taskboard/pkg/cache"
)

// UserContextKey carries the resolved caller identity through context.
type UserContextKey struct{}

// CurrentUser returns the authenticated caller, or nil for anonymous
// requests.
func CurrentUser(ctx context.Context) *domain.PublicUser {
	if u := ctx.Value(UserContextKey{}); u != nil {
		return u.(*domain.PublicUser)
	}
	return nil
}

// RequestIDMiddleware tags every request with a random id for log and audit
// correlation.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, 8)
		if _, err := rand.Read(buf); err == nil {
			requestID := hex.EncodeToString(buf)
			w.Header().Set("X-Request-ID", requestID)
			r = r.WithContext(context.WithValue(r.Context(), audit.RequestIDKey, requestID))
		}
		next.ServeHTTP(w, r)
	})
}

// IdentityMiddleware resolves a bearer token into a public user attached to
// the request context. It never rejects: an absent or invalid token simply
// yields an unauthenticated context, and only guarded operations will fail
// later. Resolved identities are cached briefly to spare the user directory.
func IdentityMiddleware(tokens *auth.TokenManager, users *service.UserService, identities *cache.Cache, ttl time.Duration, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				next.ServeHTTP(w, r)
				return
			}

			tokenString, err := auth.ExtractToken(authHeader)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			userID, err := tokens.Verify(tokenString)
			if err != nil {
				log.Warn("invalid token provided")
				next.ServeHTTP(w, r)
				return
			}

			user := lookupIdentity(users, identities, ttl, userID, log)
			if user == nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), UserContextKey{}, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func lookupIdentity(users *service.UserService, identities *cache.Cache, ttl time.Duration, userID string, log *slog.Logger) *domain.PublicUser {
	if identities != nil {
		if cached, ok := identities.Get("identity:" + userID); ok {
			return cached.(*domain.PublicUser)
		}
	}

	user, err := users.GetByID(userID)
	if err != nil {
		log.Error("identity lookup failed",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		return nil
	}
	if user == nil {
		return nil
	}

	if identities != nil {
		identities.Set("identity:"+userID, user, ttl)
	}
	return user
}

// RateLimitMiddleware limits requests per caller: authenticated callers are
// keyed by user id, anonymous ones by remote address. Operational endpoints
// are exempt.
func RateLimitMiddleware(limiter *ratelimit.Limiter, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/health", "/ready", "/metrics":
				next.ServeHTTP(w, r)
				return
			}

			key := r.RemoteAddr
			if user := CurrentUser(r.Context()); user != nil {
				key = user.ID
			}

			if !limiter.Allow(key) {
				log.Warn("rate limit exceeded", slog.String("key", key))
				http.Error(w, `{"error":"rate limit exceeded"}`, http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
