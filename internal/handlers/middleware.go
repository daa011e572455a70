package handlers

import (
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/recipebox/apiserver/internal/auth"
	"github.com/recipebox/apiserver/internal/ratelimit"
	"github.com/recipebox/apiserver/internal/services"
	"github.com/recipebox/apiserver/internal/store"
	"go.uber.org/zap"
)

const unauthorizedMessage = "authentication credentials were not provided or are invalid"

// RequireAuth resolves the bearer token to an active user and stores the
// user in the request context.
func RequireAuth(issuer auth.TokenIssuer, users *services.UserService, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := bearerToken(r)
			if err != nil {
				writeError(w, http.StatusUnauthorized, unauthorizedMessage)
				return
			}

			userID, err := issuer.Resolve(r.Context(), token)
			if err != nil {
				if !errors.Is(err, auth.ErrInvalidToken) {
					logger.Error("resolve token", zap.Error(err))
				}
				writeError(w, http.StatusUnauthorized, unauthorizedMessage)
				return
			}

			user, err := users.GetByID(r.Context(), userID)
			if err != nil {
				if !errors.Is(err, store.ErrNotFound) {
					logger.Error("load authenticated user", zap.Int("user_id", userID), zap.Error(err))
				}
				writeError(w, http.StatusUnauthorized, unauthorizedMessage)
				return
			}
			if !user.IsActive {
				writeError(w, http.StatusUnauthorized, unauthorizedMessage)
				return
			}

			next.ServeHTTP(w, r.WithContext(withUser(r.Context(), user)))
		})
	}
}

// bearerToken accepts both "Token <key>" and "Bearer <key>".
func bearerToken(r *http.Request) (string, error) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", errors.New("missing authorization")
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !(strings.EqualFold(scheme, "Bearer") || strings.EqualFold(scheme, "Token")) {
		return "", errors.New("invalid authorization")
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", errors.New("invalid authorization")
	}
	return token, nil
}

// RateLimit rejects clients that exceed the limiter with 429.
func RateLimit(limiter *ratelimit.KeyedRateLimiter, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientIP(r)
			if !limiter.Allow(key) {
				logger.Warn("rate limit exceeded", zap.String("ip", key), zap.String("path", r.URL.Path))
				writeError(w, http.StatusTooManyRequests, "too many requests, try again later")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP reads RemoteAddr, which middleware.RealIP rewrites only when
// proxy headers are trusted.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RequestLogger writes one access log line per request.
func RequestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			logger.Info("http request",
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("remote", r.RemoteAddr),
			)
		})
	}
}
