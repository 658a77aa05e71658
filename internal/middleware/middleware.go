package middleware

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/dkravets/photoshare-service/internal/apperrors"
	"github.com/dkravets/photoshare-service/internal/auth"
	"github.com/dkravets/photoshare-service/internal/models"
	"github.com/dkravets/photoshare-service/internal/repository"
)

type contextKey int

const (
	actorKey contextKey = iota
	claimsKey
)

// ActorFrom returns the authenticated user stored by AuthMiddleware.
func ActorFrom(ctx context.Context) *models.User {
	actor, _ := ctx.Value(actorKey).(*models.User)
	return actor
}

// ClaimsFrom returns the validated token claims stored by AuthMiddleware.
func ClaimsFrom(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(claimsKey).(*auth.Claims)
	return claims
}

// AuthMiddleware validates the bearer token on every protected request:
// signature, expiry, blacklist membership, then the user's existence and
// ban flag, failing fast on the first violated check.
func AuthMiddleware(tokens *auth.TokenManager, blacklist auth.Blacklist, repo *repository.Repository, log *logrus.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				writeError(w, apperrors.CodeAuth, "missing authorization", http.StatusUnauthorized)
				return
			}

			claims, err := tokens.Parse(strings.TrimPrefix(header, "Bearer "), auth.TokenTypeAccess)
			if err != nil {
				writeError(w, apperrors.CodeAuth, err.Error(), http.StatusUnauthorized)
				return
			}

			revoked, err := blacklist.Contains(r.Context(), claims.ID)
			if err != nil {
				log.Errorf("Blacklist check failed: %v", err)
				writeError(w, apperrors.CodeInternal, "blacklist unavailable", http.StatusInternalServerError)
				return
			}
			if revoked {
				writeError(w, apperrors.CodeAuth, "token revoked", http.StatusUnauthorized)
				return
			}

			user, err := repo.FindUserByID(r.Context(), claims.UserID)
			if err != nil {
				writeError(w, apperrors.CodeAuth, "unknown user", http.StatusUnauthorized)
				return
			}
			if user.Banned {
				writeError(w, apperrors.CodeForbidden, "account is banned", http.StatusForbidden)
				return
			}

			ctx := context.WithValue(r.Context(), actorKey, user)
			ctx = context.WithValue(ctx, claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole gates a subrouter to the listed roles. Runs after
// AuthMiddleware.
func RequireRole(roles ...models.Role) mux.MiddlewareFunc {
	allowed := make(map[models.Role]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := ActorFrom(r.Context())
			if actor == nil || !allowed[actor.Role] {
				writeError(w, apperrors.CodeForbidden, "insufficient role", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// LoggingMiddleware logs method, path, status and duration per request.
func LoggingMiddleware(log *logrus.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			log.WithFields(logrus.Fields{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   rec.status,
				"duration": time.Since(start).String(),
			}).Info("request handled")
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// RateLimitMiddleware applies a per-client token bucket keyed by remote IP.
func RateLimitMiddleware(rps float64, burst int) mux.MiddlewareFunc {
	var (
		mu       sync.Mutex
		limiters = make(map[string]*rate.Limiter)
	)
	limiterFor := func(ip string) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()
		l, ok := limiters[ip]
		if !ok {
			l = rate.NewLimiter(rate.Limit(rps), burst)
			limiters[ip] = l
		}
		return l
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				ip = r.RemoteAddr
			}
			if !limiterFor(ip).Allow() {
				writeError(w, apperrors.Code("rate_limited"), "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeError(w http.ResponseWriter, code apperrors.Code, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"code": string(code), "message": message})
}
