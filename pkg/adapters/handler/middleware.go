package handler

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/waritk/go-hero-catalog/pkg/config"
	"github.com/waritk/go-hero-catalog/pkg/core/domain"
	"github.com/waritk/go-hero-catalog/pkg/core/services"
	"golang.org/x/time/rate"
)

type contextKey string

const (
	callerKey        contextKey = "caller"
	correlationIDKey contextKey = "correlation_id"
)

type Middleware struct {
	jwtSecret []byte
}

func NewMiddleware(cfg *config.Config) *Middleware {
	return &Middleware{
		jwtSecret: []byte(cfg.JWTSecret),
	}
}

// CorrelationID tags every request with an id, taken from the
// X-Correlation-ID header or generated, and echoes it on the response.
func CorrelationID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Correlation-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Correlation-ID", id)
		ctx := context.WithValue(r.Context(), correlationIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAuth verifies the JWT from the Authorization header or the
// auth_token cookie and puts the claims on the request context.
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := bearerToken(r)
		if tokenString == "" {
			if cookie, err := r.Cookie("auth_token"); err == nil {
				tokenString = cookie.Value
			}
		}
		if tokenString == "" {
			writeMsg(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		claims := &services.Claims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			return m.jwtSecret, nil
		})
		if err != nil || !token.Valid {
			writeMsg(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		ctx := context.WithValue(r.Context(), callerKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin wraps RequireAuth and additionally checks the role claim.
func (m *Middleware) RequireAdmin(next http.Handler) http.Handler {
	return m.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller, ok := CallerFromContext(r.Context())
		if !ok || caller.Role != domain.RoleAdmin {
			writeMsg(w, http.StatusForbidden, "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	}))
}

func CallerFromContext(ctx context.Context) (*services.Claims, bool) {
	caller, ok := ctx.Value(callerKey).(*services.Claims)
	return caller, ok
}

func correlationIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(correlationIDKey).(string)
	return id
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

// IPLimiter applies a token-bucket rate limit per client IP.
type IPLimiter struct {
	mu       sync.Mutex
	visitors map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

func NewIPLimiter(limit rate.Limit, burst int) *IPLimiter {
	return &IPLimiter{
		visitors: make(map[string]*rate.Limiter),
		limit:    limit,
		burst:    burst,
	}
}

func (l *IPLimiter) limiterFor(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	lim, ok := l.visitors[ip]
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.visitors[ip] = lim
	}
	return lim
}

func (l *IPLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}
		if !l.limiterFor(ip).Allow() {
			writeMsg(w, http.StatusTooManyRequests, "Too many requests from this IP, please try again later")
			return
		}
		next.ServeHTTP(w, r)
	})
}
