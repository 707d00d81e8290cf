package handler

import (
	"net/http"
	"time"

	"github.com/waritk/go-hero-catalog/pkg/config"
	"github.com/waritk/go-hero-catalog/pkg/ports"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// NewRouter creates and configures the main application router.
func NewRouter(
	cfg *config.Config,
	log *zap.Logger,
	heroService ports.HeroService,
	buildService ports.BuildService,
	authService ports.AuthService,
	seeder ports.SeederService,
	images ports.ImageStore,
) http.Handler {
	hh := NewHeroHandler(heroService, seeder, images, log)
	bh := NewBuildHandler(buildService, log)
	ah := NewAuthHandler(cfg, authService, log)
	mw := NewMiddleware(cfg)

	// 20 requests per 15 minutes for auth, 20 per hour for uploads.
	authLimiter := NewIPLimiter(rate.Every(15*time.Minute/20), 20)
	uploadLimiter := NewIPLimiter(rate.Every(time.Hour/20), 20)

	mux := http.NewServeMux()

	// Public routes
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.Handle("GET /uploads/", http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.UploadsDir))))

	mux.HandleFunc("GET /api/v1/heroes", hh.List)
	mux.HandleFunc("GET /api/v1/heroes/{heroId}/builds", bh.List)

	mux.Handle("POST /api/v1/auth/register", authLimiter.Middleware(http.HandlerFunc(ah.Register)))
	mux.Handle("POST /api/v1/auth/login", authLimiter.Middleware(http.HandlerFunc(ah.Login)))
	mux.HandleFunc("GET /auth/google/login", ah.GoogleLogin)
	mux.HandleFunc("GET /auth/google/callback", ah.GoogleCallback)
	mux.HandleFunc("GET /auth/logout", ah.Logout)

	// Authenticated routes
	mux.Handle("GET /api/v1/auth/me", mw.RequireAuth(http.HandlerFunc(ah.Me)))
	mux.Handle("POST /api/v1/heroes/{heroId}/builds",
		uploadLimiter.Middleware(mw.RequireAuth(http.HandlerFunc(bh.Create))))
	mux.Handle("DELETE /api/v1/builds/{id}", mw.RequireAuth(http.HandlerFunc(bh.Delete)))
	mux.Handle("PUT /api/v1/heroes/{heroId}/builds/reorder", mw.RequireAuth(http.HandlerFunc(bh.Reorder)))

	// Admin routes
	mux.Handle("POST /api/v1/heroes", mw.RequireAdmin(http.HandlerFunc(hh.Create)))
	mux.Handle("PUT /api/v1/heroes/{id}", mw.RequireAdmin(http.HandlerFunc(hh.Update)))
	mux.Handle("DELETE /api/v1/heroes/{id}", mw.RequireAdmin(http.HandlerFunc(hh.Delete)))
	mux.Handle("POST /api/v1/heroes/seed", mw.RequireAdmin(http.HandlerFunc(hh.Seed)))
	mux.Handle("GET /api/v1/heroes/seed/status", mw.RequireAdmin(http.HandlerFunc(hh.SeedStatus)))

	return CorrelationID(cors(cfg.CORSOrigin, mux))
}

func cors(origin string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Correlation-ID")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
