package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/good-deeds/board/internal/auth"
	"github.com/good-deeds/board/internal/config"
	"github.com/good-deeds/board/internal/handlers"
	"github.com/good-deeds/board/internal/middleware"
	"github.com/good-deeds/board/internal/service"
	"github.com/good-deeds/board/internal/web"
)

// newRouter wires every page, JSON route and probe onto one chi router.
func newRouter(svc *service.Service, gateway *auth.Gateway, renderer *web.Renderer, cfg config.Config) http.Handler {
	authH := &handlers.AuthHandler{Service: svc, Gateway: gateway, Renderer: renderer}
	pageH := &handlers.PageHandler{Service: svc, Renderer: renderer}
	markerH := &handlers.MarkerHandler{Service: svc}
	commentH := &handlers.CommentHandler{Service: svc}
	boardH := &handlers.BoardHandler{Service: svc}
	auditH := &handlers.AuditHandler{Service: svc}
	healthH := &handlers.HealthHandler{Service: svc}

	requirePage := auth.RequireAuthenticated(http.HandlerFunc(handlers.PageUnauthorized))
	requireAPI := auth.RequireAuthenticated(http.HandlerFunc(handlers.APIUnauthorized))
	authLimiter := middleware.AuthRateLimiter()

	r := chi.NewRouter()
	if cfg.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(chimw.RequestID)
	r.Use(gateway.Identify)
	r.Use(middleware.RequestLog)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Prometheus)
	r.Use(middleware.SecurityHeaders(cfg.TLSEnabled()))
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))
	r.Use(middleware.MaxBytes(int64(cfg.MaxBodyBytes)))

	r.NotFound(pageH.NotFound)

	// Probes
	r.Get("/health", healthH.Health)
	r.Get("/ready", healthH.Ready)
	r.Handle("/metrics", promhttp.Handler())

	// Public pages
	r.Get("/", pageH.Root)
	r.Get("/about", pageH.About)
	r.Get("/login", authH.LoginPage)
	r.Get("/register", authH.RegisterPage)
	r.Get("/logout", authH.Logout)
	r.Post("/logout", authH.Logout)
	r.With(authLimiter.Middleware).Post("/login", authH.Login)
	r.With(authLimiter.Middleware).Post("/register", authH.Register)

	// Signed-in pages
	r.Group(func(r chi.Router) {
		r.Use(requirePage)
		r.Get("/map", pageH.Map)
		r.Get("/announcements", pageH.Announcements)
		r.Get("/announcement/{id}", pageH.Announcement)
		r.Get("/location", pageH.Location)
		r.Post("/location", pageH.SetLocation)
		r.Get("/rating", pageH.Rating)
		r.Get("/search", pageH.Search)
	})

	// JSON endpoints called by the map and announcement pages
	r.Group(func(r chi.Router) {
		r.Use(requireAPI)
		r.Post("/add_marker", markerH.AddMarker)
		r.Post("/edit_marker", markerH.EditMarker)
		r.Post("/delete_marker", markerH.DeleteMarker)
		r.Post("/add_comment", commentH.AddComment)
	})

	r.Route("/api", func(r chi.Router) {
		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			handlers.JSONError(w, "not found", http.StatusNotFound)
		})
		r.With(authLimiter.Middleware).Post("/login", authH.APILogin)
		r.With(authLimiter.Middleware).Post("/register", authH.APIRegister)

		r.Group(func(r chi.Router) {
			r.Use(requireAPI)
			r.Post("/logout", authH.APILogout)
			r.Get("/me", authH.Me)
			r.Post("/location", boardH.SetLocation)
			r.Get("/rating", boardH.Rating)
			r.Get("/search", boardH.Search)
			r.Get("/audit", auditH.ListAudit)

			r.Route("/markers", func(r chi.Router) {
				r.Get("/", markerH.ListMarkers)
				r.Post("/", markerH.CreateMarker)
				r.Get("/{id}", markerH.GetMarker)
				r.Patch("/{id}", markerH.UpdateMarker)
				r.Delete("/{id}", markerH.RemoveMarker)
				r.Post("/{id}/comments", commentH.CreateComment)
			})
		})
	})

	return r
}
