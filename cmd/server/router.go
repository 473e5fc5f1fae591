package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	dochandler "talaty/internal/documents/handler"
	formhandler "talaty/internal/forms/handler"
	jwttoken "talaty/internal/jwt_token"
	"talaty/internal/platform/config"
	"talaty/internal/platform/metrics"
	scorehandler "talaty/internal/scoring/handler"
	userhandler "talaty/internal/users/handler"
	"talaty/pkg/platform/httputil"
	"talaty/pkg/platform/middleware/auth"
	"talaty/pkg/platform/middleware/metadata"
	"talaty/pkg/platform/middleware/request"
	"talaty/pkg/platform/middleware/requesttime"
	"talaty/pkg/requestcontext"
)

func newRouter(a *app, cfg config.Config, log *slog.Logger) http.Handler {
	httpMetrics := metrics.New()
	validator := jwttoken.NewValidator(jwttoken.NewJWTService(cfg.Server.JWTSigningKey, cfg.Server.JWTIssuer))

	documents := dochandler.New(a.documents, log)
	forms := formhandler.New(a.forms, log)
	scores := scorehandler.New(a.scoring, log)
	users := userhandler.New(a.users, log)

	r := chi.NewRouter()
	r.Use(request.Recovery(log))
	r.Use(request.RequestID)
	r.Use(request.Logger(log))
	r.Use(metadata.ClientMetadata)
	r.Use(requesttime.New(time.Now))
	r.Use(httpMetrics.Middleware)

	r.Get("/health", healthHandler(a))
	r.Handle("/metrics", metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(validator, log))
		documents.Register(r)
		forms.Register(r)
		scores.Register(r)
		users.Register(r)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(log, requestcontext.RoleReviewer, requestcontext.RoleAdmin))
			documents.RegisterReview(r)
			users.RegisterReview(r)
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(log, requestcontext.RoleAdmin))
			scores.RegisterAdmin(r)
			users.RegisterAdmin(r)
		})
	})
	return r
}

// healthHandler reports degraded when a configured backend stops answering.
func healthHandler(a *app) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		checks := map[string]string{"storage": a.storage}
		healthy := true
		if a.db != nil {
			checks["postgres"] = "ok"
			if err := a.db.PingContext(ctx); err != nil {
				checks["postgres"] = err.Error()
				healthy = false
			}
		}
		if a.redis != nil {
			checks["redis"] = "ok"
			if err := a.redis.Health(ctx); err != nil {
				checks["redis"] = err.Error()
				healthy = false
			}
		}

		status := http.StatusOK
		checks["status"] = "ok"
		if !healthy {
			status = http.StatusServiceUnavailable
			checks["status"] = "degraded"
		}
		httputil.WriteJSON(w, status, checks)
	}
}
