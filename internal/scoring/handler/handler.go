package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"talaty/internal/scoring/models"
	"talaty/internal/scoring/service"
	id "talaty/pkg/domain"
	dErrors "talaty/pkg/domain-errors"
	"talaty/pkg/platform/httputil"
	"talaty/pkg/requestcontext"
)

type Service interface {
	GetScore(ctx context.Context, userID id.UserID) (*models.Score, error)
	CalculateScore(ctx context.Context, userID id.UserID) (*models.Score, error)
	GetScoreBreakdown(ctx context.Context, userID id.UserID) (*models.ScoreBreakdown, error)
	RecalculateAll(ctx context.Context) ([]service.RecalculationResult, error)
	Analytics(ctx context.Context) (*models.Analytics, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the owner endpoints. Expects an authenticated router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/scores", h.HandleGetScore)
	r.Post("/scores/recalculate", h.HandleRecalculate)
	r.Get("/scores/breakdown", h.HandleBreakdown)
}

// RegisterAdmin mounts batch recalculation and analytics. Expects an
// admin-gated router.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/admin/scores/recalculate", h.HandleRecalculateAll)
	r.Get("/admin/analytics", h.HandleAnalytics)
}

func (h *Handler) HandleGetScore(w http.ResponseWriter, r *http.Request) {
	h.serveOwn(w, r, "get score failed", h.service.GetScore)
}

func (h *Handler) HandleRecalculate(w http.ResponseWriter, r *http.Request) {
	h.serveOwn(w, r, "score recalculation failed", h.service.CalculateScore)
}

func (h *Handler) serveOwn(w http.ResponseWriter, r *http.Request, failure string, fn func(context.Context, id.UserID) (*models.Score, error)) {
	ctx := r.Context()
	userID := requestcontext.UserID(ctx)
	if userID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	score, err := fn(ctx, userID)
	if err != nil {
		httputil.LogFailure(ctx, h.logger, failure, err, "user_id", userID.String())
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ScoreResponse{Score: score})
}

func (h *Handler) HandleBreakdown(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := requestcontext.UserID(ctx)
	if userID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	breakdown, err := h.service.GetScoreBreakdown(ctx, userID)
	if err != nil {
		httputil.LogFailure(ctx, h.logger, "score breakdown failed", err, "user_id", userID.String())
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, breakdown)
}

// HandleRecalculateAll handles POST /admin/scores/recalculate. With
// ?user_id= only that user is recalculated.
func (h *Handler) HandleRecalculateAll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	if raw := r.URL.Query().Get("user_id"); raw != "" {
		userID, err := id.ParseUserID(raw)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid user_id"))
			return
		}
		score, err := h.service.CalculateScore(ctx, userID)
		if err != nil {
			httputil.LogFailure(ctx, h.logger, "score recalculation failed", err, "user_id", raw)
			httputil.WriteError(w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, ScoreResponse{Score: score})
		return
	}

	start := time.Now()
	results, err := h.service.RecalculateAll(ctx)
	if err != nil {
		httputil.LogFailure(ctx, h.logger, "batch recalculation failed", err)
		httputil.WriteError(w, err)
		return
	}
	resp := FromResults(results)
	h.logger.InfoContext(ctx, "batch recalculation finished",
		"request_id", requestID,
		"total", resp.Total,
		"failed", resp.Failed,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) HandleAnalytics(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	analytics, err := h.service.Analytics(ctx)
	if err != nil {
		httputil.LogFailure(ctx, h.logger, "analytics failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, analytics)
}
