package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"talaty/internal/users/models"
	"talaty/internal/users/service"
	id "talaty/pkg/domain"
	dErrors "talaty/pkg/domain-errors"
	"talaty/pkg/platform/audit"
	"talaty/pkg/platform/httputil"
	"talaty/pkg/requestcontext"
)

type Service interface {
	Register(ctx context.Context, reg service.Registration) (*models.User, error)
	Get(ctx context.Context, userID id.UserID) (*models.User, error)
	UpdateVerification(ctx context.Context, userID id.UserID, update models.VerificationUpdate) (*models.User, error)
	AuditTrail(ctx context.Context, userID id.UserID) ([]audit.Event, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the profile endpoint. Expects an authenticated router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/users/me", h.HandleMe)
}

// RegisterReview mounts verification and the audit trail. Expects a
// reviewer-gated router.
func (h *Handler) RegisterReview(r chi.Router) {
	r.Put("/admin/users/{id}/verification", h.HandleUpdateVerification)
	r.Get("/admin/users/{id}/audit", h.HandleAuditTrail)
}

// RegisterAdmin mounts account creation. Expects an admin-gated router.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/admin/users", h.HandleRegister)
}

func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := requestcontext.UserID(ctx)
	if userID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	user, err := h.service.Get(ctx, userID)
	if err != nil {
		httputil.LogFailure(ctx, h.logger, "get profile failed", err, "user_id", userID.String())
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, user)
}

// HandleRegister handles POST /admin/users. Credentials are owned by the
// identity provider; this records the account the scoring core reads.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	req, ok := httputil.DecodeAndPrepare[RegisterRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	user, err := h.service.Register(ctx, service.Registration{
		Email:        req.Email,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Phone:        req.Phone,
		BusinessName: req.BusinessName,
		Role:         models.Role(req.Role),
	})
	if err != nil {
		httputil.LogFailure(ctx, h.logger, "user registration failed", err)
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(ctx, "user registered",
		"request_id", requestID,
		"user_id", user.ID.String(),
	)
	httputil.WriteJSON(w, http.StatusCreated, user)
}

// HandleUpdateVerification handles PUT /admin/users/{id}/verification.
func (h *Handler) HandleUpdateVerification(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	userID, ok := parseUserID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[VerificationRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	user, err := h.service.UpdateVerification(ctx, userID, req.Update())
	if err != nil {
		httputil.LogFailure(ctx, h.logger, "verification update failed", err, "user_id", userID.String())
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(ctx, "verification updated",
		"request_id", requestID,
		"user_id", userID.String(),
		"actor_id", requestcontext.UserID(ctx).String(),
	)
	httputil.WriteJSON(w, http.StatusOK, user)
}

// HandleAuditTrail handles GET /admin/users/{id}/audit.
func (h *Handler) HandleAuditTrail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := parseUserID(w, r)
	if !ok {
		return
	}
	events, err := h.service.AuditTrail(ctx, userID)
	if err != nil {
		httputil.LogFailure(ctx, h.logger, "audit trail failed", err, "user_id", userID.String())
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromEvents(events))
}

func parseUserID(w http.ResponseWriter, r *http.Request) (id.UserID, bool) {
	userID, err := id.ParseUserID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid user id"))
		return id.UserID{}, false
	}
	return userID, true
}
