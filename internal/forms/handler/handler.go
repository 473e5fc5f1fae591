package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"talaty/internal/forms/models"
	id "talaty/pkg/domain"
	dErrors "talaty/pkg/domain-errors"
	"talaty/pkg/platform/httputil"
	"talaty/pkg/requestcontext"
)

// Service defines the form operations the handler needs.
type Service interface {
	Submit(ctx context.Context, userID id.UserID, formType models.FormType, data models.Data) (*models.Form, error)
	List(ctx context.Context, userID id.UserID) ([]*models.Form, error)
	GetByType(ctx context.Context, userID id.UserID, formType models.FormType) (*models.Form, error)
	Delete(ctx context.Context, formID id.FormID, ownerID id.UserID) error
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the form endpoints. Expects an authenticated router.
// The {form} slot is a form type for GET and a form id for DELETE.
func (h *Handler) Register(r chi.Router) {
	r.Get("/forms", h.HandleList)
	r.Post("/forms", h.HandleSubmit)
	r.Get("/forms/{form}", h.HandleGet)
	r.Delete("/forms/{form}", h.HandleDelete)
}

// HandleSubmit handles POST /forms. Submitting an existing type updates it.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	userID := requestcontext.UserID(ctx)
	if userID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[SubmitRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	form, err := h.service.Submit(ctx, userID, req.ParsedType(), req.FormData)
	if err != nil {
		httputil.LogFailure(ctx, h.logger, "form submission failed", err,
			"user_id", userID.String(),
			"form_type", req.FormType,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "form saved",
		"request_id", requestID,
		"user_id", userID.String(),
		"form_type", string(form.Type),
		"status", string(form.Status),
		"completion", form.CompletionPercentage,
		"version", form.Version,
	)
	status := http.StatusOK
	if form.Version == 1 {
		status = http.StatusCreated
	}
	httputil.WriteJSON(w, status, FromForm(form))
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := requestcontext.UserID(ctx)
	if userID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	forms, err := h.service.List(ctx, userID)
	if err != nil {
		httputil.LogFailure(ctx, h.logger, "list forms failed", err, "user_id", userID.String())
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromForms(forms))
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := requestcontext.UserID(ctx)
	if userID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	formType, err := models.ParseFormType(chi.URLParam(r, "form"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	form, err := h.service.GetByType(ctx, userID, formType)
	if err != nil {
		httputil.LogFailure(ctx, h.logger, "get form failed", err, "user_id", userID.String())
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromForm(form))
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := requestcontext.UserID(ctx)
	if userID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	formID, err := id.ParseFormID(chi.URLParam(r, "form"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid form id"))
		return
	}
	if err := h.service.Delete(ctx, formID, userID); err != nil {
		httputil.LogFailure(ctx, h.logger, "delete form failed", err,
			"user_id", userID.String(),
			"form_id", formID.String(),
		)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
