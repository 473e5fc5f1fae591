package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"talaty/internal/documents/models"
	id "talaty/pkg/domain"
	dErrors "talaty/pkg/domain-errors"
	"talaty/pkg/platform/httputil"
	"talaty/pkg/requestcontext"
)

// Service defines the document operations the handler needs.
type Service interface {
	Upload(ctx context.Context, owner id.UserID, up models.Upload) (*models.Document, error)
	Get(ctx context.Context, docID id.DocumentID) (*models.Document, error)
	ListByUser(ctx context.Context, userID id.UserID) ([]*models.Document, error)
	ListByStatus(ctx context.Context, statuses []models.Status) ([]*models.Document, error)
	Verify(ctx context.Context, docID id.DocumentID, target models.Status, reviewerID id.UserID, notes string) (*models.Document, error)
	Delete(ctx context.Context, docID id.DocumentID, ownerID id.UserID) error
}

// Handler serves the owner and reviewer document endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the owner endpoints. Expects an authenticated router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/documents", h.HandleList)
	r.Post("/documents", h.HandleUpload)
	r.Get("/documents/{id}", h.HandleGet)
	r.Delete("/documents/{id}", h.HandleDelete)
}

// RegisterReview mounts the review queue. Expects a reviewer-gated router.
func (h *Handler) RegisterReview(r chi.Router) {
	r.Get("/admin/documents", h.HandleListForReview)
	r.Put("/admin/documents/{id}/verify", h.HandleVerify)
}

// HandleUpload handles POST /documents.
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	userID, ok := h.requireUser(w, ctx)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[UploadRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	doc, err := h.service.Upload(ctx, userID, req.Upload())
	if err != nil {
		httputil.LogFailure(ctx, h.logger, "document upload failed", err, "user_id", userID.String())
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "document uploaded",
		"request_id", requestID,
		"user_id", userID.String(),
		"document_id", doc.ID.String(),
		"document_type", string(doc.Type),
	)
	httputil.WriteJSON(w, http.StatusCreated, FromDocument(doc, requestcontext.Now(ctx)))
}

// HandleList handles GET /documents.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := h.requireUser(w, ctx)
	if !ok {
		return
	}
	docs, err := h.service.ListByUser(ctx, userID)
	if err != nil {
		httputil.LogFailure(ctx, h.logger, "list documents failed", err, "user_id", userID.String())
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromDocuments(docs, requestcontext.Now(ctx)))
}

// HandleGet handles GET /documents/{id}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := h.requireUser(w, ctx)
	if !ok {
		return
	}
	docID, ok := parseDocumentID(w, r)
	if !ok {
		return
	}
	doc, err := h.service.Get(ctx, docID)
	if err != nil {
		httputil.LogFailure(ctx, h.logger, "get document failed", err, "document_id", docID.String())
		httputil.WriteError(w, err)
		return
	}
	// other users' documents are reported as missing; reviewers see all
	if !doc.IsOwnedBy(userID) && !requestcontext.ActorRole(ctx).CanReview() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "document not found"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromDocument(doc, requestcontext.Now(ctx)))
}

// HandleDelete handles DELETE /documents/{id}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := h.requireUser(w, ctx)
	if !ok {
		return
	}
	docID, ok := parseDocumentID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(ctx, docID, userID); err != nil {
		httputil.LogFailure(ctx, h.logger, "delete document failed", err,
			"user_id", userID.String(),
			"document_id", docID.String(),
		)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleListForReview handles GET /admin/documents?status=pending,approved.
func (h *Handler) HandleListForReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	statuses, err := parseStatusFilter(r.URL.Query().Get("status"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	docs, err := h.service.ListByStatus(ctx, statuses)
	if err != nil {
		httputil.LogFailure(ctx, h.logger, "list review queue failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromDocuments(docs, requestcontext.Now(ctx)))
}

// HandleVerify handles PUT /admin/documents/{id}/verify.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	reviewerID, ok := h.requireUser(w, ctx)
	if !ok {
		return
	}
	docID, ok := parseDocumentID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[VerifyRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	doc, err := h.service.Verify(ctx, docID, req.Target(), reviewerID, req.Notes)
	if err != nil {
		httputil.LogFailure(ctx, h.logger, "document verification failed", err,
			"reviewer_id", reviewerID.String(),
			"document_id", docID.String(),
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "document verified",
		"request_id", requestID,
		"reviewer_id", reviewerID.String(),
		"document_id", doc.ID.String(),
		"status", string(doc.Status),
	)
	httputil.WriteJSON(w, http.StatusOK, FromDocument(doc, requestcontext.Now(ctx)))
}

func (h *Handler) requireUser(w http.ResponseWriter, ctx context.Context) (id.UserID, bool) {
	userID := requestcontext.UserID(ctx)
	if userID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return id.UserID{}, false
	}
	return userID, true
}

func parseDocumentID(w http.ResponseWriter, r *http.Request) (id.DocumentID, bool) {
	docID, err := id.ParseDocumentID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid document id"))
		return id.DocumentID{}, false
	}
	return docID, true
}
