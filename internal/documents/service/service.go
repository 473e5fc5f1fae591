package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"talaty/internal/documents/models"
	"talaty/internal/notify"
	"talaty/internal/recompute"
	scoremodels "talaty/internal/scoring/models"
	usermodels "talaty/internal/users/models"
	"talaty/pkg/attrs"
	id "talaty/pkg/domain"
	dErrors "talaty/pkg/domain-errors"
	"talaty/pkg/platform/audit"
	"talaty/pkg/platform/sentinel"
	"talaty/pkg/requestcontext"
)

type Store interface {
	Create(ctx context.Context, doc *models.Document) error
	FindByID(ctx context.Context, docID id.DocumentID) (*models.Document, error)
	Transition(ctx context.Context, doc *models.Document, from models.Status) error
	Delete(ctx context.Context, docID id.DocumentID) error
	ListByUser(ctx context.Context, userID id.UserID) ([]*models.Document, error)
	ListByStatus(ctx context.Context, statuses []models.Status) ([]*models.Document, error)
	ListExpiryCandidates(ctx context.Context, now time.Time) ([]*models.Document, error)
}

type UserReader interface {
	FindByID(ctx context.Context, userID id.UserID) (*usermodels.User, error)
}

// Recomputer refreshes the owner's score after a committed mutation.
type Recomputer interface {
	Dispatch(ctx context.Context, cmd recompute.Command) (*scoremodels.Score, error)
}

type Notifier interface {
	Notify(ctx context.Context, n notify.Notification) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service runs the document verification workflow: upload, review,
// deletion and expiry. Every state change ends in a score recompute.
type Service struct {
	store          Store
	users          UserReader
	recomputer     Recomputer
	notifier       Notifier
	auditPublisher AuditPublisher
	logger         *slog.Logger
	allowedExt     []string
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

// WithAllowedExtensions replaces the accepted upload extensions.
func WithAllowedExtensions(ext []string) Option {
	return func(s *Service) {
		if len(ext) > 0 {
			s.allowedExt = ext
		}
	}
}

var defaultAllowedExtensions = []string{"jpg", "jpeg", "png", "pdf", "doc", "docx"}

func New(store Store, users UserReader, recomputer Recomputer, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("document store is required")
	}
	if users == nil {
		return nil, errors.New("user reader is required")
	}
	if recomputer == nil {
		return nil, errors.New("recomputer is required")
	}
	s := &Service{store: store, users: users, recomputer: recomputer, allowedExt: defaultAllowedExtensions}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s, nil
}

// Upload registers a new pending document for owner.
func (s *Service) Upload(ctx context.Context, owner id.UserID, up models.Upload) (*models.Document, error) {
	now := requestcontext.Now(ctx)
	doc, err := models.NewDocument(id.NewDocumentID(), owner, up, s.allowedExt, now)
	if err != nil {
		return nil, err
	}
	if _, err := s.users.FindByID(ctx, owner); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	if err := s.store.Create(ctx, doc); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save document")
	}
	s.logAudit(ctx, audit.ActionDocumentUploaded,
		"user_id", owner,
		"subject", doc.ID,
		"decision", string(doc.Type),
	)
	if err := s.recompute(ctx, owner, recompute.CauseDocumentUploaded); err != nil {
		return nil, err
	}
	return doc, nil
}

// Get returns a document to its owner or to a reviewer. Anyone else gets
// not found so document ids do not leak.
func (s *Service) Get(ctx context.Context, docID id.DocumentID) (*models.Document, error) {
	doc, err := s.load(ctx, docID)
	if err != nil {
		return nil, err
	}
	if !doc.IsOwnedBy(requestcontext.UserID(ctx)) && !requestcontext.ActorRole(ctx).CanReview() {
		return nil, dErrors.New(dErrors.CodeNotFound, "document not found")
	}
	return doc, nil
}

func (s *Service) ListByUser(ctx context.Context, userID id.UserID) ([]*models.Document, error) {
	docs, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list documents")
	}
	return docs, nil
}

// ListByStatus is the reviewer queue. No statuses means all documents.
func (s *Service) ListByStatus(ctx context.Context, statuses []models.Status) ([]*models.Document, error) {
	docs, err := s.store.ListByStatus(ctx, statuses)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list documents")
	}
	return docs, nil
}

// Verify records a reviewer decision on a pending document. Repeat reviews,
// including one that lost a race with a concurrent reviewer, are rejected
// with an invalid transition.
func (s *Service) Verify(ctx context.Context, docID id.DocumentID, target models.Status, reviewerID id.UserID, notes string) (*models.Document, error) {
	now := requestcontext.Now(ctx)
	doc, err := s.load(ctx, docID)
	if err != nil {
		return nil, err
	}
	if err := doc.CanVerify(target, now); err != nil {
		return nil, err
	}
	from := doc.Status
	doc.ApplyVerification(target, reviewerID, notes, now)
	if err := s.store.Transition(ctx, doc, from); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.New(dErrors.CodeNotFound, "document not found")
		case errors.Is(err, sentinel.ErrConflict):
			return nil, dErrors.New(dErrors.CodeInvalidTransition, "document was already reviewed")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save verification")
	}

	s.logAudit(ctx, audit.ActionDocumentVerified,
		"user_id", doc.UserID,
		"subject", doc.ID,
		"decision", string(target),
		"reason", notes,
	)
	s.notify(ctx, doc, notify.KindDocumentStatusChanged)
	if err := s.recompute(ctx, doc.UserID, recompute.CauseDocumentVerified); err != nil {
		return nil, err
	}
	return doc, nil
}

// Delete removes an owner's document.
func (s *Service) Delete(ctx context.Context, docID id.DocumentID, ownerID id.UserID) error {
	doc, err := s.load(ctx, docID)
	if err != nil {
		return err
	}
	if !doc.IsOwnedBy(ownerID) {
		return dErrors.New(dErrors.CodeForbidden, "document belongs to another user")
	}
	if err := s.store.Delete(ctx, docID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "document not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete document")
	}
	s.logAudit(ctx, audit.ActionDocumentDeleted,
		"user_id", ownerID,
		"subject", docID,
	)
	return s.recompute(ctx, ownerID, recompute.CauseDocumentDeleted)
}

// SweepExpired persists the expired state for documents past their expiry
// date and recomputes each affected owner once. Per-document failures are
// logged and skipped. Returns how many documents were expired.
func (s *Service) SweepExpired(ctx context.Context) (int, error) {
	now := requestcontext.Now(ctx)
	candidates, err := s.store.ListExpiryCandidates(ctx, now)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list expiring documents")
	}

	expired := 0
	var owners []id.UserID
	seen := make(map[id.UserID]bool)
	for _, doc := range candidates {
		if !doc.CanExpire(now) {
			continue
		}
		from := doc.Status
		doc.ApplyExpiry(now)
		if err := s.store.Transition(ctx, doc, from); err != nil {
			if errors.Is(err, sentinel.ErrConflict) || errors.Is(err, sentinel.ErrNotFound) {
				// reviewed or deleted since the listing
				continue
			}
			s.logger.ErrorContext(ctx, "failed to expire document",
				"document_id", doc.ID.String(),
				"error", err,
			)
			continue
		}
		expired++
		s.logAudit(ctx, audit.ActionDocumentExpired,
			"user_id", doc.UserID,
			"subject", doc.ID,
		)
		s.notify(ctx, doc, notify.KindDocumentExpired)
		if !seen[doc.UserID] {
			seen[doc.UserID] = true
			owners = append(owners, doc.UserID)
		}
	}

	for _, owner := range owners {
		// failures are logged by the dispatcher; the next sweep or mutation heals them
		_ = s.recompute(ctx, owner, recompute.CauseDocumentExpired)
	}
	if expired > 0 {
		s.logger.InfoContext(ctx, "expired documents swept", "expired", expired, "owners", len(owners))
	}
	return expired, nil
}

func (s *Service) load(ctx context.Context, docID id.DocumentID) (*models.Document, error) {
	doc, err := s.store.FindByID(ctx, docID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "document not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load document")
	}
	return doc, nil
}

func (s *Service) recompute(ctx context.Context, userID id.UserID, cause recompute.Cause) error {
	_, err := s.recomputer.Dispatch(ctx, recompute.Command{UserID: userID, Cause: cause})
	if err == nil {
		return nil
	}
	if dErrors.HasCode(err, dErrors.CodeNotFound) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "document saved but score recalculation failed")
}

func (s *Service) notify(ctx context.Context, doc *models.Document, kind notify.Kind) {
	if s.notifier == nil {
		return
	}
	n := notify.Notification{
		Kind:         kind,
		UserID:       doc.UserID,
		DocumentID:   doc.ID,
		DocumentType: string(doc.Type),
		DocumentName: doc.Name,
		Status:       string(doc.Status),
		OccurredAt:   doc.UpdatedAt,
	}
	if doc.VerificationNotes != nil {
		n.Notes = *doc.VerificationNotes
	}
	if err := s.notifier.Notify(ctx, n); err != nil {
		s.logger.WarnContext(ctx, "failed to send document notification",
			"document_id", doc.ID.String(),
			"error", err,
		)
	}
}

func (s *Service) logAudit(ctx context.Context, action audit.Action, attributes ...any) {
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	args := append(attributes, "event", string(action), "log_type", "audit")
	s.logger.InfoContext(ctx, string(action), args...)
	if s.auditPublisher == nil {
		return
	}
	userID, _ := id.ParseUserID(attrs.ExtractString(attributes, "user_id"))
	actor := "system"
	if caller := requestcontext.UserID(ctx); !caller.IsNil() {
		actor = caller.String()
	}
	if err := s.auditPublisher.Emit(ctx, audit.Event{
		UserID:   userID,
		ActorID:  actor,
		Action:   action,
		Subject:  attrs.ExtractString(attributes, "subject"),
		Decision: attrs.ExtractString(attributes, "decision"),
		Reason:   attrs.ExtractString(attributes, "reason"),
	}); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event", "event", string(action), "error", err)
	}
}
