package service

import (
	"context"
	"errors"
	"log/slog"

	"talaty/internal/forms/models"
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
	Create(ctx context.Context, form *models.Form) error
	FindByID(ctx context.Context, formID id.FormID) (*models.Form, error)
	FindByUserAndType(ctx context.Context, userID id.UserID, formType models.FormType) (*models.Form, error)
	Update(ctx context.Context, form *models.Form) error
	Delete(ctx context.Context, formID id.FormID) error
	ListByUser(ctx context.Context, userID id.UserID) ([]*models.Form, error)
}

type UserReader interface {
	FindByID(ctx context.Context, userID id.UserID) (*usermodels.User, error)
}

// Recomputer refreshes the owner's score after a committed mutation.
type Recomputer interface {
	Dispatch(ctx context.Context, cmd recompute.Command) (*scoremodels.Score, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service owns form submission. There is one form per (user, form type);
// resubmission updates it in place.
type Service struct {
	store          Store
	users          UserReader
	recomputer     Recomputer
	auditPublisher AuditPublisher
	logger         *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func New(store Store, users UserReader, recomputer Recomputer, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("form store is required")
	}
	if users == nil {
		return nil, errors.New("user reader is required")
	}
	if recomputer == nil {
		return nil, errors.New("recomputer is required")
	}
	s := &Service{store: store, users: users, recomputer: recomputer}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s, nil
}

// Submit creates or resubmits the user's form of formType. The score is
// recomputed only when the submitted state is involved before or after,
// since draft forms contribute nothing.
func (s *Service) Submit(ctx context.Context, userID id.UserID, formType models.FormType, data models.Data) (*models.Form, error) {
	if !formType.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "invalid form_type: "+string(formType))
	}
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}

	form, wasSubmitted, err := s.save(ctx, userID, formType, data)
	if err != nil {
		return nil, err
	}

	s.logAudit(ctx, audit.ActionFormSubmitted,
		"user_id", userID,
		"subject", form.ID,
		"decision", string(form.Status),
		"reason", string(form.Type),
	)
	if wasSubmitted || form.IsSubmitted() {
		if err := s.recompute(ctx, userID, recompute.CauseFormSubmitted); err != nil {
			return nil, err
		}
	}
	return form, nil
}

// save creates the form or applies a resubmission. A conflicting create means
// a concurrent first submission won; the payload is then applied on top of it.
func (s *Service) save(ctx context.Context, userID id.UserID, formType models.FormType, data models.Data) (*models.Form, bool, error) {
	now := requestcontext.Now(ctx)
	existing, err := s.store.FindByUserAndType(ctx, userID, formType)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		form, err := models.NewForm(id.NewFormID(), userID, formType, data, now)
		if err != nil {
			return nil, false, err
		}
		err = s.store.Create(ctx, form)
		if err == nil {
			return form, false, nil
		}
		if !errors.Is(err, sentinel.ErrConflict) {
			return nil, false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save form")
		}
		existing, err = s.store.FindByUserAndType(ctx, userID, formType)
		if err != nil {
			return nil, false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load form")
		}
	case err != nil:
		return nil, false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load form")
	}

	wasSubmitted := existing.IsSubmitted()
	existing.ApplyResubmission(data, now)
	if err := s.store.Update(ctx, existing); err != nil {
		return nil, false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save form")
	}
	return existing, wasSubmitted, nil
}

func (s *Service) List(ctx context.Context, userID id.UserID) ([]*models.Form, error) {
	forms, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list forms")
	}
	return forms, nil
}

func (s *Service) GetByType(ctx context.Context, userID id.UserID, formType models.FormType) (*models.Form, error) {
	form, err := s.store.FindByUserAndType(ctx, userID, formType)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "form not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load form")
	}
	return form, nil
}

// Delete removes an owner's form and recomputes the score.
func (s *Service) Delete(ctx context.Context, formID id.FormID, ownerID id.UserID) error {
	form, err := s.store.FindByID(ctx, formID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "form not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load form")
	}
	if !form.IsOwnedBy(ownerID) {
		return dErrors.New(dErrors.CodeForbidden, "form belongs to another user")
	}
	if err := s.store.Delete(ctx, formID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "form not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete form")
	}
	s.logAudit(ctx, audit.ActionFormDeleted,
		"user_id", ownerID,
		"subject", formID,
		"reason", string(form.Type),
	)
	return s.recompute(ctx, ownerID, recompute.CauseFormDeleted)
}

func (s *Service) recompute(ctx context.Context, userID id.UserID, cause recompute.Cause) error {
	_, err := s.recomputer.Dispatch(ctx, recompute.Command{UserID: userID, Cause: cause})
	if err == nil {
		return nil
	}
	if dErrors.HasCode(err, dErrors.CodeNotFound) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "form saved but score recalculation failed")
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
