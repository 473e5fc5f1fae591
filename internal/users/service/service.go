package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"talaty/internal/recompute"
	scoremodels "talaty/internal/scoring/models"
	"talaty/internal/users/models"
	"talaty/pkg/attrs"
	id "talaty/pkg/domain"
	dErrors "talaty/pkg/domain-errors"
	emailutil "talaty/pkg/email"
	"talaty/pkg/platform/audit"
	"talaty/pkg/platform/sentinel"
	"talaty/pkg/requestcontext"
)

type Store interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, userID id.UserID) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
}

// ScoreInitializer writes the registration score for a new account.
type ScoreInitializer interface {
	EnsureInitialScore(ctx context.Context, userID id.UserID) (*scoremodels.Score, error)
}

// Recomputer refreshes the user's score after a committed mutation.
type Recomputer interface {
	Dispatch(ctx context.Context, cmd recompute.Command) (*scoremodels.Score, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// AuditReader serves the per-user audit trail to reviewers.
type AuditReader interface {
	List(ctx context.Context, userID id.UserID) ([]audit.Event, error)
}

// Service manages the account fields the scoring core reads: identity for
// registration and the verification flags asserted by OTP and KYC reviewers.
type Service struct {
	store          Store
	scores         ScoreInitializer
	recomputer     Recomputer
	auditPublisher AuditPublisher
	auditReader    AuditReader
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

func WithAuditReader(reader AuditReader) Option {
	return func(s *Service) {
		s.auditReader = reader
	}
}

func New(store Store, scores ScoreInitializer, recomputer Recomputer, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("user store is required")
	}
	if scores == nil {
		return nil, errors.New("score initializer is required")
	}
	if recomputer == nil {
		return nil, errors.New("recomputer is required")
	}
	s := &Service{store: store, scores: scores, recomputer: recomputer}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s, nil
}

// Registration is the input for Register. Missing names are derived from
// the email local part.
type Registration struct {
	Email        string
	FirstName    string
	LastName     string
	Phone        string
	BusinessName string
	Role         models.Role
}

// Register creates the account and its registration score.
func (s *Service) Register(ctx context.Context, reg Registration) (*models.User, error) {
	email := emailutil.Normalize(reg.Email)
	if email == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "email is required")
	}
	first, last := strings.TrimSpace(reg.FirstName), strings.TrimSpace(reg.LastName)
	if first == "" || last == "" {
		derivedFirst, derivedLast := emailutil.DeriveNameFromEmail(email)
		if first == "" {
			first = derivedFirst
		}
		if last == "" {
			last = derivedLast
		}
	}

	user, err := models.NewUser(id.NewUserID(), email, first, last, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	user.Phone = strings.TrimSpace(reg.Phone)
	user.BusinessName = strings.TrimSpace(reg.BusinessName)
	switch reg.Role {
	case "":
	case models.RoleUser, models.RoleReviewer, models.RoleAdmin:
		user.Role = reg.Role
	default:
		return nil, dErrors.New(dErrors.CodeValidation, "invalid role: "+string(reg.Role))
	}

	if err := s.store.Create(ctx, user); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "email already registered")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create user")
	}
	s.logAudit(ctx, audit.ActionUserRegistered,
		"user_id", user.ID,
		"subject", user.ID,
		"decision", string(user.Role),
	)

	if _, err := s.scores.EnsureInitialScore(ctx, user.ID); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "user created but initial score failed")
	}
	return user, nil
}

func (s *Service) Get(ctx context.Context, userID id.UserID) (*models.User, error) {
	user, err := s.store.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	return user, nil
}

// UpdateVerification applies verifier-asserted flags. The score is
// recomputed only when a flag actually changed.
func (s *Service) UpdateVerification(ctx context.Context, userID id.UserID, update models.VerificationUpdate) (*models.User, error) {
	if update.IsEmpty() {
		return nil, dErrors.New(dErrors.CodeValidation, "no verification fields provided")
	}
	user, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := user.CanApplyVerification(update); err != nil {
		return nil, err
	}
	if !user.ApplyVerification(update, requestcontext.Now(ctx)) {
		return user, nil
	}
	if err := s.store.Update(ctx, user); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save verification")
	}

	s.logAudit(ctx, audit.ActionVerificationUpdated,
		"user_id", userID,
		"subject", userID,
		"decision", string(user.KYCStatus),
	)
	if _, err := s.recomputer.Dispatch(ctx, recompute.Command{UserID: userID, Cause: recompute.CauseVerificationUpdated}); err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "verification saved but score recalculation failed")
	}
	return user, nil
}

// AuditTrail lists what happened to an account, oldest first. Without a
// configured reader the trail is empty.
func (s *Service) AuditTrail(ctx context.Context, userID id.UserID) ([]audit.Event, error) {
	if _, err := s.Get(ctx, userID); err != nil {
		return nil, err
	}
	if s.auditReader == nil {
		return []audit.Event{}, nil
	}
	events, err := s.auditReader.List(ctx, userID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load audit trail")
	}
	return events, nil
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
	}); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event", "event", string(action), "error", err)
	}
}
