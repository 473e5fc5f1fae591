package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	docmodels "talaty/internal/documents/models"
	formmodels "talaty/internal/forms/models"
	"talaty/internal/scoring/metrics"
	"talaty/internal/scoring/models"
	usermodels "talaty/internal/users/models"
	"talaty/pkg/attrs"
	id "talaty/pkg/domain"
	dErrors "talaty/pkg/domain-errors"
	"talaty/pkg/platform/audit"
	"talaty/pkg/platform/sentinel"
	"talaty/pkg/requestcontext"
)

type ScoreStore interface {
	FindByUser(ctx context.Context, userID id.UserID) (*models.Score, error)
	Upsert(ctx context.Context, score *models.Score) error
	Stats(ctx context.Context) (models.ScoreStats, error)
}

type UserReader interface {
	FindByID(ctx context.Context, userID id.UserID) (*usermodels.User, error)
	ListIDs(ctx context.Context) ([]id.UserID, error)
	CountByStatus(ctx context.Context) (map[usermodels.AccountStatus]int, error)
}

type DocumentReader interface {
	ListByUser(ctx context.Context, userID id.UserID) ([]*docmodels.Document, error)
	CountByStatus(ctx context.Context, now time.Time) (map[docmodels.Status]int, error)
}

type FormReader interface {
	ListByUser(ctx context.Context, userID id.UserID) ([]*formmodels.Form, error)
	CountByStatus(ctx context.Context) (map[formmodels.Status]int, error)
}

// Transactor wraps a unit of work. Stores that participate in the ambient
// transaction see a consistent snapshot and the upsert commits atomically.
type Transactor interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// ScoreCache receives scores once they are committed.
type ScoreCache interface {
	Prime(ctx context.Context, score *models.Score)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service is the score engine. It is the only writer of scores.
type Service struct {
	scores         ScoreStore
	users          UserReader
	documents      DocumentReader
	forms          FormReader
	tx             Transactor
	locks          *userLocks
	logger         *slog.Logger
	metrics        *metrics.Metrics
	auditPublisher AuditPublisher
	cache          ScoreCache
	tracer         trace.Tracer
	concurrency    int
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithTransactor(tx Transactor) Option {
	return func(s *Service) {
		s.tx = tx
	}
}

// WithScoreCache primes cache after every committed score write.
func WithScoreCache(cache ScoreCache) Option {
	return func(s *Service) {
		s.cache = cache
	}
}

// WithConcurrency bounds how many users RecalculateAll processes at once.
func WithConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

type noTx struct{}

func (noTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func New(scores ScoreStore, users UserReader, documents DocumentReader, forms FormReader, opts ...Option) (*Service, error) {
	if scores == nil {
		return nil, errors.New("score store is required")
	}
	if users == nil {
		return nil, errors.New("user reader is required")
	}
	if documents == nil {
		return nil, errors.New("document reader is required")
	}
	if forms == nil {
		return nil, errors.New("form reader is required")
	}
	s := &Service{
		scores:      scores,
		users:       users,
		documents:   documents,
		forms:       forms,
		tx:          noTx{},
		locks:       &userLocks{},
		concurrency: 8,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.tracer == nil {
		s.tracer = otel.Tracer("talaty/scoring")
	}
	return s, nil
}

// snapshot is everything one score is computed from.
type snapshot struct {
	user      *usermodels.User
	documents []*docmodels.Document
	forms     []*formmodels.Form
}

// CalculateScore recomputes and persists the user's score. Reads and the
// upsert share the per-user lock and, when configured, one transaction.
func (s *Service) CalculateScore(ctx context.Context, userID id.UserID) (*models.Score, error) {
	ctx, span := s.tracer.Start(ctx, "scoring.CalculateScore",
		trace.WithAttributes(attribute.String("user_id", userID.String())))
	defer span.End()
	start := time.Now()

	var score *models.Score
	err := s.locks.withUser(ctx, userID, func(ctx context.Context) error {
		err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
			var err error
			score, err = s.calculate(ctx, userID)
			return err
		})
		if err != nil {
			return err
		}
		// committed; primed under the lock so writers prime in commit order
		s.prime(ctx, score)
		return nil
	})
	if s.metrics != nil {
		s.metrics.ObserveCalculation(start, err)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, dErrors.MessageOf(err))
		// uncoded errors here come from the transaction itself (begin/commit)
		if dErrors.CodeOf(err) == dErrors.CodeInternal && !dErrors.HasCode(err, dErrors.CodeInternal) {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to calculate score")
		}
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("total_score", score.TotalScore),
		attribute.String("risk_level", string(score.RiskLevel)),
	)
	if s.metrics != nil {
		s.metrics.IncrementRiskLevel(string(score.RiskLevel))
	}
	s.logAudit(ctx, audit.ActionScoreRecalculated,
		"user_id", userID,
		"decision", string(score.RiskLevel),
	)
	return score, nil
}

func (s *Service) calculate(ctx context.Context, userID id.UserID) (*models.Score, error) {
	now := requestcontext.Now(ctx)
	snap, err := s.loadSnapshot(ctx, userID)
	if err != nil {
		return nil, err
	}

	score, err := s.scores.FindByUser(ctx, userID)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		score = models.NewDefaultScore(id.NewScoreID(), userID, now)
	case err != nil:
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load score")
	}

	result := models.Compute(models.Inputs{
		User:      snap.user,
		Documents: snap.documents,
		Forms:     snap.forms,
		Now:       now,
	})
	score.Apply(result, now)
	if err := score.Validate(); err != nil {
		return nil, err
	}
	if err := s.scores.Upsert(ctx, score); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save score")
	}
	return score, nil
}

func (s *Service) loadSnapshot(ctx context.Context, userID id.UserID) (*snapshot, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	documents, err := s.documents.ListByUser(ctx, userID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load documents")
	}
	forms, err := s.forms.ListByUser(ctx, userID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load forms")
	}
	return &snapshot{user: user, documents: documents, forms: forms}, nil
}

// GetScore returns the persisted score, creating the default row for users
// that have none yet.
func (s *Service) GetScore(ctx context.Context, userID id.UserID) (*models.Score, error) {
	score, err := s.scores.FindByUser(ctx, userID)
	if err == nil {
		return score, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load score")
	}
	return s.EnsureInitialScore(ctx, userID)
}

// EnsureInitialScore writes the registration default when the user has no
// score. An existing score is returned untouched.
func (s *Service) EnsureInitialScore(ctx context.Context, userID id.UserID) (*models.Score, error) {
	var score *models.Score
	err := s.locks.withUser(ctx, userID, func(ctx context.Context) error {
		if _, err := s.users.FindByID(ctx, userID); err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "user not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
		}
		existing, err := s.scores.FindByUser(ctx, userID)
		if err == nil {
			score = existing
			return nil
		}
		if !errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load score")
		}
		score = models.NewDefaultScore(id.NewScoreID(), userID, requestcontext.Now(ctx))
		if err := s.scores.Upsert(ctx, score); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create score")
		}
		s.prime(ctx, score)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return score, nil
}

func (s *Service) prime(ctx context.Context, score *models.Score) {
	if s.cache != nil {
		s.cache.Prime(ctx, score)
	}
}

// GetScoreBreakdown explains the user's score. When no score exists yet it
// is computed on demand so the breakdown matches the snapshot it explains.
func (s *Service) GetScoreBreakdown(ctx context.Context, userID id.UserID) (*models.ScoreBreakdown, error) {
	ctx, span := s.tracer.Start(ctx, "scoring.GetScoreBreakdown",
		trace.WithAttributes(attribute.String("user_id", userID.String())))
	defer span.End()

	score, err := s.scores.FindByUser(ctx, userID)
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load score")
		}
		if score, err = s.CalculateScore(ctx, userID); err != nil {
			return nil, err
		}
	}

	snap, err := s.loadSnapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	return models.BuildBreakdown(score, snap.documents, snap.forms, snap.user, requestcontext.Now(ctx)), nil
}

// Analytics summarizes onboarding state across all users.
func (s *Service) Analytics(ctx context.Context) (*models.Analytics, error) {
	users, err := s.users.CountByStatus(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count users")
	}
	documents, err := s.documents.CountByStatus(ctx, requestcontext.Now(ctx))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count documents")
	}
	forms, err := s.forms.CountByStatus(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count forms")
	}
	stats, err := s.scores.Stats(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to aggregate scores")
	}
	return &models.Analytics{Users: users, Documents: documents, Forms: forms, Scores: stats}, nil
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
		Subject:  userID.String(),
		Decision: attrs.ExtractString(attributes, "decision"),
	}); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event", "event", string(action), "error", err)
	}
}
