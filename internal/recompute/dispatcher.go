// Package recompute is the single entry point every document, form and
// verification mutation goes through to refresh a user's score.
package recompute

import (
	"context"
	"errors"
	"log/slog"

	"talaty/internal/scoring/metrics"
	scoremodels "talaty/internal/scoring/models"
	id "talaty/pkg/domain"
	dErrors "talaty/pkg/domain-errors"
)

// Cause names the mutation that triggered a recompute.
type Cause string

const (
	CauseDocumentUploaded    Cause = "document_uploaded"
	CauseDocumentVerified    Cause = "document_verified"
	CauseDocumentDeleted     Cause = "document_deleted"
	CauseDocumentExpired     Cause = "document_expired"
	CauseFormSubmitted       Cause = "form_submitted"
	CauseFormDeleted         Cause = "form_deleted"
	CauseVerificationUpdated Cause = "verification_updated"
	CauseManual              Cause = "manual"
	CauseBatch               Cause = "batch"
)

type Command struct {
	UserID id.UserID
	Cause  Cause
}

// Calculator is the score engine.
type Calculator interface {
	CalculateScore(ctx context.Context, userID id.UserID) (*scoremodels.Score, error)
}

// Dispatcher runs recompute commands synchronously. Storage failures are
// retried once; anything else is returned as-is.
type Dispatcher struct {
	calculator Calculator
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

type Option func(*Dispatcher)

func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

func New(calculator Calculator, opts ...Option) (*Dispatcher, error) {
	if calculator == nil {
		return nil, errors.New("calculator is required")
	}
	d := &Dispatcher{calculator: calculator}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	return d, nil
}

func (d *Dispatcher) Dispatch(ctx context.Context, cmd Command) (*scoremodels.Score, error) {
	score, err := d.calculator.CalculateScore(ctx, cmd.UserID)
	if err != nil && retryable(ctx, err) {
		d.logger.WarnContext(ctx, "score recompute failed, retrying",
			"user_id", cmd.UserID.String(),
			"cause", string(cmd.Cause),
			"error", err,
		)
		score, err = d.calculator.CalculateScore(ctx, cmd.UserID)
	}
	if d.metrics != nil {
		d.metrics.IncrementRecompute(string(cmd.Cause), err)
	}
	if err != nil {
		d.logger.ErrorContext(ctx, "score recompute failed",
			"user_id", cmd.UserID.String(),
			"cause", string(cmd.Cause),
			"error", err,
		)
		return nil, err
	}
	d.logger.DebugContext(ctx, "score recomputed",
		"user_id", cmd.UserID.String(),
		"cause", string(cmd.Cause),
		"total_score", score.TotalScore,
	)
	return score, nil
}

func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	code := dErrors.CodeOf(err)
	return code == dErrors.CodeInternal || code == dErrors.CodeTimeout
}
