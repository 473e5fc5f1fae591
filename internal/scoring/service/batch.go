package service

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"talaty/internal/scoring/models"
	id "talaty/pkg/domain"
	dErrors "talaty/pkg/domain-errors"
)

// RecalculationResult is one user's outcome in a batch.
type RecalculationResult struct {
	UserID  id.UserID     `json:"user_id"`
	Success bool          `json:"success"`
	Score   *models.Score `json:"score,omitempty"`
	Error   string        `json:"error,omitempty"`
}

// RecalculateAll recomputes every user's score. Individual failures are
// recorded in the result list and never stop the batch. Results keep the
// order of the user listing.
func (s *Service) RecalculateAll(ctx context.Context) ([]RecalculationResult, error) {
	ctx, span := s.tracer.Start(ctx, "scoring.RecalculateAll")
	defer span.End()
	start := time.Now()

	userIDs, err := s.users.ListIDs(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list users")
	}

	results := make([]RecalculationResult, len(userIDs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, userID := range userIDs {
		g.Go(func() error {
			score, err := s.CalculateScore(gctx, userID)
			if err != nil {
				results[i] = RecalculationResult{UserID: userID, Error: dErrors.MessageOf(err)}
				return nil
			}
			results[i] = RecalculationResult{UserID: userID, Success: true, Score: score}
			return nil
		})
	}
	// workers never return errors; Wait only joins them
	_ = g.Wait()

	failed := 0
	for _, r := range results {
		if !r.Success {
			failed++
		}
	}
	if s.metrics != nil {
		s.metrics.ObserveBatch(start)
	}
	s.logger.InfoContext(ctx, "score batch recalculated",
		"users", len(results),
		"failed", failed,
		"duration", time.Since(start),
	)
	return results, nil
}
