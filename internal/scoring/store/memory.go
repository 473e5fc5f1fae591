package store

import (
	"context"
	"sync"

	"talaty/internal/scoring/models"
	id "talaty/pkg/domain"
	"talaty/pkg/platform/sentinel"
)

// InMemoryStore keeps one score per user.
type InMemoryStore struct {
	mu     sync.RWMutex
	scores map[id.UserID]models.Score
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{scores: make(map[id.UserID]models.Score)}
}

func (s *InMemoryStore) FindByUser(_ context.Context, userID id.UserID) (*models.Score, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	score, ok := s.scores[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &score, nil
}

// Upsert replaces the user's score wholesale. The first write fixes the
// row's id and created_at.
func (s *InMemoryStore) Upsert(_ context.Context, score *models.Score) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := *score
	if existing, ok := s.scores[score.UserID]; ok {
		next.ID = existing.ID
		next.CreatedAt = existing.CreatedAt
	}
	s.scores[score.UserID] = next
	return nil
}

func (s *InMemoryStore) Stats(_ context.Context) (models.ScoreStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stats := models.ScoreStats{RiskDistribution: make(map[models.RiskLevel]int)}
	total := 0
	for _, score := range s.scores {
		stats.Count++
		total += score.TotalScore
		stats.RiskDistribution[score.RiskLevel]++
	}
	if stats.Count > 0 {
		stats.Average = float64(total) / float64(stats.Count)
	}
	return stats, nil
}
