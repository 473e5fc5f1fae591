package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"talaty/internal/users/models"
	id "talaty/pkg/domain"
	"talaty/pkg/platform/sentinel"
)

// InMemoryStore keeps users in a map. Returned users are copies so callers
// cannot mutate stored state without going through Update.
type InMemoryStore struct {
	mu    sync.RWMutex
	users map[id.UserID]models.User
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{users: make(map[id.UserID]models.User)}
}

func (s *InMemoryStore) Create(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; ok {
		return fmt.Errorf("user %s: %w", user.ID, sentinel.ErrConflict)
	}
	for _, existing := range s.users {
		if existing.Email == user.Email {
			return fmt.Errorf("email %s: %w", user.Email, sentinel.ErrConflict)
		}
	}
	s.users[user.ID] = *user
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, userID id.UserID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &u, nil
}

func (s *InMemoryStore) Update(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.users[user.ID] = *user
	return nil
}

// ListIDs returns every user id ordered by creation time, then id.
func (s *InMemoryStore) ListIDs(_ context.Context) ([]id.UserID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool {
		if !users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].CreatedAt.Before(users[j].CreatedAt)
		}
		return users[i].ID.String() < users[j].ID.String()
	})
	ids := make([]id.UserID, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	return ids, nil
}

func (s *InMemoryStore) CountByStatus(_ context.Context) (map[models.AccountStatus]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[models.AccountStatus]int)
	for _, u := range s.users {
		counts[u.Status]++
	}
	return counts, nil
}
