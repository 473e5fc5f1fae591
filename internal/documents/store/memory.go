package store

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"talaty/internal/documents/models"
	id "talaty/pkg/domain"
	"talaty/pkg/platform/sentinel"
)

// InMemoryStore keeps documents in a map keyed by id.
type InMemoryStore struct {
	mu   sync.RWMutex
	docs map[id.DocumentID]models.Document
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{docs: make(map[id.DocumentID]models.Document)}
}

func (s *InMemoryStore) Create(_ context.Context, doc *models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[doc.ID]; ok {
		return sentinel.ErrConflict
	}
	s.docs[doc.ID] = *doc
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, docID id.DocumentID) (*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.docs[docID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &d, nil
}

// Transition writes doc only if the stored status is still from. A status
// that moved on under the caller is a conflict.
func (s *InMemoryStore) Transition(_ context.Context, doc *models.Document, from models.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.docs[doc.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if current.Status != from {
		return sentinel.ErrConflict
	}
	s.docs[doc.ID] = *doc
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, docID id.DocumentID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[docID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.docs, docID)
	return nil
}

func (s *InMemoryStore) ListByUser(_ context.Context, userID id.UserID) ([]*models.Document, error) {
	return s.filter(func(d *models.Document) bool { return d.UserID == userID }), nil
}

// ListByStatus filters on stored status; an empty list returns everything.
func (s *InMemoryStore) ListByStatus(_ context.Context, statuses []models.Status) ([]*models.Document, error) {
	return s.filter(func(d *models.Document) bool {
		return len(statuses) == 0 || slices.Contains(statuses, d.Status)
	}), nil
}

// ListExpiryCandidates returns pending or approved documents whose expiry
// date is before now.
func (s *InMemoryStore) ListExpiryCandidates(_ context.Context, now time.Time) ([]*models.Document, error) {
	return s.filter(func(d *models.Document) bool {
		return (d.Status == models.StatusPending || d.Status == models.StatusApproved) && d.IsPastExpiry(now)
	}), nil
}

// CountByStatus tallies documents by their effective status at now.
func (s *InMemoryStore) CountByStatus(_ context.Context, now time.Time) (map[models.Status]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[models.Status]int)
	for _, d := range s.docs {
		counts[d.EffectiveStatus(now)]++
	}
	return counts, nil
}

// filter returns copies ordered by creation time, then id.
func (s *InMemoryStore) filter(keep func(*models.Document) bool) []*models.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Document
	for _, d := range s.docs {
		if keep(&d) {
			doc := d
			out = append(out, &doc)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}
