package store

import (
	"context"
	"maps"
	"sort"
	"sync"

	"talaty/internal/forms/models"
	id "talaty/pkg/domain"
	"talaty/pkg/platform/sentinel"
)

type formKey struct {
	user     id.UserID
	formType models.FormType
}

// InMemoryStore keeps forms indexed by id and by (user, form type).
type InMemoryStore struct {
	mu     sync.RWMutex
	forms  map[id.FormID]models.Form
	byPair map[formKey]id.FormID
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		forms:  make(map[id.FormID]models.Form),
		byPair: make(map[formKey]id.FormID),
	}
}

// Create rejects a second form for the same (user, form type) with ErrConflict.
func (s *InMemoryStore) Create(_ context.Context, form *models.Form) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := formKey{user: form.UserID, formType: form.Type}
	if _, ok := s.byPair[key]; ok {
		return sentinel.ErrConflict
	}
	if _, ok := s.forms[form.ID]; ok {
		return sentinel.ErrConflict
	}
	s.forms[form.ID] = cloneForm(*form)
	s.byPair[key] = form.ID
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, formID id.FormID) (*models.Form, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.forms[formID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := cloneForm(f)
	return &out, nil
}

func (s *InMemoryStore) FindByUserAndType(_ context.Context, userID id.UserID, formType models.FormType) (*models.Form, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	formID, ok := s.byPair[formKey{user: userID, formType: formType}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := cloneForm(s.forms[formID])
	return &out, nil
}

func (s *InMemoryStore) Update(_ context.Context, form *models.Form) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.forms[form.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.forms[form.ID] = cloneForm(*form)
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, formID id.FormID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.forms[formID]
	if !ok {
		return sentinel.ErrNotFound
	}
	delete(s.forms, formID)
	delete(s.byPair, formKey{user: f.UserID, formType: f.Type})
	return nil
}

// ListByUser returns the user's forms ordered by creation time, then id.
func (s *InMemoryStore) ListByUser(_ context.Context, userID id.UserID) ([]*models.Form, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Form
	for _, f := range s.forms {
		if f.UserID == userID {
			form := cloneForm(f)
			out = append(out, &form)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (s *InMemoryStore) CountByStatus(_ context.Context) (map[models.Status]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[models.Status]int)
	for _, f := range s.forms {
		counts[f.Status]++
	}
	return counts, nil
}

// cloneForm copies the top level of form_data so callers cannot mutate stored state.
func cloneForm(f models.Form) models.Form {
	f.Data = maps.Clone(f.Data)
	if f.SubmittedAt != nil {
		at := *f.SubmittedAt
		f.SubmittedAt = &at
	}
	return f
}
