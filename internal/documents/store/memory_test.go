package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"talaty/internal/documents/models"
	id "talaty/pkg/domain"
	"talaty/pkg/platform/sentinel"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	ctx   context.Context
	now   time.Time
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
	s.now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
}

func (s *InMemoryStoreSuite) add(owner id.UserID, status models.Status, created time.Time, expiry *time.Time) *models.Document {
	doc := &models.Document{
		ID:         id.NewDocumentID(),
		UserID:     owner,
		Type:       models.TypeOther,
		Status:     status,
		ExpiryDate: expiry,
		CreatedAt:  created,
		UpdatedAt:  created,
	}
	s.Require().NoError(s.store.Create(s.ctx, doc))
	return doc
}

func (s *InMemoryStoreSuite) TestCRUD() {
	owner := id.NewUserID()
	doc := s.add(owner, models.StatusPending, s.now, nil)

	s.Run("returned document is a copy", func() {
		found, err := s.store.FindByID(s.ctx, doc.ID)
		s.Require().NoError(err)
		found.Status = models.StatusApproved

		again, err := s.store.FindByID(s.ctx, doc.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusPending, again.Status)
	})

	s.Run("transition from current status persists", func() {
		doc.ApplyVerification(models.StatusRejected, id.NewUserID(), "", s.now)
		s.Require().NoError(s.store.Transition(s.ctx, doc, models.StatusPending))
		found, err := s.store.FindByID(s.ctx, doc.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusRejected, found.Status)
	})

	s.Run("transition from a stale status conflicts", func() {
		doc.ApplyVerification(models.StatusApproved, id.NewUserID(), "", s.now)
		err := s.store.Transition(s.ctx, doc, models.StatusPending)
		s.ErrorIs(err, sentinel.ErrConflict)
		found, err := s.store.FindByID(s.ctx, doc.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusRejected, found.Status)
	})

	s.Run("delete then find is not found", func() {
		s.Require().NoError(s.store.Delete(s.ctx, doc.ID))
		_, err := s.store.FindByID(s.ctx, doc.ID)
		s.True(errors.Is(err, sentinel.ErrNotFound))
		s.True(errors.Is(s.store.Delete(s.ctx, doc.ID), sentinel.ErrNotFound))
		s.ErrorIs(s.store.Transition(s.ctx, doc, models.StatusRejected), sentinel.ErrNotFound)
	})
}

func (s *InMemoryStoreSuite) TestListing() {
	owner := id.NewUserID()
	other := id.NewUserID()
	past := s.now.Add(-time.Hour)

	first := s.add(owner, models.StatusApproved, s.now, &past)
	second := s.add(owner, models.StatusPending, s.now.Add(time.Minute), nil)
	s.add(other, models.StatusRejected, s.now, &past)

	s.Run("by user in creation order", func() {
		docs, err := s.store.ListByUser(s.ctx, owner)
		s.Require().NoError(err)
		s.Require().Len(docs, 2)
		s.Equal(first.ID, docs[0].ID)
		s.Equal(second.ID, docs[1].ID)
	})

	s.Run("by status", func() {
		docs, err := s.store.ListByStatus(s.ctx, []models.Status{models.StatusPending})
		s.Require().NoError(err)
		s.Require().Len(docs, 1)
		s.Equal(second.ID, docs[0].ID)
	})

	s.Run("expiry candidates skip rejected", func() {
		docs, err := s.store.ListExpiryCandidates(s.ctx, s.now)
		s.Require().NoError(err)
		s.Require().Len(docs, 1)
		s.Equal(first.ID, docs[0].ID)
	})

	s.Run("counts by effective status", func() {
		counts, err := s.store.CountByStatus(s.ctx, s.now)
		s.Require().NoError(err)
		s.Equal(0, counts[models.StatusApproved], "approval past expiry reads as expired")
		s.Equal(1, counts[models.StatusExpired])
		s.Equal(1, counts[models.StatusPending])
		s.Equal(1, counts[models.StatusRejected])
	})
}

func (s *InMemoryStoreSuite) TestConcurrentReviewsHaveOneWinner() {
	doc := s.add(id.NewUserID(), models.StatusPending, s.now, nil)

	const reviewers = 8
	results := make(chan error, reviewers)
	var wg sync.WaitGroup
	for i := 0; i < reviewers; i++ {
		wg.Add(1)
		go func(approve bool) {
			defer wg.Done()
			mine := *doc
			target := models.StatusRejected
			if approve {
				target = models.StatusApproved
			}
			mine.ApplyVerification(target, id.NewUserID(), "", s.now)
			results <- s.store.Transition(s.ctx, &mine, models.StatusPending)
		}(i%2 == 0)
	}
	wg.Wait()
	close(results)

	won := 0
	for err := range results {
		if err == nil {
			won++
			continue
		}
		s.ErrorIs(err, sentinel.ErrConflict)
	}
	s.Equal(1, won)
}
