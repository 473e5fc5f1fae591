package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"talaty/internal/forms/models"
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

func (s *InMemoryStoreSuite) newForm(owner id.UserID, formType models.FormType, data models.Data) *models.Form {
	f, err := models.NewForm(id.NewFormID(), owner, formType, data, s.now)
	s.Require().NoError(err)
	return f
}

func (s *InMemoryStoreSuite) TestOneFormPerUserAndType() {
	owner := id.NewUserID()
	s.Require().NoError(s.store.Create(s.ctx, s.newForm(owner, models.TypePersonalInfo, nil)))

	err := s.store.Create(s.ctx, s.newForm(owner, models.TypePersonalInfo, nil))
	s.True(errors.Is(err, sentinel.ErrConflict))

	s.NoError(s.store.Create(s.ctx, s.newForm(owner, models.TypeBusinessInfo, nil)), "different type is allowed")
	s.NoError(s.store.Create(s.ctx, s.newForm(id.NewUserID(), models.TypePersonalInfo, nil)), "different user is allowed")
}

func (s *InMemoryStoreSuite) TestFindAndUpdate() {
	owner := id.NewUserID()
	form := s.newForm(owner, models.TypePersonalInfo, models.Data{"firstName": "Ada"})
	s.Require().NoError(s.store.Create(s.ctx, form))

	s.Run("lookup by pair returns a copy", func() {
		found, err := s.store.FindByUserAndType(s.ctx, owner, models.TypePersonalInfo)
		s.Require().NoError(err)
		s.Equal(form.ID, found.ID)
		found.Data["firstName"] = "mutated"

		again, err := s.store.FindByID(s.ctx, form.ID)
		s.Require().NoError(err)
		s.Equal("Ada", again.Data["firstName"])
	})

	s.Run("update persists resubmission", func() {
		form.ApplyResubmission(models.Data{"firstName": "Grace"}, s.now.Add(time.Minute))
		s.Require().NoError(s.store.Update(s.ctx, form))
		found, err := s.store.FindByID(s.ctx, form.ID)
		s.Require().NoError(err)
		s.Equal(2, found.Version)
		s.Equal("Grace", found.Data["firstName"])
	})

	s.Run("missing lookups", func() {
		_, err := s.store.FindByUserAndType(s.ctx, owner, models.TypeComplianceInfo)
		s.True(errors.Is(err, sentinel.ErrNotFound))
		err = s.store.Update(s.ctx, s.newForm(owner, models.TypeFinancialInfo, nil))
		s.True(errors.Is(err, sentinel.ErrNotFound))
	})
}

func (s *InMemoryStoreSuite) TestDeleteFreesPair() {
	owner := id.NewUserID()
	form := s.newForm(owner, models.TypeBusinessInfo, nil)
	s.Require().NoError(s.store.Create(s.ctx, form))
	s.Require().NoError(s.store.Delete(s.ctx, form.ID))

	s.True(errors.Is(s.store.Delete(s.ctx, form.ID), sentinel.ErrNotFound))
	s.NoError(s.store.Create(s.ctx, s.newForm(owner, models.TypeBusinessInfo, nil)))
}

func (s *InMemoryStoreSuite) TestListAndCount() {
	owner := id.NewUserID()
	complete := models.Data{"taxId": "1", "riskTolerance": "low", "investmentExperience": "none", "sourceOfFunds": "sales"}
	s.Require().NoError(s.store.Create(s.ctx, s.newForm(owner, models.TypeComplianceInfo, complete)))
	s.Require().NoError(s.store.Create(s.ctx, s.newForm(owner, models.TypePersonalInfo, nil)))
	s.Require().NoError(s.store.Create(s.ctx, s.newForm(id.NewUserID(), models.TypePersonalInfo, nil)))

	forms, err := s.store.ListByUser(s.ctx, owner)
	s.Require().NoError(err)
	s.Len(forms, 2)

	counts, err := s.store.CountByStatus(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, counts[models.StatusSubmitted])
	s.Equal(2, counts[models.StatusDraft])
}
