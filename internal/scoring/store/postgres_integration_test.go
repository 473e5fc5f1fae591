//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"talaty/internal/scoring/models"
	"talaty/internal/scoring/store"
	usermodels "talaty/internal/users/models"
	userstore "talaty/internal/users/store"
	id "talaty/pkg/domain"
	"talaty/pkg/platform/sentinel"
	"talaty/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
	users    *userstore.PostgresStore
	ctx      context.Context
	now      time.Time
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
	s.users = userstore.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.now = time.Now().UTC().Truncate(time.Microsecond)
	s.Require().NoError(s.postgres.TruncateTables(s.ctx, "business_scores", "users"))
}

func (s *PostgresStoreSuite) seedUser(email string) id.UserID {
	u, err := usermodels.NewUser(id.NewUserID(), email, "Score", "Owner", s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.users.Create(s.ctx, u))
	return u.ID
}

func (s *PostgresStoreSuite) TestFindMissing() {
	_, err := s.store.FindByUser(s.ctx, id.NewUserID())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestUpsertKeepsIdentity() {
	userID := s.seedUser("upsert@acme.io")
	original := models.NewDefaultScore(id.NewScoreID(), userID, s.now)
	s.Require().NoError(s.store.Upsert(s.ctx, original))

	replacement := models.NewDefaultScore(id.NewScoreID(), userID, s.now.Add(time.Hour))
	replacement.Apply(models.Result{
		Components: models.Components{Registration: 35, Documents: 20, Forms: 15, Verification: 10},
		Total:      80,
		Risk:       models.RiskFor(80),
		Details: models.CalculationDetails{
			Registration: 35, Documents: 20, Forms: 15, Verification: 10,
			Breakdown: models.Breakdown{ApprovedDocuments: 2, CompletedForms: 3, EmailVerified: true},
		},
	}, s.now.Add(time.Hour))
	s.Require().NoError(s.store.Upsert(s.ctx, replacement))

	found, err := s.store.FindByUser(s.ctx, userID)
	s.Require().NoError(err)
	s.Equal(original.ID, found.ID)
	s.True(original.CreatedAt.Equal(found.CreatedAt))
	s.Equal(80, found.TotalScore)
	s.Equal(models.RiskLow, found.RiskLevel)
	s.Equal(2, found.CalculationDetails.Breakdown.ApprovedDocuments)
	s.True(found.CalculationDetails.Breakdown.EmailVerified)
}

func (s *PostgresStoreSuite) TestStats() {
	low := models.NewDefaultScore(id.NewScoreID(), s.seedUser("a@acme.io"), s.now)
	high := models.NewDefaultScore(id.NewScoreID(), s.seedUser("b@acme.io"), s.now)
	high.Apply(models.Result{
		Components: models.Components{Registration: 35, Documents: 30, Forms: 25},
		Total:      90,
		Risk:       models.RiskFor(90),
	}, s.now)
	s.Require().NoError(s.store.Upsert(s.ctx, low))
	s.Require().NoError(s.store.Upsert(s.ctx, high))

	stats, err := s.store.Stats(s.ctx)
	s.Require().NoError(err)
	s.Equal(2, stats.Count)
	s.InDelta(float64(low.TotalScore+90)/2, stats.Average, 0.001)
	s.Equal(1, stats.RiskDistribution[models.RiskLow])
	s.Equal(1, stats.RiskDistribution[low.RiskLevel])
}
