package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "talaty/pkg/domain"
	dErrors "talaty/pkg/domain-errors"
)

func TestNewUser(t *testing.T) {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	t.Run("defaults to pending kyc and unverified flags", func(t *testing.T) {
		u, err := NewUser(id.NewUserID(), "  Owner@Acme.TEST ", "Ada", "Lovelace", now)
		require.NoError(t, err)
		assert.Equal(t, "owner@acme.test", u.Email)
		assert.Equal(t, KYCPending, u.KYCStatus)
		assert.False(t, u.EmailVerified)
		assert.False(t, u.PhoneVerified)
		assert.Equal(t, RoleUser, u.Role)
	})

	t.Run("empty email violates invariant", func(t *testing.T) {
		_, err := NewUser(id.NewUserID(), " ", "", "", now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})
}

func TestApplyVerification(t *testing.T) {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	later := now.Add(time.Hour)
	yes := true
	approved := KYCApproved

	u, err := NewUser(id.NewUserID(), "a@b.test", "", "", now)
	require.NoError(t, err)

	changed := u.ApplyVerification(VerificationUpdate{EmailVerified: &yes, KYCStatus: &approved}, later)
	assert.True(t, changed)
	assert.True(t, u.EmailVerified)
	assert.False(t, u.PhoneVerified, "untouched flags stay as they were")
	assert.True(t, u.KYCApproved())
	assert.Equal(t, later, u.UpdatedAt)

	changed = u.ApplyVerification(VerificationUpdate{EmailVerified: &yes}, later.Add(time.Hour))
	assert.False(t, changed, "re-applying the same flag is a no-op")
	assert.Equal(t, later, u.UpdatedAt)
}

func TestParseKYCStatus(t *testing.T) {
	s, err := ParseKYCStatus(" In_Review ")
	require.NoError(t, err)
	assert.Equal(t, KYCInReview, s)

	_, err = ParseKYCStatus("verified")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}
