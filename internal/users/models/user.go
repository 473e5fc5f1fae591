package models

import (
	"strings"
	"time"

	id "talaty/pkg/domain"
	dErrors "talaty/pkg/domain-errors"
	emailutil "talaty/pkg/email"
)

// KYCStatus is the identity verification state asserted by the KYC reviewer.
type KYCStatus string

const (
	KYCPending  KYCStatus = "pending"
	KYCInReview KYCStatus = "in_review"
	KYCApproved KYCStatus = "approved"
	KYCRejected KYCStatus = "rejected"
)

func (s KYCStatus) IsValid() bool {
	switch s {
	case KYCPending, KYCInReview, KYCApproved, KYCRejected:
		return true
	}
	return false
}

func ParseKYCStatus(raw string) (KYCStatus, error) {
	s := KYCStatus(strings.ToLower(strings.TrimSpace(raw)))
	if !s.IsValid() {
		return "", dErrors.New(dErrors.CodeValidation, "invalid kyc_status: "+raw)
	}
	return s, nil
}

type Role string

const (
	RoleUser     Role = "user"
	RoleReviewer Role = "reviewer"
	RoleAdmin    Role = "admin"
)

type AccountStatus string

const (
	AccountActive    AccountStatus = "active"
	AccountSuspended AccountStatus = "suspended"
	AccountPending   AccountStatus = "pending"
	AccountRejected  AccountStatus = "rejected"
)

// User is the slice of the account the scoring core reads. Credentials and
// sessions live with the external authentication service.
//
// Invariants:
//   - Email is non-empty and stored lowercase
//   - KYCStatus is one of the four KYC states
type User struct {
	ID            id.UserID     `json:"id"`
	Email         string        `json:"email"`
	FirstName     string        `json:"first_name"`
	LastName      string        `json:"last_name"`
	Phone         string        `json:"phone,omitempty"`
	BusinessName  string        `json:"business_name,omitempty"`
	EmailVerified bool          `json:"email_verified"`
	PhoneVerified bool          `json:"phone_verified"`
	KYCStatus     KYCStatus     `json:"kyc_status"`
	Role          Role          `json:"role"`
	Status        AccountStatus `json:"status"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

func NewUser(userID id.UserID, email, firstName, lastName string, now time.Time) (*User, error) {
	email = emailutil.Normalize(email)
	if email == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "user email cannot be empty")
	}
	if len(email) > 255 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "user email must be 255 characters or less")
	}
	return &User{
		ID:        userID,
		Email:     email,
		FirstName: firstName,
		LastName:  lastName,
		KYCStatus: KYCPending,
		Role:      RoleUser,
		Status:    AccountActive,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// KYCApproved reports whether KYC counts toward the verification score.
func (u *User) KYCApproved() bool {
	return u.KYCStatus == KYCApproved
}

// VerificationUpdate carries the flags an external verifier (OTP, KYC desk)
// asserts. Nil fields are left untouched.
type VerificationUpdate struct {
	EmailVerified *bool
	PhoneVerified *bool
	KYCStatus     *KYCStatus
}

func (u VerificationUpdate) IsEmpty() bool {
	return u.EmailVerified == nil && u.PhoneVerified == nil && u.KYCStatus == nil
}

// CanApplyVerification rejects unknown KYC states.
func (u *User) CanApplyVerification(update VerificationUpdate) error {
	if update.KYCStatus != nil && !update.KYCStatus.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "invalid kyc_status")
	}
	return nil
}

// ApplyVerification sets the provided flags and reports whether anything changed.
func (u *User) ApplyVerification(update VerificationUpdate, now time.Time) bool {
	changed := false
	if update.EmailVerified != nil && *update.EmailVerified != u.EmailVerified {
		u.EmailVerified = *update.EmailVerified
		changed = true
	}
	if update.PhoneVerified != nil && *update.PhoneVerified != u.PhoneVerified {
		u.PhoneVerified = *update.PhoneVerified
		changed = true
	}
	if update.KYCStatus != nil && *update.KYCStatus != u.KYCStatus {
		u.KYCStatus = *update.KYCStatus
		changed = true
	}
	if changed {
		u.UpdatedAt = now
	}
	return changed
}
