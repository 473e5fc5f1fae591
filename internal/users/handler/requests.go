package handler

import (
	"strings"

	"talaty/internal/users/models"
	dErrors "talaty/pkg/domain-errors"
)

// RegisterRequest is the body of POST /admin/users.
type RegisterRequest struct {
	Email        string `json:"email" validate:"required,email,max=255"`
	FirstName    string `json:"first_name" validate:"max=100"`
	LastName     string `json:"last_name" validate:"max=100"`
	Phone        string `json:"phone" validate:"max=32"`
	BusinessName string `json:"business_name" validate:"max=255"`
	Role         string `json:"role" validate:"omitempty,oneof=user reviewer admin"`
}

func (r *RegisterRequest) Normalize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.Role = strings.ToLower(strings.TrimSpace(r.Role))
}

// VerificationRequest is the body of PUT /admin/users/{id}/verification.
// Omitted fields are left unchanged.
type VerificationRequest struct {
	EmailVerified *bool   `json:"email_verified"`
	PhoneVerified *bool   `json:"phone_verified"`
	KYCStatus     *string `json:"kyc_status"`

	parsed models.VerificationUpdate
}

func (r *VerificationRequest) Validate() error {
	r.parsed = models.VerificationUpdate{
		EmailVerified: r.EmailVerified,
		PhoneVerified: r.PhoneVerified,
	}
	if r.KYCStatus != nil {
		status, err := models.ParseKYCStatus(*r.KYCStatus)
		if err != nil {
			return err
		}
		r.parsed.KYCStatus = &status
	}
	if r.parsed.IsEmpty() {
		return dErrors.New(dErrors.CodeValidation, "at least one of email_verified, phone_verified, kyc_status is required")
	}
	return nil
}

func (r *VerificationRequest) Update() models.VerificationUpdate {
	return r.parsed
}
