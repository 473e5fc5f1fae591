package models

import (
	"fmt"
	"time"

	id "talaty/pkg/domain"
	dErrors "talaty/pkg/domain-errors"
)

type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// RiskFor maps a total score to its tier.
func RiskFor(total int) RiskLevel {
	switch {
	case total >= 80:
		return RiskLow
	case total >= 60:
		return RiskMedium
	default:
		return RiskHigh
	}
}

// Score is the persisted projection of a user's rubric. Only the scoring
// service writes it.
type Score struct {
	ID                 id.ScoreID         `json:"id"`
	UserID             id.UserID          `json:"user_id"`
	TotalScore         int                `json:"total_score"`
	RegistrationScore  int                `json:"registration_score"`
	DocumentScore      int                `json:"document_score"`
	FormScore          int                `json:"form_score"`
	VerificationScore  int                `json:"verification_score"`
	RiskLevel          RiskLevel          `json:"risk_level"`
	LastCalculated     time.Time          `json:"last_calculated"`
	CalculationDetails CalculationDetails `json:"calculation_details"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
}

// NewDefaultScore is the row created at registration: base credit only.
func NewDefaultScore(scoreID id.ScoreID, userID id.UserID, now time.Time) *Score {
	s := &Score{ID: scoreID, UserID: userID, CreatedAt: now}
	s.Apply(Result{
		Components: Components{Registration: RegistrationScore},
		Total:      RegistrationScore,
		Risk:       RiskFor(RegistrationScore),
		Details: CalculationDetails{
			Registration: RegistrationScore,
		},
	}, now)
	return s
}

// Apply overwrites every computed field at once. Identity and creation
// time are preserved.
func (s *Score) Apply(r Result, now time.Time) {
	s.RegistrationScore = r.Components.Registration
	s.DocumentScore = r.Components.Documents
	s.FormScore = r.Components.Forms
	s.VerificationScore = r.Components.Verification
	s.TotalScore = r.Total
	s.RiskLevel = r.Risk
	s.CalculationDetails = r.Details
	s.LastCalculated = now
	s.UpdatedAt = now
}

// Validate asserts the stored invariants. A failure means a rubric bug,
// never bad user input.
func (s *Score) Validate() error {
	sum := s.RegistrationScore + s.DocumentScore + s.FormScore + s.VerificationScore
	switch {
	case s.TotalScore < 0 || s.TotalScore > MaxTotalScore:
		return dErrors.New(dErrors.CodeInvariantViolation, fmt.Sprintf("total score %d out of range", s.TotalScore))
	case s.TotalScore != min(MaxTotalScore, sum):
		return dErrors.New(dErrors.CodeInvariantViolation, fmt.Sprintf("total score %d does not match components %d", s.TotalScore, sum))
	case s.DocumentScore > MaxDocumentScore || s.FormScore > MaxFormScore || s.VerificationScore > MaxVerificationScore:
		return dErrors.New(dErrors.CodeInvariantViolation, "component score above cap")
	case s.RiskLevel != RiskFor(s.TotalScore):
		return dErrors.New(dErrors.CodeInvariantViolation, "risk level does not match total")
	}
	return nil
}
