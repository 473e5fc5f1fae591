package models

import (
	"time"

	docmodels "talaty/internal/documents/models"
	formmodels "talaty/internal/forms/models"
	usermodels "talaty/internal/users/models"
)

// ScoreBreakdown explains a score component by component, with the raw
// counts behind each and the recommendations derived from them.
type ScoreBreakdown struct {
	TotalScore      int                 `json:"total_score"`
	RiskLevel       RiskLevel           `json:"risk_level"`
	Components      BreakdownComponents `json:"components"`
	Recommendations []Recommendation    `json:"recommendations"`
}

type BreakdownComponents struct {
	Registration Component[struct{}]               `json:"registration"`
	Documents    Component[docmodels.StatusCounts] `json:"documents"`
	Forms        Component[FormDetails]            `json:"forms"`
	Verification Component[VerificationDetails]    `json:"verification"`
}

// Component is one rubric line. Registration carries no details.
type Component[D any] struct {
	Score       int    `json:"score"`
	MaxScore    int    `json:"max_score"`
	Description string `json:"description"`
	Details     *D     `json:"details,omitempty"`
}

type FormDetails struct {
	formmodels.StatusCounts
	CompletionRates []CompletionRate `json:"completion_rates"`
}

type CompletionRate struct {
	Type       formmodels.FormType `json:"type"`
	Completion int                 `json:"completion"`
}

type VerificationDetails struct {
	EmailVerified bool                 `json:"email_verified"`
	PhoneVerified bool                 `json:"phone_verified"`
	KYCStatus     usermodels.KYCStatus `json:"kyc_status"`
}

// BuildBreakdown assembles the explanation for a persisted score from the
// same snapshot the score was computed from.
func BuildBreakdown(score *Score, documents []*docmodels.Document, forms []*formmodels.Form, user *usermodels.User, now time.Time) *ScoreBreakdown {
	docCounts := docmodels.CountByStatus(documents, now)

	formDetails := FormDetails{
		StatusCounts:    formmodels.CountByStatus(forms),
		CompletionRates: make([]CompletionRate, 0, len(forms)),
	}
	for _, f := range forms {
		formDetails.CompletionRates = append(formDetails.CompletionRates, CompletionRate{
			Type:       f.Type,
			Completion: f.CompletionPercentage,
		})
	}

	verification := VerificationDetails{}
	if user != nil {
		verification = VerificationDetails{
			EmailVerified: user.EmailVerified,
			PhoneVerified: user.PhoneVerified,
			KYCStatus:     user.KYCStatus,
		}
	}

	return &ScoreBreakdown{
		TotalScore: score.TotalScore,
		RiskLevel:  score.RiskLevel,
		Components: BreakdownComponents{
			Registration: Component[struct{}]{
				Score:       score.RegistrationScore,
				MaxScore:    RegistrationScore,
				Description: "Base registration score",
			},
			Documents: Component[docmodels.StatusCounts]{
				Score:       score.DocumentScore,
				MaxScore:    MaxDocumentScore,
				Description: "Document verification score",
				Details:     &docCounts,
			},
			Forms: Component[FormDetails]{
				Score:       score.FormScore,
				MaxScore:    MaxFormScore,
				Description: "Form completion score",
				Details:     &formDetails,
			},
			Verification: Component[VerificationDetails]{
				Score:       score.VerificationScore,
				MaxScore:    MaxVerificationScore,
				Description: "Account verification score",
				Details:     &verification,
			},
		},
		Recommendations: GenerateRecommendations(score, documents, forms, user, now),
	}
}

// Analytics is the admin-wide summary of onboarding state.
type Analytics struct {
	Users     map[usermodels.AccountStatus]int `json:"users"`
	Documents map[docmodels.Status]int         `json:"documents"`
	Forms     map[formmodels.Status]int        `json:"forms"`
	Scores    ScoreStats                       `json:"scores"`
}

// ScoreStats aggregates persisted scores.
type ScoreStats struct {
	Count            int               `json:"count"`
	Average          float64           `json:"average"`
	RiskDistribution map[RiskLevel]int `json:"risk_distribution"`
}
