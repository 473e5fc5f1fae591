package models

import (
	"fmt"
	"time"

	docmodels "talaty/internal/documents/models"
	formmodels "talaty/internal/forms/models"
	usermodels "talaty/internal/users/models"
)

type RecommendationType string

const (
	RecommendDocuments    RecommendationType = "documents"
	RecommendForms        RecommendationType = "forms"
	RecommendVerification RecommendationType = "verification"
	RecommendKYC          RecommendationType = "kyc"
)

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// TargetApprovedDocuments is how many approved documents max out the document component.
const TargetApprovedDocuments = MaxDocumentScore / PointsPerApprovedDocument

type Recommendation struct {
	Type            RecommendationType `json:"type"`
	Priority        Priority           `json:"priority"`
	Message         string             `json:"message"`
	Action          string             `json:"action"`
	PotentialPoints int                `json:"potential_points"`
}

// GenerateRecommendations lists next steps in a fixed order: documents,
// forms, email, phone, kyc. Rules whose condition is false are omitted.
func GenerateRecommendations(score *Score, documents []*docmodels.Document, forms []*formmodels.Form, user *usermodels.User, now time.Time) []Recommendation {
	recs := make([]Recommendation, 0, 5)

	if score.DocumentScore < MaxDocumentScore {
		approved := 0
		for _, d := range documents {
			if d.EffectiveStatus(now) == docmodels.StatusApproved {
				approved++
			}
		}
		if missing := max(0, TargetApprovedDocuments-approved); missing > 0 {
			recs = append(recs, Recommendation{
				Type:            RecommendDocuments,
				Priority:        PriorityHigh,
				Message:         fmt.Sprintf("Upload %d more document(s) to improve your score", missing),
				Action:          "upload_documents",
				PotentialPoints: missing * PointsPerApprovedDocument,
			})
		}
	}

	if score.FormScore < MaxFormScore {
		incomplete := 0
		for _, f := range forms {
			if !f.IsSubmitted() {
				incomplete++
			}
		}
		if incomplete > 0 {
			recs = append(recs, Recommendation{
				Type:            RecommendForms,
				Priority:        PriorityHigh,
				Message:         fmt.Sprintf("Complete %d remaining form(s)", incomplete),
				Action:          "complete_forms",
				PotentialPoints: incomplete * PointsPerSubmittedForm,
			})
		}
	}

	if user == nil {
		return recs
	}
	if !user.EmailVerified {
		recs = append(recs, Recommendation{
			Type:            RecommendVerification,
			Priority:        PriorityMedium,
			Message:         "Verify your email address",
			Action:          "verify_email",
			PotentialPoints: PointsEmailVerified,
		})
	}
	if !user.PhoneVerified {
		recs = append(recs, Recommendation{
			Type:            RecommendVerification,
			Priority:        PriorityMedium,
			Message:         "Verify your phone number",
			Action:          "verify_phone",
			PotentialPoints: PointsPhoneVerified,
		})
	}
	if user.KYCStatus == usermodels.KYCPending {
		recs = append(recs, Recommendation{
			Type:            RecommendKYC,
			Priority:        PriorityLow,
			Message:         "Your KYC verification is in progress",
			Action:          "wait_kyc",
			PotentialPoints: PointsKYCApproved,
		})
	}
	return recs
}
