package models

import (
	"time"

	docmodels "talaty/internal/documents/models"
	formmodels "talaty/internal/forms/models"
	usermodels "talaty/internal/users/models"
)

// Rubric weights. The score is additive and every component is capped.
const (
	RegistrationScore = 35

	PointsPerApprovedDocument = 8
	MaxDocumentScore          = 40

	PointsPerSubmittedForm = 10
	MaxFormScore           = 40

	PointsEmailVerified  = 5
	PointsPhoneVerified  = 5
	PointsKYCApproved    = 10
	MaxVerificationScore = 20

	MaxTotalScore = 100
)

// Inputs is the snapshot a score is computed from.
type Inputs struct {
	User      *usermodels.User
	Documents []*docmodels.Document
	Forms     []*formmodels.Form
	// Now resolves document expiry; approved documents past expiry do not count.
	Now time.Time
}

type Components struct {
	Registration int
	Documents    int
	Forms        int
	Verification int
}

// CalculationDetails is the audit snapshot stored with each score. Field
// order is fixed so identical inputs marshal to identical bytes.
type CalculationDetails struct {
	Registration int       `json:"registration"`
	Documents    int       `json:"documents"`
	Forms        int       `json:"forms"`
	Verification int       `json:"verification"`
	Breakdown    Breakdown `json:"breakdown"`
}

type Breakdown struct {
	ApprovedDocuments int  `json:"approved_documents"`
	CompletedForms    int  `json:"completed_forms"`
	EmailVerified     bool `json:"email_verified"`
	PhoneVerified     bool `json:"phone_verified"`
	KYCApproved       bool `json:"kyc_approved"`
}

type Result struct {
	Components Components
	Total      int
	Risk       RiskLevel
	Details    CalculationDetails
}

// Compute evaluates the rubric. It is pure and independent of input order.
func Compute(in Inputs) Result {
	approved := 0
	for _, d := range in.Documents {
		if d.EffectiveStatus(in.Now) == docmodels.StatusApproved {
			approved++
		}
	}
	submitted := 0
	for _, f := range in.Forms {
		if f.IsSubmitted() {
			submitted++
		}
	}

	var emailVerified, phoneVerified, kycApproved bool
	if in.User != nil {
		emailVerified = in.User.EmailVerified
		phoneVerified = in.User.PhoneVerified
		kycApproved = in.User.KYCApproved()
	}

	c := Components{
		Registration: RegistrationScore,
		Documents:    min(MaxDocumentScore, PointsPerApprovedDocument*approved),
		Forms:        min(MaxFormScore, PointsPerSubmittedForm*submitted),
		Verification: min(MaxVerificationScore,
			points(emailVerified, PointsEmailVerified)+
				points(phoneVerified, PointsPhoneVerified)+
				points(kycApproved, PointsKYCApproved)),
	}
	total := min(MaxTotalScore, c.Registration+c.Documents+c.Forms+c.Verification)

	return Result{
		Components: c,
		Total:      total,
		Risk:       RiskFor(total),
		Details: CalculationDetails{
			Registration: c.Registration,
			Documents:    c.Documents,
			Forms:        c.Forms,
			Verification: c.Verification,
			Breakdown: Breakdown{
				ApprovedDocuments: approved,
				CompletedForms:    submitted,
				EmailVerified:     emailVerified,
				PhoneVerified:     phoneVerified,
				KYCApproved:       kycApproved,
			},
		},
	}
}

func points(ok bool, weight int) int {
	if ok {
		return weight
	}
	return 0
}
