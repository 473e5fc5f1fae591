package models

import (
	"fmt"
	"math"
	"strings"
	"time"

	id "talaty/pkg/domain"
	dErrors "talaty/pkg/domain-errors"
)

type FormType string

const (
	TypePersonalInfo   FormType = "personal_info"
	TypeBusinessInfo   FormType = "business_info"
	TypeFinancialInfo  FormType = "financial_info"
	TypeComplianceInfo FormType = "compliance_info"
)

// AllTypes lists every form type in display order.
var AllTypes = []FormType{TypePersonalInfo, TypeBusinessInfo, TypeFinancialInfo, TypeComplianceInfo}

// requiredFields drives completion. Keys match the client payload.
var requiredFields = map[FormType][]string{
	TypePersonalInfo:   {"firstName", "lastName", "dateOfBirth", "nationality", "address"},
	TypeBusinessInfo:   {"businessName", "businessType", "registrationNumber", "industry"},
	TypeFinancialInfo:  {"annualIncome", "employmentStatus", "bankName", "accountType"},
	TypeComplianceInfo: {"taxId", "riskTolerance", "investmentExperience", "sourceOfFunds"},
}

func (t FormType) IsValid() bool {
	_, ok := requiredFields[t]
	return ok
}

// RequiredFields returns a copy of the fields that count toward completion.
func (t FormType) RequiredFields() []string {
	return append([]string(nil), requiredFields[t]...)
}

func ParseFormType(raw string) (FormType, error) {
	t := FormType(strings.ToLower(strings.TrimSpace(raw)))
	if !t.IsValid() {
		return "", dErrors.New(dErrors.CodeValidation, "invalid form_type: "+raw)
	}
	return t, nil
}

type Status string

const (
	StatusDraft     Status = "draft"
	StatusSubmitted Status = "submitted"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
)

// Data is the free-form payload as decoded from JSON.
type Data map[string]any

// Form is one submission per (user, form type).
//
// Invariants:
//   - Status and CompletionPercentage are a projection of Data (see DeriveStatus)
//   - Status is submitted with SubmittedAt set iff completion is 100
//   - Version starts at 1 and grows by one per resubmission
type Form struct {
	ID                   id.FormID  `json:"id"`
	UserID               id.UserID  `json:"user_id"`
	Type                 FormType   `json:"form_type"`
	Data                 Data       `json:"form_data"`
	Status               Status     `json:"status"`
	CompletionPercentage int        `json:"completion_percentage"`
	Version              int        `json:"version"`
	SubmittedAt          *time.Time `json:"submitted_at"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// DeriveStatus projects completion and status from the payload. A field is
// present when it exists and its string form is non-empty after trimming.
func DeriveStatus(formType FormType, data Data) (int, Status) {
	required := requiredFields[formType]
	if len(required) == 0 {
		return 0, StatusDraft
	}
	present := 0
	for _, field := range required {
		if isPresent(data[field]) {
			present++
		}
	}
	completion := int(math.Round(100 * float64(present) / float64(len(required))))
	if completion == 100 {
		return completion, StatusSubmitted
	}
	return completion, StatusDraft
}

// isPresent reports whether the value's string form is non-blank. Lists
// render as their elements joined by commas, so [""] is blank but ["", ""]
// is not.
func isPresent(v any) bool {
	return strings.TrimSpace(stringForm(v)) != ""
}

func stringForm(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []any:
		parts := make([]string, len(val))
		for i, item := range val {
			parts[i] = stringForm(item)
		}
		return strings.Join(parts, ",")
	case map[string]any:
		return "[object]"
	default:
		return fmt.Sprint(val)
	}
}

func NewForm(formID id.FormID, owner id.UserID, formType FormType, data Data, now time.Time) (*Form, error) {
	if !formType.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "invalid form_type: "+string(formType))
	}
	f := &Form{
		ID:        formID,
		UserID:    owner,
		Type:      formType,
		Version:   1,
		CreatedAt: now,
	}
	f.apply(data, now)
	return f, nil
}

// ApplyResubmission replaces the payload, bumps the version and re-derives
// status. Prior status does not influence the result.
func (f *Form) ApplyResubmission(data Data, now time.Time) {
	f.Version++
	f.apply(data, now)
}

func (f *Form) apply(data Data, now time.Time) {
	if data == nil {
		data = Data{}
	}
	f.Data = data
	f.CompletionPercentage, f.Status = DeriveStatus(f.Type, data)
	if f.Status == StatusSubmitted {
		f.SubmittedAt = &now
	} else {
		f.SubmittedAt = nil
	}
	f.UpdatedAt = now
}

func (f *Form) IsSubmitted() bool {
	return f.Status == StatusSubmitted
}

func (f *Form) IsOwnedBy(userID id.UserID) bool {
	return f.UserID == userID
}

// StatusCounts tallies forms for the score breakdown.
type StatusCounts struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Draft     int `json:"draft"`
}

func CountByStatus(forms []*Form) StatusCounts {
	c := StatusCounts{Total: len(forms)}
	for _, f := range forms {
		switch f.Status {
		case StatusSubmitted:
			c.Completed++
		case StatusDraft:
			c.Draft++
		}
	}
	return c
}
