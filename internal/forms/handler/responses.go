package handler

import (
	"time"

	"talaty/internal/forms/models"
)

type FormResponse struct {
	ID                   string      `json:"id"`
	FormType             string      `json:"form_type"`
	FormData             models.Data `json:"form_data"`
	Status               string      `json:"status"`
	CompletionPercentage int         `json:"completion_percentage"`
	Version              int         `json:"version"`
	SubmittedAt          *time.Time  `json:"submitted_at,omitempty"`
	CreatedAt            time.Time   `json:"created_at"`
	UpdatedAt            time.Time   `json:"updated_at"`
}

// ListResponse carries the forms plus the progress summary shown on the
// dashboard.
type ListResponse struct {
	Forms   []*FormResponse     `json:"forms"`
	Summary models.StatusCounts `json:"summary"`
}

func FromForm(f *models.Form) *FormResponse {
	return &FormResponse{
		ID:                   f.ID.String(),
		FormType:             string(f.Type),
		FormData:             f.Data,
		Status:               string(f.Status),
		CompletionPercentage: f.CompletionPercentage,
		Version:              f.Version,
		SubmittedAt:          f.SubmittedAt,
		CreatedAt:            f.CreatedAt,
		UpdatedAt:            f.UpdatedAt,
	}
}

func FromForms(forms []*models.Form) *ListResponse {
	out := make([]*FormResponse, 0, len(forms))
	for _, f := range forms {
		out = append(out, FromForm(f))
	}
	return &ListResponse{Forms: out, Summary: models.CountByStatus(forms)}
}
