package handler

import (
	"strings"

	"talaty/internal/forms/models"
)

// SubmitRequest is the body of POST /forms.
type SubmitRequest struct {
	FormType string      `json:"form_type" validate:"required"`
	FormData models.Data `json:"form_data"`

	parsedType models.FormType
}

func (r *SubmitRequest) Normalize() {
	r.FormType = strings.ToLower(strings.TrimSpace(r.FormType))
}

func (r *SubmitRequest) Validate() error {
	formType, err := models.ParseFormType(r.FormType)
	if err != nil {
		return err
	}
	r.parsedType = formType
	return nil
}

func (r *SubmitRequest) ParsedType() models.FormType {
	return r.parsedType
}
