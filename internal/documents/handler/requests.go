package handler

import (
	"strings"
	"time"

	"talaty/internal/documents/models"
	dErrors "talaty/pkg/domain-errors"
)

const dateLayout = "2006-01-02"

// UploadRequest is the body of POST /documents. The file itself is stored by
// the upload gateway; this call registers its metadata.
type UploadRequest struct {
	DocumentType     string  `json:"document_type" validate:"required"`
	DocumentName     string  `json:"document_name" validate:"required,max=255"`
	FileName         string  `json:"file_name" validate:"required,max=255"`
	FilePath         string  `json:"file_path" validate:"max=1024"`
	FileSize         int64   `json:"file_size" validate:"min=0"`
	FileType         string  `json:"file_type" validate:"max=100"`
	DocumentNumber   *string `json:"document_number,omitempty" validate:"omitempty,max=100"`
	IssueDate        string  `json:"issue_date,omitempty"`
	ExpiryDate       string  `json:"expiry_date,omitempty"`
	IssuingAuthority *string `json:"issuing_authority,omitempty" validate:"omitempty,max=255"`

	parsed models.Upload
}

func (r *UploadRequest) Normalize() {
	r.DocumentType = strings.ToLower(strings.TrimSpace(r.DocumentType))
	r.DocumentName = strings.TrimSpace(r.DocumentName)
	r.FileName = strings.TrimSpace(r.FileName)
	r.IssueDate = strings.TrimSpace(r.IssueDate)
	r.ExpiryDate = strings.TrimSpace(r.ExpiryDate)
}

// Validate parses the type and dates into the domain upload.
func (r *UploadRequest) Validate() error {
	docType, err := models.ParseDocumentType(r.DocumentType)
	if err != nil {
		return err
	}
	issue, err := parseDate("issue_date", r.IssueDate)
	if err != nil {
		return err
	}
	expiry, err := parseDate("expiry_date", r.ExpiryDate)
	if err != nil {
		return err
	}
	r.parsed = models.Upload{
		Type:             docType,
		Name:             r.DocumentName,
		FileName:         r.FileName,
		FilePath:         r.FilePath,
		FileSize:         r.FileSize,
		FileType:         r.FileType,
		DocumentNumber:   r.DocumentNumber,
		IssueDate:        issue,
		ExpiryDate:       expiry,
		IssuingAuthority: r.IssuingAuthority,
	}
	return nil
}

func (r *UploadRequest) Upload() models.Upload {
	return r.parsed
}

// parseDate accepts a calendar date or an RFC 3339 timestamp.
func parseDate(field, raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{dateLayout, time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, dErrors.New(dErrors.CodeValidation, field+" must be a date (YYYY-MM-DD)")
}

// VerifyRequest is the body of PUT /admin/documents/{id}/verify.
type VerifyRequest struct {
	Status string `json:"status" validate:"required,oneof=approved rejected"`
	Notes  string `json:"notes" validate:"max=2000"`
}

func (r *VerifyRequest) Normalize() {
	r.Status = strings.ToLower(strings.TrimSpace(r.Status))
	r.Notes = strings.TrimSpace(r.Notes)
}

func (r *VerifyRequest) Target() models.Status {
	return models.Status(r.Status)
}

// parseStatusFilter reads a comma separated ?status= query value.
func parseStatusFilter(raw string) ([]models.Status, error) {
	var statuses []models.Status
	for part := range strings.SplitSeq(raw, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		s, err := models.ParseStatus(part)
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, s)
	}
	return statuses, nil
}
