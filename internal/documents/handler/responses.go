package handler

import (
	"time"

	"talaty/internal/documents/models"
)

// DocumentResponse reports the effective status, so a document past its
// expiry date reads as expired before the sweep persists it.
type DocumentResponse struct {
	ID                string     `json:"id"`
	UserID            string     `json:"user_id"`
	DocumentType      string     `json:"document_type"`
	DocumentName      string     `json:"document_name"`
	FileName          string     `json:"file_name"`
	FileSize          int64      `json:"file_size"`
	FileType          string     `json:"file_type,omitempty"`
	Status            string     `json:"status"`
	DocumentNumber    *string    `json:"document_number,omitempty"`
	IssueDate         *time.Time `json:"issue_date,omitempty"`
	ExpiryDate        *time.Time `json:"expiry_date,omitempty"`
	IssuingAuthority  *string    `json:"issuing_authority,omitempty"`
	VerifiedBy        string     `json:"verified_by,omitempty"`
	VerifiedAt        *time.Time `json:"verified_at,omitempty"`
	VerificationNotes *string    `json:"verification_notes,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

type ListResponse struct {
	Documents []*DocumentResponse `json:"documents"`
	Count     int                 `json:"count"`
}

func FromDocument(doc *models.Document, now time.Time) *DocumentResponse {
	resp := &DocumentResponse{
		ID:                doc.ID.String(),
		UserID:            doc.UserID.String(),
		DocumentType:      string(doc.Type),
		DocumentName:      doc.Name,
		FileName:          doc.FileName,
		FileSize:          doc.FileSize,
		FileType:          doc.FileType,
		Status:            string(doc.EffectiveStatus(now)),
		DocumentNumber:    doc.DocumentNumber,
		IssueDate:         doc.IssueDate,
		ExpiryDate:        doc.ExpiryDate,
		IssuingAuthority:  doc.IssuingAuthority,
		VerifiedAt:        doc.VerifiedAt,
		VerificationNotes: doc.VerificationNotes,
		CreatedAt:         doc.CreatedAt,
		UpdatedAt:         doc.UpdatedAt,
	}
	if doc.VerifiedBy != nil {
		resp.VerifiedBy = doc.VerifiedBy.String()
	}
	return resp
}

func FromDocuments(docs []*models.Document, now time.Time) *ListResponse {
	out := make([]*DocumentResponse, 0, len(docs))
	for _, d := range docs {
		out = append(out, FromDocument(d, now))
	}
	return &ListResponse{Documents: out, Count: len(out)}
}
