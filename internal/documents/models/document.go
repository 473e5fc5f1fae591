package models

import (
	"path/filepath"
	"strings"
	"time"

	id "talaty/pkg/domain"
	dErrors "talaty/pkg/domain-errors"
	platformstrings "talaty/pkg/platform/strings"
)

type DocumentType string

const (
	TypeIDCard            DocumentType = "id_card"
	TypePassport          DocumentType = "passport"
	TypeDrivingLicense    DocumentType = "driving_license"
	TypeBusinessLicense   DocumentType = "business_license"
	TypeTaxCertificate    DocumentType = "tax_certificate"
	TypeBankStatement     DocumentType = "bank_statement"
	TypeUtilityBill       DocumentType = "utility_bill"
	TypeInsuranceDocument DocumentType = "insurance_document"
	TypeLegalDocument     DocumentType = "legal_document"
	TypeOther             DocumentType = "other"
)

func (t DocumentType) IsValid() bool {
	switch t {
	case TypeIDCard, TypePassport, TypeDrivingLicense, TypeBusinessLicense, TypeTaxCertificate,
		TypeBankStatement, TypeUtilityBill, TypeInsuranceDocument, TypeLegalDocument, TypeOther:
		return true
	}
	return false
}

func ParseDocumentType(raw string) (DocumentType, error) {
	t := DocumentType(strings.ToLower(strings.TrimSpace(raw)))
	if !t.IsValid() {
		return "", dErrors.New(dErrors.CodeValidation, "invalid document_type: "+raw)
	}
	return t, nil
}

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusExpired  Status = "expired"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusExpired:
		return true
	}
	return false
}

// IsReviewOutcome reports whether s is a status a reviewer may assign.
func (s Status) IsReviewOutcome() bool {
	return s == StatusApproved || s == StatusRejected
}

func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	if !s.IsValid() {
		return "", dErrors.New(dErrors.CodeValidation, "invalid document status: "+raw)
	}
	return s, nil
}

// Document is one uploaded file claim. The file bytes live with the storage
// collaborator; this record carries metadata and review state.
//
// Invariants:
//   - Created pending
//   - Only a reviewer moves pending to approved or rejected, exactly once
//   - Expired is derived from ExpiryDate and reachable from pending or approved
type Document struct {
	ID                id.DocumentID `json:"id"`
	UserID            id.UserID     `json:"user_id"`
	Type              DocumentType  `json:"document_type"`
	Name              string        `json:"document_name"`
	FileName          string        `json:"file_name"`
	FilePath          string        `json:"file_path,omitempty"`
	FileSize          int64         `json:"file_size"`
	FileType          string        `json:"file_type"`
	Status            Status        `json:"status"`
	DocumentNumber    *string       `json:"document_number,omitempty"`
	IssueDate         *time.Time    `json:"issue_date,omitempty"`
	ExpiryDate        *time.Time    `json:"expiry_date,omitempty"`
	IssuingAuthority  *string       `json:"issuing_authority,omitempty"`
	VerifiedBy        *id.UserID    `json:"verified_by,omitempty"`
	VerifiedAt        *time.Time    `json:"verified_at,omitempty"`
	VerificationNotes *string       `json:"verification_notes,omitempty"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
}

// Upload is the metadata accepted when a file is registered.
type Upload struct {
	Type             DocumentType
	Name             string
	FileName         string
	FilePath         string
	FileSize         int64
	FileType         string
	DocumentNumber   *string
	IssueDate        *time.Time
	ExpiryDate       *time.Time
	IssuingAuthority *string
}

// NewDocument validates upload metadata against the allowed file extensions
// and returns a pending document.
func NewDocument(docID id.DocumentID, owner id.UserID, up Upload, allowedExt []string, now time.Time) (*Document, error) {
	if !up.Type.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "invalid document_type: "+string(up.Type))
	}
	name := strings.TrimSpace(up.Name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "document_name is required")
	}
	if len(name) > 255 {
		return nil, dErrors.New(dErrors.CodeValidation, "document_name must be 255 characters or less")
	}
	if !HasAllowedExtension(up.FileName, allowedExt) {
		return nil, dErrors.New(dErrors.CodeValidation, "file type not allowed: "+up.FileName)
	}
	if up.FileSize < 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "file_size must not be negative")
	}
	if up.IssueDate != nil && up.ExpiryDate != nil && up.ExpiryDate.Before(*up.IssueDate) {
		return nil, dErrors.New(dErrors.CodeValidation, "expiry_date must not precede issue_date")
	}
	return &Document{
		ID:               docID,
		UserID:           owner,
		Type:             up.Type,
		Name:             name,
		FileName:         up.FileName,
		FilePath:         up.FilePath,
		FileSize:         up.FileSize,
		FileType:         up.FileType,
		Status:           StatusPending,
		DocumentNumber:   up.DocumentNumber,
		IssueDate:        up.IssueDate,
		ExpiryDate:       up.ExpiryDate,
		IssuingAuthority: up.IssuingAuthority,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

// HasAllowedExtension matches the file extension case-insensitively.
func HasAllowedExtension(fileName string, allowed []string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(fileName)), ".")
	if ext == "" {
		return false
	}
	return platformstrings.Contains(allowed, ext)
}

func (d *Document) IsOwnedBy(userID id.UserID) bool {
	return d.UserID == userID
}

// IsPastExpiry reports whether the expiry date has passed at now.
func (d *Document) IsPastExpiry(now time.Time) bool {
	return d.ExpiryDate != nil && d.ExpiryDate.Before(now)
}

// EffectiveStatus projects the stored status at now: a pending or approved
// document whose expiry date has passed reads as expired.
func (d *Document) EffectiveStatus(now time.Time) Status {
	if (d.Status == StatusPending || d.Status == StatusApproved) && d.IsPastExpiry(now) {
		return StatusExpired
	}
	return d.Status
}

// CanVerify checks the review transition. Only a pending, unexpired document
// may be reviewed, and only into approved or rejected.
func (d *Document) CanVerify(target Status, now time.Time) error {
	if !target.IsReviewOutcome() {
		return dErrors.New(dErrors.CodeValidation, "status must be approved or rejected")
	}
	current := d.EffectiveStatus(now)
	if current != StatusPending {
		return dErrors.New(dErrors.CodeInvalidTransition, "document is already "+string(current))
	}
	return nil
}

// ApplyVerification records the review outcome. Call CanVerify first.
func (d *Document) ApplyVerification(target Status, reviewer id.UserID, notes string, now time.Time) {
	d.Status = target
	d.VerifiedBy = &reviewer
	d.VerifiedAt = &now
	if notes = strings.TrimSpace(notes); notes != "" {
		d.VerificationNotes = &notes
	} else {
		d.VerificationNotes = nil
	}
	d.UpdatedAt = now
}

// CanExpire reports whether the sweep should persist the expired state.
func (d *Document) CanExpire(now time.Time) bool {
	return d.Status != StatusExpired && d.EffectiveStatus(now) == StatusExpired
}

func (d *Document) ApplyExpiry(now time.Time) {
	d.Status = StatusExpired
	d.UpdatedAt = now
}

// StatusCounts tallies documents by effective status.
type StatusCounts struct {
	Uploaded int `json:"uploaded"`
	Approved int `json:"approved"`
	Pending  int `json:"pending"`
	Rejected int `json:"rejected"`
	Expired  int `json:"expired"`
}

func CountByStatus(docs []*Document, now time.Time) StatusCounts {
	c := StatusCounts{Uploaded: len(docs)}
	for _, d := range docs {
		switch d.EffectiveStatus(now) {
		case StatusApproved:
			c.Approved++
		case StatusPending:
			c.Pending++
		case StatusRejected:
			c.Rejected++
		case StatusExpired:
			c.Expired++
		}
	}
	return c
}
