package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "talaty/pkg/domain-errors"
)

// Typed identifiers keep user, document, form, and score references from being
// swapped at compile time. All are UUIDs on the wire and in storage.
type (
	UserID     uuid.UUID
	DocumentID uuid.UUID
	FormID     uuid.UUID
	ScoreID    uuid.UUID
)

// maxIDLength bounds input before it reaches uuid.Parse.
const maxIDLength = 64

func parseUUID(kind, s string) (uuid.UUID, error) {
	if strings.TrimSpace(s) == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" is required")
	}
	if len(s) > maxIDLength {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind)
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind)
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind)
	}
	return parsed, nil
}

// ParseUserID parses a user id from external input.
func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID("user_id", s)
	return UserID(u), err
}

// ParseDocumentID parses a document id from external input.
func ParseDocumentID(s string) (DocumentID, error) {
	u, err := parseUUID("document_id", s)
	return DocumentID(u), err
}

// ParseFormID parses a form id from external input.
func ParseFormID(s string) (FormID, error) {
	u, err := parseUUID("form_id", s)
	return FormID(u), err
}

// ParseScoreID parses a score id from external input.
func ParseScoreID(s string) (ScoreID, error) {
	u, err := parseUUID("score_id", s)
	return ScoreID(u), err
}

func NewUserID() UserID         { return UserID(uuid.New()) }
func NewDocumentID() DocumentID { return DocumentID(uuid.New()) }
func NewFormID() FormID         { return FormID(uuid.New()) }
func NewScoreID() ScoreID       { return ScoreID(uuid.New()) }

func (id UserID) String() string     { return uuid.UUID(id).String() }
func (id DocumentID) String() string { return uuid.UUID(id).String() }
func (id FormID) String() string     { return uuid.UUID(id).String() }
func (id ScoreID) String() string    { return uuid.UUID(id).String() }

func (id UserID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id DocumentID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id FormID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id ScoreID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

// MarshalText lets typed IDs serialize as plain UUID strings in JSON.
func (id UserID) MarshalText() ([]byte, error)     { return uuid.UUID(id).MarshalText() }
func (id DocumentID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id FormID) MarshalText() ([]byte, error)     { return uuid.UUID(id).MarshalText() }
func (id ScoreID) MarshalText() ([]byte, error)    { return uuid.UUID(id).MarshalText() }

func (id *UserID) UnmarshalText(b []byte) error     { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *DocumentID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *FormID) UnmarshalText(b []byte) error     { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *ScoreID) UnmarshalText(b []byte) error    { return (*uuid.UUID)(id).UnmarshalText(b) }
