package audit

import (
	"context"
	"time"

	id "talaty/pkg/domain"
)

// Action names a workflow step recorded in the audit trail.
type Action string

const (
	ActionUserRegistered      Action = "user_registered"
	ActionVerificationUpdated Action = "verification_updated"
	ActionDocumentUploaded    Action = "document_uploaded"
	ActionDocumentVerified    Action = "document_verified"
	ActionDocumentDeleted     Action = "document_deleted"
	ActionDocumentExpired     Action = "document_expired"
	ActionFormSubmitted       Action = "form_submitted"
	ActionFormDeleted         Action = "form_deleted"
	ActionScoreRecalculated   Action = "score_recalculated"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp time.Time
	// UserID is the account the action concerns.
	UserID id.UserID
	// ActorID is who performed it when different from UserID (reviewers, admins, jobs).
	ActorID   string
	Action    Action
	Subject   string
	Decision  string
	Reason    string
	RequestID string
	IP        string
	Browser   string
	OS        string
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByUser(ctx context.Context, userID id.UserID) ([]Event, error)
}
