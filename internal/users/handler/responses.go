package handler

import (
	"time"

	"talaty/pkg/platform/audit"
)

type AuditEventResponse struct {
	Timestamp time.Time `json:"timestamp"`
	Action    string    `json:"action"`
	ActorID   string    `json:"actor_id,omitempty"`
	Subject   string    `json:"subject,omitempty"`
	Decision  string    `json:"decision,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
	IP        string    `json:"ip_address,omitempty"`
	Browser   string    `json:"browser,omitempty"`
	OS        string    `json:"os,omitempty"`
}

type AuditTrailResponse struct {
	Events []AuditEventResponse `json:"events"`
	Count  int                  `json:"count"`
}

func FromEvents(events []audit.Event) AuditTrailResponse {
	out := make([]AuditEventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, AuditEventResponse{
			Timestamp: e.Timestamp,
			Action:    string(e.Action),
			ActorID:   e.ActorID,
			Subject:   e.Subject,
			Decision:  e.Decision,
			Reason:    e.Reason,
			RequestID: e.RequestID,
			IP:        e.IP,
			Browser:   e.Browser,
			OS:        e.OS,
		})
	}
	return AuditTrailResponse{Events: out, Count: len(out)}
}
